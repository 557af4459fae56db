package main

import (
	"testing"

	"github.com/trezcool/masomo-portal/core/user"
	inmemdb "github.com/trezcool/masomo-portal/storage/database/inmem"
)

var usrSvc *user.Service

func setup(t *testing.T) *commandLine {
	t.Helper()
	usrSvc = user.NewService(inmemdb.NewUserRepository(inmemdb.Open()), nil)
	return &commandLine{usrSvc: usrSvc}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

type passwords []string

func mockPasswords(pwds passwords) {
	i := 0
	readPasswordFunc = func(fd int) ([]byte, error) {
		if i >= len(pwds) {
			return nil, nil
		}
		i++
		return []byte(pwds[i-1]), nil
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"adduser", "-lol"}, wantErr: errHelp},
		{name: "missing role", args: []string{"adduser", "-name", "Jane", "-email", "jane@test.cd"}, wantErr: errHelp},
		{
			name:       "mistyped role",
			args:       []string{"adduser", "-name", "Jane", "-email", "jane@test.cd", "-role", "techer"},
			wantErrStr: `unknown role "techer", did you mean "teacher"?`,
		},
		{
			name:       "unknown role",
			args:       []string{"adduser", "-name", "Jane", "-email", "jane@test.cd", "-role", "student"},
			wantErrStr: `unknown role "student", want one of admin, teacher, parent`,
		},
		{name: "no password", args: []string{"adduser", "-name", "Jane", "-email", "jane@test.cd", "-role", "admin"}, wantErr: errHelp},
		{
			name:       "teacher without school",
			args:       []string{"adduser", "-name", "Jane", "-email", "jane@test.cd", "-role", "teacher"},
			extra:      passwords{"Kif!9zQw", "Kif!9zQw"},
			wantErrStr: "invalid user: map[school_id:this field is required]",
		},
		{
			name:  "teacher",
			args:  []string{"adduser", "-name", "Jane", "-email", "jane@test.cd", "-role", "teacher", "-school", "12345"},
			extra: passwords{"Kif!9zQw", "Kif!9zQw"},
		},
		{
			name:       "email taken",
			args:       []string{"adduser", "-name", "Jane", "-email", "JANE@test.cd", "-role", "admin"},
			extra:      passwords{"Kif!9zQw", "Kif!9zQw"},
			wantErrStr: user.ErrEmailExists.Error(),
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			pwds, _ := tt.extra.(passwords)
			mockPasswords(pwds)

			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
				}
			case err != nil:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}

	usr, err := usrSvc.GetByEmail("jane@test.cd")
	if err != nil {
		t.Fatalf("GetByEmail() failed, %v", err)
	}
	if usr.Role != user.RoleTeacher || usr.SchoolID != "12345" || !usr.IsActive {
		t.Errorf("unexpected user %+v", usr)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr, err := usrSvc.Create(user.NewUser{Name: "User", Email: "awe@test.cd", Role: user.RoleAdmin, Password: "Kif!9zQw"})
	if err != nil {
		t.Fatalf("Create() failed, %v", err)
	}

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, extra: passwords{"lol"}, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, extra: passwords{"lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			pwds, _ := tt.extra.(passwords)
			mockPasswords(pwds)

			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrSvc.GetByID(usr.ID)
				if err != nil {
					t.Fatalf("GetByID() failed, %v", err)
				}
				if refreshedUsr.CheckPassword("lmao") != nil {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
