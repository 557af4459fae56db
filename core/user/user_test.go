package user_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
	inmemdb "github.com/trezcool/masomo-portal/storage/database/inmem"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    user.Role
		wantErr error
	}{
		{in: "admin", want: user.RoleAdmin},
		{in: " Teacher ", want: user.RoleTeacher},
		{in: "PARENT", want: user.RoleParent},
		{in: "student", wantErr: user.ErrInvalidRole},
		{in: "", wantErr: user.ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := user.ParseRole(tt.in)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.True(t, user.RoleParent.RequiresSchool())
	assert.False(t, user.RoleAdmin.RequiresSchool())
	assert.Equal(t, "Teacher", user.RoleTeacher.Name())
}

func TestLoginRequest_Validate(t *testing.T) {
	tests := []struct {
		name       string
		req        user.LoginRequest
		wantFields map[string]string
	}{
		{
			name: "valid admin without school",
			req:  user.LoginRequest{Email: " Admin@Test.cd ", Password: "x", AccountType: "admin"},
		},
		{
			name: "valid parent",
			req:  user.LoginRequest{Email: "p@test.cd", Password: "x", SchoolID: "12345", AccountType: "Parent"},
		},
		{
			name: "all missing",
			req:  user.LoginRequest{},
			wantFields: map[string]string{
				"email":        "this field is required",
				"password":     "this field is required",
				"account_type": "this field is required",
			},
		},
		{
			name: "bad email, school and type",
			req:  user.LoginRequest{Email: "lol", Password: "x", SchoolID: "12a45", AccountType: "student"},
			wantFields: map[string]string{
				"email":        "email must be a valid email address",
				"school_id":    "Invalid school ID format. Please enter 5 digits.",
				"account_type": "invalid account type",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantFields, core.TranslateErrors(err))
		})
	}
}

func TestNewUser_Validate(t *testing.T) {
	svc := user.NewService(inmemdb.NewUserRepository(inmemdb.Open()), nil)
	_, err := svc.Create(user.NewUser{Name: "Taken", Email: "taken@test.cd", Role: user.RoleAdmin, Password: "Str0ng!Pass"})
	require.NoError(t, err)

	valid := func() user.NewUser {
		return user.NewUser{
			Name:            "Jane Doe",
			Email:           "jane@test.cd",
			SchoolID:        "12345",
			Role:            user.RoleTeacher,
			Password:        "Kif!9zQw",
			PasswordConfirm: "Kif!9zQw",
		}
	}
	tests := []struct {
		name      string
		modify    func(nu *user.NewUser)
		wantField string
		wantMsg   string
	}{
		{name: "valid", modify: func(*user.NewUser) {}},
		{name: "school required for teachers", modify: func(nu *user.NewUser) { nu.SchoolID = "" }, wantField: "school_id", wantMsg: "this field is required"},
		{name: "too short", modify: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "Ab1!", "Ab1!" }, wantField: "password", wantMsg: "password must contain at least 8 characters"},
		{name: "whitespace", modify: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "Ab1! cdef", "Ab1! cdef" }, wantField: "password", wantMsg: "password must not contain whitespace"},
		{name: "all numeric", modify: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "12345678", "12345678" }, wantField: "password", wantMsg: "password cannot be entirely numeric"},
		{name: "not complex", modify: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "abcdefgh1", "abcdefgh1" }, wantField: "password", wantMsg: "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"},
		{name: "similar to name", modify: func(nu *user.NewUser) { nu.Password, nu.PasswordConfirm = "JaneDoe1!", "JaneDoe1!" }, wantField: "password", wantMsg: "password cannot be similar to user attributes"},
		{name: "email taken", modify: func(nu *user.NewUser) { nu.Email = "TAKEN@test.cd" }, wantField: "email", wantMsg: user.ErrEmailExists.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := valid()
			tt.modify(&nu)
			err := nu.Validate(svc)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			fields := core.TranslateErrors(err)
			if vErr, ok := err.(*core.ValidationError); ok {
				fields = vErr.FieldErrors()
			}
			assert.Equal(t, tt.wantMsg, fields[tt.wantField])
		})
	}
}

func TestService_Authenticate(t *testing.T) {
	now := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	user.NowFunc = func() time.Time { return now }
	defer func() { user.NowFunc = time.Now }()

	svc := user.NewService(inmemdb.NewUserRepository(inmemdb.Open()), nil)
	create := func(name, email, school string, role user.Role) user.User {
		usr, err := svc.Create(user.NewUser{Name: name, Email: email, SchoolID: school, Role: role, Password: "Str0ng!Pass"})
		require.NoError(t, err)
		return usr
	}
	admin := create("Admin", "admin@test.cd", "", user.RoleAdmin)
	create("Parent", "parent@test.cd", "54321", user.RoleParent)

	tests := []struct {
		name    string
		req     user.LoginRequest
		wantErr error
		wantID  string
	}{
		{name: "unknown email", req: user.LoginRequest{Email: "x@test.cd", Password: "Str0ng!Pass", AccountType: user.RoleAdmin}, wantErr: user.ErrInvalidCredentials},
		{name: "wrong password", req: user.LoginRequest{Email: "admin@test.cd", Password: "nope", AccountType: user.RoleAdmin}, wantErr: user.ErrInvalidCredentials},
		{name: "wrong account type", req: user.LoginRequest{Email: "admin@test.cd", Password: "Str0ng!Pass", AccountType: user.RoleTeacher}, wantErr: user.ErrInvalidCredentials},
		{name: "parent without school", req: user.LoginRequest{Email: "parent@test.cd", Password: "Str0ng!Pass", AccountType: user.RoleParent}, wantErr: user.ErrSchoolMismatch},
		{name: "parent with other school", req: user.LoginRequest{Email: "parent@test.cd", Password: "Str0ng!Pass", SchoolID: "11111", AccountType: user.RoleParent}, wantErr: user.ErrSchoolMismatch},
		{name: "admin", req: user.LoginRequest{Email: "admin@test.cd", Password: "Str0ng!Pass", AccountType: user.RoleAdmin}, wantID: admin.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svc.Authenticate(tt.req)
			assert.Equal(t, tt.wantErr, err)
			if tt.wantID != "" {
				assert.Equal(t, tt.wantID, usr.ID)
				assert.Equal(t, now, usr.LastLogin)
			}
		})
	}
}

func TestService_ResetPassword(t *testing.T) {
	svc := user.NewService(inmemdb.NewUserRepository(inmemdb.Open()), nil)
	_, err := svc.Create(user.NewUser{Name: "Admin", Email: "admin@test.cd", Role: user.RoleAdmin, Password: "Str0ng!Pass"})
	require.NoError(t, err)

	_, err = svc.ResetPassword("admin@test.cd", "")
	if assert.IsType(t, &core.ValidationError{}, err) {
		assert.Equal(t, map[string]string{"password": "password cannot be empty"}, err.(*core.ValidationError).FieldErrors())
	}

	_, err = svc.ResetPassword("nobody@test.cd", "x")
	assert.Equal(t, user.ErrNotFound, err)

	usr, err := svc.ResetPassword(" Admin@Test.cd ", "An0ther!Pass")
	require.NoError(t, err)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword("An0ther!Pass"))
}

func TestSuggestRole(t *testing.T) {
	tests := []struct {
		in     string
		want   user.Role
		wantOK bool
	}{
		{"techer", user.RoleTeacher, true},
		{"Parnet", user.RoleParent, true},
		{"admn", user.RoleAdmin, true},
		{"admin", user.RoleAdmin, true},
		{"student", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := user.SuggestRole(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRole(t *testing.T) {
	r, err := user.ResolveRole(" Parent ")
	require.NoError(t, err)
	assert.Equal(t, user.RoleParent, r)

	_, err = user.ResolveRole("techer")
	assert.EqualError(t, err, `unknown role "techer", did you mean "teacher"?`)
	assert.True(t, errors.Is(err, user.ErrInvalidRole))

	_, err = user.ResolveRole("student")
	assert.EqualError(t, err, `unknown role "student", want one of admin, teacher, parent`)
}
