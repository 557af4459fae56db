package user

import (
	"fmt"
	"time"

	"github.com/agnivade/levenshtein"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/masomo-portal/core"
)

// Role is the portal a User belongs to. The set is closed.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
)

var (
	AllRoles = []Role{RoleAdmin, RoleTeacher, RoleParent}

	roleNames = map[Role]string{
		RoleAdmin:   "Admin",
		RoleTeacher: "Teacher",
		RoleParent:  "Parent",
	}
)

// ParseRole returns the Role matching s (case-insensitive), or ErrInvalidRole.
func ParseRole(s string) (Role, error) {
	r := Role(core.CleanString(s, true /* lower */))
	if !r.IsValid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// SuggestRole returns the role closest to a mistyped s, if one is at most two edits away.
func SuggestRole(s string) (Role, bool) {
	s = core.CleanString(s, true /* lower */)
	best, bestDist := Role(""), 3
	for _, r := range AllRoles {
		if d := levenshtein.ComputeDistance(s, string(r)); d < bestDist {
			best, bestDist = r, d
		}
	}
	return best, best != ""
}

// RoleError is an unknown role name. Suggestion is the closest role, if any.
type RoleError struct {
	Input      string
	Suggestion Role
}

func (e *RoleError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown role %q, did you mean %q?", e.Input, e.Suggestion)
	}
	return fmt.Sprintf("unknown role %q, want one of admin, teacher, parent", e.Input)
}

func (e *RoleError) Is(target error) bool { return target == ErrInvalidRole }

// ResolveRole is ParseRole for user input: unknown names give a *RoleError suggesting the closest role.
func ResolveRole(s string) (Role, error) {
	if r, err := ParseRole(s); err == nil {
		return r, nil
	}
	sugg, _ := SuggestRole(s)
	return "", &RoleError{Input: s, Suggestion: sugg}
}

func (r Role) IsValid() bool {
	_, ok := roleNames[r]
	return ok
}

// Name is the human-readable role name.
func (r Role) Name() string { return roleNames[r] }

func (r Role) String() string { return string(r) }

// RequiresSchool reports whether users of this role must log in with their school ID.
func (r Role) RequiresSchool() bool { return r == RoleTeacher || r == RoleParent }

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	SchoolID     string    `json:"school_id,omitempty"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	SchoolID        string `json:"school_id" validate:"omitempty,schoolid"`
	Role            Role   `json:"role" validate:"required,role"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.SchoolID = core.CleanString(nu.SchoolID)
	nu.Role = Role(core.CleanString(string(nu.Role), true /* lower */))

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(nu.Email)
}

// LoginRequest is the login form, as posted to /auth/login.
type LoginRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	SchoolID    string `json:"school_id" validate:"omitempty,schoolid"`
	AccountType Role   `json:"account_type" validate:"required,role"`
	Remember    bool   `json:"remember"`
}

func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	lr.SchoolID = core.CleanString(lr.SchoolID)
	lr.AccountType = Role(core.CleanString(string(lr.AccountType), true /* lower */))
	return core.Validate.Struct(lr)
}
