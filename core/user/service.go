package user

import (
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSchoolMismatch     = errors.New("invalid school ID for this account")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrEmptyPassword      = errors.New("password cannot be empty")

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateUser(usr User) (User, error)
		GetUserByID(id string) (User, error)
		GetUserByEmail(email string) (User, error)
		// UpdateUser overwrites the stored user with the same ID. The email cannot change.
		UpdateUser(usr User) (User, error)
		// SetLastLogin stores t as the user's last login and returns the updated User.
		SetLastLogin(id string, t time.Time) (User, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Service{repo: repo, logger: logger}
}

func (svc *Service) checkUniqueness(email string) error {
	_, err := svc.repo.GetUserByEmail(email)
	switch {
	case err == nil:
		return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return pkgerrors.Wrap(err, "checking email uniqueness")
	}
}

// Create stores a validated NewUser.
func (svc *Service) Create(nu NewUser) (User, error) {
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		SchoolID:  nu.SchoolID,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: NowFunc().UTC(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, pkgerrors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(usr)
}

// ResetPassword sets the password of the user with this email and reactivates the account.
func (svc *Service) ResetPassword(email, pwd string) (User, error) {
	if pwd == "" {
		return User{}, core.NewValidationError(ErrEmptyPassword, core.FieldError{Field: "password", Error: ErrEmptyPassword.Error()})
	}
	usr, err := svc.GetByEmail(email)
	if err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, pkgerrors.Wrap(err, "hashing password")
	}
	usr.IsActive = true
	if usr, err = svc.repo.UpdateUser(usr); err != nil {
		return User{}, err
	}
	svc.logger.Info("password reset", usr)
	return usr, nil
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

// Authenticate checks a validated LoginRequest and records the login.
// Unknown emails, wrong passwords and a role other than the requested account type all give ErrInvalidCredentials.
// Teachers and parents must also provide their own school ID.
func (svc *Service) Authenticate(lr LoginRequest) (User, error) {
	usr, err := svc.repo.GetUserByEmail(lr.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			svc.logger.Warn("failed login: user not found", map[string]interface{}{"email": lr.Email})
			return User{}, ErrInvalidCredentials
		}
		return User{}, pkgerrors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(lr.Password); err != nil {
		svc.logger.Warn("failed login: incorrect password", usr)
		return User{}, ErrInvalidCredentials
	}
	if usr.Role != lr.AccountType {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}
	if usr.Role.RequiresSchool() && (lr.SchoolID == "" || lr.SchoolID != usr.SchoolID) {
		svc.logger.Warn("failed login: school ID mismatch", usr)
		return User{}, ErrSchoolMismatch
	}

	usr, err = svc.repo.SetLastLogin(usr.ID, NowFunc().UTC())
	if err != nil {
		return User{}, pkgerrors.Wrap(err, "setting lastLogin")
	}
	svc.logger.Info("user logged in", usr)
	return usr, nil
}
