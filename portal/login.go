package portal

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/client"
	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
)

const (
	LoginAPIPath = "/auth/login"

	msgLoginFailed   = "Login failed"
	msgLoginNoServer = "Something went wrong. Please try again."
)

var ErrNotLoggedIn = errors.New("not logged in")

// LoginError is a login the backend refused or never answered. Message is what the login form shows.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }
func (e *LoginError) Cause() error  { return e.Err }
func (e *LoginError) Unwrap() error { return e.Err }

type LoginResult struct {
	Role user.Role
	Name string
	// Redirect is the portal page of Role.
	Redirect string
}

// Login validates req and posts it. On success the user's role and name are stored for the pages to read.
// Validation failures are returned as is; backend and transport failures as *LoginError.
func Login(ctx context.Context, poster client.Poster, store core.KeyValueStore, req user.LoginRequest) (LoginResult, error) {
	if err := req.Validate(); err != nil {
		return LoginResult{}, err
	}

	env, err := poster.Post(ctx, LoginAPIPath, req)
	if err != nil {
		return LoginResult{}, &LoginError{Message: core.FirstNonEmpty(client.MessageOf(err), msgLoginNoServer), Err: err}
	}
	if !env.Success {
		return LoginResult{}, &LoginError{Message: core.FirstNonEmpty(env.Message, msgLoginFailed)}
	}
	if env.User == nil {
		return LoginResult{}, &LoginError{Message: msgLoginFailed, Err: client.ErrMalformed}
	}
	role, err := user.ParseRole(env.User.Role)
	if err != nil {
		return LoginResult{}, &LoginError{Message: msgLoginFailed, Err: err}
	}
	layout, err := LayoutFor(role)
	if err != nil {
		return LoginResult{}, err
	}

	if err = store.Set(core.KeyUserRole, role.String()); err != nil {
		return LoginResult{}, errors.Wrap(err, "storing user role")
	}
	if err = store.Set(core.KeyUserName, env.User.Name); err != nil {
		return LoginResult{}, errors.Wrap(err, "storing user name")
	}
	return LoginResult{Role: role, Name: env.User.Name, Redirect: layout.PortalPath}, nil
}

// CurrentRole returns the role stored by the last Login, or ErrNotLoggedIn.
func CurrentRole(store core.KeyValueStore) (user.Role, error) {
	v, ok, err := store.Get(core.KeyUserRole)
	if err != nil {
		return "", errors.Wrap(err, "reading user role")
	}
	if !ok || v == "" {
		return "", ErrNotLoggedIn
	}
	return user.ParseRole(v)
}

// Logout forgets the stored user and returns the page to go to.
func Logout(store core.KeyValueStore) (string, error) {
	for _, key := range []string{core.KeyUserRole, core.KeyUserName} {
		if err := store.Remove(key); err != nil {
			return "", errors.Wrapf(err, "removing %s", key)
		}
	}
	return LoginPath, nil
}
