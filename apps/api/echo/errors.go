package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
)

const msgValidation = "Please correct the errors below"

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue")
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "Permission denied")
	errInvalidCredentials = echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	errSchoolMismatch     = echo.NewHTTPError(http.StatusUnauthorized, "Invalid school ID for this account")
	errAccountDeactivated = echo.NewHTTPError(http.StatusForbidden, "Your account has been deactivated")

	// loginErrors are the user.Service errors shown as is on the login page.
	loginErrors = map[error]*echo.HTTPError{
		user.ErrInvalidCredentials: errInvalidCredentials,
		user.ErrSchoolMismatch:     errSchoolMismatch,
		user.ErrAccountDeactivated: errAccountDeactivated,
	}
)

// envelope is the response shape of every endpoint.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	User    interface{} `json:"user,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that answers with a failed envelope.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		env := envelope{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			// missing, invalid or expired session
			if origErr == middleware.ErrJWTMissing || (origErr.Code == http.StatusUnauthorized && origErr.Internal != nil) {
				origErr = errUnauthorized
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			env.Message = http.StatusText(code)
			if m, ok := origErr.Message.(string); ok {
				env.Message = m
			}
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			env.Message = msgValidation
			env.Data = core.TranslateErrors(origErr)
		case *core.ValidationError:
			code = http.StatusBadRequest
			env.Message = core.FirstNonEmpty(origErr.Error(), msgValidation)
			if origErr.Fields != nil {
				env.Data = origErr.FieldErrors()
			}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			env.Message = msg

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.Subject
				usr.Name = claims.Name
				usr.Email = claims.Email
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			env.Message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, env)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
