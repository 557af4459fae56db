package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/client"
	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/settings"
	"github.com/trezcool/masomo-portal/core/user"
	"github.com/trezcool/masomo-portal/portal"
)

// settingsKey stores the school settings as JSON.
const settingsKey = "api_settings"

type portalAPI struct {
	conf     *core.Config
	logger   core.Logger
	svc      *user.Service
	store    core.KeyValueStore
	fixtures Fixtures
}

func registerPortalAPI(app *echo.Echo, session echo.MiddlewareFunc, api portalAPI) {
	// un-authed endpoints
	app.POST(portal.LoginAPIPath, api.login)
	app.POST("/auth/logout", api.logout)
	app.GET(settings.Path, api.getSettings)

	// authed endpoints
	app.POST(settings.Path, api.saveSettings, session, roleMiddleware(user.RoleAdmin))
	for _, role := range user.AllRoles {
		layout, err := portal.LayoutFor(role)
		if err != nil {
			panic(err) // every role has a layout
		}
		app.GET(trimSlash(layout.SummaryPath), api.summary, session, roleMiddleware(role))
	}
}

func trimSlash(path string) string {
	if len(path) > 1 && path[len(path)-1] == '/' {
		return path[:len(path)-1]
	}
	return path
}

func (api *portalAPI) login(ctx echo.Context) error {
	var data user.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(data)
	if err != nil {
		if hErr, ok := loginErrors[errors.Cause(err)]; ok {
			return hErr
		}
		return errors.Wrap(err, "authenticating")
	}

	now := user.NowFunc()
	claims := newClaims(api.conf, usr, now)
	token, err := generateToken(api.conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	ctx.SetCookie(sessionCookie(api.conf, token, now.Add(api.conf.Server.SessionExpirationDelta), data.Remember))

	return ctx.JSON(http.StatusOK, envelope{
		Success: true,
		Message: "Login successful",
		User:    client.EnvelopeUser{Role: string(usr.Role), Name: usr.Name, Email: usr.Email},
	})
}

func (api *portalAPI) logout(ctx echo.Context) error {
	ctx.SetCookie(expiredSessionCookie(api.conf))
	return ctx.JSON(http.StatusOK, envelope{Success: true, Message: "Logged out"})
}

func (api *portalAPI) summary(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	return ctx.JSON(http.StatusOK, envelope{Success: true, Data: api.fixtures.summary(claims)})
}

func (api *portalAPI) getSettings(ctx echo.Context) error {
	s, err := api.readSettings()
	if err != nil {
		return errors.Wrap(err, "reading settings")
	}
	return ctx.JSON(http.StatusOK, envelope{Success: true, Data: s})
}

func (api *portalAPI) saveSettings(ctx echo.Context) error {
	s := settings.Defaults()
	if err := ctx.Bind(&s); err != nil {
		return errors.Wrap(err, "binding to Settings")
	}
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encoding settings")
	}
	if err = api.store.Set(settingsKey, string(data)); err != nil {
		return errors.Wrap(err, "storing settings")
	}
	api.logger.Info("settings saved", map[string]interface{}{"school": s.SchoolName, "theme": s.Theme})
	return ctx.JSON(http.StatusOK, envelope{Success: true, Message: "Settings saved successfully", Data: s})
}

// readSettings returns the stored settings, or the defaults until an admin saved some.
func (api *portalAPI) readSettings() (settings.Settings, error) {
	s := settings.Defaults()
	v, ok, err := api.store.Get(settingsKey)
	if err != nil || !ok {
		return s, err
	}
	if err = json.Unmarshal([]byte(v), &s); err != nil {
		return settings.Settings{}, errors.Wrap(err, "decoding stored settings")
	}
	return s, nil
}
