package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
)

const (
	sessionContextKey = "session"
	sessionAudience   = "Masomo Portal"
)

// Claims are the session claims, kept in a JWT signed with the secret key.
type Claims struct {
	jwt.StandardClaims
	Name     string    `json:"name,omitempty"`
	Email    string    `json:"email,omitempty"`
	Role     user.Role `json:"role"`
	SchoolID string    `json:"school_id,omitempty"`
}

func (s *Server) sessionConfig() middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(s.deps.Conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    sessionContextKey,
		Claims:        new(Claims),
		TokenLookup:   "cookie:" + s.deps.Conf.Server.SessionCookie,
	}
}

func newClaims(conf *core.Config, usr user.User, now time.Time) *Claims {
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			Audience:  sessionAudience,
			ExpiresAt: now.Add(conf.Server.SessionExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:     usr.Name,
		Email:    usr.Email,
		Role:     usr.Role,
		SchoolID: usr.SchoolID,
	}
}

// generateToken signs claims with the secret key.
func generateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// sessionCookie holds token. Remember keeps it past the end of the browser session.
func sessionCookie(conf *core.Config, token string, expires time.Time, remember bool) *http.Cookie {
	c := &http.Cookie{
		Name:     conf.Server.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !conf.Debug,
	}
	if remember {
		c.Expires = expires
	}
	return c
}

func expiredSessionCookie(conf *core.Config) *http.Cookie {
	return &http.Cookie{Name: conf.Server.SessionCookie, Path: "/", MaxAge: -1, HttpOnly: true}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(sessionContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}
