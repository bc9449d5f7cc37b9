// Package middleware provides the request gates shared by all routes:
// token authentication, role enforcement, rate limiting and response
// caching.
package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sporthub/venue-booking/internal/apperr"
	"github.com/sporthub/venue-booking/internal/auth"
	"github.com/sporthub/venue-booking/internal/repository"
	"github.com/sporthub/venue-booking/internal/token"
)

// Identity is the minimal authenticated principal attached to a request.
type Identity struct {
	ID    uint64
	Email string
	Role  string
}

const identityKey = "auth.identity"

// CurrentIdentity returns the identity attached by RequireAuth or
// OptionalAuth, if any.
func CurrentIdentity(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}

// Auth holds the dependencies of the authentication gates.
type Auth struct {
	Codec      *token.Codec
	Users      auth.UserStore
	CookieName string
}

func NewAuth(codec *token.Codec, users auth.UserStore, cookieName string) *Auth {
	return &Auth{Codec: codec, Users: users, CookieName: cookieName}
}

// extract pulls the access token from the Authorization header, falling
// back to the configured cookie when the header carries none.
func (a *Auth) extract(c echo.Context) string {
	if t := token.ExtractFromHeader(c.Request().Header.Get("Authorization")); t != "" {
		return t
	}
	if ck, err := c.Cookie(a.CookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	return ""
}

// authenticate runs the shared extraction/verification/load routine and
// returns the resolved identity.
func (a *Auth) authenticate(c echo.Context) (Identity, error) {
	raw := a.extract(c)
	if raw == "" {
		return Identity{}, apperr.ErrNoToken
	}
	claims, err := a.Codec.Verify(raw)
	if err != nil {
		return Identity{}, err
	}
	if claims.Kind != token.KindAccess {
		// A refresh token is never a valid API credential.
		return Identity{}, apperr.ErrWrongTokenType
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	u, err := a.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Covers accounts deleted after the token was issued.
			return Identity{}, apperr.ErrUserNotFound
		}
		return Identity{}, err
	}
	if !u.IsActive {
		return Identity{}, apperr.ErrAccountInactive
	}
	return Identity{ID: u.ID, Email: u.Email, Role: u.Role}, nil
}

// Required rejects requests without a valid access token and attaches the
// caller's identity to the context for downstream handlers.
func (a *Auth) Required(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := a.authenticate(c)
		if err != nil {
			return err
		}
		c.Set(identityKey, id)
		return next(c)
	}
}

// Optional attaches an identity when a valid token is present but never
// fails the request; endpoints behind it vary behavior by identity.
func (a *Auth) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if id, err := a.authenticate(c); err == nil {
			c.Set(identityKey, id)
		}
		return next(c)
	}
}

// RequireRole allows only the listed roles through. It must run after
// Required: a request with no identity at all gets 401, a wrong role 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := CurrentIdentity(c)
			if !ok {
				return apperr.ErrNoToken
			}
			if !allowed[id.Role] {
				return apperr.ErrForbidden
			}
			return next(c)
		}
	}
}
