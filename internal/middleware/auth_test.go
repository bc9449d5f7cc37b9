package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sporthub/venue-booking/internal/apperr"
	"github.com/sporthub/venue-booking/internal/model"
	"github.com/sporthub/venue-booking/internal/repository"
	"github.com/sporthub/venue-booking/internal/token"
)

type stubUsers struct {
	byID map[uint64]model.User
}

func (s *stubUsers) Create(context.Context, *model.User) error { return nil }

func (s *stubUsers) GetByEmail(context.Context, string) (model.User, error) {
	return model.User{}, repository.ErrNotFound
}

func (s *stubUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func newTestGate(t *testing.T) (*Auth, *token.Codec, *stubUsers) {
	t.Helper()
	codec, err := token.New("middleware-test-secret")
	require.NoError(t, err)
	users := &stubUsers{byID: map[uint64]model.User{
		1: {ID: 1, Email: "alice@example.com", Role: model.RoleCustomer, IsActive: true},
		2: {ID: 2, Email: "boss@example.com", Role: model.RoleAdmin, IsActive: true},
		3: {ID: 3, Email: "gone@example.com", Role: model.RoleCustomer, IsActive: false},
	}}
	return NewAuth(codec, users, "jwt"), codec, users
}

func newTestContext(opts ...func(*http.Request)) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, opt := range opts {
		opt(req)
	}
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func withBearer(raw string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+raw) }
}

func withCookie(name, raw string) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: name, Value: raw}) }
}

// next records whether the wrapped handler ran.
func next(called *bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		*called = true
		return nil
	}
}

func TestRequiredNoToken(t *testing.T) {
	gate, _, _ := newTestGate(t)

	var called bool
	err := gate.Required(next(&called))(newTestContext())
	assert.ErrorIs(t, err, apperr.ErrNoToken)
	assert.False(t, called)
}

func TestRequiredBadSignature(t *testing.T) {
	gate, _, _ := newTestGate(t)
	other, err := token.New("not-the-same-secret")
	require.NoError(t, err)
	raw, _, err := other.Issue(1, token.KindAccess, time.Minute)
	require.NoError(t, err)

	var called bool
	err = gate.Required(next(&called))(newTestContext(withBearer(raw)))
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
	assert.False(t, called)
}

func TestRequiredRejectsRefreshToken(t *testing.T) {
	gate, codec, _ := newTestGate(t)
	raw, _, err := codec.Issue(1, token.KindRefresh, time.Minute)
	require.NoError(t, err)

	var called bool
	err = gate.Required(next(&called))(newTestContext(withBearer(raw)))
	assert.ErrorIs(t, err, apperr.ErrWrongTokenType)
	assert.False(t, called)
}

func TestRequiredExpiredToken(t *testing.T) {
	gate, codec, _ := newTestGate(t)
	raw, _, err := codec.Issue(1, token.KindAccess, -time.Minute)
	require.NoError(t, err)

	var called bool
	err = gate.Required(next(&called))(newTestContext(withBearer(raw)))
	assert.ErrorIs(t, err, apperr.ErrTokenExpired)
	assert.False(t, called)
}

func TestRequiredDeletedUser(t *testing.T) {
	gate, codec, _ := newTestGate(t)
	raw, _, err := codec.Issue(99, token.KindAccess, time.Minute)
	require.NoError(t, err)

	var called bool
	err = gate.Required(next(&called))(newTestContext(withBearer(raw)))
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
	assert.False(t, called)
}

func TestRequiredInactiveUser(t *testing.T) {
	gate, codec, _ := newTestGate(t)
	raw, _, err := codec.Issue(3, token.KindAccess, time.Minute)
	require.NoError(t, err)

	var called bool
	err = gate.Required(next(&called))(newTestContext(withBearer(raw)))
	assert.ErrorIs(t, err, apperr.ErrAccountInactive)
	assert.False(t, called)
}

func TestRequiredAttachesIdentity(t *testing.T) {
	gate, codec, _ := newTestGate(t)
	raw, _, err := codec.Issue(1, token.KindAccess, time.Minute)
	require.NoError(t, err)

	c := newTestContext(withBearer(raw))
	handler := gate.Required(func(c echo.Context) error {
		id, ok := CurrentIdentity(c)
		require.True(t, ok)
		assert.Equal(t, uint64(1), id.ID)
		assert.Equal(t, "alice@example.com", id.Email)
		assert.Equal(t, model.RoleCustomer, id.Role)
		return nil
	})
	assert.NoError(t, handler(c))
}

func TestRequiredFallsBackToCookie(t *testing.T) {
	gate, codec, _ := newTestGate(t)
	raw, _, err := codec.Issue(1, token.KindAccess, time.Minute)
	require.NoError(t, err)

	var called bool
	err = gate.Required(next(&called))(newTestContext(withCookie("jwt", raw)))
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestOptionalWithoutToken(t *testing.T) {
	gate, _, _ := newTestGate(t)

	c := newTestContext()
	handler := gate.Optional(func(c echo.Context) error {
		_, ok := CurrentIdentity(c)
		assert.False(t, ok)
		return nil
	})
	assert.NoError(t, handler(c))
}

func TestOptionalSwallowsBadToken(t *testing.T) {
	gate, _, _ := newTestGate(t)

	c := newTestContext(withBearer("garbage"))
	handler := gate.Optional(func(c echo.Context) error {
		_, ok := CurrentIdentity(c)
		assert.False(t, ok)
		return nil
	})
	assert.NoError(t, handler(c))
}

func TestOptionalAttachesIdentity(t *testing.T) {
	gate, codec, _ := newTestGate(t)
	raw, _, err := codec.Issue(2, token.KindAccess, time.Minute)
	require.NoError(t, err)

	c := newTestContext(withBearer(raw))
	handler := gate.Optional(func(c echo.Context) error {
		id, ok := CurrentIdentity(c)
		require.True(t, ok)
		assert.Equal(t, model.RoleAdmin, id.Role)
		return nil
	})
	assert.NoError(t, handler(c))
}

func TestRequireRole(t *testing.T) {
	var called bool
	gated := RequireRole(model.RoleAdmin)(next(&called))

	// No identity at all reads as unauthenticated, not forbidden.
	err := gated(newTestContext())
	assert.ErrorIs(t, err, apperr.ErrNoToken)

	c := newTestContext()
	c.Set(identityKey, Identity{ID: 1, Role: model.RoleCustomer})
	err = gated(c)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.False(t, called)

	c = newTestContext()
	c.Set(identityKey, Identity{ID: 2, Role: model.RoleAdmin})
	assert.NoError(t, gated(c))
	assert.True(t, called)
}
