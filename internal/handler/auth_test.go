package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sporthub/venue-booking/internal/apperr"
	"github.com/sporthub/venue-booking/internal/auth"
	"github.com/sporthub/venue-booking/internal/config"
	"github.com/sporthub/venue-booking/internal/model"
	"github.com/sporthub/venue-booking/internal/repository"
	"github.com/sporthub/venue-booking/internal/token"
)

type memUsers struct {
	nextID uint64
	byID   map[uint64]model.User
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	m.nextID++
	u.ID = m.nextID
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type memSessions struct {
	nextID uint64
	rows   map[uint64]model.Session
}

func (m *memSessions) Create(_ context.Context, s *model.Session) error {
	m.nextID++
	s.ID = m.nextID
	m.rows[s.ID] = *s
	return nil
}

func (m *memSessions) ActiveByUser(_ context.Context, userID uint64) ([]model.Session, error) {
	var out []model.Session
	for _, s := range m.rows {
		if s.UserID == userID && s.ExpiresAt.After(time.Now().UTC()) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSessions) DeleteByID(_ context.Context, id uint64) (int64, error) {
	if _, ok := m.rows[id]; !ok {
		return 0, nil
	}
	delete(m.rows, id)
	return 1, nil
}

func (m *memSessions) DeleteByUser(_ context.Context, userID uint64) error {
	for id, s := range m.rows {
		if s.UserID == userID {
			delete(m.rows, id)
		}
	}
	return nil
}

func (m *memSessions) DeleteByUserAgent(_ context.Context, userID uint64, ua string) error {
	for id, s := range m.rows {
		if s.UserID == userID && s.UserAgent == ua {
			delete(m.rows, id)
		}
	}
	return nil
}

const testRefreshTTL = 24 * time.Hour

func newTestAuthHandler(t *testing.T, env string) (*AuthHandler, *memSessions) {
	t.Helper()
	codec, err := token.New("handler-test-secret")
	require.NoError(t, err)
	users := &memUsers{byID: map[uint64]model.User{}}
	sessions := &memSessions{rows: map[uint64]model.Session{}}
	svc, err := auth.NewService(users, sessions, codec, 15*time.Minute, testRefreshTTL, bcrypt.MinCost)
	require.NoError(t, err)

	cfg := config.Config{
		Env:               env,
		RefreshTTL:        testRefreshTTL,
		RefreshCookieName: "refresh_jwt",
		// Unroutable broker: audit publishing must never block a response.
		AmqpURL: "amqp://127.0.0.1:1/",
	}
	return NewAuthHandler(cfg, svc), sessions
}

func postJSON(body string, cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "refresh_jwt" {
			return ck
		}
	}
	t.Fatal("refresh_jwt cookie not set")
	return nil
}

func registerAlice(t *testing.T, h *AuthHandler) *http.Cookie {
	t.Helper()
	c, rec := postJSON(`{"email":"alice@example.com","password":"secret123","name":"Alice"}`)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	return refreshCookie(t, rec)
}

func TestRegisterSetsRefreshCookie(t *testing.T) {
	h, _ := newTestAuthHandler(t, "dev")

	ck := registerAlice(t, h)
	assert.NotEmpty(t, ck.Value)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	assert.Equal(t, int(testRefreshTTL/time.Second), ck.MaxAge)
	assert.False(t, ck.Secure)
}

func TestRefreshCookieSecureInProd(t *testing.T) {
	h, _ := newTestAuthHandler(t, "prod")

	ck := registerAlice(t, h)
	assert.True(t, ck.Secure)
}

func TestLoginSetsRefreshCookie(t *testing.T) {
	h, _ := newTestAuthHandler(t, "dev")
	registered := registerAlice(t, h)

	c, rec := postJSON(`{"email":"alice@example.com","password":"secret123"}`)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	ck := refreshCookie(t, rec)
	assert.NotEmpty(t, ck.Value)
	assert.NotEqual(t, registered.Value, ck.Value)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, int(testRefreshTTL/time.Second), ck.MaxAge)
}

func TestRefreshRotatesCookie(t *testing.T) {
	h, _ := newTestAuthHandler(t, "dev")
	old := registerAlice(t, h)

	c, rec := postJSON("", old)
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	rotated := refreshCookie(t, rec)
	assert.NotEmpty(t, rotated.Value)
	assert.NotEqual(t, old.Value, rotated.Value)
	assert.True(t, rotated.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, rotated.SameSite)

	// The consumed cookie is dead; only the rotated one refreshes.
	c, _ = postJSON("", old)
	assert.ErrorIs(t, h.Refresh(c), apperr.ErrTokenRevoked)

	c, _ = postJSON("", rotated)
	assert.NoError(t, h.Refresh(c))
}

func TestRefreshWithoutCookie(t *testing.T) {
	h, _ := newTestAuthHandler(t, "dev")

	c, _ := postJSON("")
	assert.ErrorIs(t, h.Refresh(c), apperr.ErrNoToken)
}

func TestLogoutClearsCookie(t *testing.T) {
	h, sessions := newTestAuthHandler(t, "dev")
	ck := registerAlice(t, h)

	c, rec := postJSON("", ck)
	require.NoError(t, h.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	cleared := refreshCookie(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
	assert.Empty(t, sessions.rows)

	// Logging out again, or with no cookie at all, still succeeds and
	// still clears.
	c, rec = postJSON("")
	require.NoError(t, h.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)
	cleared = refreshCookie(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}
