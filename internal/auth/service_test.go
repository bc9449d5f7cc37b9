package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sporthub/venue-booking/internal/apperr"
	"github.com/sporthub/venue-booking/internal/model"
	"github.com/sporthub/venue-booking/internal/repository"
	"github.com/sporthub/venue-booking/internal/token"
)

// fakeUsers is an in-memory UserStore.
type fakeUsers struct {
	nextID uint64
	byID   map[uint64]model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[uint64]model.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	f.nextID++
	u.ID = f.nextID
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

// fakeSessions is an in-memory SessionStore with the same rows-affected
// contract as the MySQL repository.
type fakeSessions struct {
	nextID uint64
	rows   map[uint64]model.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{rows: map[uint64]model.Session{}}
}

func (f *fakeSessions) Create(_ context.Context, s *model.Session) error {
	f.nextID++
	s.ID = f.nextID
	s.CreatedAt = time.Now().UTC()
	f.rows[s.ID] = *s
	return nil
}

func (f *fakeSessions) ActiveByUser(_ context.Context, userID uint64) ([]model.Session, error) {
	var out []model.Session
	for _, s := range f.rows {
		if s.UserID == userID && s.ExpiresAt.After(time.Now().UTC()) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessions) DeleteByID(_ context.Context, id uint64) (int64, error) {
	if _, ok := f.rows[id]; !ok {
		return 0, nil
	}
	delete(f.rows, id)
	return 1, nil
}

func (f *fakeSessions) DeleteByUser(_ context.Context, userID uint64) error {
	for id, s := range f.rows {
		if s.UserID == userID {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeSessions) DeleteByUserAgent(_ context.Context, userID uint64, ua string) error {
	for id, s := range f.rows {
		if s.UserID == userID && s.UserAgent == ua {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeSessions) countByUser(userID uint64) int {
	n := 0
	for _, s := range f.rows {
		if s.UserID == userID {
			n++
		}
	}
	return n
}

func newTestService(t *testing.T) (*Service, *fakeUsers, *fakeSessions) {
	t.Helper()
	codec, err := token.New("service-test-secret")
	require.NoError(t, err)
	users := newFakeUsers()
	sessions := newFakeSessions()
	svc, err := NewService(users, sessions, codec, 15*time.Minute, 24*time.Hour, bcrypt.MinCost)
	require.NoError(t, err)
	return svc, users, sessions
}

func register(t *testing.T, svc *Service, email string) Result {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: "secret123",
		FullName: "Test User",
	}, "test-agent")
	require.NoError(t, err)
	return res
}

func TestRegister(t *testing.T) {
	svc, _, sessions := newTestService(t)

	res := register(t, svc, "alice@example.com")
	assert.Equal(t, model.RoleCustomer, res.User.Role)
	assert.True(t, res.User.IsActive)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, 1, sessions.countByUser(res.User.ID))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	register(t, svc, "alice@example.com")
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Password: "secret123",
	}, "")
	assert.ErrorIs(t, err, apperr.ErrEmailExists)
}

func TestRegisterPasswordTooShort(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Password: "short",
	}, "")
	assert.ErrorIs(t, err, apperr.ErrPasswordTooShort)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "alice@example.com")

	_, err := svc.Login(context.Background(), "alice@example.com", "wrong-pass", LoginOptions{})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	// Same error as a wrong password: the response must not reveal
	// whether the account exists.
	_, err := svc.Login(context.Background(), "nobody@example.com", "secret123", LoginOptions{})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, users, _ := newTestService(t)
	res := register(t, svc, "alice@example.com")

	u := users.byID[res.User.ID]
	u.IsActive = false
	users.byID[res.User.ID] = u

	_, err := svc.Login(context.Background(), "alice@example.com", "secret123", LoginOptions{})
	assert.ErrorIs(t, err, apperr.ErrAccountInactive)
}

func TestLoginSingleDeviceEvictsAllSessions(t *testing.T) {
	svc, _, sessions := newTestService(t)
	res := register(t, svc, "alice@example.com")

	_, err := svc.Login(context.Background(), "alice@example.com", "secret123", LoginOptions{UserAgent: "phone"})
	require.NoError(t, err)
	require.Equal(t, 2, sessions.countByUser(res.User.ID))

	_, err = svc.Login(context.Background(), "alice@example.com", "secret123", LoginOptions{SingleDevice: true})
	require.NoError(t, err)
	assert.Equal(t, 1, sessions.countByUser(res.User.ID))
}

func TestLoginDedupsSameUserAgent(t *testing.T) {
	svc, _, sessions := newTestService(t)
	res := register(t, svc, "alice@example.com")

	// Two more logins from the same device replace each other; the
	// registration session from a different agent survives.
	_, err := svc.Login(context.Background(), "alice@example.com", "secret123", LoginOptions{UserAgent: "phone"})
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), "alice@example.com", "secret123", LoginOptions{UserAgent: "phone"})
	require.NoError(t, err)
	assert.Equal(t, 2, sessions.countByUser(res.User.ID))
}

func TestRefreshRotation(t *testing.T) {
	svc, _, sessions := newTestService(t)
	res := register(t, svc, "alice@example.com")

	rotated, err := svc.Refresh(context.Background(), res.RefreshToken, "")
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, rotated.RefreshToken)
	assert.Equal(t, 1, sessions.countByUser(res.User.ID))

	// The consumed token must not open a second session.
	_, err = svc.Refresh(context.Background(), res.RefreshToken, "")
	assert.ErrorIs(t, err, apperr.ErrTokenRevoked)

	// The rotated token still works.
	_, err = svc.Refresh(context.Background(), rotated.RefreshToken, "")
	assert.NoError(t, err)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	res := register(t, svc, "alice@example.com")

	_, err := svc.Refresh(context.Background(), res.AccessToken, "")
	assert.ErrorIs(t, err, apperr.ErrWrongTokenType)
}

func TestRefreshDeletedUser(t *testing.T) {
	svc, users, _ := newTestService(t)
	res := register(t, svc, "alice@example.com")

	delete(users.byID, res.User.ID)

	_, err := svc.Refresh(context.Background(), res.RefreshToken, "")
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestRefreshInactiveUser(t *testing.T) {
	svc, users, _ := newTestService(t)
	res := register(t, svc, "alice@example.com")

	u := users.byID[res.User.ID]
	u.IsActive = false
	users.byID[res.User.ID] = u

	_, err := svc.Refresh(context.Background(), res.RefreshToken, "")
	assert.ErrorIs(t, err, apperr.ErrAccountInactive)
}

func TestRefreshCarriesUserAgentForward(t *testing.T) {
	svc, _, sessions := newTestService(t)
	res := register(t, svc, "alice@example.com")

	_, err := svc.Refresh(context.Background(), res.RefreshToken, "")
	require.NoError(t, err)

	for _, s := range sessions.rows {
		assert.Equal(t, "test-agent", s.UserAgent)
	}
}

func TestLogoutByToken(t *testing.T) {
	svc, _, sessions := newTestService(t)
	res := register(t, svc, "alice@example.com")

	require.NoError(t, svc.Logout(context.Background(), res.User.ID, LogoutOptions{Token: res.RefreshToken}))
	assert.Equal(t, 0, sessions.countByUser(res.User.ID))

	// Logging out an already-revoked token is still success.
	assert.NoError(t, svc.Logout(context.Background(), res.User.ID, LogoutOptions{Token: res.RefreshToken}))
}

func TestLogoutByUserAgent(t *testing.T) {
	svc, _, sessions := newTestService(t)
	res := register(t, svc, "alice@example.com")
	_, err := svc.Login(context.Background(), "alice@example.com", "secret123", LoginOptions{UserAgent: "phone"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), res.User.ID, LogoutOptions{UserAgent: "phone"}))
	assert.Equal(t, 1, sessions.countByUser(res.User.ID))
}

func TestLogoutAll(t *testing.T) {
	svc, _, sessions := newTestService(t)
	res := register(t, svc, "alice@example.com")
	_, err := svc.Login(context.Background(), "alice@example.com", "secret123", LoginOptions{UserAgent: "phone"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), res.User.ID, LogoutOptions{}))
	assert.Equal(t, 0, sessions.countByUser(res.User.ID))
}

func TestVerifyRefreshToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	res := register(t, svc, "alice@example.com")

	claims, err := svc.VerifyRefreshToken(res.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	_, err = svc.VerifyRefreshToken(res.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrWrongTokenType)
}

func TestVerifyAccessToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	res := register(t, svc, "alice@example.com")

	id, ok := svc.VerifyAccessToken(res.AccessToken)
	assert.True(t, ok)
	assert.Equal(t, res.User.ID, id)

	_, ok = svc.VerifyAccessToken(res.RefreshToken)
	assert.False(t, ok)

	_, ok = svc.VerifyAccessToken("garbage")
	assert.False(t, ok)
}
