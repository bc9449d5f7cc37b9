// Package auth implements the session core: credential verification,
// dual-token issuance, refresh-token rotation with revocation and logout.
// The service talks to the credential store through narrow interfaces so
// that handlers, tests and background jobs can share one policy
// implementation.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sporthub/venue-booking/internal/apperr"
	"github.com/sporthub/venue-booking/internal/model"
	"github.com/sporthub/venue-booking/internal/repository"
	"github.com/sporthub/venue-booking/internal/token"
)

// UserStore is the slice of the user repository the session core needs.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// SessionStore persists refresh-token session records. DeleteByID must be
// atomic at the row level and report the number of rows it removed.
type SessionStore interface {
	Create(ctx context.Context, s *model.Session) error
	ActiveByUser(ctx context.Context, userID uint64) ([]model.Session, error)
	DeleteByID(ctx context.Context, id uint64) (int64, error)
	DeleteByUser(ctx context.Context, userID uint64) error
	DeleteByUserAgent(ctx context.Context, userID uint64, userAgent string) error
}

// Service owns session lifecycle policy. All dependencies are injected at
// construction; there is no ambient state.
type Service struct {
	users      UserStore
	sessions   SessionStore
	codec      *token.Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
	// dummyHash is compared against the supplied password when the email
	// is unknown, so login cost does not reveal account existence.
	dummyHash []byte
}

// NewService wires the session core. A bcrypt error here means the cost
// is out of range, which is a startup misconfiguration.
func NewService(users UserStore, sessions SessionStore, codec *token.Codec,
	accessTTL, refreshTTL time.Duration, bcryptCost int) (*Service, error) {

	dummy, err := bcrypt.GenerateFromPassword([]byte("sporthub.dummy.credential"), bcryptCost)
	if err != nil {
		return nil, err
	}
	return &Service{
		users:      users,
		sessions:   sessions,
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
	}, nil
}

// RegisterInput carries the fields accepted at registration. Role is not
// part of it: new accounts are always customers.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

// LoginOptions selects the session eviction policy applied on login.
// SingleDevice and UserAgent-based dedup are mutually exclusive per call;
// when SingleDevice is set the user agent only tags the new session.
type LoginOptions struct {
	UserAgent    string
	SingleDevice bool
}

// LogoutOptions selects one of the three logout modes: by raw token, by
// user agent, or everything.
type LogoutOptions struct {
	Token     string
	UserAgent string
}

// Result is returned by every operation that issues a token pair. The
// raw refresh token exists only here and in the client's cookie.
type Result struct {
	User           model.User
	AccessToken    string
	AccessExpires  time.Time
	RefreshToken   string
	RefreshExpires time.Time
}

// Register creates the user with the least-privileged role and opens its
// first session. Duplicate emails fail with EMAIL_EXISTS.
func (s *Service) Register(ctx context.Context, in RegisterInput, userAgent string) (Result, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return Result{}, apperr.ErrValidation.WithMessage("email and password are required")
	}
	if len(in.Password) < 6 {
		return Result{}, apperr.ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return Result{}, err
	}
	u := model.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         model.RoleCustomer,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return Result{}, apperr.ErrEmailExists
		}
		return Result{}, err
	}
	return s.openSession(ctx, u, userAgent)
}

// Login verifies credentials and opens a session, applying the chosen
// eviction policy first. Unknown email and wrong password are
// indistinguishable to the caller, in timing as well as in message.
func (s *Service) Login(ctx context.Context, email, password string, opts LoginOptions) (Result, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Burn an equivalent-cost comparison before answering.
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return Result{}, apperr.ErrInvalidCredentials
		}
		return Result{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Result{}, apperr.ErrInvalidCredentials
	}
	if !u.IsActive {
		return Result{}, apperr.ErrAccountInactive
	}

	switch {
	case opts.SingleDevice:
		if err := s.sessions.DeleteByUser(ctx, u.ID); err != nil {
			return Result{}, err
		}
	case opts.UserAgent != "":
		if err := s.sessions.DeleteByUserAgent(ctx, u.ID, opts.UserAgent); err != nil {
			return Result{}, err
		}
	}
	return s.openSession(ctx, u, opts.UserAgent)
}

// Refresh exchanges a raw refresh token for a fresh pair, rotating the
// backing session record. Each refresh token is single-use: the matched
// row is deleted before the new pair is persisted, and losing a rotation
// race surfaces as TOKEN_REVOKED rather than a second valid pair.
func (s *Service) Refresh(ctx context.Context, raw, userAgent string) (Result, error) {
	claims, err := s.codec.Verify(raw)
	if err != nil {
		return Result{}, err
	}
	if claims.Kind != token.KindRefresh {
		return Result{}, apperr.ErrWrongTokenType
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Result{}, apperr.ErrTokenInvalid
		}
		return Result{}, err
	}
	if !u.IsActive {
		return Result{}, apperr.ErrAccountInactive
	}

	active, err := s.sessions.ActiveByUser(ctx, u.ID)
	if err != nil {
		return Result{}, err
	}
	var matched *model.Session
	for i := range active {
		if token.MatchRefresh(active[i].TokenHash, raw) {
			matched = &active[i]
			break
		}
	}
	if matched == nil {
		// The token is cryptographically valid but its session row is gone:
		// it has been revoked by logout, eviction or an earlier rotation.
		return Result{}, apperr.ErrTokenRevoked
	}

	n, err := s.sessions.DeleteByID(ctx, matched.ID)
	if err != nil {
		return Result{}, err
	}
	if n == 0 {
		// A concurrent refresh already consumed this session.
		return Result{}, apperr.ErrTokenRevoked
	}

	ua := matched.UserAgent
	if userAgent != "" {
		ua = userAgent
	}
	return s.openSession(ctx, u, ua)
}

// Logout revokes sessions in one of three mutually exclusive modes and is
// idempotent: revoking nothing is still success.
func (s *Service) Logout(ctx context.Context, userID uint64, opts LogoutOptions) error {
	if opts.Token != "" {
		active, err := s.sessions.ActiveByUser(ctx, userID)
		if err != nil {
			return err
		}
		for i := range active {
			if token.MatchRefresh(active[i].TokenHash, opts.Token) {
				_, err := s.sessions.DeleteByID(ctx, active[i].ID)
				return err
			}
		}
		return nil
	}
	if opts.UserAgent != "" {
		return s.sessions.DeleteByUserAgent(ctx, userID, opts.UserAgent)
	}
	return s.sessions.DeleteByUser(ctx, userID)
}

// VerifyRefreshToken validates a raw refresh token's signature, expiry
// and kind without consulting the store. Callers that need revocation
// checking must go through Refresh.
func (s *Service) VerifyRefreshToken(raw string) (token.Claims, error) {
	claims, err := s.codec.Verify(raw)
	if err != nil {
		return token.Claims{}, err
	}
	if claims.Kind != token.KindRefresh {
		return token.Claims{}, apperr.ErrWrongTokenType
	}
	return claims, nil
}

// VerifyAccessToken checks a token for non-HTTP callers, swallowing every
// verification failure into a zero result.
func (s *Service) VerifyAccessToken(raw string) (uint64, bool) {
	claims, err := s.codec.Verify(raw)
	if err != nil || claims.Kind != token.KindAccess {
		return 0, false
	}
	return claims.UserID, true
}

// openSession issues an access+refresh pair and persists the hashed
// session row for the refresh half.
func (s *Service) openSession(ctx context.Context, u model.User, userAgent string) (Result, error) {
	access, accessExp, err := s.codec.Issue(u.ID, token.KindAccess, s.accessTTL)
	if err != nil {
		return Result{}, err
	}
	refresh, refreshExp, err := s.codec.Issue(u.ID, token.KindRefresh, s.refreshTTL)
	if err != nil {
		return Result{}, err
	}
	hash, err := token.HashRefresh(refresh, s.bcryptCost)
	if err != nil {
		return Result{}, err
	}
	sess := model.Session{
		UserID:    u.ID,
		TokenHash: hash,
		UserAgent: userAgent,
		ExpiresAt: refreshExp,
	}
	if err := s.sessions.Create(ctx, &sess); err != nil {
		return Result{}, err
	}
	return Result{
		User:           u,
		AccessToken:    access,
		AccessExpires:  accessExp,
		RefreshToken:   refresh,
		RefreshExpires: refreshExp,
	}, nil
}
