// Package token implements the signed access/refresh token codec and the
// hashing of refresh tokens at rest. Tokens are HS256 JWTs carrying the
// subject user ID, a kind tag and the expiry; only the kind "access" is
// accepted by the authorization middleware and only "refresh" by the
// session service.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sporthub/venue-booking/internal/apperr"
)

// Kind tags a token as an access or refresh credential.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the verified payload of a token.
type Claims struct {
	UserID    uint64
	Kind      Kind
	ExpiresAt time.Time
}

// Codec signs and verifies tokens with a process-wide secret.
type Codec struct {
	secret []byte
}

// New returns a Codec for the given signing secret. An empty secret is a
// misconfiguration and callers should treat the error as fatal at startup.
func New(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret is required")
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Issue signs a token of the given kind for userID, valid for ttl. The
// jti claim carries random bytes so two issuances for the same user are
// never byte-identical, even within one clock second; refresh rotation
// depends on the replacement token being a distinct credential.
func (c *Codec) Issue(userID uint64, kind Kind, ttl time.Duration) (string, time.Time, error) {
	jti, err := randomHex(16)
	if err != nil {
		return "", time.Time{}, err
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(userID, 10),
		"typ": string(kind),
		"exp": exp.Unix(),
		"iat": now.Unix(),
		"jti": jti,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses and validates a token string. It returns
// apperr.ErrTokenExpired for a valid signature past its expiry and
// apperr.ErrTokenInvalid for everything else (bad signature, malformed
// payload, wrong signing method). A token is expired at exactly its
// expiry instant; no leeway is applied.
func (c *Codec) Verify(raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, apperr.ErrTokenExpired
		}
		return Claims{}, apperr.ErrTokenInvalid
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return Claims{}, apperr.ErrTokenInvalid
	}

	sub, ok := mc["sub"].(string)
	if !ok {
		return Claims{}, apperr.ErrTokenInvalid
	}
	uid, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || uid == 0 {
		return Claims{}, apperr.ErrTokenInvalid
	}
	typ, ok := mc["typ"].(string)
	if !ok || (typ != string(KindAccess) && typ != string(KindRefresh)) {
		return Claims{}, apperr.ErrTokenInvalid
	}
	expUnix, ok := mc["exp"].(float64)
	if !ok {
		return Claims{}, apperr.ErrTokenInvalid
	}
	exp := time.Unix(int64(expUnix), 0).UTC()
	if !time.Now().UTC().Before(exp) {
		return Claims{}, apperr.ErrTokenExpired
	}
	return Claims{UserID: uid, Kind: Kind(typ), ExpiresAt: exp}, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ExtractFromHeader pulls the token out of an Authorization header value.
// Only the exact scheme "Bearer <token>" is recognized; any other shape
// yields the empty string.
func ExtractFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 3)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return ""
	}
	return parts[1]
}
