package repository

import (
	"context"
	"database/sql"

	"github.com/sporthub/venue-booking/internal/model"
)

// SessionRepo persists refresh-token session records. Rows are only ever
// inserted and deleted; rotation is a delete of the matched row followed
// by an insert of the replacement.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row and fills in the generated ID.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (user_id, token_hash, user_agent, expires_at) VALUES (?,?,?,?)",
		s.UserID, s.TokenHash, s.UserAgent, s.ExpiresAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// ActiveByUser returns the user's non-expired session rows. Expired rows
// are inert for matching and are purged opportunistically while we hold
// the connection anyway.
func (r *SessionRepo) ActiveByUser(ctx context.Context, userID uint64) ([]model.Session, error) {
	_, _ = r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE user_id=? AND expires_at <= NOW()", userID)

	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, token_hash, user_agent, expires_at, created_at FROM sessions WHERE user_id=? AND expires_at > NOW()",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Session
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.UserAgent, &s.ExpiresAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteByID removes one session row and reports whether it was still
// present. Two refreshes racing on the same token both pass hash matching
// but only one observes the row; the loser must treat a zero count as the
// token having been rotated already.
func (r *SessionRepo) DeleteByID(ctx context.Context, id uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE id=?", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByUser removes every session for the user (logout everywhere,
// account deactivation, single-device eviction).
func (r *SessionRepo) DeleteByUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE user_id=?", userID)
	return err
}

// DeleteByUserAgent removes the user's sessions sharing a user agent
// (same-device re-login dedup).
func (r *SessionRepo) DeleteByUserAgent(ctx context.Context, userID uint64, userAgent string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE user_id=? AND user_agent=?", userID, userAgent)
	return err
}
