package storage

import (
	"context"
	"time"

	"expense-ledger/internal/models"
)

// SessionInfo holds session validation data.
type SessionInfo struct {
	User         *models.User
	LastActivity time.Time
	ExpiresAt    time.Time
}

// CreateSession creates a new session for a user.
func (q *Queries) CreateSession(ctx context.Context, s models.Session) error {
	_, err := q.q.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)",
		s.Token, s.UserID, s.ExpiresAt.Unix(), s.LastActivity.Unix(),
	)
	return err
}

// ValidateSessionWithInfo returns the user behind token together with the
// session timestamps, or ErrNotFound if the token is unknown or expired at now.
func (q *Queries) ValidateSessionWithInfo(ctx context.Context, token string, now time.Time) (*SessionInfo, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.password_hash, u.created_at, s.last_activity, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ?
	`, token, now.Unix())

	var (
		u                       models.User
		lastActivity, expiresAt int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &lastActivity, &expiresAt); err != nil {
		return nil, notFound(err)
	}
	return &SessionInfo{
		User:         &u,
		LastActivity: time.Unix(lastActivity, 0).UTC(),
		ExpiresAt:    time.Unix(expiresAt, 0).UTC(),
	}, nil
}

// RenewSession moves the session's expiry to expiresAt and records activity at now.
func (q *Queries) RenewSession(ctx context.Context, token string, now, expiresAt time.Time) error {
	res, err := q.q.ExecContext(ctx,
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		now.Unix(), expiresAt.Unix(), token,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteSession removes a session by token.
func (q *Queries) DeleteSession(ctx context.Context, token string) error {
	_, err := q.q.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

// CleanExpiredSessions removes every session expired at now and reports how many.
func (q *Queries) CleanExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.q.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
