package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"sessionguard/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, user_id, device_fingerprint, device_name, platform, ip_address, location,
	created_at, last_seen_at, expires_at, revoked_at, expire_noted_at`

// Create persists the session to the database. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.ID, s.UserID, s.DeviceFingerprint, s.DeviceName, s.Platform,
		sql.NullString{String: s.IPAddress, Valid: s.IPAddress != ""},
		s.Location, s.CreatedAt, timeToNullTime(s.LastSeenAt), s.ExpiresAt,
		timeToNullTime(s.RevokedAt), timeToNullTime(s.ExpireNotedAt),
	)
	return err
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// ListByUser returns all sessions for the user, newest CreatedAt first.
// Revoked and expired sessions are included; callers filter with IsActive.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Touch sets the session's last-seen timestamp for the given id.
func (r *PostgresRepository) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_seen_at = $2 WHERE id = $1`, id, at)
	return err
}

// Revoke marks the session as revoked if it is not already. The WHERE clause on
// revoked_at IS NULL makes the transition atomic: of two concurrent revokes,
// exactly one observes true.
func (r *PostgresRepository) Revoke(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`, id, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RevokeAllExcept revokes every active session for the user except keepID and
// returns the number of sessions transitioned. The kept session is never touched,
// even when it is itself expired.
func (r *PostgresRepository) RevokeAllExcept(ctx context.Context, userID, keepID string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET revoked_at = $3
		WHERE user_id = $1 AND id <> $2 AND revoked_at IS NULL AND expires_at > $3`,
		userID, keepID, at)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkExpired claims up to limit newly expired sessions by setting expire_noted_at.
// The claim qualifiers are repeated in the outer WHERE: under READ COMMITTED the
// outer UPDATE re-checks its quals against the committed row after waiting on a
// concurrent sweep, so a row the other sweep already claimed no longer matches.
// Each session is claimed by exactly one sweep.
func (r *PostgresRepository) MarkExpired(ctx context.Context, before time.Time, limit int32) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE sessions SET expire_noted_at = $1
		WHERE id IN (
			SELECT id FROM sessions
			WHERE revoked_at IS NULL AND expire_noted_at IS NULL AND expires_at <= $1
			LIMIT $2
		)
		AND revoked_at IS NULL AND expire_noted_at IS NULL
		RETURNING `+sessionColumns, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (*domain.Session, error) {
	var (
		s          domain.Session
		ip         sql.NullString
		lastSeen   sql.NullTime
		revokedAt  sql.NullTime
		expireNote sql.NullTime
	)
	err := sc.Scan(
		&s.ID, &s.UserID, &s.DeviceFingerprint, &s.DeviceName, &s.Platform, &ip, &s.Location,
		&s.CreatedAt, &lastSeen, &s.ExpiresAt, &revokedAt, &expireNote,
	)
	if err != nil {
		return nil, err
	}
	if ip.Valid {
		s.IPAddress = ip.String
	}
	s.LastSeenAt = nullTimeToPtr(lastSeen)
	s.RevokedAt = nullTimeToPtr(revokedAt)
	s.ExpireNotedAt = nullTimeToPtr(expireNote)
	return &s, nil
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}
