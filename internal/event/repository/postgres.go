package repository

import (
	"context"
	"database/sql"
	"time"

	"sessionguard/internal/event/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a security event repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append persists the event. Seq is assigned by the sequence and written back.
func (r *PostgresRepository) Append(ctx context.Context, e *domain.SecurityEvent) error {
	detail := e.Detail
	if detail == "" {
		detail = "{}"
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO security_events (id, user_id, session_id, event_type, result, detail, ip_address, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq`,
		e.ID, e.UserID,
		sql.NullString{String: e.SessionID, Valid: e.SessionID != ""},
		e.EventType, e.Result, detail,
		sql.NullString{String: e.IPAddress, Valid: e.IPAddress != ""},
		e.OccurredAt,
	).Scan(&e.Seq)
}

// ListByUser returns the user's most recent events, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int32) ([]*domain.SecurityEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, seq, user_id, session_id, event_type, result, detail, ip_address, occurred_at
		FROM security_events
		WHERE user_id = $1
		ORDER BY occurred_at DESC, seq DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.SecurityEvent
	for rows.Next() {
		var (
			e         domain.SecurityEvent
			sessionID sql.NullString
			ip        sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Seq, &e.UserID, &sessionID, &e.EventType, &e.Result, &e.Detail, &ip, &e.OccurredAt); err != nil {
			return nil, err
		}
		if sessionID.Valid {
			e.SessionID = sessionID.String
		}
		if ip.Valid {
			e.IPAddress = ip.String
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// CountByUserSince counts the user's events of the given type and result at or
// after the given instant.
func (r *PostgresRepository) CountByUserSince(ctx context.Context, userID, eventType, result string, since time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM security_events
		WHERE user_id = $1 AND event_type = $2 AND result = $3 AND occurred_at >= $4`,
		userID, eventType, result, since,
	).Scan(&n)
	return n, err
}
