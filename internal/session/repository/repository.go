package repository

import (
	"context"
	"time"

	"sessionguard/internal/session/domain"
)

// Repository defines persistence for sessions. All mutations other than Touch are
// conditional updates, safe under concurrent invocation for the same user.
type Repository interface {
	// Create persists a new session. The session must have ID set.
	Create(ctx context.Context, s *domain.Session) error
	// GetByID returns the session for id, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	// ListByUser returns all sessions for the user, newest CreatedAt first,
	// including revoked and expired ones.
	ListByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	// Touch sets the session's last-seen timestamp. Best-effort from the caller's
	// perspective; errors are reported but callers are expected to swallow them.
	Touch(ctx context.Context, id string, at time.Time) error
	// Revoke sets revoked_at if not already set. Returns true when this call
	// performed the transition, false when the session was already revoked.
	Revoke(ctx context.Context, id string, at time.Time) (bool, error)
	// RevokeAllExcept revokes every active session for the user except keepID
	// and returns the number of sessions transitioned.
	RevokeAllExcept(ctx context.Context, userID, keepID string, at time.Time) (int64, error)
	// MarkExpired claims up to limit sessions whose lifetime elapsed before the
	// given instant and that have not been revoked or claimed yet. Each returned
	// session is claimed exactly once across concurrent sweeps.
	MarkExpired(ctx context.Context, before time.Time, limit int32) ([]*domain.Session, error)
}
