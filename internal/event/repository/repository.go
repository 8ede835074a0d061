package repository

import (
	"context"
	"time"

	"sessionguard/internal/event/domain"
)

// Repository defines persistence for the append-only security event log.
// There are no update or delete operations.
type Repository interface {
	// Append persists one event. The event must have ID set; Seq is assigned
	// by the store and written back into the event.
	Append(ctx context.Context, e *domain.SecurityEvent) error
	// ListByUser returns the user's most recent events, newest first, capped
	// at limit. Ties on OccurredAt are broken by descending Seq.
	ListByUser(ctx context.Context, userID string, limit int32) ([]*domain.SecurityEvent, error)
	// CountByUserSince returns how many events of the given type and result the
	// user accrued at or after the given instant. Used by the risk engine.
	CountByUserSince(ctx context.Context, userID, eventType, result string, since time.Time) (int64, error)
}
