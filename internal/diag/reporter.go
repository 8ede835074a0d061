package diag

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	eventdomain "sessionguard/internal/event/domain"
)

// Reporter turns swallowed failures into ops notices. It satisfies the event
// recorder's OpsEmitter contract.
type Reporter struct {
	emitter Emitter
	log     zerolog.Logger
}

// NewReporter returns a Reporter. emitter may be nil; then notices are only logged.
func NewReporter(emitter Emitter, log zerolog.Logger) *Reporter {
	return &Reporter{emitter: emitter, log: log}
}

// EmitDropped reports a security event that could not be appended to the log.
func (r *Reporter) EmitDropped(ctx context.Context, e *eventdomain.SecurityEvent, cause error) {
	r.log.Error().Err(cause).
		Str("user_id", e.UserID).
		Str("session_id", e.SessionID).
		Str("event_type", e.EventType).
		Msg("security event lost")
	EmitAsync(r.emitter, r.log, &Notice{
		Kind:       KindEventDropped,
		UserID:     e.UserID,
		SessionID:  e.SessionID,
		EventType:  e.EventType,
		Cause:      cause.Error(),
		OccurredAt: time.Now().UTC(),
	})
}
