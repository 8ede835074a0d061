package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sessionguard/internal/event/domain"
	eventrepo "sessionguard/internal/event/repository"
)

// OpsEmitter forwards a failed append to the operational channel so the loss is
// visible to operators even though the caller is not told about it.
type OpsEmitter interface {
	EmitDropped(ctx context.Context, e *domain.SecurityEvent, cause error)
}

// Recorder appends security events to the log. Record is best-effort: a failed
// append never fails the calling operation. The failure is logged and forwarded
// to the ops channel instead.
type Recorder struct {
	repo eventrepo.Repository
	ops  OpsEmitter
	log  zerolog.Logger
}

// NewRecorder returns a Recorder writing to repo. ops may be nil; then drops are
// only logged.
func NewRecorder(repo eventrepo.Repository, ops OpsEmitter, log zerolog.Logger) *Recorder {
	return &Recorder{repo: repo, ops: ops, log: log}
}

// Record appends one event. ID and OccurredAt are filled in here so callers only
// supply the facts of what happened.
func (r *Recorder) Record(ctx context.Context, userID, sessionID, eventType, result, detail, ip string) {
	if r.repo == nil {
		return
	}
	e := &domain.SecurityEvent{
		ID:         uuid.New().String(),
		UserID:     userID,
		SessionID:  sessionID,
		EventType:  eventType,
		Result:     result,
		Detail:     detail,
		IPAddress:  ip,
		OccurredAt: time.Now().UTC(),
	}
	if err := r.repo.Append(ctx, e); err != nil {
		r.log.Error().Err(err).
			Str("user_id", userID).
			Str("event_type", eventType).
			Msg("security event dropped")
		if r.ops != nil {
			r.ops.EmitDropped(ctx, e, err)
		}
	}
}
