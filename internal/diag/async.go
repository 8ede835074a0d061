package diag

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// emitTimeout is the max time allowed for a single async emit. Used by EmitAsync
// and by ShutdownDrainDuration.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long binaries wait before closing the producer,
// so in-flight async emits have time to complete. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// Emitter sends a single notice. Implementations may block briefly.
type Emitter interface {
	Emit(ctx context.Context, n *Notice) error
}

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is not
// blocked. emitter and notice may be nil; then nothing happens. The goroutine
// uses context.Background() so request cancellation does not abort an in-flight
// emit.
func EmitAsync(emitter Emitter, log zerolog.Logger, n *Notice) {
	if emitter == nil || n == nil {
		return
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, n); err != nil {
			log.Warn().Err(err).Str("kind", n.Kind).Msg("ops notice emit failed")
		}
	}()
}
