// Package producer defines the interface for emitting ops notices (e.g. to Kafka).
package producer

import (
	"context"

	"sessionguard/internal/diag"
)

// Producer emits ops notices. Callers use it best-effort: log and ignore errors.
type Producer interface {
	// Emit sends a single notice. Implementations may block briefly; call from a
	// goroutine if needed.
	Emit(ctx context.Context, n *diag.Notice) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
