// Package diag is the operational channel: failures that are swallowed on the
// request path (best-effort touches, dropped security events) are reported here
// so operators still see them.
package diag

import "time"

// Notice kinds.
const (
	KindEventDropped = "event_dropped"
)

// Notice is one operational report shipped to the ops topic.
type Notice struct {
	Kind       string    `json:"kind"`
	UserID     string    `json:"userId,omitempty"`
	SessionID  string    `json:"sessionId,omitempty"`
	EventType  string    `json:"eventType,omitempty"`
	Cause      string    `json:"cause"`
	OccurredAt time.Time `json:"occurredAt"`
}
