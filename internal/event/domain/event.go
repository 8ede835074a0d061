package domain

import "time"

// Event types written by the lifecycle controller and the expiry sweep.
const (
	TypeLogin      = "login"
	TypeLogout     = "logout"
	TypeRevoke     = "revoke"
	TypeRevokeAll  = "revoke_all"
	TypeExpire     = "expire"
	TypeSuspicious = "suspicious"
)

// Event results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultBlocked = "blocked"
)

// SecurityEvent is one entry in the append-only security log. Events are never
// updated or deleted; Seq is assigned by the store and breaks ties between
// events sharing the same OccurredAt.
type SecurityEvent struct {
	ID         string
	Seq        int64
	UserID     string
	SessionID  string // empty for events not tied to a single session
	EventType  string
	Result     string
	Detail     string // JSON object with event-specific context, "{}" when none
	IPAddress  string
	OccurredAt time.Time
}
