package domain

import "time"

// Session represents a single authenticated login bound to a device fingerprint.
// Sessions are soft-deleted: RevokedAt is set exactly once and the row is never removed,
// so the audit trail and analytics stay consistent with history.
type Session struct {
	ID                string
	UserID            string
	DeviceFingerprint string // sha256 hex of normalized user agent + platform + device name
	DeviceName        string // best-effort, "Unknown Device" when unresolvable
	Platform          string // best-effort, "Unknown" when unresolvable
	IPAddress         string
	Location          string     // coarse geographic label, "Unknown" when enrichment failed
	CreatedAt         time.Time
	LastSeenAt        *time.Time
	ExpiresAt         time.Time  // CreatedAt + TTL; longer for remember-me logins
	RevokedAt         *time.Time // nil while not revoked
	ExpireNotedAt     *time.Time // set once by the expiry sweep; bookkeeping, not user-visible
}

// IsActive reports whether the session is usable at the given instant:
// not revoked and not past its expiry.
func (s *Session) IsActive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// IsExpired reports whether the session's lifetime has elapsed, regardless of revocation.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
