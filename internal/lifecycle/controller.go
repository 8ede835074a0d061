package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sessionguard/internal/analytics"
	eventdomain "sessionguard/internal/event/domain"
	"sessionguard/internal/fingerprint"
	sessiondomain "sessionguard/internal/session/domain"
	sessionrepo "sessionguard/internal/session/repository"
)

// Sentinel errors for the lifecycle controller; callers map them to their
// transport's codes.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrForbidden        = errors.New("session belongs to another user")
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// EventRecorder appends one security event. Implementations are best-effort and
// never return an error to the caller.
type EventRecorder interface {
	Record(ctx context.Context, userID, sessionID, eventType, result, detail, ip string)
}

// LoginInput carries the request facts for a new login. Credentials were
// already verified by the caller.
type LoginInput struct {
	UserID     string
	RememberMe bool
	UserAgent  string
	DeviceInfo string
	IPAddress  string
}

// SessionEntry is one session in a listing, annotated with whether it is the
// session the caller is using right now.
type SessionEntry struct {
	*sessiondomain.Session
	IsCurrent bool
}

// SessionList is the result of ListSessions.
type SessionList struct {
	Sessions    []SessionEntry
	TotalCount  int
	ActiveCount int
}

// Controller owns every session write: login, touch, revocation, and the
// expiry sweep. Reads go through the analytics engine; nothing else mutates
// sessions or appends events.
type Controller struct {
	sessions    sessionrepo.Repository
	recorder    EventRecorder
	resolver    *fingerprint.Resolver
	cache       analytics.Cache
	sessionTTL  time.Duration
	rememberTTL time.Duration
	sweepBatch  int32
	log         zerolog.Logger
	now         func() time.Time
}

// NewController returns a lifecycle controller. cache may be nil; then no
// invalidation happens.
func NewController(
	sessions sessionrepo.Repository,
	recorder EventRecorder,
	resolver *fingerprint.Resolver,
	cache analytics.Cache,
	sessionTTL, rememberTTL time.Duration,
	log zerolog.Logger,
) *Controller {
	return &Controller{
		sessions:    sessions,
		recorder:    recorder,
		resolver:    resolver,
		cache:       cache,
		sessionTTL:  sessionTTL,
		rememberTTL: rememberTTL,
		sweepBatch:  500,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Login records a fresh authenticated login as a new session. The fingerprint
// and location are resolved here; resolution never blocks a login.
func (c *Controller) Login(ctx context.Context, in LoginInput) (*sessiondomain.Session, error) {
	device := c.resolver.Resolve(ctx, in.UserAgent, in.DeviceInfo, in.IPAddress)
	now := c.now()
	ttl := c.sessionTTL
	if in.RememberMe {
		ttl = c.rememberTTL
	}
	s := &sessiondomain.Session{
		ID:                uuid.New().String(),
		UserID:            in.UserID,
		DeviceFingerprint: device.Fingerprint,
		DeviceName:        device.Name,
		Platform:          device.Platform,
		IPAddress:         in.IPAddress,
		Location:          device.Location,
		CreatedAt:         now,
		ExpiresAt:         now.Add(ttl),
	}
	if err := c.sessions.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("%w: create session: %v", ErrStoreUnavailable, err)
	}
	c.recorder.Record(ctx, in.UserID, s.ID, eventdomain.TypeLogin, eventdomain.ResultSuccess,
		detailJSON(map[string]string{"device": device.Name, "location": device.Location}), in.IPAddress)
	c.invalidate(ctx, in.UserID)
	return s, nil
}

// Touch updates the session's last-seen timestamp and reports whether the
// session is still active. An expired or revoked session is reported inactive,
// never revived. The write itself is best-effort.
func (c *Controller) Touch(ctx context.Context, sessionID string) (bool, error) {
	s, err := c.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("%w: get session: %v", ErrStoreUnavailable, err)
	}
	if s == nil {
		return false, ErrSessionNotFound
	}
	now := c.now()
	if !s.IsActive(now) {
		return false, nil
	}
	if err := c.sessions.Touch(ctx, sessionID, now); err != nil {
		c.log.Warn().Err(err).Str("session_id", sessionID).Msg("last-seen update failed")
	}
	return true, nil
}

// Logout revokes the caller's own session and appends a logout event on the
// actual transition. Repeat calls are no-ops that append nothing. callerIP is
// the remote address of the request and is stamped on the event.
func (c *Controller) Logout(ctx context.Context, callerUserID, sessionID, callerIP string) (*sessiondomain.Session, error) {
	return c.revoke(ctx, callerUserID, sessionID, callerIP, eventdomain.TypeLogout)
}

// RevokeOther revokes a single session by id, same ownership and idempotence
// rules as Logout but recorded as a revoke event.
func (c *Controller) RevokeOther(ctx context.Context, callerUserID, sessionID, callerIP string) (*sessiondomain.Session, error) {
	return c.revoke(ctx, callerUserID, sessionID, callerIP, eventdomain.TypeRevoke)
}

func (c *Controller) revoke(ctx context.Context, callerUserID, sessionID, callerIP, eventType string) (*sessiondomain.Session, error) {
	s, err := c.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: get session: %v", ErrStoreUnavailable, err)
	}
	if s == nil {
		return nil, ErrSessionNotFound
	}
	if s.UserID != callerUserID {
		// The suspicious event belongs to the caller and feeds their risk
		// signals, so the caller's cached summary is stale from here on.
		c.recorder.Record(ctx, callerUserID, sessionID, eventdomain.TypeSuspicious, eventdomain.ResultBlocked,
			detailJSON(map[string]string{"reason": "cross-user revocation attempt", "target_user": s.UserID}), callerIP)
		c.invalidate(ctx, callerUserID)
		return nil, ErrForbidden
	}
	now := c.now()
	transitioned, err := c.sessions.Revoke(ctx, sessionID, now)
	if err != nil {
		return nil, fmt.Errorf("%w: revoke session: %v", ErrStoreUnavailable, err)
	}
	if transitioned {
		s.RevokedAt = &now
		c.recorder.Record(ctx, callerUserID, sessionID, eventType, eventdomain.ResultSuccess, "", callerIP)
		c.invalidate(ctx, callerUserID)
	}
	return s, nil
}

// LogoutAllOthers revokes every active session of the user except the current
// one and returns how many sessions were revoked. One revoke_all event carries
// the count; individual sessions get no events of their own.
func (c *Controller) LogoutAllOthers(ctx context.Context, userID, currentSessionID string) (int64, error) {
	now := c.now()
	count, err := c.sessions.RevokeAllExcept(ctx, userID, currentSessionID, now)
	if err != nil {
		return 0, fmt.Errorf("%w: revoke sessions: %v", ErrStoreUnavailable, err)
	}
	c.recorder.Record(ctx, userID, currentSessionID, eventdomain.TypeRevokeAll, eventdomain.ResultSuccess,
		detailJSON(map[string]string{"count": strconv.FormatInt(count, 10)}), "")
	c.invalidate(ctx, userID)
	return count, nil
}

// ListSessions returns the user's sessions, newest first, with the caller's
// current session flagged.
func (c *Controller) ListSessions(ctx context.Context, userID, currentSessionID string) (*SessionList, error) {
	sessions, err := c.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", ErrStoreUnavailable, err)
	}
	now := c.now()
	list := &SessionList{
		Sessions:   make([]SessionEntry, 0, len(sessions)),
		TotalCount: len(sessions),
	}
	for _, s := range sessions {
		if s.IsActive(now) {
			list.ActiveCount++
		}
		list.Sessions = append(list.Sessions, SessionEntry{
			Session:   s,
			IsCurrent: s.ID == currentSessionID,
		})
	}
	return list, nil
}

// SweepExpired claims sessions whose lifetime elapsed without a revoke and
// appends one expire event each. Safe to run concurrently: the claim is a
// conditional update, so no session is reported twice. Returns how many
// sessions were claimed in this pass.
func (c *Controller) SweepExpired(ctx context.Context) (int, error) {
	now := c.now()
	expired, err := c.sessions.MarkExpired(ctx, now, c.sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("%w: mark expired: %v", ErrStoreUnavailable, err)
	}
	for _, s := range expired {
		c.recorder.Record(ctx, s.UserID, s.ID, eventdomain.TypeExpire, eventdomain.ResultSuccess,
			detailJSON(map[string]string{"expired_at": s.ExpiresAt.Format(time.RFC3339)}), s.IPAddress)
		c.invalidate(ctx, s.UserID)
	}
	return len(expired), nil
}

func (c *Controller) invalidate(ctx context.Context, userID string) {
	if c.cache != nil {
		c.cache.Invalidate(ctx, userID)
	}
}

func detailJSON(fields map[string]string) string {
	raw, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
