package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	eventdomain "sessionguard/internal/event/domain"
	eventrepo "sessionguard/internal/event/repository"
	"sessionguard/internal/risk"
	sessionrepo "sessionguard/internal/session/repository"
)

// ErrComputationUnavailable is returned when an underlying read fails and the
// summary cannot be computed. A summary is never fabricated from partial data.
var ErrComputationUnavailable = errors.New("analytics computation unavailable")

// Summary is the per-user security overview.
type Summary struct {
	UserID                 string         `json:"user_id"`
	DeviceTypeBreakdown    map[string]int `json:"device_type_breakdown"`
	GeographicSpread       int            `json:"geographic_spread"`
	ConcurrentSessionCount int            `json:"concurrent_session_count"`
	RiskLevel              string         `json:"risk_level"`
	GeneratedAt            time.Time      `json:"generated_at"`
}

// Options bound the engine's queries. Zero values fall back to the defaults.
type Options struct {
	HistoryLimitDefault int32
	HistoryLimitMax     int32
	RecentWindow        time.Duration
	Thresholds          risk.Thresholds
}

// Engine computes per-user analytics over the session store and event log.
// It only reads; the lifecycle controller owns all writes.
type Engine struct {
	sessions  sessionrepo.Repository
	events    eventrepo.Repository
	evaluator risk.Evaluator
	cache     Cache
	opts      Options
	now       func() time.Time
}

// NewEngine returns an analytics engine. cache may be nil; then every call
// recomputes.
func NewEngine(sessions sessionrepo.Repository, events eventrepo.Repository, evaluator risk.Evaluator, cache Cache, opts Options) *Engine {
	if opts.HistoryLimitDefault <= 0 {
		opts.HistoryLimitDefault = 20
	}
	if opts.HistoryLimitMax <= 0 {
		opts.HistoryLimitMax = 100
	}
	if opts.RecentWindow <= 0 {
		opts.RecentWindow = 24 * time.Hour
	}
	return &Engine{
		sessions:  sessions,
		events:    events,
		evaluator: evaluator,
		cache:     cache,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Summarize computes the user's security overview: device type breakdown,
// geographic spread, and concurrent count over active sessions, plus the risk
// level from the scoring policy. Any underlying read failure yields
// ErrComputationUnavailable.
func (e *Engine) Summarize(ctx context.Context, userID string) (*Summary, error) {
	if e.cache != nil {
		if s, ok := e.cache.GetSummary(ctx, userID); ok {
			return s, nil
		}
	}

	now := e.now()
	sessions, err := e.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", ErrComputationUnavailable, err)
	}

	breakdown := map[string]int{
		DeviceMobile:  0,
		DeviceDesktop: 0,
		DeviceTablet:  0,
		DeviceUnknown: 0,
	}
	locations := make(map[string]struct{})
	concurrent := 0
	for _, s := range sessions {
		if !s.IsActive(now) {
			continue
		}
		concurrent++
		breakdown[classifyDevice(s.Platform, s.DeviceName)]++
		if s.Location != "" && s.Location != "Unknown" {
			locations[s.Location] = struct{}{}
		}
	}

	since := now.Add(-e.opts.RecentWindow)
	failures, err := e.events.CountByUserSince(ctx, userID, eventdomain.TypeLogin, eventdomain.ResultFailure, since)
	if err != nil {
		return nil, fmt.Errorf("%w: count login failures: %v", ErrComputationUnavailable, err)
	}
	suspicious, err := e.events.CountByUserSince(ctx, userID, eventdomain.TypeSuspicious, eventdomain.ResultBlocked, since)
	if err != nil {
		return nil, fmt.Errorf("%w: count suspicious events: %v", ErrComputationUnavailable, err)
	}

	res, err := e.evaluator.Evaluate(ctx, risk.Signals{
		DistinctLocations: len(locations),
		ConcurrentCount:   concurrent,
		FailureCount:      int(failures),
		SuspiciousCount:   int(suspicious),
	}, e.opts.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("%w: evaluate risk: %v", ErrComputationUnavailable, err)
	}

	summary := &Summary{
		UserID:                 userID,
		DeviceTypeBreakdown:    breakdown,
		GeographicSpread:       len(locations),
		ConcurrentSessionCount: concurrent,
		RiskLevel:              res.Level,
		GeneratedAt:            now,
	}
	if e.cache != nil {
		e.cache.SetSummary(ctx, summary)
	}
	return summary, nil
}

// History returns the user's most recent security events, newest first.
// limit <= 0 uses the default; values above the maximum are clamped.
func (e *Engine) History(ctx context.Context, userID string, limit int32) ([]*eventdomain.SecurityEvent, error) {
	if limit <= 0 {
		limit = e.opts.HistoryLimitDefault
	}
	if limit > e.opts.HistoryLimitMax {
		limit = e.opts.HistoryLimitMax
	}
	events, err := e.events.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list events: %v", ErrComputationUnavailable, err)
	}
	return events, nil
}
