package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	eventdomain "sessionguard/internal/event/domain"
	"sessionguard/internal/risk"
	sessiondomain "sessionguard/internal/session/domain"
)

// mockSessionRepo implements the session repository interface for tests.
type mockSessionRepo struct {
	sessions []*sessiondomain.Session
	listErr  error
}

func (m *mockSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error { return nil }

func (m *mockSessionRepo) GetByID(ctx context.Context, id string) (*sessiondomain.Session, error) {
	return nil, nil
}

func (m *mockSessionRepo) ListByUser(ctx context.Context, userID string) ([]*sessiondomain.Session, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.sessions, nil
}

func (m *mockSessionRepo) Touch(ctx context.Context, id string, at time.Time) error { return nil }

func (m *mockSessionRepo) Revoke(ctx context.Context, id string, at time.Time) (bool, error) {
	return false, nil
}

func (m *mockSessionRepo) RevokeAllExcept(ctx context.Context, userID, keepID string, at time.Time) (int64, error) {
	return 0, nil
}

func (m *mockSessionRepo) MarkExpired(ctx context.Context, before time.Time, limit int32) ([]*sessiondomain.Session, error) {
	return nil, nil
}

// mockEventRepo implements the event repository interface for tests.
type mockEventRepo struct {
	events     []*eventdomain.SecurityEvent
	failures   int64
	suspicious int64
	listErr    error
	countErr   error
	listLimit  int32
}

func (m *mockEventRepo) Append(ctx context.Context, e *eventdomain.SecurityEvent) error { return nil }

func (m *mockEventRepo) ListByUser(ctx context.Context, userID string, limit int32) ([]*eventdomain.SecurityEvent, error) {
	m.listLimit = limit
	if m.listErr != nil {
		return nil, m.listErr
	}
	if int32(len(m.events)) > limit {
		return m.events[:limit], nil
	}
	return m.events, nil
}

func (m *mockEventRepo) CountByUserSince(ctx context.Context, userID, eventType, result string, since time.Time) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	if eventType == eventdomain.TypeSuspicious {
		return m.suspicious, nil
	}
	return m.failures, nil
}

// staticEvaluator records the signals it saw and returns a fixed level.
type staticEvaluator struct {
	level   string
	err     error
	gotSig  risk.Signals
	gotTh   risk.Thresholds
	evalled bool
}

func (s *staticEvaluator) Evaluate(ctx context.Context, sig risk.Signals, th risk.Thresholds) (risk.Result, error) {
	s.gotSig = sig
	s.gotTh = th
	s.evalled = true
	if s.err != nil {
		return risk.Result{}, s.err
	}
	return risk.Result{Level: s.level}, nil
}

type memoryCache struct {
	summaries   map[string]*Summary
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{summaries: make(map[string]*Summary)}
}

func (c *memoryCache) GetSummary(ctx context.Context, userID string) (*Summary, bool) {
	s, ok := c.summaries[userID]
	return s, ok
}

func (c *memoryCache) SetSummary(ctx context.Context, s *Summary) {
	c.summaries[s.UserID] = s
}

func (c *memoryCache) Invalidate(ctx context.Context, userID string) {
	delete(c.summaries, userID)
	c.invalidated = append(c.invalidated, userID)
}

func testSession(id, platform, deviceName, location string, expiresAt time.Time, revokedAt *time.Time) *sessiondomain.Session {
	return &sessiondomain.Session{
		ID:         id,
		UserID:     "user-1",
		DeviceName: deviceName,
		Platform:   platform,
		Location:   location,
		CreatedAt:  time.Now().UTC().Add(-time.Hour),
		ExpiresAt:  expiresAt,
		RevokedAt:  revokedAt,
	}
}

func TestEngine_Summarize(t *testing.T) {
	now := time.Now().UTC()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)
	revoked := now.Add(-30 * time.Minute)

	sessions := &mockSessionRepo{sessions: []*sessiondomain.Session{
		testSession("s1", "Windows", "Chrome on Windows", "Berlin, DE", future, nil),
		testSession("s2", "Android", "Chrome on Android", "Paris, FR", future, nil),
		testSession("s3", "iOS", "iPad Pro", "Berlin, DE", future, nil),
		testSession("s4", "Unknown", "Unknown Device", "Unknown", future, nil),
		// expired and revoked sessions must not count
		testSession("s5", "Windows", "Chrome on Windows", "Tokyo, JP", past, nil),
		testSession("s6", "macOS", "Safari on macOS", "Oslo, NO", future, &revoked),
	}}
	events := &mockEventRepo{failures: 2, suspicious: 0}
	eval := &staticEvaluator{level: risk.LevelMedium}

	e := NewEngine(sessions, events, eval, nil, Options{
		Thresholds: risk.Thresholds{HighLocations: 3, MediumLocations: 2, MaxConcurrent: 5, FailureBurst: 3},
	})
	s, err := e.Summarize(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if s.ConcurrentSessionCount != 4 {
		t.Errorf("concurrent = %d, want 4", s.ConcurrentSessionCount)
	}
	if s.GeographicSpread != 2 {
		t.Errorf("geographic spread = %d, want 2 (Unknown excluded)", s.GeographicSpread)
	}
	wantBreakdown := map[string]int{DeviceDesktop: 1, DeviceMobile: 1, DeviceTablet: 1, DeviceUnknown: 1}
	for k, want := range wantBreakdown {
		if s.DeviceTypeBreakdown[k] != want {
			t.Errorf("breakdown[%s] = %d, want %d", k, s.DeviceTypeBreakdown[k], want)
		}
	}
	if s.RiskLevel != risk.LevelMedium {
		t.Errorf("risk level = %q, want %q", s.RiskLevel, risk.LevelMedium)
	}
	if eval.gotSig.DistinctLocations != 2 || eval.gotSig.ConcurrentCount != 4 || eval.gotSig.FailureCount != 2 {
		t.Errorf("evaluator saw signals %+v", eval.gotSig)
	}
}

func TestEngine_Summarize_SessionReadFailure(t *testing.T) {
	sessions := &mockSessionRepo{listErr: errors.New("connection refused")}
	e := NewEngine(sessions, &mockEventRepo{}, &staticEvaluator{level: risk.LevelLow}, nil, Options{})

	_, err := e.Summarize(context.Background(), "user-1")
	if !errors.Is(err, ErrComputationUnavailable) {
		t.Fatalf("err = %v, want ErrComputationUnavailable", err)
	}
}

func TestEngine_Summarize_EventCountFailure(t *testing.T) {
	events := &mockEventRepo{countErr: errors.New("connection refused")}
	e := NewEngine(&mockSessionRepo{}, events, &staticEvaluator{level: risk.LevelLow}, nil, Options{})

	_, err := e.Summarize(context.Background(), "user-1")
	if !errors.Is(err, ErrComputationUnavailable) {
		t.Fatalf("err = %v, want ErrComputationUnavailable", err)
	}
}

func TestEngine_Summarize_EvaluatorFailure(t *testing.T) {
	eval := &staticEvaluator{err: errors.New("compile error")}
	e := NewEngine(&mockSessionRepo{}, &mockEventRepo{}, eval, nil, Options{})

	_, err := e.Summarize(context.Background(), "user-1")
	if !errors.Is(err, ErrComputationUnavailable) {
		t.Fatalf("err = %v, want ErrComputationUnavailable", err)
	}
}

func TestEngine_Summarize_CacheHit(t *testing.T) {
	cache := newMemoryCache()
	cached := &Summary{UserID: "user-1", RiskLevel: risk.LevelHigh}
	cache.SetSummary(context.Background(), cached)

	eval := &staticEvaluator{level: risk.LevelLow}
	e := NewEngine(&mockSessionRepo{}, &mockEventRepo{}, eval, cache, Options{})

	s, err := e.Summarize(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s != cached {
		t.Error("expected the cached summary to be returned")
	}
	if eval.evalled {
		t.Error("cache hit should not re-evaluate risk")
	}
}

func TestEngine_Summarize_CacheFill(t *testing.T) {
	cache := newMemoryCache()
	e := NewEngine(&mockSessionRepo{}, &mockEventRepo{}, &staticEvaluator{level: risk.LevelLow}, cache, Options{})

	if _, err := e.Summarize(context.Background(), "user-1"); err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if _, ok := cache.summaries["user-1"]; !ok {
		t.Error("summary should be written to the cache")
	}
}

func TestEngine_History_LimitClamping(t *testing.T) {
	testCases := []struct {
		name  string
		limit int32
		want  int32
	}{
		{"zero uses default", 0, 20},
		{"negative uses default", -5, 20},
		{"in range passes through", 50, 50},
		{"over max clamps", 500, 100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			events := &mockEventRepo{}
			e := NewEngine(&mockSessionRepo{}, events, &staticEvaluator{level: risk.LevelLow}, nil, Options{
				HistoryLimitDefault: 20,
				HistoryLimitMax:     100,
			})
			if _, err := e.History(context.Background(), "user-1", tc.limit); err != nil {
				t.Fatalf("History: %v", err)
			}
			if events.listLimit != tc.want {
				t.Errorf("limit passed to repo = %d, want %d", events.listLimit, tc.want)
			}
		})
	}
}

func TestEngine_History_ReadFailure(t *testing.T) {
	events := &mockEventRepo{listErr: errors.New("connection refused")}
	e := NewEngine(&mockSessionRepo{}, events, &staticEvaluator{level: risk.LevelLow}, nil, Options{})

	_, err := e.History(context.Background(), "user-1", 10)
	if !errors.Is(err, ErrComputationUnavailable) {
		t.Fatalf("err = %v, want ErrComputationUnavailable", err)
	}
}
