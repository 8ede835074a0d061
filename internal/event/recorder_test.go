package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sessionguard/internal/event/domain"
)

// mockEventRepo implements the event repository interface for tests.
type mockEventRepo struct {
	entries   []*domain.SecurityEvent
	appendErr error
}

func (m *mockEventRepo) Append(ctx context.Context, e *domain.SecurityEvent) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	e.Seq = int64(len(m.entries) + 1)
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockEventRepo) ListByUser(ctx context.Context, userID string, limit int32) ([]*domain.SecurityEvent, error) {
	return nil, nil
}

func (m *mockEventRepo) CountByUserSince(ctx context.Context, userID, eventType, result string, since time.Time) (int64, error) {
	return 0, nil
}

type mockOpsEmitter struct {
	dropped []*domain.SecurityEvent
	causes  []error
}

func (m *mockOpsEmitter) EmitDropped(ctx context.Context, e *domain.SecurityEvent, cause error) {
	m.dropped = append(m.dropped, e)
	m.causes = append(m.causes, cause)
}

func TestRecorder_Record_Success(t *testing.T) {
	repo := &mockEventRepo{}
	rec := NewRecorder(repo, nil, zerolog.Nop())
	ctx := context.Background()

	rec.Record(ctx, "user-1", "sess-1", domain.TypeLogin, domain.ResultSuccess, `{"device":"x"}`, "10.0.0.1")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	e := repo.entries[0]
	if e.UserID != "user-1" {
		t.Errorf("user_id = %q, want %q", e.UserID, "user-1")
	}
	if e.SessionID != "sess-1" {
		t.Errorf("session_id = %q, want %q", e.SessionID, "sess-1")
	}
	if e.EventType != domain.TypeLogin {
		t.Errorf("event_type = %q, want %q", e.EventType, domain.TypeLogin)
	}
	if e.Result != domain.ResultSuccess {
		t.Errorf("result = %q, want %q", e.Result, domain.ResultSuccess)
	}
	if e.IPAddress != "10.0.0.1" {
		t.Errorf("ip = %q, want %q", e.IPAddress, "10.0.0.1")
	}
	if e.ID == "" {
		t.Error("event ID should be set")
	}
	if e.OccurredAt.IsZero() {
		t.Error("event OccurredAt should be set")
	}
}

func TestRecorder_Record_RepositoryError(t *testing.T) {
	repo := &mockEventRepo{appendErr: errors.New("database error")}
	ops := &mockOpsEmitter{}
	rec := NewRecorder(repo, ops, zerolog.Nop())
	ctx := context.Background()

	// Must not panic or surface the error; the drop goes to the ops channel.
	rec.Record(ctx, "user-1", "sess-1", domain.TypeRevoke, domain.ResultSuccess, "", "")

	if len(ops.dropped) != 1 {
		t.Fatalf("expected 1 dropped event, got %d", len(ops.dropped))
	}
	if ops.dropped[0].EventType != domain.TypeRevoke {
		t.Errorf("dropped event_type = %q, want %q", ops.dropped[0].EventType, domain.TypeRevoke)
	}
	if ops.causes[0] == nil {
		t.Error("drop cause should be recorded")
	}
}

func TestRecorder_Record_RepositoryErrorNilOps(t *testing.T) {
	repo := &mockEventRepo{appendErr: errors.New("database error")}
	rec := NewRecorder(repo, nil, zerolog.Nop())

	// Nil ops emitter: the drop is only logged.
	rec.Record(context.Background(), "user-1", "", domain.TypeLogout, domain.ResultSuccess, "", "")
}

func TestRecorder_Record_NilRepo(t *testing.T) {
	rec := NewRecorder(nil, nil, zerolog.Nop())

	// No-op when repo is nil.
	rec.Record(context.Background(), "user-1", "", domain.TypeLogin, domain.ResultSuccess, "", "")
}
