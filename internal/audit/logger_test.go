package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"session-authority/internal/audit/domain"
)

type fakeRepository struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
	err     error
}

func (f *fakeRepository) Create(_ context.Context, a *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, a)
	return nil
}

func (f *fakeRepository) ListByCredential(_ context.Context, credentialID string, _, _ int32) ([]*domain.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.AuditLog
	for _, e := range f.entries {
		if e.CredentialID == credentialID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestLogger_LogEvent(t *testing.T) {
	repo := &fakeRepository{}
	l := NewLogger(repo, func(context.Context) string { return "10.0.0.1" })

	l.LogEvent(context.Background(), "c1", "signin_success", "credential", "meta")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.CredentialID != "c1" || e.Action != "signin_success" || e.Resource != "credential" || e.Metadata != "meta" {
		t.Errorf("entry = %+v", e)
	}
	if e.IP != "10.0.0.1" {
		t.Errorf("IP = %q, want extractor value", e.IP)
	}
	if e.ID == "" {
		t.Error("ID should be generated")
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestLogger_SentinelCredential(t *testing.T) {
	repo := &fakeRepository{}
	l := NewLogger(repo, nil)

	l.LogEvent(context.Background(), "", "signin_failure", "credential", "ghost@example.com")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	if repo.entries[0].CredentialID != SentinelCredentialID {
		t.Errorf("CredentialID = %q, want sentinel", repo.entries[0].CredentialID)
	}
	if repo.entries[0].IP != "unknown" {
		t.Errorf("IP = %q, want unknown without extractor", repo.entries[0].IP)
	}
}

func TestLogger_BestEffort(t *testing.T) {
	repo := &fakeRepository{err: errors.New("db down")}
	l := NewLogger(repo, nil)

	// Must not panic or propagate; the caller never sees audit failures.
	l.LogEvent(context.Background(), "c1", "signin_success", "credential", "")

	nilRepo := NewLogger(nil, nil)
	nilRepo.LogEvent(context.Background(), "c1", "signin_success", "credential", "")
}
