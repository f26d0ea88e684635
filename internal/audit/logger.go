package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"session-authority/internal/audit/domain"
	auditrepo "session-authority/internal/audit/repository"
)

// SentinelCredentialID is recorded for audit events with no resolved
// credential (e.g. signin_failure for an unknown email).
const SentinelCredentialID = "_unknown"

// IPExtractor returns the client IP from the request context (e.g. gRPC metadata or peer).
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource. Used by
// the auth service and force-logout paths. LogEvent is best-effort: failures
// are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, credentialID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, credentialID, action, resource, metadata string) {
	if l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	if credentialID == "" {
		credentialID = SentinelCredentialID
	}
	entry := &domain.AuditLog{
		ID:           uuid.New().String(),
		CredentialID: credentialID,
		Action:       action,
		Resource:     resource,
		IP:           ip,
		Metadata:     metadata,
		CreatedAt:    time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
	}
}
