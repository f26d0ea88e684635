package domain

import "time"

// AuditLog represents an audit event on the authentication surface.
type AuditLog struct {
	ID           string
	CredentialID string
	Action       string
	Resource     string
	IP           string
	Metadata     string
	CreatedAt    time.Time
}
