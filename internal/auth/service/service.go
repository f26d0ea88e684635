// Package service implements the authentication service: signin, the two
// session-lifecycle operations enforcing the ledger invariants, and the
// shared-secret-gated credential mutation flows.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"session-authority/internal/audit"
	credentialdomain "session-authority/internal/credential/domain"
	"session-authority/internal/security"
	sessiondomain "session-authority/internal/session/domain"
)

// Sentinel errors for the auth service; the request gate and handlers map them
// to uniform Unauthorized/Forbidden codes. The validation reasons stay internal
// and are never surfaced verbatim to callers.
var (
	ErrUnauthorized = errors.New("invalid credentials")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")

	ErrNoCredential = errors.New("session validation: credential missing")
	ErrDisabled     = errors.New("session validation: credential disabled")
	ErrNoSession    = errors.New("session validation: no active session")
	ErrExpired      = errors.New("session validation: session expired")
	ErrMismatch     = errors.New("session validation: claim mismatch")
)

// CredentialRepo is the minimal credential repository needed by the auth service.
type CredentialRepo interface {
	GetByID(ctx context.Context, id string) (*credentialdomain.Credential, error)
	GetByEmail(ctx context.Context, email string) (*credentialdomain.Credential, error)
	CountByRole(ctx context.Context, role credentialdomain.Role) (int64, error)
	Create(ctx context.Context, c *credentialdomain.Credential) error
	Update(ctx context.Context, id string, patch credentialdomain.UpdatePatch) error
}

// SessionRepo is the minimal session ledger repository needed by the auth service.
type SessionRepo interface {
	GetBySessionKey(ctx context.Context, sessionKey string) (*sessiondomain.SessionRecord, error)
	Supersede(ctx context.Context, rec *sessiondomain.SessionRecord) ([]string, error)
	Deactivate(ctx context.Context, sessionKey string) error
	UpdateLastAccessed(ctx context.Context, sessionKey string, at time.Time) error
}

// RoleResolver computes the effective role for a credential from current store state.
type RoleResolver interface {
	EffectiveRole(ctx context.Context, credentialID string) (credentialdomain.Role, error)
}

// AuthService implements signin, session registration/validation, and the
// bootstrap/reset flows.
type AuthService struct {
	credentials     CredentialRepo
	sessions        SessionRepo
	resolver        RoleResolver
	hasher          *security.Hasher
	auditLog        audit.AuditLogger
	bootstrapSecret string
	sessionTTL      time.Duration
}

// NewAuthService returns an AuthService with the given dependencies.
// auditLog may be nil; then nothing is audited. bootstrapSecret may be empty;
// then bootstrap and reset flows always fail closed.
func NewAuthService(
	credentials CredentialRepo,
	sessions SessionRepo,
	resolver RoleResolver,
	hasher *security.Hasher,
	auditLog audit.AuditLogger,
	bootstrapSecret string,
	sessionTTL time.Duration,
) *AuthService {
	return &AuthService{
		credentials:     credentials,
		sessions:        sessions,
		resolver:        resolver,
		hasher:          hasher,
		auditLog:        auditLog,
		bootstrapSecret: bootstrapSecret,
		sessionTTL:      sessionTTL,
	}
}

// SignInResult holds the outcome of SignIn.
type SignInResult struct {
	CredentialID string
	Role         credentialdomain.Role
}

// SignIn authenticates email/password and returns the resolved effective role.
// It does not create a session row; session creation is a separate explicit
// step so transport-level session establishment can occur first.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrUnauthorized
	}
	cred, err := s.credentials.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if cred == nil || cred.IsDisabled {
		s.logEvent(ctx, "", "signin_failure", "credential", email)
		return nil, ErrUnauthorized
	}
	if err := s.hasher.Compare(cred.PasswordDigest, []byte(password)); err != nil {
		s.logEvent(ctx, cred.ID, "signin_failure", "credential", "")
		return nil, ErrUnauthorized
	}
	role, err := s.resolver.EffectiveRole(ctx, cred.ID)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, cred.ID, "signin_success", "credential", "")
	return &SignInResult{CredentialID: cred.ID, Role: role}, nil
}

// RegisterSessionParams are the inputs to RegisterSession. SessionKey may be
// empty; then a fresh key is generated. DeviceClass may be empty; then it is
// classified from UserAgent.
type RegisterSessionParams struct {
	SessionKey   string
	CredentialID string
	DeviceClass  sessiondomain.DeviceClass
	UserAgent    string
	IP           string
}

// RegisterSessionResult returns the new key, the superseded keys the caller
// must tear down in the ephemeral cache (best-effort), and the expiry.
type RegisterSessionResult struct {
	SessionKey     string
	OldSessionKeys []string
	DeviceClass    sessiondomain.DeviceClass
	ExpiresAt      time.Time
}

// RegisterSession issues a new ledger row for the credential/device pair,
// atomically superseding any active row of the same pair. The whole operation
// runs in one transaction serialized by a row lock, so concurrent logins for
// the same pair cannot leave two active rows.
func (s *AuthService) RegisterSession(ctx context.Context, p RegisterSessionParams) (*RegisterSessionResult, error) {
	if p.CredentialID == "" {
		return nil, ErrUnauthorized
	}
	key := p.SessionKey
	if key == "" {
		key = uuid.New().String()
	}
	class := p.DeviceClass
	if !class.Valid() {
		class = sessiondomain.ClassifyDevice(p.UserAgent)
	}
	now := time.Now().UTC()
	expiresAt := now.Add(s.sessionTTL)
	rec := &sessiondomain.SessionRecord{
		ID:             uuid.New().String(),
		SessionKey:     key,
		CredentialID:   p.CredentialID,
		DeviceClass:    class,
		IsActive:       true,
		ExpiresAt:      &expiresAt,
		UserAgent:      p.UserAgent,
		IP:             p.IP,
		LastAccessedAt: &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	oldKeys, err := s.sessions.Supersede(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("register session: %w", err)
	}
	s.logEvent(ctx, p.CredentialID, "session_registered", "session", string(class))
	return &RegisterSessionResult{
		SessionKey:     key,
		OldSessionKeys: oldKeys,
		DeviceClass:    class,
		ExpiresAt:      expiresAt,
	}, nil
}

// Claim is the caller's claimed identity for session validation, read from the
// transport-level session payload.
type Claim struct {
	SessionKey   string
	CredentialID string
	DeviceClass  sessiondomain.DeviceClass
}

// ValidateActiveSession checks the claim against the ledger, short-circuiting
// on the first failure in a fixed order: credential state, session presence,
// claim match, expiry. On success it touches last-accessed best-effort and
// returns the freshly resolved effective role; the cached role is never trusted.
func (s *AuthService) ValidateActiveSession(ctx context.Context, c Claim) (credentialdomain.Role, error) {
	cred, err := s.credentials.GetByID(ctx, c.CredentialID)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", ErrNoCredential
	}
	if cred.IsDisabled {
		return "", ErrDisabled
	}

	rec, err := s.sessions.GetBySessionKey(ctx, c.SessionKey)
	if err != nil {
		return "", err
	}
	if rec == nil || !rec.IsActive {
		return "", ErrNoSession
	}
	if rec.CredentialID != c.CredentialID || rec.DeviceClass != c.DeviceClass {
		// A real key replayed against a different account or device claim.
		return "", ErrMismatch
	}

	now := time.Now().UTC()
	if rec.Expired(now) {
		// Lazy deactivation: best-effort, the verdict stands either way.
		if derr := s.sessions.Deactivate(ctx, c.SessionKey); derr != nil {
			log.Printf("auth: deactivate expired session: %v", derr)
		}
		return "", ErrExpired
	}

	if uerr := s.sessions.UpdateLastAccessed(ctx, c.SessionKey, now); uerr != nil {
		log.Printf("auth: update last accessed: %v", uerr)
	}
	role, err := s.resolver.EffectiveRole(ctx, c.CredentialID)
	if err != nil {
		return "", err
	}
	return role, nil
}

// DeactivateSessionByKey flips a currently-active row with the key to inactive.
// Idempotent: a no-op when the row is already inactive or absent.
func (s *AuthService) DeactivateSessionByKey(ctx context.Context, sessionKey string) error {
	return s.sessions.Deactivate(ctx, sessionKey)
}

// BootstrapAdmin creates the first admin credential. Strictly single-use:
// guarded by the shared secret and a precondition count of existing admin
// credentials. Returns the new credential id.
func (s *AuthService) BootstrapAdmin(ctx context.Context, email, password, presentedToken string) (string, error) {
	if !security.SecretEqual(presentedToken, s.bootstrapSecret) {
		return "", ErrForbidden
	}
	admins, err := s.credentials.CountByRole(ctx, credentialdomain.RoleAdmin)
	if err != nil {
		return "", err
	}
	if admins > 0 {
		return "", ErrForbidden
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if err := validatePassword(password); err != nil {
		return "", err
	}
	digest, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	cred := &credentialdomain.Credential{
		ID:             uuid.New().String(),
		Email:          email,
		PasswordDigest: digest,
		BaseRole:       credentialdomain.RoleAdmin,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := cred.Validate(); err != nil {
		return "", err
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		return "", err
	}
	s.logEvent(ctx, cred.ID, "bootstrap_admin", "credential", "")
	return cred.ID, nil
}

// ResetPasswordWithToken replaces the password digest for the credential with
// the given email, gated by the shared secret.
func (s *AuthService) ResetPasswordWithToken(ctx context.Context, email, newPassword, presentedToken string) error {
	if !security.SecretEqual(presentedToken, s.bootstrapSecret) {
		return ErrForbidden
	}
	email = strings.TrimSpace(strings.ToLower(email))
	cred, err := s.credentials.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if cred == nil {
		return ErrNotFound
	}
	return s.resetPassword(ctx, cred.ID, newPassword, "password_reset")
}

// ForceResetPasswordByAdmin replaces the password digest for the credential
// with the given id, gated by the shared secret.
func (s *AuthService) ForceResetPasswordByAdmin(ctx context.Context, credentialID, newPassword, presentedToken string) error {
	if !security.SecretEqual(presentedToken, s.bootstrapSecret) {
		return ErrForbidden
	}
	cred, err := s.credentials.GetByID(ctx, credentialID)
	if err != nil {
		return err
	}
	if cred == nil {
		return ErrNotFound
	}
	return s.resetPassword(ctx, cred.ID, newPassword, "password_force_reset")
}

func (s *AuthService) resetPassword(ctx context.Context, credentialID, newPassword, action string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	digest, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	if err := s.credentials.Update(ctx, credentialID, credentialdomain.UpdatePatch{PasswordDigest: &digest}); err != nil {
		return err
	}
	s.logEvent(ctx, credentialID, action, "credential", "")
	return nil
}

func (s *AuthService) logEvent(ctx context.Context, credentialID, action, resource, metadata string) {
	if s.auditLog == nil {
		return
	}
	s.auditLog.LogEvent(ctx, credentialID, action, resource, metadata)
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return errors.New("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
