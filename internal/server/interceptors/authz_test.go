package interceptors

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"session-authority/internal/authz"
	credentialdomain "session-authority/internal/credential/domain"
	sessiondomain "session-authority/internal/session/domain"
)

type stubEvaluator struct {
	allowed bool
	err     error
	last    authz.Input
}

func (s *stubEvaluator) Allow(_ context.Context, in authz.Input) (bool, error) {
	s.last = in
	return s.allowed, s.err
}

func gatedCtx() context.Context {
	return WithIdentity(context.Background(), Identity{
		CredentialID: "c1",
		Role:         credentialdomain.RoleManager,
		DeviceClass:  sessiondomain.DevicePC,
		SessionKey:   "k1",
	})
}

func TestAuthzUnary_Allows(t *testing.T) {
	ev := &stubEvaluator{allowed: true}
	ic := AuthzUnary(ev)

	resp, err := ic(gatedCtx(), nil, protectedInfo(), passthroughHandler(nil))
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if resp != "ok" {
		t.Errorf("resp = %v, want ok", resp)
	}
	if ev.last.Method != "/test.Service/Protected" || ev.last.Role != credentialdomain.RoleManager || ev.last.DeviceClass != sessiondomain.DevicePC {
		t.Errorf("evaluator input = %+v", ev.last)
	}
}

func TestAuthzUnary_Denies(t *testing.T) {
	ic := AuthzUnary(&stubEvaluator{allowed: false})

	_, err := ic(gatedCtx(), nil, protectedInfo(), passthroughHandler(nil))
	if status.Code(err) != codes.PermissionDenied {
		t.Errorf("code = %v, want PermissionDenied", status.Code(err))
	}
}

func TestAuthzUnary_EvaluatorError(t *testing.T) {
	ic := AuthzUnary(&stubEvaluator{err: errors.New("rego blew up")})

	_, err := ic(gatedCtx(), nil, protectedInfo(), passthroughHandler(nil))
	if status.Code(err) != codes.Internal {
		t.Errorf("code = %v, want Internal", status.Code(err))
	}
}

func TestAuthzUnary_NoIdentityPassesThrough(t *testing.T) {
	ev := &stubEvaluator{allowed: false}
	ic := AuthzUnary(ev)

	// Public methods never acquire an identity; the filter must not run.
	resp, err := ic(context.Background(), nil, protectedInfo(), passthroughHandler(nil))
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if resp != "ok" {
		t.Errorf("resp = %v, want ok", resp)
	}
}

func TestAuthzUnary_NilEvaluatorPassesThrough(t *testing.T) {
	ic := AuthzUnary(nil)

	if _, err := ic(gatedCtx(), nil, protectedInfo(), passthroughHandler(nil)); err != nil {
		t.Fatalf("nil evaluator should pass through: %v", err)
	}
}
