package authz

import (
	"context"
	"testing"

	credentialdomain "session-authority/internal/credential/domain"
	sessiondomain "session-authority/internal/session/domain"
)

const testPolicy = `package session_authority.access

default allow := true

allow := false if {
	roles := allowed_roles[input.method]
	not role_permitted(roles)
}

allow := false if {
	devices := allowed_devices[input.method]
	not device_permitted(devices)
}

role_permitted(roles) if {
	some r in roles
	r == input.role
}

device_permitted(devices) if {
	some d in devices
	d == input.device_class
}

allowed_roles := {"/test.Service/AdminOnly": ["admin"]}

allowed_devices := {"/test.Service/PCOnly": ["pc"]}
`

func TestOPAEvaluator_DefaultPolicyIsOpen(t *testing.T) {
	ctx := context.Background()
	ev, err := NewOPAEvaluator(ctx, "")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}

	allowed, err := ev.Allow(ctx, Input{
		Method:      "/test.Service/Anything",
		Role:        credentialdomain.RoleStaff,
		DeviceClass: sessiondomain.DeviceMobile,
	})
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !allowed {
		t.Error("default policy should allow every operation")
	}
}

func TestOPAEvaluator_DeclaredAllowSets(t *testing.T) {
	ctx := context.Background()
	ev, err := NewOPAEvaluator(ctx, testPolicy)
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}

	testCases := []struct {
		name string
		in   Input
		want bool
	}{
		{
			name: "undeclared method open",
			in:   Input{Method: "/test.Service/Open", Role: credentialdomain.RoleStaff, DeviceClass: sessiondomain.DevicePC},
			want: true,
		},
		{
			name: "admin passes role gate",
			in:   Input{Method: "/test.Service/AdminOnly", Role: credentialdomain.RoleAdmin, DeviceClass: sessiondomain.DevicePC},
			want: true,
		},
		{
			name: "staff denied by role gate",
			in:   Input{Method: "/test.Service/AdminOnly", Role: credentialdomain.RoleStaff, DeviceClass: sessiondomain.DevicePC},
			want: false,
		},
		{
			name: "pc passes device gate",
			in:   Input{Method: "/test.Service/PCOnly", Role: credentialdomain.RoleStaff, DeviceClass: sessiondomain.DevicePC},
			want: true,
		},
		{
			name: "mobile denied by device gate",
			in:   Input{Method: "/test.Service/PCOnly", Role: credentialdomain.RoleAdmin, DeviceClass: sessiondomain.DeviceMobile},
			want: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ev.Allow(ctx, tc.in)
			if err != nil {
				t.Fatalf("Allow: %v", err)
			}
			if got != tc.want {
				t.Errorf("Allow = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOPAEvaluator_InvalidPolicy(t *testing.T) {
	if _, err := NewOPAEvaluator(context.Background(), "package broken\nallow :="); err == nil {
		t.Error("invalid policy should fail to compile")
	}
}

func TestOPAEvaluator_HealthCheck(t *testing.T) {
	ev, err := NewOPAEvaluator(context.Background(), "")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	if err := ev.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}
