package authz

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

const accessQuery = "data.session_authority.access.allow"

// Default Rego policy: empty allow-sets, so every operation is open. A
// deployment supplies its own policy document declaring per-method role and
// device allow-sets in the same package.
const defaultRegoPolicy = `package session_authority.access

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

allowed_roles := {}

allowed_devices := {}
`

// OPAEvaluator evaluates the role/device allow-lists with an in-process OPA
// Rego engine. The policy is compiled once at construction; evaluation is pure
// and performs no store access.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles the given Rego policy and returns an evaluator.
// An empty policy falls back to the open default.
func NewOPAEvaluator(ctx context.Context, policy string) (*OPAEvaluator, error) {
	if policy == "" {
		policy = defaultRegoPolicy
	}
	q, err := rego.New(
		rego.Query(accessQuery),
		rego.Module("access.rego", policy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("authz: compile policy: %w", err)
	}
	return &OPAEvaluator{query: q}, nil
}

// Allow evaluates the compiled policy against the identity and target method.
func (e *OPAEvaluator) Allow(ctx context.Context, in Input) (bool, error) {
	input := map[string]interface{}{
		"method":       in.Method,
		"role":         string(in.Role),
		"device_class": string(in.DeviceClass),
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("authz: eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("authz: policy query returned no result")
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("authz: policy result is not a boolean")
	}
	return allowed, nil
}

// HealthCheck verifies the engine can evaluate the compiled policy.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.Allow(ctx, Input{Method: "/healthz", Role: "staff", DeviceClass: "pc"})
	return err
}
