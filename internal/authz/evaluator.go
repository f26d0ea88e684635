// Package authz evaluates the declarative role/device allow-lists. Filters run
// strictly after the request gate, on the validated identity attached to the
// request, and perform no store access.
package authz

import (
	"context"

	credentialdomain "session-authority/internal/credential/domain"
	sessiondomain "session-authority/internal/session/domain"
)

// Input is the identity and target operation an allow-list is evaluated against.
type Input struct {
	// Method is the full gRPC method name (e.g. /acme.contract.v1.ContractService/ListContracts).
	Method string
	// Role is the freshly resolved effective role from the request gate.
	Role credentialdomain.Role
	// DeviceClass is the device class recorded at login.
	DeviceClass sessiondomain.DeviceClass
}

// Evaluator decides whether the identity may invoke the target operation.
// Operations with no declared allow-set pass through (open by default).
type Evaluator interface {
	Allow(ctx context.Context, in Input) (bool, error)
}

// Rule is the declared allow-set for one operation. An empty slice means that
// dimension is unconstrained.
type Rule struct {
	Roles   []credentialdomain.Role
	Devices []sessiondomain.DeviceClass
}

// StaticEvaluator evaluates allow-lists from an in-memory rule table. Used in
// tests and deployments that do not carry a Rego policy.
type StaticEvaluator struct {
	rules map[string]Rule
}

// NewStaticEvaluator returns an evaluator over rules keyed by full method name.
func NewStaticEvaluator(rules map[string]Rule) *StaticEvaluator {
	return &StaticEvaluator{rules: rules}
}

// Allow applies the rule declared for in.Method; absent rules pass.
func (e *StaticEvaluator) Allow(_ context.Context, in Input) (bool, error) {
	rule, ok := e.rules[in.Method]
	if !ok {
		return true, nil
	}
	if len(rule.Roles) > 0 && !containsRole(rule.Roles, in.Role) {
		return false, nil
	}
	if len(rule.Devices) > 0 && !containsDevice(rule.Devices, in.DeviceClass) {
		return false, nil
	}
	return true, nil
}

func containsRole(roles []credentialdomain.Role, r credentialdomain.Role) bool {
	for _, v := range roles {
		if v == r {
			return true
		}
	}
	return false
}

func containsDevice(devices []sessiondomain.DeviceClass, d sessiondomain.DeviceClass) bool {
	for _, v := range devices {
		if v == d {
			return true
		}
	}
	return false
}
