// Package server assembles the gRPC server: the request gate, the
// authorization filters, audit and telemetry interceptors, and the standard
// health service. Business RPC surfaces are registered by the embedding
// application on the returned server; this module owns only the session
// authority that fronts them.
package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	auditrepo "session-authority/internal/audit/repository"
	authservice "session-authority/internal/auth/service"
	"session-authority/internal/authz"
	"session-authority/internal/security"
	"session-authority/internal/server/interceptors"
	"session-authority/internal/sessioncache"
	"session-authority/internal/telemetry/producer"
)

// Deps holds the dependencies wired into the interceptor chain.
type Deps struct {
	// Auth validates sessions for the request gate. Required.
	Auth *authservice.AuthService
	// Cache is the ephemeral session cache read and resynced by the gate. Required.
	Cache sessioncache.Cache
	// Codec unwraps the signed session token from metadata. Required.
	Codec *security.SessionTokenCodec
	// Authz evaluates the role/device allow-lists. If nil, every gated request passes the filters.
	Authz authz.Evaluator
	// AuditRepo persists per-RPC audit entries. If nil, RPCs are not audited.
	AuditRepo auditrepo.Repository
	// Telemetry emits per-RPC telemetry events. If nil, no events are emitted.
	Telemetry producer.Producer
	// PublicMethods bypass the request gate (and therefore the filters).
	PublicMethods map[string]bool
	// SkipObserveMethods are excluded from audit and telemetry (e.g. health checks).
	SkipObserveMethods map[string]bool
}

// New builds the gRPC server with the interceptor chain and registers the
// standard health service. The health server is returned so the caller can
// flip serving status on readiness changes.
func New(deps Deps) (*grpc.Server, *health.Server) {
	chain := []grpc.UnaryServerInterceptor{
		interceptors.AuthUnary(deps.Codec, deps.Cache, deps.Auth, deps.PublicMethods),
		interceptors.AuthzUnary(deps.Authz),
	}
	if deps.AuditRepo != nil {
		chain = append(chain, interceptors.AuditUnary(deps.AuditRepo, deps.SkipObserveMethods))
	}
	if deps.Telemetry != nil {
		chain = append(chain, interceptors.TelemetryUnary(deps.Telemetry, deps.SkipObserveMethods))
	}

	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(chain...),
	)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, healthSrv)

	return srv, healthSrv
}
