package server

import (
	"testing"
	"time"

	authservice "session-authority/internal/auth/service"
	"session-authority/internal/security"
)

func TestNew_RegistersHealthService(t *testing.T) {
	auth := authservice.NewAuthService(nil, nil, nil, security.NewHasher(4), nil, "", time.Hour)
	srv, healthSrv := New(Deps{
		Auth:  auth,
		Codec: security.NewSessionTokenCodec("s", time.Hour),
	})
	if srv == nil {
		t.Fatal("New returned nil server")
	}
	if healthSrv == nil {
		t.Fatal("New returned nil health server")
	}
	if _, ok := srv.GetServiceInfo()["grpc.health.v1.Health"]; !ok {
		t.Errorf("health service not registered; services = %v", srv.GetServiceInfo())
	}
	srv.Stop()
}
