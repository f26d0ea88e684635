// server runs the session authority gRPC server: request gate, authorization
// filters, audit, telemetry, and the standard health service.
package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"session-authority/internal/audit"
	auditrepo "session-authority/internal/audit/repository"
	authservice "session-authority/internal/auth/service"
	"session-authority/internal/authz"
	"session-authority/internal/config"
	credentialrepo "session-authority/internal/credential/repository"
	"session-authority/internal/db"
	profilerepo "session-authority/internal/profile/repository"
	"session-authority/internal/role"
	"session-authority/internal/security"
	"session-authority/internal/server"
	"session-authority/internal/server/interceptors"
	sessionrepo "session-authority/internal/session/repository"
	"session-authority/internal/sessioncache"
	"session-authority/internal/telemetry/otel"
	"session-authority/internal/telemetry/producer"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if cfg.SessionTokenSecret == "" {
		log.Fatal("SESSION_TOKEN_SECRET is not set")
	}

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "session-authority", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	sessionTTL := cfg.SessionTTL()

	credentials := credentialrepo.NewPostgresRepository(conn)
	profiles := profilerepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)
	auditRepo := auditrepo.NewPostgresRepository(conn)

	cache := sessioncache.NewRedisCache(redisClient, "", sessionTTL)
	auditLogger := audit.NewLogger(auditRepo, interceptors.ClientIP)
	resolver := role.NewResolver(credentials, profiles)
	hasher := security.NewHasher(cfg.BcryptCost)
	codec := security.NewSessionTokenCodec(cfg.SessionTokenSecret, sessionTTL)

	auth := authservice.NewAuthService(
		credentials,
		sessions,
		resolver,
		hasher,
		auditLogger,
		cfg.BootstrapToken,
		sessionTTL,
	)
	evaluator, err := authz.NewOPAEvaluator(ctx, "")
	if err != nil {
		log.Fatalf("authz: %v", err)
	}

	var telemetryProducer producer.Producer
	if brokers := cfg.TelemetryBrokerList(); len(brokers) > 0 {
		kp, err := producer.NewKafkaProducer(brokers, cfg.TelemetryKafkaTopic)
		if err != nil {
			log.Fatalf("telemetry: %v", err)
		}
		if kp != nil {
			telemetryProducer = kp
			defer kp.Close()
		}
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	srv, healthSrv := server.New(server.Deps{
		Auth:      auth,
		Cache:     cache,
		Codec:     codec,
		Authz:     evaluator,
		AuditRepo: auditRepo,
		Telemetry: telemetryProducer,
		PublicMethods: map[string]bool{
			healthCheckMethod: true,
		},
		SkipObserveMethods: map[string]bool{
			healthCheckMethod: true,
		},
	})

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := srv.Serve(lis); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down gRPC server...")
	healthSrv.Shutdown()
	srv.GracefulStop()
	log.Println("gRPC server stopped")
}
