// reaper periodically deactivates expired session records in the ledger so
// reports and admin views converge even for sessions that are never presented
// again. Validation already treats expired sessions as dead on read; the
// sweep only tidies the rows. Set REAPER_INTERVAL to tune the cadence.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"session-authority/internal/config"
	"session-authority/internal/db"
	sessionrepo "session-authority/internal/session/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("reaper: DATABASE_URL is required")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	sessions := sessionrepo.NewPostgresRepository(conn)
	interval := cfg.ReaperSweepInterval()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("reaper: shutting down...")
		cancel()
	}()

	log.Printf("reaper: sweeping expired sessions every %s", interval)
	sweep(ctx, sessions)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("reaper: stopped")
			return
		case <-ticker.C:
			sweep(ctx, sessions)
		}
	}
}

func sweep(ctx context.Context, sessions sessionrepo.Repository) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	n, err := sessions.DeactivateExpired(sweepCtx, time.Now().UTC())
	if err != nil {
		log.Printf("reaper: sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("reaper: deactivated %d expired sessions", n)
	}
}
