package repository

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"session-authority/internal/db"
	"session-authority/internal/db/migrate"
	"session-authority/internal/session/domain"
)

// The supersede transaction relies on the schema rejecting a second active row
// for the same (credential, device class) pair, so the partial index over
// active rows must be unique.
func TestMigrationEnforcesSingleActiveRow(t *testing.T) {
	raw, err := db.MigrationFS.ReadFile("migrations/0001_init.up.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sqlText := string(raw)

	idx := strings.Index(sqlText, "CREATE UNIQUE INDEX idx_session_records_active")
	if idx < 0 {
		t.Fatal("migration should create idx_session_records_active as a UNIQUE index")
	}
	rest := sqlText[idx:]
	if end := strings.Index(rest, ";"); end >= 0 {
		rest = rest[:end]
	}
	if !strings.Contains(rest, "WHERE is_active") {
		t.Error("idx_session_records_active should be partial over active rows")
	}
	for _, col := range []string{"credential_id", "device_class"} {
		if !strings.Contains(rest, col) {
			t.Errorf("idx_session_records_active should cover %s", col)
		}
	}
}

func TestSupersede_ConcurrentLogins(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	if err := migrate.Run(dsn, "up"); err != nil {
		t.Skipf("migrate up failed (expected in test environment): %v", err)
	}
	conn, err := db.Open(dsn)
	if err != nil {
		t.Skipf("Database connection failed (expected in test environment): %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	credentialID := uuid.NewString()
	now := time.Now().UTC()
	_, err = conn.ExecContext(ctx,
		`INSERT INTO credentials (id, email, password_digest, base_role, is_disabled, created_at, updated_at)
		 VALUES ($1, $2, 'x', 'staff', FALSE, $3, $3)`,
		credentialID, credentialID+"@example.com", now)
	if err != nil {
		t.Fatalf("insert credential: %v", err)
	}

	repo := NewPostgresRepository(conn)
	const logins = 16

	var mu sync.Mutex
	issued := make(map[string]bool)
	supersededCount := make(map[string]int)
	var wg sync.WaitGroup
	for i := 0; i < logins; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := &domain.SessionRecord{
				ID:           uuid.NewString(),
				SessionKey:   uuid.NewString(),
				CredentialID: credentialID,
				DeviceClass:  domain.DevicePC,
			}
			oldKeys, err := repo.Supersede(ctx, rec)
			if err != nil {
				t.Errorf("Supersede: %v", err)
				return
			}
			mu.Lock()
			issued[rec.SessionKey] = true
			for _, k := range oldKeys {
				supersededCount[k]++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	rows, err := repo.ListActiveByCredential(ctx, credentialID,
		[]domain.DeviceClass{domain.DevicePC})
	if err != nil {
		t.Fatalf("ListActiveByCredential: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("active rows after %d concurrent logins = %d, want 1", logins, len(rows))
	}
	survivor := rows[0].SessionKey
	if !issued[survivor] {
		t.Fatalf("surviving session key %q was never issued", survivor)
	}

	// Every issued key except the survivor must have been reported as
	// superseded by exactly one later login.
	if supersededCount[survivor] != 0 {
		t.Errorf("surviving key reported as superseded %d times", supersededCount[survivor])
	}
	for key := range issued {
		if key == survivor {
			continue
		}
		if supersededCount[key] != 1 {
			t.Errorf("key %q superseded %d times, want 1", key, supersededCount[key])
		}
	}
	for key := range supersededCount {
		if !issued[key] {
			t.Errorf("superseded key %q was never issued", key)
		}
	}
}
