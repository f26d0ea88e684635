// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev admin (admin@example.com) already exists.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"session-authority/internal/config"
	credentialdomain "session-authority/internal/credential/domain"
	credentialrepo "session-authority/internal/credential/repository"
	"session-authority/internal/db"
	profiledomain "session-authority/internal/profile/domain"
	profilerepo "session-authority/internal/profile/repository"
	"session-authority/internal/security"
)

const (
	adminEmail  = "admin@example.com"
	staffEmail  = "staff@example.com"
	leaderEmail = "leader@example.com"
	devPassword = "password123"

	adminID  = "dev-credential-admin"
	staffID  = "dev-credential-staff"
	leaderID = "dev-credential-leader"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	credentials := credentialrepo.NewPostgresRepository(conn)
	profiles := profilerepo.NewPostgresRepository(conn)

	existing, err := credentials.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (admin@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	digest, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()

	creds := []*credentialdomain.Credential{
		{ID: adminID, Email: adminEmail, PasswordDigest: digest, BaseRole: credentialdomain.RoleAdmin, CreatedAt: now, UpdatedAt: now},
		{ID: staffID, Email: staffEmail, PasswordDigest: digest, BaseRole: credentialdomain.RoleStaff, CreatedAt: now, UpdatedAt: now},
		{ID: leaderID, Email: leaderEmail, PasswordDigest: digest, BaseRole: credentialdomain.RoleStaff, CreatedAt: now, UpdatedAt: now},
	}
	for _, c := range creds {
		if err := credentials.Create(ctx, c); err != nil {
			log.Fatalf("create credential %s: %v", c.Email, err)
		}
	}

	ordinary := profiledomain.RankOrdinaryStaff
	leaderRank := profiledomain.RankTeamLeader
	profs := []*profiledomain.AccountProfile{
		{ID: "dev-profile-staff", CredentialID: staffID, OrganizationalRank: &ordinary, CreatedAt: now, UpdatedAt: now},
		{ID: "dev-profile-leader", CredentialID: leaderID, OrganizationalRank: &leaderRank, CreatedAt: now, UpdatedAt: now},
	}
	for _, p := range profs {
		if err := profiles.Create(ctx, p); err != nil {
			log.Fatalf("create profile for %s: %v", p.CredentialID, err)
		}
	}

	log.Println("Seed complete:")
	log.Printf("  admin:  %s / %s", adminEmail, devPassword)
	log.Printf("  staff:  %s / %s (rank ORDINARY_STAFF)", staffEmail, devPassword)
	log.Printf("  leader: %s / %s (rank TEAM_LEADER, effective role manager)", leaderEmail, devPassword)
}
