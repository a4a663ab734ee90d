// Command seed populates a development database with a known admin, manager,
// and member, plus one account carrying a legacy hash so the rehash-on-login
// path can be exercised end to end. Idempotent: existing emails are skipped.
package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	accountdomain "staybook/authcore/internal/account/domain"
	accountrepo "staybook/authcore/internal/account/repository"
	"staybook/authcore/internal/config"
	"staybook/authcore/internal/db"
	"staybook/authcore/internal/logging"
	"staybook/authcore/internal/security"
)

type seedAccount struct {
	email    string
	password string
	role     accountdomain.Role
	legacy   bool
}

var seeds = []seedAccount{
	{email: "admin@staybook.dev", password: "Admin-Dev-Pass1", role: accountdomain.RoleAdmin},
	{email: "manager@staybook.dev", password: "Manager-Dev-Pass1", role: accountdomain.RoleManager},
	{email: "member@staybook.dev", password: "Member-Dev-Pass1", role: accountdomain.RoleMember},
	// Stored with the pre-bcrypt scheme; logging in upgrades it.
	{email: "legacy@staybook.dev", password: "Legacy-Dev-Pass1", role: accountdomain.RoleMember, legacy: true},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logging.New("")
		log.Fatal().Err(err).Msg("config load failed")
	}
	log := logging.New(cfg.Env)

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database open failed")
	}
	defer conn.Close()

	accounts := accountrepo.NewPostgresRepository(conn)
	hasher := security.NewHasher(cfg.BcryptCost)
	ctx := context.Background()

	for _, s := range seeds {
		if err := seedOne(ctx, accounts, hasher, s, log); err != nil {
			log.Fatal().Err(err).Str("email", s.email).Msg("seed failed")
		}
	}
	log.Info().Msg("seed complete")
}

func seedOne(ctx context.Context, accounts accountrepo.Repository, hasher *security.Hasher, s seedAccount, log zerolog.Logger) error {
	existing, err := accounts.GetByEmail(ctx, s.email)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Debug().Str("email", s.email).Msg("already seeded")
		return nil
	}

	var hash string
	if s.legacy {
		hash = security.LegacySHA256Hash([]byte(s.password))
	} else {
		hash, err = hasher.Hash([]byte(s.password))
		if err != nil {
			return err
		}
	}

	if err := accounts.Create(ctx, &accountdomain.Account{
		ID:           uuid.New().String(),
		Email:        s.email,
		PasswordHash: hash,
		Role:         s.role,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		return err
	}
	log.Info().Str("email", s.email).Str("role", string(s.role)).Msg("account seeded")
	return nil
}
