// Command migrate applies or rolls back the database schema.
//
// Usage:
//
//	migrate up
//	migrate down
package main

import (
	"os"

	"staybook/authcore/internal/config"
	"staybook/authcore/internal/db/migrate"
	"staybook/authcore/internal/logging"
)

func main() {
	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		log := logging.New("")
		log.Fatal().Err(err).Msg("config load failed")
	}
	log := logging.New(cfg.Env)

	if err := migrate.Run(cfg.DatabaseURL, direction); err != nil {
		log.Fatal().Err(err).Str("direction", direction).Msg("migration failed")
	}
	log.Info().Str("direction", direction).Msg("migrations applied")
}
