// cmd/migrate applies the embedded schema migrations.
// Uso: go run ./cmd/migrate [up|down|version|force N]
package main

import (
	"errors"
	"os"
	"strconv"

	"cierrecaja/internal/config"
	"cierrecaja/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	if cmd == "up" {
		if err := migrations.Up(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("migrate up failed")
		}
		return
	}

	m, err := migrations.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open migrations")
	}
	defer m.Close()

	switch cmd {
	case "down":
		if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("migrate down failed")
		}
	case "force":
		if len(os.Args) < 3 {
			log.Fatal().Msg("uso: migrate force <version>")
		}
		v, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.Fatal().Err(err).Msg("version inválida")
		}
		if err := m.Force(v); err != nil {
			log.Fatal().Err(err).Msg("migrate force failed")
		}
	case "version":
	default:
		log.Fatal().Str("cmd", cmd).Msg("uso: migrate [up|down|version|force N]")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatal().Err(err).Msg("failed to read version")
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema version")
}
