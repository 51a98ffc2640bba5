// migrate applies the OTP store schema to Postgres; run with go run ./cmd/migrate.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/shandysiswandi/billease/internal/otp/outbound/store"
	"github.com/shandysiswandi/billease/internal/pkg/config"
	"github.com/shandysiswandi/billease/internal/pkg/migrate"
)

func main() {
	direction := flag.String("direction", migrate.DirectionUp, "Migration direction: up or down")
	configPath := flag.String("config", "./config/config.yaml", "Config file used when DATABASE_URL is unset")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		cfg, err := config.NewViper(*configPath)
		if err != nil {
			slog.Error("failed to load config", "error", err, "path", *configPath)
			os.Exit(1)
		}
		dsn = cfg.GetString("database.url")
		_ = cfg.Close()
	}

	if err := migrate.Run(store.MigrationFS, store.MigrationDir, dsn, *direction); err != nil {
		slog.Error("failed to run migrations", "error", err, "direction", *direction)
		os.Exit(1)
	}

	slog.Info("migrations applied", "direction", *direction)
}
