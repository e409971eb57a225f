// Command migrate applies or reverts the embedded schema migrations against
// the SQLite database named by DB_PATH (default data/vines.db).
//
// Usage:
//
//	migrate up            apply every pending migration
//	migrate down          revert every migration
//	migrate steps N       apply (N > 0) or revert (N < 0) N migrations
//	migrate version       print the current version
//	migrate force V       mark version V as applied and clean
//
// The server runs "up" on its own at startup; this tool is for inspecting
// and repairing a database by hand.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	sqliteRepo "github.com/sakif/vines-backend/internal/repository/sqlite"
)

const usage = "usage: migrate up|down|steps N|version|force V"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(os.Args[1:], logger); err != nil {
		logger.Error("migration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(args []string, logger *slog.Logger) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", slog.String("error", err.Error()))
	}
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "data/vines.db"
	}

	db, err := sqliteRepo.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := db.Migrator()
	if err != nil {
		return err
	}

	switch cmd := args[0]; cmd {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("applying migrations: %w", err)
		}
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("reverting migrations: %w", err)
		}
	case "steps":
		n, err := intArg(args, "steps")
		if err != nil {
			return err
		}
		if err := m.Steps(n); err != nil {
			return fmt.Errorf("migrating %d steps: %w", n, err)
		}
	case "force":
		v, err := intArg(args, "force")
		if err != nil {
			return err
		}
		if err := m.Force(v); err != nil {
			return fmt.Errorf("forcing version %d: %w", v, err)
		}
	case "version":
	default:
		return fmt.Errorf("unknown command %q; %s", cmd, usage)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info("database has no migrations applied", slog.String("database", dbPath))
	case err != nil:
		return fmt.Errorf("reading version: %w", err)
	default:
		logger.Info("migration state",
			slog.String("database", dbPath),
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty),
		)
	}
	return nil
}

func intArg(args []string, cmd string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s requires a number; %s", cmd, usage)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", cmd, args[1])
	}
	return n, nil
}
