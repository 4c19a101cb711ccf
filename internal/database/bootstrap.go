package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"

	"ms-booking/internal/config"
	"ms-booking/internal/database/migrations"
	"ms-booking/internal/logger"
)

// Prepare brings the store schema up to date and optionally loads the sample
// catalog. Postgres uses the versioned SQL migrations; sqlite and mysql build
// the schema from the bun models.
func Prepare(ctx context.Context, db *bun.DB, cfg config.DatabaseConfig, log *logger.Logger) error {
	if !cfg.AutoMigrate {
		log.Info("MIGRATE", "Auto migration disabled")
		return nil
	}

	if cfg.Driver == DriverPostgres {
		return migratePostgres(cfg, log)
	}

	if err := CreateSchema(ctx, db); err != nil {
		return err
	}
	log.LogDatabase("CREATE", "schema", fmt.Sprintf("%s schema ready", cfg.Driver))

	if cfg.Seed {
		if err := Seed(ctx, db); err != nil {
			return err
		}
		log.LogDatabase("SEED", "tickets", "sample catalog loaded")
	}
	return nil
}

func migratePostgres(cfg config.DatabaseConfig, log *logger.Logger) error {
	sqldb, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}

	runner := migrations.NewRunner(sqldb, migrations.MigrateOptions{
		MigrationsDir: cfg.MigrationsDir,
		AutoMigrate:   cfg.AutoMigrate,
		SeedData:      cfg.Seed,
	}, log)
	defer func() {
		if err := runner.Close(); err != nil {
			log.Warn("MIGRATE", err.Error())
		}
	}()

	return runner.RunMigrations()
}

// Migration actions understood by RunAction.
const (
	ActionUp    = "up"
	ActionDown  = "down"
	ActionReset = "reset"
	ActionSeed  = "seed"
)

// RunAction applies one manual migration step. Postgres goes through the
// versioned migrations, the other drivers through the bun models.
func RunAction(ctx context.Context, db *bun.DB, cfg config.DatabaseConfig, action string, log *logger.Logger) error {
	switch action {
	case ActionUp, ActionDown, ActionReset, ActionSeed:
	default:
		return fmt.Errorf("unknown migration action %q (want up, down, reset or seed)", action)
	}

	if cfg.Driver == DriverPostgres {
		return runPostgresAction(cfg, action, log)
	}

	switch action {
	case ActionUp:
		return CreateSchema(ctx, db)
	case ActionDown:
		return DropSchema(ctx, db)
	case ActionReset:
		if err := DropSchema(ctx, db); err != nil {
			return err
		}
		return CreateSchema(ctx, db)
	default:
		if err := CreateSchema(ctx, db); err != nil {
			return err
		}
		return Seed(ctx, db)
	}
}

func runPostgresAction(cfg config.DatabaseConfig, action string, log *logger.Logger) error {
	sqldb, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	runner := migrations.NewRunner(sqldb, migrations.MigrateOptions{MigrationsDir: cfg.MigrationsDir}, log)
	defer runner.Close()

	switch action {
	case ActionUp:
		return runner.RunMigrations()
	case ActionDown:
		return runner.MigrateDown()
	case ActionReset:
		if err := runner.MigrateDown(); err != nil {
			return err
		}
		return runner.RunMigrations()
	default:
		return runner.MigrateUp()
	}
}
