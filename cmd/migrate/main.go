// Command migrate applies manual schema steps to the booking store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"ms-booking/internal/config"
	"ms-booking/internal/database"
	"ms-booking/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, _ := config.Load()

	var action string
	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.StringVarP(&action, "action", "a", database.ActionUp, "up, down, reset or seed")
	flagSet.StringVar(&cfg.Database.Driver, "driver", cfg.Database.Driver, "sqlite, postgres or mysql")
	flagSet.StringVar(&cfg.Database.DSN, "dsn", cfg.Database.DSN, "database DSN")
	flagSet.StringVar(&cfg.Database.MigrationsDir, "dir", cfg.Database.MigrationsDir, "postgres migrations directory (default: embedded)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	log := logger.NewLogger(logger.Options{Dir: cfg.Log.Dir, Prefix: "migrate", MinLevel: logger.ParseLevel(cfg.Log.Level)})
	defer log.Close()

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Info("MIGRATE", fmt.Sprintf("Running %q on %s", action, cfg.Database.Driver))
	if err := database.RunAction(ctx, db, cfg.Database, action, log); err != nil {
		return err
	}
	log.Info("MIGRATE", "✅ Done.")
	return nil
}
