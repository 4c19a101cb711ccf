package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-booking/internal/config"
	"ms-booking/internal/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// Open connects to the configured store and returns a bun handle for it.
// The connection is pinged a few times before giving up so the service can
// start alongside its database container.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	driverName, dsn, err := driverFor(cfg)
	if err != nil {
		return nil, err
	}

	var sqldb *sql.DB
	for i := 0; i < connectAttempts; i++ {
		log.Info("DATABASE", fmt.Sprintf("Connecting to %s (attempt %d/%d)", cfg.Driver, i+1, connectAttempts))
		sqldb, err = sql.Open(driverName, dsn)
		if err == nil {
			err = sqldb.PingContext(ctx)
			if err == nil {
				break
			}
			sqldb.Close()
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to %s: %v", cfg.Driver, err))
		if i < connectAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(connectBackoff):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s after %d attempts: %w", cfg.Driver, connectAttempts, err)
	}

	configurePool(sqldb, cfg)
	log.Info("DATABASE", fmt.Sprintf("✅ %s connection successful", cfg.Driver))

	return Wrap(sqldb, cfg.Driver)
}

// Wrap builds a bun handle over an existing connection pool.
func Wrap(sqldb *sql.DB, driver string) (*bun.DB, error) {
	switch driver {
	case DriverPostgres:
		return bun.NewDB(sqldb, pgdialect.New()), nil
	case DriverMySQL:
		return bun.NewDB(sqldb, mysqldialect.New()), nil
	case DriverSQLite, "":
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func driverFor(cfg config.DatabaseConfig) (string, string, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return "postgres", cfg.DSN, nil
	case DriverMySQL:
		return "mysql", cfg.DSN, nil
	case DriverSQLite, "":
		return sqliteshim.ShimName, cfg.DSN, nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func configurePool(sqldb *sql.DB, cfg config.DatabaseConfig) {
	if cfg.Driver == DriverSQLite || cfg.Driver == "" {
		// sqlite allows one writer; a single connection avoids SQLITE_BUSY
		sqldb.SetMaxOpenConns(1)
		return
	}
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)
}

// TxOptions returns the isolation used for booking transactions. sqlite only
// supports serializable, so it keeps the driver default.
func TxOptions(db bun.IDB) *sql.TxOptions {
	switch db.Dialect().Name() {
	case dialect.PG, dialect.MySQL:
		return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	default:
		return nil
	}
}

// Contains renders a case-sensitive substring predicate for the dialect.
func Contains(db bun.IDB, column string) string {
	switch db.Dialect().Name() {
	case dialect.PG:
		return "strpos(" + column + ", ?) > 0"
	case dialect.MySQL:
		return "INSTR(BINARY " + column + ", ?) > 0"
	default:
		return "instr(" + column + ", ?) > 0"
	}
}
