package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/seemyown/StockController/pkg/config"
)

const DefaultDir = "pkg/migrate/migrations"

const embeddedDir = "migrations"

//go:embed migrations/*.sql
var embedded embed.FS

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// DialectFor maps a configured database driver onto the goose dialect name.
func DialectFor(driver string) string {
	if driver == config.DBDriverSQLite {
		return DialectSQLite
	}
	return DialectPostgres
}

// Run executes a standard goose command against the migrations directory on disk.
func Run(ctx context.Context, db *sql.DB, dialect, dir string, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if dir == "" {
		return fmt.Errorf("dir is required")
	}

	goose.SetBaseFS(nil)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	// RunContext prints status output to stdout (goose internal)
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up applies the migrations compiled into the binary.
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}

	goose.SetBaseFS(embedded)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, embeddedDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, db *sql.DB, dialect, dir string, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}

	goose.SetBaseFS(nil)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
		return nil
	default:
		if err := goose.DownToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return nil
	}
}
