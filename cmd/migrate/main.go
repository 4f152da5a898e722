package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/seemyown/StockController/pkg/config"
	"github.com/seemyown/StockController/pkg/db"
	"github.com/seemyown/StockController/pkg/logger"
	"github.com/seemyown/StockController/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate|embedded")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	if err := run(context.Background(), logg, opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", opts.cmd, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logg *logger.Logger, opts options) error {
	// create and validate work on files only and need no configuration.
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return errors.New("missing -name")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	case "validate":
		if err := migrate.ValidateEmbedded(); err != nil {
			return fmt.Errorf("embedded migrations: %w", err)
		}
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	sqlDB, err := dbClient.SQL()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	dialect := migrate.DialectFor(dbClient.Driver())

	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"cmd":     opts.cmd,
		"dir":     opts.dir,
		"dialect": dialect,
	})
	logg.Info(ctx, "migrate ready")

	switch opts.cmd {
	case "up", "down", "status":
		err = migrate.Run(ctx, sqlDB, dialect, opts.dir, opts.cmd)
	case "embedded":
		err = migrate.Up(ctx, sqlDB, dialect)
	case "version":
		if opts.version == "" {
			return errors.New("missing -version")
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, dialect, opts.dir, opts.version)
	default:
		return fmt.Errorf("unknown -cmd value %q", opts.cmd)
	}
	if err != nil {
		return err
	}
	logg.Info(ctx, "migrate finished")
	return nil
}
