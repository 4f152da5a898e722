package migrate

import (
	"context"
	"fmt"

	"github.com/seemyown/StockController/pkg/config"
	"github.com/seemyown/StockController/pkg/db"
	"github.com/seemyown/StockController/pkg/logger"
)

// MaybeRunDev applies the embedded migrations when the app runs in dev mode
// with auto-migrate enabled, or whenever the sqlite driver is selected.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	autorun := cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
	if !autorun && !cfg.DB.IsSQLite() {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	dialect := DialectFor(client.Driver())
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": dialect})
	logg.Info(ctx, "running embedded goose migrations")

	if err := Up(ctx, sqlDB, dialect); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
