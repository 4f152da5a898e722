package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/seemyown/StockController/pkg/config"
	"github.com/seemyown/StockController/pkg/logger"
)

// Client wraps the shared GORM connection.
type Client struct {
	conn   *gorm.DB
	driver string
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxRunner is the unit of work every inventory mutation runs inside.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// New boots a GORM client using the provided configuration.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	dialector, driver, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	gormCfg := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	}

	conn, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}

	applyPoolSettings(sqlDB, cfg, driver)

	if logg != nil {
		logg.Info(logg.WithField(ctx, "driver", driver), "database connection established")
	}

	return &Client{conn: conn, driver: driver}, nil
}

// NewFromConn adopts an already opened connection, mostly for tests.
func NewFromConn(conn *gorm.DB, driver string) *Client {
	if driver == "" {
		driver = conn.Dialector.Name()
	}
	return &Client{conn: conn, driver: driver}
}

func dialectorFor(cfg config.DBConfig) (gorm.Dialector, string, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", config.DBDriverPostgres:
		return postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		}), config.DBDriverPostgres, nil
	case config.DBDriverSQLite:
		return sqlite.Open(WithSQLiteForeignKeys(cfg.DSN)), config.DBDriverSQLite, nil
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// WithSQLiteForeignKeys makes sure cascades are enforced on every sqlite connection.
func WithSQLiteForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=1"
}

func applyPoolSettings(sqlDB *sql.DB, cfg config.DBConfig, driver string) {
	if driver == config.DBDriverSQLite {
		// sqlite serialises writers; a single connection keeps savepoints and reads on one session.
		sqlDB.SetMaxOpenConns(1)
		return
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// DB returns the underlying GORM connection.
func (c *Client) DB() *gorm.DB {
	return c.conn
}

// Driver returns the normalized driver name (postgres or sqlite).
func (c *Client) Driver() string {
	return c.driver
}

// SQL exposes the pooled database/sql handle for migrations.
func (c *Client) SQL() (*sql.DB, error) {
	return c.conn.DB()
}

// Ping verifies the datasource is reachable.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close shuts down the pooled connections.
func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Exec wraps GORM's Exec with context propagation.
func (c *Client) Exec(ctx context.Context, query string, args ...any) *gorm.DB {
	return c.conn.WithContext(ctx).Exec(query, args...)
}

// Raw wraps GORM's Raw with context propagation.
func (c *Client) Raw(ctx context.Context, query string, args ...any) *gorm.DB {
	return c.conn.WithContext(ctx).Raw(query, args...)
}

// WithTx executes fn inside a transaction, rolling back on error/panic.
// Nested tx.Transaction calls inside fn become savepoints of this transaction.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := c.conn.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
