package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Cron         CronConfig
	Inventory    InventoryConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Inventory.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOCKCTL_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKCTL_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOCKCTL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOCKCTL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOCKCTL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOCKCTL_DB_DSN"`
	Driver string `envconfig:"STOCKCTL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOCKCTL_DB_HOST"`
	LegacyPort     int    `envconfig:"STOCKCTL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOCKCTL_DB_USER"`
	LegacyPassword string `envconfig:"STOCKCTL_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOCKCTL_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOCKCTL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOCKCTL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKCTL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKCTL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKCTL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite engine.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKCTL_REDIS_URL"`
	Address      string        `envconfig:"STOCKCTL_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKCTL_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKCTL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKCTL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKCTL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKCTL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKCTL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKCTL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type CronConfig struct {
	Interval time.Duration `envconfig:"STOCKCTL_CRON_INTERVAL" default:"15m"`
	LockTTL  time.Duration `envconfig:"STOCKCTL_CRON_LOCK_TTL" default:"10m"`
}

type InventoryConfig struct {
	IDMin              int64  `envconfig:"STOCKCTL_ID_MIN" default:"1000000000000"`
	IDMax              int64  `envconfig:"STOCKCTL_ID_MAX" default:"9999999999999"`
	StockCodeLength    int    `envconfig:"STOCKCTL_STOCK_CODE_LENGTH" default:"8"`
	BarcodeLength      int    `envconfig:"STOCKCTL_BARCODE_LENGTH" default:"24"`
	DefaultCurrency    string `envconfig:"STOCKCTL_DEFAULT_CURRENCY" default:"RUB"`
	RecomputeFreeSpace bool   `envconfig:"STOCKCTL_RECOMPUTE_FREE_SPACE" default:"false"`
}

func (i InventoryConfig) validate() error {
	if i.IDMin <= 0 || i.IDMax <= i.IDMin {
		return fmt.Errorf("%s and %s must describe a positive range", EnvIDMin, EnvIDMax)
	}
	if i.StockCodeLength <= 0 || i.BarcodeLength <= 0 {
		return fmt.Errorf("stock code and barcode lengths must be positive")
	}
	return nil
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOCKCTL_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STOCKCTL_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDriver, DBDriverSQLite)
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
