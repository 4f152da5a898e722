package config

const EnvPrefix = "STOCKCTL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "STOCKCTL_APP_ENV"
	EnvPort     = "STOCKCTL_APP_PORT"
	EnvLogLevel = "STOCKCTL_LOG_LEVEL"

	EnvDBDSN      = "STOCKCTL_DB_DSN"
	EnvDBDriver   = "STOCKCTL_DB_DRIVER"
	EnvDBHost     = "STOCKCTL_DB_HOST"
	EnvDBPort     = "STOCKCTL_DB_PORT"
	EnvDBUser     = "STOCKCTL_DB_USER"
	EnvDBPassword = "STOCKCTL_DB_PASSWORD"
	EnvDBName     = "STOCKCTL_DB_NAME"

	EnvRedisURL = "STOCKCTL_REDIS_URL"

	EnvCronInterval = "STOCKCTL_CRON_INTERVAL"
	EnvCronLockTTL  = "STOCKCTL_CRON_LOCK_TTL"

	EnvIDMin              = "STOCKCTL_ID_MIN"
	EnvIDMax              = "STOCKCTL_ID_MAX"
	EnvRecomputeFreeSpace = "STOCKCTL_RECOMPUTE_FREE_SPACE"

	EnvAutoMigrate = "STOCKCTL_AUTO_MIGRATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
