package config

// EnvPrefix namespaces all service environment variables.
const EnvPrefix = "AURORA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "AURORA_APP_ENV"
	EnvPort     = "AURORA_APP_PORT"
	EnvDBDSN    = "AURORA_DB_DSN"
	EnvDBHost   = "AURORA_DB_HOST"
	EnvDBUser   = "AURORA_DB_USER"
	EnvDBName   = "AURORA_DB_NAME"
	EnvRedisURL = "AURORA_REDIS_URL"

	EnvPaymentTokenServer = "AURORA_PAYMENT_TOKEN_SERVER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
