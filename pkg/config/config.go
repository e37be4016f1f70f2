package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	FeatureFlags  FeatureFlagsConfig
	Autoship      AutoshipConfig
	PaymentTokens PaymentTokensConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Autoship.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AURORA_APP_ENV" required:"true"`
	Port         string `envconfig:"AURORA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AURORA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AURORA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AURORA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"AURORA_DB_DSN"`
	Driver string `envconfig:"AURORA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AURORA_DB_HOST"`
	LegacyPort     int    `envconfig:"AURORA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AURORA_DB_USER"`
	LegacyPassword string `envconfig:"AURORA_DB_PASSWORD"`
	LegacyName     string `envconfig:"AURORA_DB_NAME"`
	LegacySSLMode  string `envconfig:"AURORA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AURORA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AURORA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AURORA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AURORA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AURORA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AURORA_REDIS_ADDR"`
	Password     string        `envconfig:"AURORA_REDIS_PASSWORD"`
	DB           int           `envconfig:"AURORA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AURORA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AURORA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AURORA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AURORA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AURORA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AURORA_AUTO_MIGRATE" default:"false"`
}

// AutoshipConfig controls recurring-order behavior.
type AutoshipConfig struct {
	CashEnabled bool `envconfig:"AURORA_AUTOSHIP_CASH_ENABLED" default:"false"`
	// TokenCountries is the ISO allow-list of billing countries for which the
	// payment-token provider is supported.
	TokenCountries []string      `envconfig:"AURORA_AUTOSHIP_TOKEN_COUNTRIES" default:"US,CA"`
	RunInterval    time.Duration `envconfig:"AURORA_AUTOSHIP_RUN_INTERVAL" default:"24h"`
	// TriggerRateLimit caps manual batch triggers per TriggerRateWindow.
	// Zero disables the throttle.
	TriggerRateLimit  int64         `envconfig:"AURORA_AUTOSHIP_TRIGGER_RATE_LIMIT" default:"10"`
	TriggerRateWindow time.Duration `envconfig:"AURORA_AUTOSHIP_TRIGGER_RATE_WINDOW" default:"1m"`
}

func (a *AutoshipConfig) validate() error {
	for i, iso := range a.TokenCountries {
		iso = strings.ToUpper(strings.TrimSpace(iso))
		if len(iso) != 2 {
			return fmt.Errorf("invalid token country %q", a.TokenCountries[i])
		}
		a.TokenCountries[i] = iso
	}
	return nil
}

// TokenEligibleCountry reports membership in the token allow-list.
func (a AutoshipConfig) TokenEligibleCountry(iso string) bool {
	iso = strings.ToUpper(strings.TrimSpace(iso))
	for _, allowed := range a.TokenCountries {
		if allowed == iso {
			return true
		}
	}
	return false
}

// PaymentTokensConfig configures the external tokenization endpoint.
type PaymentTokensConfig struct {
	Server      string        `envconfig:"AURORA_PAYMENT_TOKEN_SERVER"`
	ClientID    string        `envconfig:"AURORA_PAYMENT_TOKEN_CLIENT_ID"`
	Timeout     time.Duration `envconfig:"AURORA_PAYMENT_TOKEN_TIMEOUT" default:"10s"`
	MaxAttempts int           `envconfig:"AURORA_PAYMENT_TOKEN_MAX_ATTEMPTS" default:"3"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
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
