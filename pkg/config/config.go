package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "LUMENPAY_DB_DSN"
	EnvDBHost = "LUMENPAY_DB_HOST"
	EnvDBUser = "LUMENPAY_DB_USER"
	EnvDBName = "LUMENPAY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Provider     ProviderConfig
	Reconcile    ReconcileConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LUMENPAY_APP_ENV" required:"true"`
	Port         string `envconfig:"LUMENPAY_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"LUMENPAY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LUMENPAY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LUMENPAY_DB_DSN"`
	Driver string `envconfig:"LUMENPAY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LUMENPAY_DB_HOST"`
	LegacyPort     int    `envconfig:"LUMENPAY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LUMENPAY_DB_USER"`
	LegacyPassword string `envconfig:"LUMENPAY_DB_PASSWORD"`
	LegacyName     string `envconfig:"LUMENPAY_DB_NAME"`
	LegacySSLMode  string `envconfig:"LUMENPAY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LUMENPAY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LUMENPAY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LUMENPAY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LUMENPAY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LUMENPAY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LUMENPAY_REDIS_ADDR"`
	Password     string        `envconfig:"LUMENPAY_REDIS_PASSWORD"`
	DB           int           `envconfig:"LUMENPAY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LUMENPAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LUMENPAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LUMENPAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LUMENPAY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LUMENPAY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ProviderConfig holds the payment-provider webhook settings.
type ProviderConfig struct {
	WebhookSecret   string        `envconfig:"LUMENPAY_PROVIDER_WEBHOOK_SECRET" required:"true"`
	SignatureHeader string        `envconfig:"LUMENPAY_PROVIDER_SIGNATURE_HEADER" default:"X-Lumenpay-Signature"`
	IdempotencyTTL  time.Duration `envconfig:"LUMENPAY_PROVIDER_IDEMPOTENCY_TTL" default:"720h"`
}

// ReconcileConfig bounds the reconciliation transaction.
type ReconcileConfig struct {
	ApplyTimeout time.Duration `envconfig:"LUMENPAY_RECONCILE_APPLY_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LUMENPAY_AUTO_MIGRATE" default:"false"`
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
