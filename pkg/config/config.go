package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable the app reads.
	EnvPrefix = "PADIMART"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Paystack     PaystackConfig
	Otp          OtpConfig
	Delivery     DeliveryConfig
	Cron         CronConfig
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
	Env          string `envconfig:"PADIMART_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"PADIMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PADIMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PADIMART_SERVICE_KIND" default:"cron-worker"`
}

type DBConfig struct {
	DSN    string `envconfig:"PADIMART_DB_DSN"`
	Driver string `envconfig:"PADIMART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PADIMART_DB_HOST"`
	LegacyPort     int    `envconfig:"PADIMART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PADIMART_DB_USER"`
	LegacyPassword string `envconfig:"PADIMART_DB_PASSWORD"`
	LegacyName     string `envconfig:"PADIMART_DB_NAME"`
	LegacySSLMode  string `envconfig:"PADIMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PADIMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PADIMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PADIMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PADIMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("either PADIMART_DB_DSN or host/user/name parts are required")
	}
	userInfo := url.UserPassword(d.LegacyUser, d.LegacyPassword)
	d.DSN = fmt.Sprintf(
		"postgres://%s@%s:%d/%s?sslmode=%s",
		userInfo.String(), d.LegacyHost, d.LegacyPort, d.LegacyName, d.LegacySSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"PADIMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PADIMART_REDIS_ADDR"`
	Password     string        `envconfig:"PADIMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"PADIMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PADIMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PADIMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PADIMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PADIMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PADIMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type PaystackConfig struct {
	SecretKey  string        `envconfig:"PADIMART_PAYSTACK_SECRET_KEY" required:"true"`
	BaseURL    string        `envconfig:"PADIMART_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	Timeout    time.Duration `envconfig:"PADIMART_PAYSTACK_TIMEOUT" default:"15s"`
	MaxRetries int           `envconfig:"PADIMART_PAYSTACK_MAX_RETRIES" default:"3"`
}

type OtpConfig struct {
	TTL          time.Duration `envconfig:"PADIMART_OTP_TTL" default:"10m"`
	ArgonMemory  int           `envconfig:"PADIMART_OTP_ARGON_MEMORY_KB" default:"19456"`
	ArgonTime    int           `envconfig:"PADIMART_OTP_ARGON_TIME" default:"2"`
	ArgonThreads int           `envconfig:"PADIMART_OTP_ARGON_THREADS" default:"1"`
}

type DeliveryConfig struct {
	CodeTTL time.Duration `envconfig:"PADIMART_DELIVERY_CODE_TTL" default:"72h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"PADIMART_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"PADIMART_CRON_LOCK_TTL" default:"2h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PADIMART_AUTO_MIGRATE" default:"false"`
}
