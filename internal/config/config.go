package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Account  AccountConfig
	Smtp     SmtpConfig
	Sms      SmsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AccountConfig defines account lifecycle parameters.
type AccountConfig struct {
	BcryptCost           int
	OtpTTLMinutes        int
	OtpSweepIntervalSecs int
	OtpMaxAttempts       int
	DefaultRole          string
}

// SmtpConfig holds outbound mail settings.
type SmtpConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SmsConfig holds the SMS gateway settings. An empty BaseURL disables
// the channel.
type SmsConfig struct {
	BaseURL  string
	APIKey   string
	UserID   string
	Password string
	SenderID string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "account-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Account: AccountConfig{
			BcryptCost:           getEnvAsInt("ACCOUNT_BCRYPT_COST", 12),
			OtpTTLMinutes:        getEnvAsInt("ACCOUNT_OTP_TTL_MINUTES", 5),
			OtpSweepIntervalSecs: getEnvAsInt("ACCOUNT_OTP_SWEEP_INTERVAL_SECONDS", 60),
			OtpMaxAttempts:       getEnvAsInt("ACCOUNT_OTP_MAX_ATTEMPTS", 0),
			DefaultRole:          getEnv("ACCOUNT_DEFAULT_ROLE", "user"),
		},
		Smtp: SmtpConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "noreply@example.com"),
		},
		Sms: SmsConfig{
			BaseURL:  os.Getenv("SMS_GATEWAY_URL"),
			APIKey:   os.Getenv("SMS_API_KEY"),
			UserID:   os.Getenv("SMS_USER_ID"),
			Password: os.Getenv("SMS_PASSWORD"),
			SenderID: getEnv("SMS_SENDER_ID", "ACCOUNTS"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// OtpTTL returns the one-time code validity window.
func (c AccountConfig) OtpTTL() time.Duration {
	return time.Duration(c.OtpTTLMinutes) * time.Minute
}

// OtpSweepInterval returns the sweeper tick interval.
func (c AccountConfig) OtpSweepInterval() time.Duration {
	if c.OtpSweepIntervalSecs <= 0 {
		return time.Minute
	}
	return time.Duration(c.OtpSweepIntervalSecs) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
