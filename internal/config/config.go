// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// DatabaseURL is the Postgres DSN for accounts, sessions, attempts, and audit entries.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisAddr is the optional Redis address for the hot-path attempt store; empty disables Redis.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// RedisPassword is the optional Redis password.
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; signs session tokens.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; verifies session tokens.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim (e.g. "staybook-auth").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim (e.g. "staybook-web").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12. Stored hashes below
	// this cost are upgraded on the next successful login.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// HashWorkers bounds concurrent bcrypt operations; 0 means a GOMAXPROCS-derived default.
	HashWorkers int `mapstructure:"HASH_WORKERS"`
	// LockoutThreshold is the number of consecutive failed logins before an account locks.
	LockoutThreshold int `mapstructure:"LOCKOUT_THRESHOLD"`
	// LockoutWindow is how long a lock holds after the most recent failure (e.g. "15m").
	LockoutWindow string `mapstructure:"LOCKOUT_WINDOW"`
	// SessionTimeout is the sliding inactivity timeout for sessions (e.g. "60m").
	SessionTimeout string `mapstructure:"SESSION_TIMEOUT"`
	// PasswordMinLength is the minimum accepted password length.
	PasswordMinLength int `mapstructure:"PASSWORD_MIN_LENGTH"`
	// PasswordRequireUpper requires at least one uppercase letter.
	PasswordRequireUpper bool `mapstructure:"PASSWORD_REQUIRE_UPPER"`
	// PasswordRequireDigit requires at least one digit.
	PasswordRequireDigit bool `mapstructure:"PASSWORD_REQUIRE_DIGIT"`
	// PasswordRequireSymbol requires at least one non-alphanumeric character.
	PasswordRequireSymbol bool `mapstructure:"PASSWORD_REQUIRE_SYMBOL"`
	// AttemptRetention is how long login attempt records are kept before the
	// retention sweeper prunes them (e.g. "720h"). Lockout never needs more
	// than LockoutWindow of history; the rest is kept for operational review.
	AttemptRetention string `mapstructure:"ATTEMPT_RETENTION"`
	// SweepSchedule is the cron spec (with seconds) for the retention sweeper.
	SweepSchedule string `mapstructure:"SWEEP_SCHEDULE"`
	// OTLPEndpoint is the OTLP collector endpoint for telemetry; empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_ISSUER", "staybook-auth")
	v.SetDefault("JWT_AUDIENCE", "staybook-web")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("HASH_WORKERS", 0)
	v.SetDefault("LOCKOUT_THRESHOLD", 5)
	v.SetDefault("LOCKOUT_WINDOW", "15m")
	v.SetDefault("SESSION_TIMEOUT", "60m")
	v.SetDefault("PASSWORD_MIN_LENGTH", 10)
	v.SetDefault("PASSWORD_REQUIRE_UPPER", true)
	v.SetDefault("PASSWORD_REQUIRE_DIGIT", true)
	v.SetDefault("PASSWORD_REQUIRE_SYMBOL", false)
	v.SetDefault("ATTEMPT_RETENTION", "720h") // 30d
	v.SetDefault("SWEEP_SCHEDULE", "0 */10 * * * *")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.LockoutThreshold < 1 {
		return nil, errors.New("config: LOCKOUT_THRESHOLD must be at least 1")
	}
	if cfg.PasswordMinLength < 1 {
		return nil, errors.New("config: PASSWORD_MIN_LENGTH must be at least 1")
	}

	return &cfg, nil
}

// LockoutWindowDuration parses LockoutWindow as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) LockoutWindowDuration() time.Duration {
	d, err := time.ParseDuration(c.LockoutWindow)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// SessionTimeoutDuration parses SessionTimeout as a time.Duration. Returns 60m if unset or invalid.
func (c *Config) SessionTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.SessionTimeout)
	if err != nil || d <= 0 {
		return 60 * time.Minute
	}
	return d
}

// AttemptRetentionDuration parses AttemptRetention as a time.Duration. Returns 720h if unset or invalid.
func (c *Config) AttemptRetentionDuration() time.Duration {
	d, err := time.ParseDuration(c.AttemptRetention)
	if err != nil || d <= 0 {
		return 720 * time.Hour
	}
	return d
}
