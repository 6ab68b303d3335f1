package infra

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/guildcasino/casino/internal/domain"
)

const insecureJWTSecret = "change-me-in-production"

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"casino"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"casino"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"casino"`

	// Pool; every play holds one connection for a single short transaction
	DBMaxConns        int32         `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns        int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	DBMaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DBAppName         string        `env:"DB_APPLICATION_NAME" envDefault:"guild-casino"`

	RunMigrations bool `env:"RUN_MIGRATIONS" envDefault:"true"`

	// Redis; empty keeps caches and rate limits in process
	RedisURL string `env:"REDIS_URL"`

	// JWT
	JWTSecret        string        `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTServiceExpiry time.Duration `env:"JWT_SERVICE_EXPIRY" envDefault:"720h"`
	JWTAdminExpiry   time.Duration `env:"JWT_ADMIN_EXPIRY" envDefault:"8h"`

	// Server
	APIPort            int    `env:"API_PORT" envDefault:"3100"`
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`

	// House rules
	StartingBalance int64         `env:"STARTING_BALANCE" envDefault:"200"`
	BonusAmount     int64         `env:"BONUS_AMOUNT" envDefault:"50"`
	BonusCooldown   time.Duration `env:"BONUS_COOLDOWN" envDefault:"4h"`

	// Sessions
	SessionIdleTimeout   time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"15m"`
	SessionSweepSchedule string        `env:"SESSION_SWEEP_SCHEDULE" envDefault:"@every 1m"`
	RouletteSelectionTTL time.Duration `env:"ROULETTE_SELECTION_TTL" envDefault:"168h"`

	// RNG; empty draws from crypto/rand only
	RandomOrgAPIKey string `env:"RANDOM_ORG_API_KEY"`

	LeaderboardCacheTTL time.Duration `env:"LEADERBOARD_CACHE_TTL" envDefault:"30s"`
	RateLimitPerMinute  int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate rejects unusable values, then checks for insecure configuration
// that must not run in production. ALLOW_INSECURE_DEFAULTS=true bypasses
// only the secret checks (local dev only).
func (c *Config) Validate() error {
	switch {
	case c.StartingBalance < 0 || c.StartingBalance > MaxBalance:
		return fmt.Errorf("STARTING_BALANCE must be between 0 and %d", MaxBalance)
	case c.BonusAmount < 1:
		return fmt.Errorf("BONUS_AMOUNT must be at least 1")
	case c.BonusCooldown <= 0:
		return fmt.Errorf("BONUS_COOLDOWN must be positive")
	case c.RateLimitPerMinute < 1:
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be at least 1")
	case c.SessionIdleTimeout <= 0:
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	case c.DBMaxConns < 1:
		return fmt.Errorf("DB_MAX_CONNS must be at least 1")
	case c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns:
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}

	if c.AllowInsecureDefaults {
		return nil
	}
	if c.JWTSecret == insecureJWTSecret {
		return fmt.Errorf("JWT_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.JWTSecret))
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// HouseRules returns the economy configured for this deployment.
func (c *Config) HouseRules() domain.HouseRules {
	rules := domain.DefaultHouseRules()
	rules.StartingBalance = c.StartingBalance
	rules.BonusAmount = c.BonusAmount
	rules.BonusCooldown = c.BonusCooldown
	return rules
}

// SlogLevel maps LOG_LEVEL to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// KafkaBrokerList splits KAFKA_BROKERS on commas.
func (c *Config) KafkaBrokerList() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
