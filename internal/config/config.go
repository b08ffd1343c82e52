package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// RateLimitBackend selects where the guild listing cooldown lives.
type RateLimitBackend string

const (
	RateLimitMemory RateLimitBackend = "memory"
	RateLimitRedis  RateLimitBackend = "redis"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	PGHost     string `env:"PG_HOST" envDefault:"localhost"`
	PGPort     string `env:"PG_PORT" envDefault:"5432"`
	PGUser     string `env:"PG_USER" envDefault:"postgres"`
	PGDB       string `env:"PG_DB" envDefault:"servercv"`
	PGPassword string `env:"PG_PASSWORD"`

	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	DiscordBotToken      string   `env:"DISCORD_BOT_TOKEN"`
	PublicBaseURL        string   `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	PaymentSigningSecret string   `env:"PAYMENT_SIGNING_SECRET"`
	CORSOrigins          []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	ExternalCallTimeout time.Duration    `env:"EXTERNAL_CALL_TIMEOUT" envDefault:"5s"`
	GuildListCooldown   time.Duration    `env:"GUILD_LIST_COOLDOWN" envDefault:"5s"`
	RateLimitBackend    RateLimitBackend `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`
	SessionTTL          time.Duration    `env:"SESSION_TTL" envDefault:"168h"`
	RelayInterval       time.Duration    `env:"RELAY_INTERVAL" envDefault:"2s"`

	PublicRateLimitRPS   float64 `env:"PUBLIC_RATE_LIMIT_RPS" envDefault:"5"`
	PublicRateLimitBurst int     `env:"PUBLIC_RATE_LIMIT_BURST" envDefault:"20"`

	BotMetricsAddr string `env:"BOT_METRICS_ADDR" envDefault:":9091"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	// a missing .env is normal outside local development
	_ = godotenv.Load(files...)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.RateLimitBackend {
	case RateLimitMemory, RateLimitRedis:
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q, got %q", RateLimitMemory, RateLimitRedis, c.RateLimitBackend)
	}
	if c.ExternalCallTimeout <= 0 {
		return fmt.Errorf("EXTERNAL_CALL_TIMEOUT must be positive")
	}
	if c.GuildListCooldown <= 0 {
		return fmt.Errorf("GUILD_LIST_COOLDOWN must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// PostgresDSN builds the connection url shared by the GORM and sqlx pools.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PGUser, c.PGPassword),
		Host:     c.PGHost + ":" + c.PGPort,
		Path:     "/" + c.PGDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}
