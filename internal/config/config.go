package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds two database logins. DB_OWNER_* owns the schema: it runs the
// migrations and writes identities and their bootstrap rows. DB_USER is the
// application role; it must not own the tables, so row level security
// applies to every request it serves.
type Config struct {
	DBHost          string `env:"DB_HOST" env-default:"localhost"`
	DBPort          string `env:"DB_PORT" env-default:"5432"`
	DBUser          string `env:"DB_USER" env-default:"taskflow_app"`
	DBPassword      string `env:"DB_PASSWORD" env-default:"taskflow_app"`
	DBOwnerUser     string `env:"DB_OWNER_USER" env-default:"taskflow"`
	DBOwnerPassword string `env:"DB_OWNER_PASSWORD" env-default:"taskflow"`
	DBName          string `env:"DB_NAME" env-default:"taskflow"`
	DBSSLMode       string `env:"DB_SSLMODE" env-default:"disable"`

	ServerPort     string   `env:"SERVER_PORT" env-default:"8080"`
	JWTSecret      string   `env:"JWT_SECRET" env-required:"true"`
	JWTExpiryHours int      `env:"JWT_EXPIRY_HOURS" env-default:"24"`
	LogLevel       string   `env:"LOG_LEVEL" env-default:"info"`
	CORSOrigins    []string `env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`

	// Empty RedisAddr disables the admin stats cache.
	RedisAddr     string        `env:"REDIS_ADDR"`
	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL" env-default:"1m"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	origins, err := parseOrigins(cfg.CORSOrigins)
	if err != nil {
		return nil, err
	}
	cfg.CORSOrigins = origins
	return &cfg, nil
}

// parseOrigins trims and checks CORS_ORIGINS entries. Each must be "*" or an
// http(s) scheme and host.
func parseOrigins(raw []string) ([]string, error) {
	var origins []string
	for _, o := range raw {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o != "*" {
			u, err := url.Parse(o)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return nil, fmt.Errorf("CORS_ORIGINS: invalid origin %q", o)
			}
		}
		origins = append(origins, o)
	}
	return origins, nil
}

// DSN returns the application role's connection string, understood by both
// gorm and pgx.
func (c *Config) DSN() string {
	return c.dsn(c.DBUser, c.DBPassword)
}

// OwnerDSN returns the schema owner's connection string.
func (c *Config) OwnerDSN() string {
	return c.dsn(c.DBOwnerUser, c.DBOwnerPassword)
}

// SharedRole reports whether the application connects as the schema owner,
// in which case the database does not enforce row policies on it.
func (c *Config) SharedRole() bool {
	return c.DBUser == c.DBOwnerUser
}

// MigrateURL returns the owner's connection URL in the form golang-migrate's
// pgx/v5 driver expects.
func (c *Config) MigrateURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.DBOwnerUser, c.DBOwnerPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	return u.String()
}

func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpiryHours) * time.Hour
}

func (c *Config) dsn(user, password string) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, quote(user), quote(password), c.DBName, c.DBSSLMode,
	)
}

// quote wraps a key/value DSN value in single quotes when it contains
// characters libpq would otherwise split on.
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v) + "'"
}
