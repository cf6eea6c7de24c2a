// Package config assembles service settings from defaults, an optional TOML
// file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Redis     RedisConfig     `toml:"redis"`
	Auth      AuthConfig      `toml:"auth"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Streaks   StreaksConfig   `toml:"streaks"`
}

type ServerConfig struct {
	Port            string        `toml:"port"`
	Mode            string        `toml:"mode"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is "pgx" for Postgres or "sqlite" for an embedded file.
	Driver   string `toml:"driver"`
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
	SSLMode  string `toml:"ssl_mode"`
	// Path is the SQLite database file.
	Path string `toml:"path"`

	MaxOpenConns    int           `toml:"max_open_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled  bool          `toml:"enabled"`
	Host     string        `toml:"host"`
	Port     string        `toml:"port"`
	Password string        `toml:"password"`
	DB       int           `toml:"db"`
	CacheTTL time.Duration `toml:"cache_ttl"`
}

type AuthConfig struct {
	JWTSecret string        `toml:"jwt_secret"`
	Issuer    string        `toml:"issuer"`
	TokenTTL  time.Duration `toml:"token_ttl"`
}

type RateLimitConfig struct {
	Limit  int           `toml:"limit"`
	Window time.Duration `toml:"window"`
}

type StreaksConfig struct {
	SweepInterval time.Duration `toml:"sweep_interval"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			Mode:            "release",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "pgx",
			Host:            "localhost",
			Port:            "5432",
			User:            "kanso_user",
			Name:            "kanso_db",
			SSLMode:         "disable",
			Path:            "kanso.db",
			MaxOpenConns:    25,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled:  true,
			Host:     "localhost",
			Port:     "6379",
			CacheTTL: 30 * time.Minute,
		},
		Auth: AuthConfig{
			Issuer:   "kanso-habits",
			TokenTTL: 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Limit:  100,
			Window: time.Minute,
		},
		Streaks: StreaksConfig{
			SweepInterval: time.Hour,
		},
	}
}

// Load builds the configuration. tomlPath may be empty; a missing .env file
// is not an error.
func Load(tomlPath, envPath string) (Config, error) {
	cfg := Default()

	if tomlPath != "" {
		if _, err := toml.DecodeFile(tomlPath, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", tomlPath, err)
		}
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str(&c.Server.Port, "PORT")
	str(&c.Server.Mode, "GIN_MODE")

	str(&c.Database.Driver, "DB_DRIVER")
	str(&c.Database.Host, "DB_HOST")
	str(&c.Database.Port, "DB_PORT")
	str(&c.Database.User, "DB_USER")
	str(&c.Database.Password, "DB_PASSWORD")
	str(&c.Database.Name, "DB_NAME")
	str(&c.Database.SSLMode, "DB_SSLMODE")
	str(&c.Database.Path, "DB_PATH")

	str(&c.Redis.Host, "REDIS_HOST")
	str(&c.Redis.Port, "REDIS_PORT")
	str(&c.Redis.Password, "REDIS_PASSWORD")

	str(&c.Auth.JWTSecret, "JWT_SECRET")
	str(&c.Auth.Issuer, "JWT_ISSUER")

	for _, set := range []func() error{
		func() error { return boolean(&c.Redis.Enabled, "REDIS_ENABLED") },
		func() error { return integer(&c.Redis.DB, "REDIS_DB") },
		func() error { return integer(&c.RateLimit.Limit, "RATE_LIMIT") },
		func() error { return duration(&c.Auth.TokenTTL, "JWT_TTL") },
		func() error { return duration(&c.RateLimit.Window, "RATE_LIMIT_WINDOW") },
		func() error { return duration(&c.Streaks.SweepInterval, "STREAK_SWEEP_INTERVAL") },
	} {
		if err := set(); err != nil {
			return err
		}
	}
	return nil
}

func str(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func boolean(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func integer(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func duration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	switch c.Database.Driver {
	case "pgx", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	return nil
}

// DSN is the connection string for the configured driver.
func (c DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Write stores cfg as TOML, creating parent directories.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
