// Package config loads runtime settings for the compliance commands.
//
// Settings are layered: built-in defaults, then an optional YAML file, then
// environment variables (a .env file in the working directory is loaded
// first). Command-line flags in cmd/ override the result.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"jpx_compliance/internal/flight"
	"jpx_compliance/internal/ingest"
	"jpx_compliance/internal/storage"
)

// Config is the complete runtime configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Storage storage.Config `yaml:"storage"`
	Redis   RedisConfig    `yaml:"redis"`
	NATS    NATSConfig     `yaml:"nats"`
	Airport AirportConfig  `yaml:"airport"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// RedisConfig configures the report cache. When disabled or unreachable the
// cache runs in memory.
type RedisConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// NATSConfig configures alert notifications.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// AirportConfig describes the monitored airport.
type AirportConfig struct {
	Codes           []string `yaml:"codes"`
	Timezone        string   `yaml:"timezone"`
	CurfewStartHour int      `yaml:"curfew_start_hour"`
	CurfewEndHour   int      `yaml:"curfew_end_hour"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8082},
		Storage: storage.DefaultConfig(),
		Redis: RedisConfig{
			Enabled:    false,
			Address:    "localhost:6379",
			TTLSeconds: 300,
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			SubjectPrefix: "jpx.alerts",
		},
		Airport: AirportConfig{
			Codes:           append([]string(nil), ingest.DefaultAirportCodes...),
			Timezone:        "America/New_York",
			CurfewStartHour: flight.DefaultCurfew.StartHour,
			CurfewEndHour:   flight.DefaultCurfew.EndHour,
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment are used.
func Load(path string) (*Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = envOrDefaultInt("JPX_PORT", cfg.Server.Port)

	st := &cfg.Storage
	st.Driver = envOrDefault("JPX_STORAGE_DRIVER", st.Driver)
	st.SQLitePath = envOrDefault("JPX_SQLITE_PATH", st.SQLitePath)
	st.Postgres.Host = envOrDefault("POSTGRES_HOST", st.Postgres.Host)
	st.Postgres.Port = envOrDefaultInt("POSTGRES_PORT", st.Postgres.Port)
	st.Postgres.User = envOrDefault("POSTGRES_USER", st.Postgres.User)
	st.Postgres.Password = envOrDefault("POSTGRES_PASSWORD", st.Postgres.Password)
	st.Postgres.Database = envOrDefault("POSTGRES_DATABASE", st.Postgres.Database)
	st.ClickHouse.Host = envOrDefault("CLICKHOUSE_HOST", st.ClickHouse.Host)
	st.ClickHouse.Port = envOrDefaultInt("CLICKHOUSE_PORT", st.ClickHouse.Port)
	st.ClickHouse.User = envOrDefault("CLICKHOUSE_USER", st.ClickHouse.User)
	st.ClickHouse.Password = envOrDefault("CLICKHOUSE_PASSWORD", st.ClickHouse.Password)
	st.ClickHouse.Database = envOrDefault("CLICKHOUSE_DATABASE", st.ClickHouse.Database)

	cfg.Redis.Enabled = envOrDefaultBool("REDIS_ENABLED", cfg.Redis.Enabled)
	cfg.Redis.Address = envOrDefault("REDIS_ADDRESS", cfg.Redis.Address)
	cfg.Redis.Password = envOrDefault("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envOrDefaultInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.TTLSeconds = envOrDefaultInt("REDIS_TTL_SECONDS", cfg.Redis.TTLSeconds)

	cfg.NATS.URL = envOrDefault("NATS_URL", cfg.NATS.URL)
	cfg.NATS.SubjectPrefix = envOrDefault("NATS_SUBJECT_PREFIX", cfg.NATS.SubjectPrefix)

	if v := os.Getenv("JPX_AIRPORT_CODES"); v != "" {
		cfg.Airport.Codes = splitList(v)
	}
	cfg.Airport.Timezone = envOrDefault("JPX_TIMEZONE", cfg.Airport.Timezone)
	cfg.Airport.CurfewStartHour = envOrDefaultInt("JPX_CURFEW_START", cfg.Airport.CurfewStartHour)
	cfg.Airport.CurfewEndHour = envOrDefaultInt("JPX_CURFEW_END", cfg.Airport.CurfewEndHour)
}

// Validate checks the values that would otherwise fail late.
func (c *Config) Validate() error {
	if !validHour(c.Airport.CurfewStartHour) || !validHour(c.Airport.CurfewEndHour) {
		return fmt.Errorf("curfew hours must be 0-23, got %d-%d",
			c.Airport.CurfewStartHour, c.Airport.CurfewEndHour)
	}
	if c.Airport.Timezone == "" {
		return fmt.Errorf("airport timezone is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// Curfew returns the configured curfew window.
func (c *Config) Curfew() flight.CurfewWindow {
	return flight.CurfewWindow{StartHour: c.Airport.CurfewStartHour, EndHour: c.Airport.CurfewEndHour}
}

// Deriver builds the ingest time deriver for the configured airport.
func (c *Config) Deriver() (*ingest.Deriver, error) {
	return ingest.NewDeriver(c.Airport.Timezone, c.Curfew(), c.Airport.Codes)
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envOrDefaultBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
