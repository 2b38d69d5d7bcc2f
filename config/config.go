// Package config loads the server configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported datastore drivers.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the root configuration document.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Language  string          `yaml:"language"`
	DataStore DataStoreConfig `yaml:"datastore"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Mode is the gin mode: debug, release or test.
	Mode string `yaml:"mode"`
}

type DataStoreConfig struct {
	Driver   string         `yaml:"driver"`
	Seed     bool           `yaml:"seed"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"keyPrefix"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080", Mode: "release"},
		Language: "es",
		DataStore: DataStoreConfig{
			Driver: DriverMemory,
			Redis: RedisConfig{
				Addr:      "127.0.0.1:6379",
				DB:        8,
				KeyPrefix: "student",
			},
			SQLite: SQLiteConfig{Path: "students.db"},
		},
		Log:     LogConfig{Level: "info"},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics", Namespace: "student_manager"},
	}
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.DataStore.Driver = strings.ToLower(strings.TrimSpace(cfg.DataStore.Driver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"SM_ADDR":             &c.Server.Addr,
		"SM_GIN_MODE":         &c.Server.Mode,
		"SM_LANGUAGE":         &c.Language,
		"SM_DATASTORE_DRIVER": &c.DataStore.Driver,
		"SM_REDIS_ADDR":       &c.DataStore.Redis.Addr,
		"SM_REDIS_PASSWORD":   &c.DataStore.Redis.Password,
		"SM_POSTGRES_DSN":     &c.DataStore.Postgres.DSN,
		"SM_SQLITE_PATH":      &c.DataStore.SQLite.Path,
		"SM_LOG_LEVEL":        &c.Log.Level,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	if v, ok := lookup("SM_REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SM_REDIS_DB %q: %w", v, err)
		}
		c.DataStore.Redis.DB = n
	}
	if v, ok := lookup("SM_DATASTORE_SEED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SM_DATASTORE_SEED %q: %w", v, err)
		}
		c.DataStore.Seed = b
	}
	return nil
}

// Validate checks the fields that have no usable zero value.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server.mode %q must be debug, release or test", c.Server.Mode))
	}
	switch c.DataStore.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.DataStore.Redis.Addr == "" {
			errs = append(errs, errors.New("datastore.redis.addr is required"))
		}
	case DriverPostgres:
		if c.DataStore.Postgres.DSN == "" {
			errs = append(errs, errors.New("datastore.postgres.dsn is required"))
		}
	case DriverSQLite:
		if c.DataStore.SQLite.Path == "" {
			errs = append(errs, errors.New("datastore.sqlite.path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("datastore.driver %q is not supported", c.DataStore.Driver))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path))
	}
	return errors.Join(errs...)
}
