// Package config loads service configuration from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpattn/logstack/internal/analytics"
	"github.com/rpattn/logstack/internal/db"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. LOGSTACK_SERVER_ADDR.
const EnvPrefix = "LOGSTACK"

// Config is the full service configuration.
type Config struct {
	Database  db.Config       `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// AnalyticsConfig tunes the analytics engines and request limits.
type AnalyticsConfig struct {
	AutocompleteLimit  int    `mapstructure:"autocomplete_limit"`
	MaxPageSize        int    `mapstructure:"max_page_size"`
	CompareMaxPageSize int    `mapstructure:"compare_max_page_size"`
	DegenerateTrend    string `mapstructure:"degenerate_trend"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Database: db.DefaultConfig(),
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			AllowedOrigins: []string{"http://localhost:3000"},
			MaxUploadBytes: 32 << 20,
		},
		Analytics: AnalyticsConfig{
			AutocompleteLimit:  analytics.DefaultAutocompleteLimit,
			MaxPageSize:        analytics.DefaultPageSize,
			CompareMaxPageSize: 100,
			DegenerateTrend:    string(analytics.DegenerateDefault),
		},
		Log: LogConfig{Level: "info"},
	}
}

// legacyEnv maps the container-style variables onto config keys.
var legacyEnv = map[string]string{
	"database.host":     "POSTGRES_HOST",
	"database.port":     "POSTGRES_PORT",
	"database.user":     "POSTGRES_USER",
	"database.password": "POSTGRES_PASSWORD",
	"database.dbname":   "POSTGRES_DATABASE",
}

// Load reads configuration from path (a YAML file, or a directory searched for
// config.yaml; empty searches the working directory) and the environment.
// A missing file is not an error unless path names a file explicitly.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	explicitFile := strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
	if explicitFile {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if path == "" {
			path = "."
		}
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicitFile || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		log.Debug().Str("path", path).Msg("no config.yaml found, using defaults and env vars")
	} else {
		log.Debug().Str("file", v.ConfigFileUsed()).Msg("loaded config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDBConfig loads only the database section.
func LoadDBConfig(path string) (db.Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return db.Config{}, err
	}
	return cfg.Database, nil
}

// Validate rejects values the service cannot run with.
func (c Config) Validate() error {
	if c.Analytics.MaxPageSize < 1 {
		return fmt.Errorf("analytics.max_page_size must be positive, got %d", c.Analytics.MaxPageSize)
	}
	if c.Analytics.CompareMaxPageSize < 1 {
		return fmt.Errorf("analytics.compare_max_page_size must be positive, got %d", c.Analytics.CompareMaxPageSize)
	}
	if _, err := analytics.ParseDegeneratePolicy(c.Analytics.DegenerateTrend); err != nil {
		return fmt.Errorf("analytics.degenerate_trend: %w", err)
	}
	if c.Server.MaxUploadBytes < 1 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv overrides reach Unmarshal.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("database.host", cfg.Database.Host)
	v.SetDefault("database.port", cfg.Database.Port)
	v.SetDefault("database.user", cfg.Database.User)
	v.SetDefault("database.password", cfg.Database.Password)
	v.SetDefault("database.dbname", cfg.Database.DBName)
	v.SetDefault("database.sslmode", cfg.Database.SSLMode)
	v.SetDefault("database.max_conns", cfg.Database.MaxConns)
	v.SetDefault("database.min_conns", cfg.Database.MinConns)
	v.SetDefault("database.max_conn_lifetime", cfg.Database.MaxConnLifetime)
	v.SetDefault("database.max_conn_idle_time", cfg.Database.MaxConnIdleTime)

	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", cfg.Server.IdleTimeout)
	v.SetDefault("server.allowed_origins", cfg.Server.AllowedOrigins)
	v.SetDefault("server.max_upload_bytes", cfg.Server.MaxUploadBytes)

	v.SetDefault("analytics.autocomplete_limit", cfg.Analytics.AutocompleteLimit)
	v.SetDefault("analytics.max_page_size", cfg.Analytics.MaxPageSize)
	v.SetDefault("analytics.compare_max_page_size", cfg.Analytics.CompareMaxPageSize)
	v.SetDefault("analytics.degenerate_trend", cfg.Analytics.DegenerateTrend)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.pretty", cfg.Log.Pretty)
}
