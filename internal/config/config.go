// Package config provides centralized configuration loaded from an optional
// config.yaml and SCORACLE_* environment variables. Shared by cmd/collect and
// cmd/api.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/albapepper/scoracle-events/internal/store"
	"github.com/albapepper/scoracle-events/internal/table"
)

// --------------------------------------------------------------------------
// Config struct
// --------------------------------------------------------------------------

// Config is the top-level configuration.
type Config struct {
	Environment string         `yaml:"environment" mapstructure:"environment"` // development, production
	Storage     StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Provider    ProviderConfig `yaml:"provider" mapstructure:"provider"`
	Collect     CollectConfig  `yaml:"collect" mapstructure:"collect"`
	API         APIConfig      `yaml:"api" mapstructure:"api"`
	Log         LogConfig      `yaml:"log" mapstructure:"log"`
}

// StorageConfig locates the collected files.
type StorageConfig struct {
	Root        string `yaml:"root" mapstructure:"root"`
	MatchesName string `yaml:"matches_name" mapstructure:"matches_name"`
	ReadFormat  string `yaml:"read_format" mapstructure:"read_format"`
}

// ProviderConfig configures the StatsBomb open-data client.
type ProviderConfig struct {
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerMinute int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	TimeoutSecs       int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CallTimeoutSecs   int    `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`
}

// CollectConfig selects what to collect.
type CollectConfig struct {
	CompetitionID int    `yaml:"competition_id" mapstructure:"competition_id"`
	SeasonID      int    `yaml:"season_id" mapstructure:"season_id"`
	Team          string `yaml:"team" mapstructure:"team"`
}

// APIConfig configures the read API server.
type APIConfig struct {
	Host                string   `yaml:"host" mapstructure:"host"`
	Port                int      `yaml:"port" mapstructure:"port"`
	CORSAllowOrigins    []string `yaml:"cors_allow_origins" mapstructure:"cors_allow_origins"`
	RateLimitEnabled    bool     `yaml:"rate_limit_enabled" mapstructure:"rate_limit_enabled"`
	RateLimitRequests   int      `yaml:"rate_limit_requests" mapstructure:"rate_limit_requests"`
	RateLimitWindowSecs int      `yaml:"rate_limit_window_secs" mapstructure:"rate_limit_window_secs"`
	CacheEnabled        bool     `yaml:"cache_enabled" mapstructure:"cache_enabled"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SCORACLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("environment", "development")
	v.SetDefault("storage.root", "data")
	v.SetDefault("storage.matches_name", store.DefaultMatchesName)
	v.SetDefault("storage.read_format", string(table.Parquet))
	v.SetDefault("provider.base_url", "https://raw.githubusercontent.com/statsbomb/open-data/master/data")
	v.SetDefault("provider.requests_per_minute", 120)
	v.SetDefault("provider.timeout_secs", 60)
	v.SetDefault("provider.call_timeout_secs", 0)
	v.SetDefault("collect.competition_id", 9)
	v.SetDefault("collect.season_id", 281)
	v.SetDefault("collect.team", "Bayer Leverkusen")
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8000)
	v.SetDefault("api.cors_allow_origins", []string{
		"http://localhost:3000",
		"http://localhost:4321",
		"http://localhost:5173",
	})
	v.SetDefault("api.rate_limit_enabled", true)
	v.SetDefault("api.rate_limit_requests", 100)
	v.SetDefault("api.rate_limit_window_secs", 60)
	v.SetDefault("api.cache_enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the values the commands depend on.
func (c *Config) Validate() error {
	if c.Storage.Root == "" {
		return eris.New("config: storage.root is required")
	}
	if _, err := table.ParseFormat(c.Storage.ReadFormat); err != nil {
		return eris.Wrap(err, "config: storage.read_format")
	}
	if c.Provider.RequestsPerMinute <= 0 {
		return eris.Errorf("config: provider.requests_per_minute must be positive, got %d", c.Provider.RequestsPerMinute)
	}
	if c.Provider.CallTimeoutSecs < 0 {
		return eris.Errorf("config: provider.call_timeout_secs must not be negative, got %d", c.Provider.CallTimeoutSecs)
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		return eris.Errorf("config: api.port must be 1-65535, got %d", c.API.Port)
	}
	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Layout returns the storage layout.
func (c *Config) Layout() store.Layout {
	return store.NewLayout(c.Storage.Root, c.Storage.MatchesName)
}

// ReadFormat returns the format the loader reads, parquet if unset or invalid.
func (c *Config) ReadFormat() table.Format {
	f, err := table.ParseFormat(c.Storage.ReadFormat)
	if err != nil {
		return table.Parquet
	}
	return f
}

// ProviderTimeout is the HTTP client timeout.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSecs) * time.Second
}

// CallTimeout bounds each provider call; zero disables it.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Provider.CallTimeoutSecs) * time.Second
}

// RateLimitWindow is the API rate limit window.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.API.RateLimitWindowSecs) * time.Second
}

// NewLogger builds a zap logger tagged with the service name: console output
// for the "console" format, JSON otherwise.
func NewLogger(cfg LogConfig, service string) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build(zap.Fields(zap.String("service", service)))
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	return logger, nil
}

// InitLogger builds a logger and installs it as the zap global.
func InitLogger(cfg LogConfig, service string) (*zap.Logger, error) {
	logger, err := NewLogger(cfg, service)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
