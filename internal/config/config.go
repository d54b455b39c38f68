package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Scan      ScanConfig      `yaml:"scan" mapstructure:"scan"`
	Sources   SourcesConfig   `yaml:"sources" mapstructure:"sources"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`

	// AnalysisFile points at the YAML file holding scoring buckets, caps,
	// bonuses and ranking weights. Empty means built-in defaults.
	AnalysisFile string `yaml:"analysis_file" mapstructure:"analysis_file"`
}

// StoreConfig configures the scan-history database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the report API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ScanConfig configures scan cycle behavior.
type ScanConfig struct {
	FetchTimeoutSecs   int `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	MaxTokensPerSource int `yaml:"max_tokens_per_source" mapstructure:"max_tokens_per_source"`
}

// SourcesConfig holds per-platform connector settings.
type SourcesConfig struct {
	DexScreener   SourceConfig `yaml:"dexscreener" mapstructure:"dexscreener"`
	Birdeye       SourceConfig `yaml:"birdeye" mapstructure:"birdeye"`
	GeckoTerminal SourceConfig `yaml:"geckoterminal" mapstructure:"geckoterminal"`
}

// SourceConfig holds settings for a single market-data connector.
type SourceConfig struct {
	Enabled   bool    `yaml:"enabled" mapstructure:"enabled"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey    string  `yaml:"api_key" mapstructure:"api_key"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // requests/sec
	Burst     int     `yaml:"burst" mapstructure:"burst"`
}

// AnthropicConfig holds the optional AI narrative settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "scout.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("scan.fetch_timeout_secs", 30)
	v.SetDefault("scan.max_tokens_per_source", 200)
	v.SetDefault("sources.dexscreener.enabled", true)
	v.SetDefault("sources.dexscreener.base_url", "https://api.dexscreener.com")
	v.SetDefault("sources.dexscreener.rate_limit", 4.0)
	v.SetDefault("sources.dexscreener.burst", 2)
	v.SetDefault("sources.birdeye.enabled", true)
	v.SetDefault("sources.birdeye.base_url", "https://public-api.birdeye.so")
	v.SetDefault("sources.birdeye.rate_limit", 1.0)
	v.SetDefault("sources.birdeye.burst", 1)
	v.SetDefault("sources.geckoterminal.enabled", true)
	v.SetDefault("sources.geckoterminal.base_url", "https://api.geckoterminal.com/api/v2")
	v.SetDefault("sources.geckoterminal.rate_limit", 0.5)
	v.SetDefault("sources.geckoterminal.burst", 1)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")

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

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
