package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. Provider credentials
// are injected into clients at construction; nothing reads this
// globally.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	DataForSEO DataForSEOConfig `yaml:"dataforseo" mapstructure:"dataforseo"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Suggest    SuggestConfig    `yaml:"suggest" mapstructure:"suggest"`
	Posts      PostsConfig      `yaml:"posts" mapstructure:"posts"`
	Rank       RankConfig       `yaml:"rank" mapstructure:"rank"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// DataForSEOConfig holds DataForSEO credentials and locale.
type DataForSEOConfig struct {
	Login    string `yaml:"login" mapstructure:"login"`
	Password string `yaml:"password" mapstructure:"password"`
	Location string `yaml:"location" mapstructure:"location"`
	Language string `yaml:"language" mapstructure:"language"`
}

// Configured reports whether credentials are present. Checked before
// any provider call so a missing setup fails fast with a clear cause.
func (c DataForSEOConfig) Configured() bool {
	return c.Login != "" && c.Password != ""
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ScrapeConfig configures website fetching.
type ScrapeConfig struct {
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// SuggestConfig configures the keyword suggestion pipeline.
type SuggestConfig struct {
	CandidateLimit      int `yaml:"candidate_limit" mapstructure:"candidate_limit"`
	WebsiteContextChars int `yaml:"website_context_chars" mapstructure:"website_context_chars"`
	// PendingTimeoutMins is the liveness threshold: a batch stuck in
	// pending longer than this is reclassified as error by readers.
	PendingTimeoutMins int `yaml:"pending_timeout_mins" mapstructure:"pending_timeout_mins"`
}

// PostsConfig configures the posts sub-fetch polling budget.
type PostsConfig struct {
	PollIntervalSecs int `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	PollAttempts     int `yaml:"poll_attempts" mapstructure:"poll_attempts"`
}

// RankConfig configures rank checking.
type RankConfig struct {
	SearchDepth int `yaml:"search_depth" mapstructure:"search_depth"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("LEADENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "lead-enrich.db")
	v.SetDefault("dataforseo.location", "Poland")
	v.SetDefault("dataforseo.language", "Polish")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("scrape.timeout_secs", 10)
	v.SetDefault("scrape.rate_limit_rps", 2)
	v.SetDefault("suggest.candidate_limit", 50)
	v.SetDefault("suggest.website_context_chars", 3000)
	v.SetDefault("suggest.pending_timeout_mins", 3)
	v.SetDefault("posts.poll_interval_secs", 10)
	v.SetDefault("posts.poll_attempts", 9)
	v.SetDefault("rank.search_depth", 20)
	v.SetDefault("server.port", 8080)
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
