package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"CompetitorScanner/internal/domain"
)

const (
	defaultInterval = 24 * time.Hour

	configPathEnv      = "COMPETITOR_SCANNER_CONFIG"
	redisAddrEnv       = "REDIS_ADDR"
	databaseDSNEnv     = "DATABASE_DSN"
	anthropicAPIKeyEnv = "ANTHROPIC_API_KEY"
	anthropicModelEnv  = "ANTHROPIC_MODEL"
	twitterTokenEnv    = "TWITTER_BEARER_TOKEN"
	targetHandleEnv    = "TARGET_HANDLE"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv    = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Redis     RedisConfig     `yaml:"redis"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Twitter   TwitterConfig   `yaml:"twitter"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Telegram  TelegramConfig  `yaml:"telegram"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RedisConfig describes the key-value store connection. An empty Addr keeps
// the engine on the in-memory store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ArchiveConfig describes the optional Postgres run history. An empty DSN
// disables archiving.
type ArchiveConfig struct {
	DSN string `yaml:"dsn"`
}

// AnthropicConfig defines how to contact the Anthropic API.
type AnthropicConfig struct {
	APIKey    string `yaml:"apiKey"`
	Model     string `yaml:"model"`
	MaxTokens int64  `yaml:"maxTokens"`
}

// TwitterConfig wires the optional official-API enrichment.
type TwitterConfig struct {
	BearerToken     string `yaml:"bearerToken"`
	PostsPerAccount int    `yaml:"postsPerAccount"`
}

// DiscoveryConfig carries the per-run discovery parameters.
type DiscoveryConfig struct {
	TargetHandle      string `yaml:"targetHandle"`
	Strategy          string `yaml:"strategy"`
	MaxCandidates     int    `yaml:"maxCandidatesToCheck"`
	MinFollowerCount  int64  `yaml:"minFollowerCount"`
	MaxFollowerCount  int64  `yaml:"maxFollowerCount"`
	MaxFollowingFetch int    `yaml:"maxFollowingFetchSize"`
}

// RunConfig converts the section into the engine's run configuration.
func (d DiscoveryConfig) RunConfig() domain.RunConfig {
	return domain.RunConfig{
		TargetHandle:      d.TargetHandle,
		Strategy:          domain.Method(d.Strategy),
		MaxCandidates:     d.MaxCandidates,
		MinFollowerCount:  d.MinFollowerCount,
		MaxFollowerCount:  d.MaxFollowerCount,
		MaxFollowingFetch: d.MaxFollowingFetch,
	}
}

// SchedulerConfig defines whether and how often discovery re-runs.
type SchedulerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Interval string `yaml:"interval"`
}

// TelegramConfig wires the optional run-digest notifications. Both fields
// must be set for notifications to come up.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Every resolves the interval string; empty or invalid values fall back to
// daily.
func (s SchedulerConfig) Every() time.Duration {
	d, err := time.ParseDuration(s.Interval)
	if err != nil || d <= 0 {
		return defaultInterval
	}
	return d
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Redis.Addr = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Archive.DSN = v
	}

	if v := os.Getenv(anthropicAPIKeyEnv); v != "" {
		c.Anthropic.APIKey = v
	}

	if v := os.Getenv(anthropicModelEnv); v != "" {
		c.Anthropic.Model = v
	}

	if v := os.Getenv(twitterTokenEnv); v != "" {
		c.Twitter.BearerToken = v
	}

	if v := os.Getenv(targetHandleEnv); v != "" {
		c.Discovery.TargetHandle = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Redis.Addr != "" {
		base.Redis = override.Redis
	}

	if override.Archive.DSN != "" {
		base.Archive = override.Archive
	}

	if override.Anthropic.APIKey != "" {
		base.Anthropic.APIKey = override.Anthropic.APIKey
	}
	if override.Anthropic.Model != "" {
		base.Anthropic.Model = override.Anthropic.Model
	}
	if override.Anthropic.MaxTokens > 0 {
		base.Anthropic.MaxTokens = override.Anthropic.MaxTokens
	}

	if override.Twitter.BearerToken != "" {
		base.Twitter.BearerToken = override.Twitter.BearerToken
	}
	if override.Twitter.PostsPerAccount > 0 {
		base.Twitter.PostsPerAccount = override.Twitter.PostsPerAccount
	}

	if override.Discovery.TargetHandle != "" {
		base.Discovery.TargetHandle = override.Discovery.TargetHandle
	}
	if override.Discovery.Strategy != "" {
		base.Discovery.Strategy = override.Discovery.Strategy
	}
	if override.Discovery.MaxCandidates > 0 {
		base.Discovery.MaxCandidates = override.Discovery.MaxCandidates
	}
	if override.Discovery.MinFollowerCount > 0 {
		base.Discovery.MinFollowerCount = override.Discovery.MinFollowerCount
	}
	if override.Discovery.MaxFollowerCount > 0 {
		base.Discovery.MaxFollowerCount = override.Discovery.MaxFollowerCount
	}
	if override.Discovery.MaxFollowingFetch > 0 {
		base.Discovery.MaxFollowingFetch = override.Discovery.MaxFollowingFetch
	}

	if override.Scheduler.Enabled {
		base.Scheduler.Enabled = true
	}
	if override.Scheduler.Interval != "" {
		base.Scheduler.Interval = override.Scheduler.Interval
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChatID != "" {
		base.Telegram.ChatID = override.Telegram.ChatID
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Redis:   RedisConfig{Addr: "", Password: "", DB: 0},
		Archive: ArchiveConfig{DSN: ""},
		Anthropic: AnthropicConfig{
			Model:     "claude-sonnet-4-5-20250929",
			MaxTokens: 4096,
		},
		Twitter: TwitterConfig{PostsPerAccount: 30},
		Discovery: DiscoveryConfig{
			Strategy:          string(domain.MethodFollowingOverlap),
			MaxCandidates:     15,
			MaxFollowingFetch: 400,
		},
		Scheduler: SchedulerConfig{Enabled: false, Interval: "24h"},
	}
}
