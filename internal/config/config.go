// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy names accepted in the config file.
const (
	PolicyBook  = "book"  // bid/ask vs mark price
	PolicyIndex = "index" // mark price vs index price
)

// Config defines the structure for all application configuration.
type Config struct {
	Policy            string       `yaml:"policy"`
	QuoteAsset        string       `yaml:"quote_asset"`
	EntryThresholdPct float64      `yaml:"entry_threshold_pct"`
	ExitThresholdPct  float64      `yaml:"exit_threshold_pct"`
	SignalCooldown    FlexDuration `yaml:"signal_cooldown"`

	Stream   StreamConf     `yaml:"stream"`
	Stats    StatsConf      `yaml:"stats"`
	Discord  DiscordConfig  `yaml:"discord"`
	Database DatabaseConfig `yaml:"database"`

	LogLevel string `yaml:"-"` // Loaded from env or defaults
}

// StreamConf holds connection supervision settings shared by both feeds.
type StreamConf struct {
	MarkURL string `yaml:"mark_url"`
	BookURL string `yaml:"book_url"`
	RestURL string `yaml:"rest_url"`

	ForcedReconnect FlexDuration `yaml:"forced_reconnect"`
	RetryDelay      FlexDuration `yaml:"retry_delay"`
	WatchdogSilence FlexDuration `yaml:"watchdog_silence"`
	WatchdogCheck   FlexDuration `yaml:"watchdog_check"`
}

// StatsConf holds settings for the periodic stats report.
type StatsConf struct {
	Interval FlexDuration `yaml:"interval"`
}

// DiscordConfig holds settings for the Discord notifier.
type DiscordConfig struct {
	Enabled   bool   `yaml:"enabled"`
	ChannelID string `yaml:"channel_id"`
	BotToken  string `yaml:"-"` // Loaded from env
}

// DatabaseConfig holds settings for the optional signal journal.
// The journal is enabled when URL is non-empty.
type DatabaseConfig struct {
	URL           string       `yaml:"-"` // Loaded from env
	BatchSize     int          `yaml:"batch_size"`
	FlushInterval FlexDuration `yaml:"flush_interval"`
}

// LoadConfig loads configuration from the specified YAML file path
// and environment variables, applies defaults and validates the result.
func LoadConfig(configPath string) (*Config, error) {
	cfg := defaultConfig()

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(file, cfg); err != nil {
		return nil, err
	}

	// Sensitive data and overrides come from the environment.
	if token := os.Getenv("DISCORD_BOT_TOKEN"); token != "" {
		cfg.Discord.BotToken = token
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Policy:            PolicyBook,
		QuoteAsset:        "USDT",
		EntryThresholdPct: 0.5,
		ExitThresholdPct:  0.2,
		SignalCooldown:    FlexDuration(5 * time.Minute),
		Stream: StreamConf{
			MarkURL: "wss://fstream.binance.com/ws/!markPrice@arr@1s",
			BookURL: "wss://fstream.binance.com/ws/!bookTicker",
			RestURL: "https://fapi.binance.com",
			// Binance resets stream connections after 24h; reconnect on
			// our own schedule before that happens.
			ForcedReconnect: FlexDuration(23 * time.Hour),
			RetryDelay:      FlexDuration(5 * time.Second),
			WatchdogSilence: FlexDuration(30 * time.Second),
			WatchdogCheck:   FlexDuration(10 * time.Second),
		},
		Stats: StatsConf{
			Interval: FlexDuration(60 * time.Second),
		},
		Database: DatabaseConfig{
			BatchSize:     100,
			FlushInterval: FlexDuration(5 * time.Second),
		},
		LogLevel: "info",
	}
}

// Validate checks invariants that must hold before any connection is
// attempted. A violation here is a startup-fatal condition.
func (c *Config) Validate() error {
	if c.Policy != PolicyBook && c.Policy != PolicyIndex {
		return fmt.Errorf("policy must be %q or %q, got %q", PolicyBook, PolicyIndex, c.Policy)
	}
	if c.EntryThresholdPct <= 0 {
		return fmt.Errorf("entry_threshold_pct must be positive, got %v", c.EntryThresholdPct)
	}
	if c.ExitThresholdPct < 0 {
		return fmt.Errorf("exit_threshold_pct must not be negative, got %v", c.ExitThresholdPct)
	}
	if c.EntryThresholdPct <= c.ExitThresholdPct {
		return fmt.Errorf("entry_threshold_pct (%v) must be greater than exit_threshold_pct (%v)",
			c.EntryThresholdPct, c.ExitThresholdPct)
	}
	if c.SignalCooldown < 0 {
		return fmt.Errorf("signal_cooldown must not be negative")
	}
	if c.Stream.MarkURL == "" || c.Stream.BookURL == "" {
		return fmt.Errorf("stream.mark_url and stream.book_url must be set")
	}
	if c.Stream.ForcedReconnect.Duration() <= 0 {
		return fmt.Errorf("stream.forced_reconnect must be positive")
	}
	if c.Stream.RetryDelay.Duration() <= 0 {
		return fmt.Errorf("stream.retry_delay must be positive")
	}
	if c.Stream.WatchdogSilence.Duration() > 0 && c.Stream.WatchdogCheck.Duration() <= 0 {
		return fmt.Errorf("stream.watchdog_check must be positive when the watchdog is enabled")
	}
	if c.Discord.Enabled {
		if c.Discord.BotToken == "" {
			return fmt.Errorf("discord notifier enabled but DISCORD_BOT_TOKEN is not set")
		}
		if c.Discord.ChannelID == "" {
			return fmt.Errorf("discord notifier enabled but discord.channel_id is not set")
		}
	}
	return nil
}
