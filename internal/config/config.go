// Package config provides YAML-based configuration loading for Colloquy.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Colloquy configuration, loaded from config.yaml.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Debate    DebateConfig    `yaml:"debate"`
	Telegraph TelegraphConfig `yaml:"telegraph"`
}

// DatabaseConfig selects the storage backend. SQLite is the default;
// MySQL is for shared deployments.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "sqlite" (default) or "mysql"
	Path     string `yaml:"path"`   // sqlite file path
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DebateConfig holds orchestration thresholds. Zero values fall back to
// the package defaults in internal/debate and internal/ratelimit.
type DebateConfig struct {
	AutoTurns        int    `yaml:"auto_turns"`         // ceiling per auto-continue session
	HardTurnLimit    int    `yaml:"hard_turn_limit"`    // absolute ceiling regardless of mode
	DailyLimit       int    `yaml:"daily_limit"`        // per-provider requests per UTC day
	ModelSelector    bool   `yaml:"model_selector"`     // model-assisted speaker choice
	PacingMinSeconds int    `yaml:"pacing_min_seconds"` // lower bound of inter-turn delay
	PacingMaxSeconds int    `yaml:"pacing_max_seconds"` // upper bound of inter-turn delay
	AutoCron         string `yaml:"auto_cron"`          // 5-field cron for auto-continue sweeps
}

// PacingMin returns the lower pacing bound as a duration.
func (d DebateConfig) PacingMin() time.Duration {
	return time.Duration(d.PacingMinSeconds) * time.Second
}

// PacingMax returns the upper pacing bound as a duration.
func (d DebateConfig) PacingMax() time.Duration {
	return time.Duration(d.PacingMaxSeconds) * time.Second
}

// TelegraphConfig wires committed turns to chat platforms.
type TelegraphConfig struct {
	Discord DiscordConfig `yaml:"discord"`
	Slack   SlackConfig   `yaml:"slack"`
}

// DiscordConfig holds Discord announcement settings.
type DiscordConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

// SlackConfig holds Slack announcement settings.
type SlackConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "colloquy.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Database == "" {
		c.Database.Database = "colloquy"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Debate.AutoTurns == 0 {
		c.Debate.AutoTurns = 20
	}
	if c.Debate.HardTurnLimit == 0 {
		c.Debate.HardTurnLimit = 50
	}
	if c.Debate.DailyLimit == 0 {
		c.Debate.DailyLimit = 100
	}
	if c.Debate.PacingMinSeconds == 0 {
		c.Debate.PacingMinSeconds = 3
	}
	if c.Debate.PacingMaxSeconds == 0 {
		c.Debate.PacingMaxSeconds = 6
	}
	if c.Debate.AutoCron == "" {
		c.Debate.AutoCron = "*/5 * * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.Debate.HardTurnLimit < c.Debate.AutoTurns {
		errs = append(errs, "debate.hard_turn_limit must be >= debate.auto_turns")
	}
	if c.Debate.PacingMaxSeconds < c.Debate.PacingMinSeconds {
		errs = append(errs, "debate.pacing_max_seconds must be >= debate.pacing_min_seconds")
	}
	if c.Telegraph.Discord.Enabled && c.Telegraph.Discord.Token == "" {
		errs = append(errs, "telegraph.discord.token is required when discord is enabled")
	}
	if c.Telegraph.Slack.Enabled && c.Telegraph.Slack.Token == "" {
		errs = append(errs, "telegraph.slack.token is required when slack is enabled")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
