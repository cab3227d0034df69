package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/rewired-gh/fantasy-insights/internal/analysis"
	"github.com/rewired-gh/fantasy-insights/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Report   ReportConfig   `mapstructure:"report"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DataConfig describes where weekly tables are discovered
type DataConfig struct {
	Dir            string        `mapstructure:"dir"`
	Positions      []string      `mapstructure:"positions"`
	MaxWeek        int           `mapstructure:"max_week"`
	ReloadInterval time.Duration `mapstructure:"reload_interval"` // 0 loads once
}

// AnalysisConfig holds the metric engine options
type AnalysisConfig struct {
	MinWeeksForConsistency int     `mapstructure:"min_weeks_for_consistency"`
	BreakoutThresholdPct   float64 `mapstructure:"breakout_threshold_pct"`
	TrendWindowWeeks       int     `mapstructure:"trend_window_weeks"`
	MinTrendMagnitude      float64 `mapstructure:"min_trend_magnitude"`
	RosterPctFloor         float64 `mapstructure:"roster_pct_floor"`
	TopN                   int     `mapstructure:"top_n"`
}

// ReportConfig controls report outputs
type ReportConfig struct {
	Format   string `mapstructure:"format"`
	XLSXPath string `mapstructure:"xlsx_path"`
}

// TelegramConfig holds Telegram digest configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	TopN           int           `mapstructure:"top_n"`
}

// ServerConfig controls the read-only HTTP API
type ServerConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the server
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("FANTASY_INSIGHTS")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Data defaults
	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.positions", []string{"QB", "RB", "WR", "TE"})
	v.SetDefault("data.max_week", 18)
	v.SetDefault("data.reload_interval", "0s")

	// Analysis defaults
	v.SetDefault("analysis.min_weeks_for_consistency", analysis.DefaultMinWeeksForConsistency)
	v.SetDefault("analysis.breakout_threshold_pct", analysis.DefaultBreakoutThresholdPct)
	v.SetDefault("analysis.trend_window_weeks", analysis.DefaultTrendWindowWeeks)
	v.SetDefault("analysis.min_trend_magnitude", analysis.DefaultMinTrendMagnitude)
	v.SetDefault("analysis.roster_pct_floor", analysis.DefaultRosterPctFloor)
	v.SetDefault("analysis.top_n", 10)

	// Report defaults
	v.SetDefault("report.format", "text")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "2s")
	v.SetDefault("telegram.top_n", 3)

	// Server defaults
	v.SetDefault("server.addr", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Data config
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}
	if len(c.Data.Positions) == 0 {
		return fmt.Errorf("data.positions must contain at least one position")
	}
	for _, p := range c.Data.Positions {
		if _, err := models.ParsePosition(p); err != nil {
			return fmt.Errorf("data.positions: %w", err)
		}
	}
	if c.Data.MaxWeek < 1 {
		return fmt.Errorf("data.max_week must be at least 1")
	}
	if c.Data.ReloadInterval < 0 {
		return fmt.Errorf("data.reload_interval must not be negative")
	}
	if c.Data.ReloadInterval > 0 && c.Data.ReloadInterval < time.Minute {
		return fmt.Errorf("data.reload_interval must be at least 1m")
	}
	if c.Data.ReloadInterval > 0 && c.Server.Addr == "" {
		return fmt.Errorf("data.reload_interval requires server.addr")
	}

	// Validate Analysis config
	if c.Analysis.MinWeeksForConsistency < 2 {
		return fmt.Errorf("analysis.min_weeks_for_consistency must be at least 2")
	}
	if c.Analysis.BreakoutThresholdPct < 0 {
		return fmt.Errorf("analysis.breakout_threshold_pct must not be negative")
	}
	if c.Analysis.TrendWindowWeeks < 2 {
		return fmt.Errorf("analysis.trend_window_weeks must be at least 2")
	}
	if c.Analysis.MinTrendMagnitude < 0 {
		return fmt.Errorf("analysis.min_trend_magnitude must not be negative")
	}
	if c.Analysis.RosterPctFloor <= 0 || c.Analysis.RosterPctFloor > 100 {
		return fmt.Errorf("analysis.roster_pct_floor must be in (0, 100]")
	}
	if c.Analysis.TopN < 1 {
		return fmt.Errorf("analysis.top_n must be at least 1")
	}

	// Validate Report config
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Report.Format] {
		return fmt.Errorf("report.format must be one of: text, json")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
		if c.Telegram.TopN < 1 {
			return fmt.Errorf("telegram.top_n must be at least 1")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// AnalysisOptions converts the analysis section into engine options
func (c *Config) AnalysisOptions() analysis.Options {
	return analysis.Options{
		MinWeeksForConsistency: c.Analysis.MinWeeksForConsistency,
		BreakoutThresholdPct:   c.Analysis.BreakoutThresholdPct,
		TrendWindowWeeks:       c.Analysis.TrendWindowWeeks,
		MinTrendMagnitude:      c.Analysis.MinTrendMagnitude,
		RosterPctFloor:         c.Analysis.RosterPctFloor,
	}
}

// PositionList returns the configured positions, parsed
func (c *Config) PositionList() []models.Position {
	out := make([]models.Position, 0, len(c.Data.Positions))
	for _, p := range c.Data.Positions {
		if pos, err := models.ParsePosition(p); err == nil {
			out = append(out, pos)
		}
	}
	return out
}
