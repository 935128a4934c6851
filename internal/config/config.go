// Package config provides configuration management for the pattern engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"pattern-engine/internal/analysis/patterns"
	apperrors "pattern-engine/internal/errors"
	"pattern-engine/internal/logging"
)

// EnvPrefix is prepended to every environment override, e.g.
// PATTERN_ENGINE_PATTERNS_MIN_CONFIDENCE=0.7.
const EnvPrefix = "PATTERN_ENGINE"

// Config holds all application configuration.
type Config struct {
	Patterns patterns.PatternConfig `mapstructure:"patterns" json:"patterns"`
	Logging  LoggingConfig          `mapstructure:"logging" json:"logging"`
	Store    StoreConfig            `mapstructure:"store" json:"store"`
	Scan     ScanConfig             `mapstructure:"scan" json:"scan"`
	UI       UIConfig               `mapstructure:"ui" json:"ui"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" json:"level"`
	Console    bool   `mapstructure:"console" json:"console"`
	File       bool   `mapstructure:"file" json:"file"`
	FilePath   string `mapstructure:"file_path" json:"file_path"`
	MaxSize    int    `mapstructure:"max_size" json:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" json:"max_age"` // days
}

// StoreConfig holds the candle database location.
type StoreConfig struct {
	Path string `mapstructure:"path" json:"path"`
}

// ScanConfig holds settings for multi-symbol scans.
type ScanConfig struct {
	Workers int `mapstructure:"workers" json:"workers"` // concurrent symbols
	Limit   int `mapstructure:"limit" json:"limit"`     // most recent candles per symbol
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled" json:"color_enabled"`
	DateFormat   string `mapstructure:"date_format" json:"date_format"`
}

// LogConfig converts the logging section for the logging package.
func (l LoggingConfig) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      l.Level,
		Console:    l.Console,
		File:       l.File,
		FilePath:   l.FilePath,
		MaxSize:    l.MaxSize,
		MaxBackups: l.MaxBackups,
		MaxAge:     l.MaxAge,
	}
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/pattern-engine"
	}
	return filepath.Join(home, ".config", "pattern-engine")
}

// ConfigPath returns the path of config.toml inside configDir.
func ConfigPath(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "config.toml")
}

// Default returns the configuration used when no file overrides a value.
func Default(configDir string) *Config {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	log := logging.DefaultLogConfig()
	return &Config{
		Patterns: patterns.DefaultPatternConfig(),
		Logging: LoggingConfig{
			Level:      log.Level,
			Console:    log.Console,
			File:       log.File,
			FilePath:   filepath.Join(configDir, "logs", "patterns.log"),
			MaxSize:    log.MaxSize,
			MaxBackups: log.MaxBackups,
			MaxAge:     log.MaxAge,
		},
		Store: StoreConfig{
			Path: filepath.Join(configDir, "candles.db"),
		},
		Scan: ScanConfig{
			Workers: 4,
			Limit:   200,
		},
		UI: UIConfig{
			ColorEnabled: true,
			DateFormat:   "02-Jan-2006 15:04",
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by the commented template and defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := newViper(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config.toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func newViper(configDir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default(configDir))
	return v
}

// setDefaults registers every key so that environment overrides apply even
// when the file omits it.
func setDefaults(v *viper.Viper, d *Config) {
	p := d.Patterns
	v.SetDefault("patterns.doji_body_ratio", p.DojiBodyRatio)
	v.SetDefault("patterns.shadow_body_ratio", p.ShadowBodyRatio)
	v.SetDefault("patterns.marubozu_shadow_ratio", p.MarubozuShadowRatio)
	v.SetDefault("patterns.engulfing_ratio", p.EngulfingRatio)
	v.SetDefault("patterns.star_gap_ratio", p.StarGapRatio)
	v.SetDefault("patterns.pivot_lookback", p.PivotLookback)
	v.SetDefault("patterns.min_pattern_bars", p.MinPatternBars)
	v.SetDefault("patterns.max_pattern_bars", p.MaxPatternBars)
	v.SetDefault("patterns.price_tolerance", p.PriceTolerance)
	v.SetDefault("patterns.slope_tolerance", p.SlopeTolerance)
	v.SetDefault("patterns.min_confidence", p.MinConfidence)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.console", d.Logging.Console)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.file_path", d.Logging.FilePath)
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age", d.Logging.MaxAge)

	v.SetDefault("store.path", d.Store.Path)

	v.SetDefault("scan.workers", d.Scan.Workers)
	v.SetDefault("scan.limit", d.Scan.Limit)

	v.SetDefault("ui.color_enabled", d.UI.ColorEnabled)
	v.SetDefault("ui.date_format", d.UI.DateFormat)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	p := c.Patterns

	ratios := []struct {
		name  string
		value float64
	}{
		{"doji_body_ratio", p.DojiBodyRatio},
		{"shadow_body_ratio", p.ShadowBodyRatio},
		{"marubozu_shadow_ratio", p.MarubozuShadowRatio},
		{"engulfing_ratio", p.EngulfingRatio},
		{"star_gap_ratio", p.StarGapRatio},
		{"price_tolerance", p.PriceTolerance},
		{"slope_tolerance", p.SlopeTolerance},
	}
	for _, r := range ratios {
		if r.value < 0 {
			return invalid("patterns."+r.name, r.value, "must be non-negative")
		}
	}

	if p.MinConfidence < 0 || p.MinConfidence > 1 {
		return invalid("patterns.min_confidence", p.MinConfidence, "must be between 0 and 1")
	}
	if p.PivotLookback < 1 {
		return invalid("patterns.pivot_lookback", p.PivotLookback, "must be at least 1")
	}
	if p.MinPatternBars < 1 {
		return invalid("patterns.min_pattern_bars", p.MinPatternBars, "must be at least 1")
	}
	if p.MaxPatternBars < p.MinPatternBars {
		return invalid("patterns.max_pattern_bars", p.MaxPatternBars, "must not be below min_pattern_bars")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("logging.level", c.Logging.Level, "must be debug, info, warn or error")
	}

	if c.Store.Path == "" {
		return invalid("store.path", c.Store.Path, "must not be empty")
	}
	if c.Scan.Workers < 1 {
		return invalid("scan.workers", c.Scan.Workers, "must be at least 1")
	}
	if c.Scan.Limit < 0 {
		return invalid("scan.limit", c.Scan.Limit, "must be non-negative")
	}

	return nil
}

func invalid(field string, value interface{}, message string) error {
	return fmt.Errorf("%w: %w", apperrors.ErrConfigInvalid, apperrors.NewValidationError(field, value, message))
}
