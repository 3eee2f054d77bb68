package framesched

import (
	"fmt"
	"os"
	"strings"

	yaml "github.com/goccy/go-yaml"
	"github.com/joeycumines/logiface"
)

// Config mirrors the YAML configuration file. It is consumed once, at
// startup, see [WithConfig].
type Config struct {
	// FallbackTimer is a pointer so that an absent key keeps the default.
	FallbackTimer *bool `yaml:"fallback_timer"`

	RootName        string `yaml:"root_name"`          // "main" (by default)
	LogLevel        string `yaml:"log_level"`          // "info" (by default)
	MaxIdleBudgetMS int    `yaml:"max_idle_budget_ms"` // 50 (by default), 0 disables the cap
	Hydrate         bool   `yaml:"hydrate"`            // false (by default)
}

// DefaultConfig returns the configuration used for absent keys.
func DefaultConfig() Config {
	return Config{
		RootName:        DefaultRootName,
		LogLevel:        "info",
		MaxIdleBudgetMS: int(DefaultMaxIdleBudget.Milliseconds()),
	}
}

// LoadConfig reads a YAML config file, overriding defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("framesched: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML config, overriding defaults.
func ParseConfig(data []byte) (Config, error) {
	// a null document (empty, or only comments) would zero cfg
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("framesched: parse config: %w", err)
	}
	cfg := DefaultConfig()
	if doc == nil {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("framesched: parse config: %w", err)
	}

	// sanity checks
	if cfg.RootName == "" {
		cfg.RootName = DefaultRootName
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.MaxIdleBudgetMS < 0 {
		return Config{}, fmt.Errorf("framesched: parse config: max_idle_budget_ms must not be negative: %d", cfg.MaxIdleBudgetMS)
	}
	if _, err := cfg.Level(); err != nil {
		return Config{}, fmt.Errorf("framesched: parse config: %w", err)
	}

	return cfg, nil
}

// FallbackTimerEnabled reports the effective fallback_timer setting, which
// defaults to true.
func (c Config) FallbackTimerEnabled() bool {
	return c.FallbackTimer == nil || *c.FallbackTimer
}

// Level parses LogLevel, accepting the logiface short keywords (e.g. "err",
// "warning", "info") and a few common aliases.
func (c Config) Level() (logiface.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "info", "informational":
		return logiface.LevelInformational, nil
	case "disabled", "off", "none":
		return logiface.LevelDisabled, nil
	case "emerg", "emergency":
		return logiface.LevelEmergency, nil
	case "alert":
		return logiface.LevelAlert, nil
	case "crit", "critical":
		return logiface.LevelCritical, nil
	case "err", "error":
		return logiface.LevelError, nil
	case "warning", "warn":
		return logiface.LevelWarning, nil
	case "notice":
		return logiface.LevelNotice, nil
	case "debug":
		return logiface.LevelDebug, nil
	case "trace":
		return logiface.LevelTrace, nil
	default:
		return logiface.LevelDisabled, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
}
