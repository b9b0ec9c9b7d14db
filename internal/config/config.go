// Package config loads and validates pybreak configuration.
package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pybreak/internal/errors"
)

// Config represents the complete pybreak configuration
type Config struct {
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Git      GitConfig      `json:"git" mapstructure:"git"`
	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis"`
	Cache    CacheConfig    `json:"cache" mapstructure:"cache"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// GitConfig contains revision selection for the comparison
type GitConfig struct {
	BaseRef   string `json:"baseRef" mapstructure:"baseRef"`
	HeadRef   string `json:"headRef" mapstructure:"headRef"`
	TimeoutMs int    `json:"timeoutMs" mapstructure:"timeoutMs"`
}

// Timeout returns the per-command git timeout as a duration.
func (g GitConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutMs) * time.Millisecond
}

// AnalysisConfig contains analysis behavior configuration
type AnalysisConfig struct {
	IncludePatterns []string `json:"includePatterns" mapstructure:"includePatterns"`
	ExcludePatterns []string `json:"excludePatterns" mapstructure:"excludePatterns"`
	ModuleRoots     []string `json:"moduleRoots" mapstructure:"moduleRoots"`
	Workers         int      `json:"workers" mapstructure:"workers"`
	IgnoreUnused    bool     `json:"ignoreUnused" mapstructure:"ignoreUnused"`
	SuppressionFile string   `json:"suppressionFile" mapstructure:"suppressionFile"`
}

// CacheConfig contains extraction cache configuration
type CacheConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		RepoRoot: ".",
		Git: GitConfig{
			BaseRef:   "origin/main",
			HeadRef:   "HEAD",
			TimeoutMs: 5000,
		},
		Analysis: AnalysisConfig{
			IncludePatterns: []string{"**/*.py"},
			ExcludePatterns: []string{"**/test_*.py", "**/tests/**/*.py", "**/__pycache__/**"},
			ModuleRoots:     []string{"src"},
			Workers:         runtime.NumCPU(),
			IgnoreUnused:    false,
			SuppressionFile: ".pybreak-ignore.yaml",
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(".pybreak", "cache.db"),
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads configuration from .pybreak.yaml (or .pybreak.json) at repoRoot,
// applying PYBREAK_* environment overrides. A missing file yields defaults.
func Load(repoRoot string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("repoRoot", repoRoot)
	v.SetDefault("git.baseRef", def.Git.BaseRef)
	v.SetDefault("git.headRef", def.Git.HeadRef)
	v.SetDefault("git.timeoutMs", def.Git.TimeoutMs)
	v.SetDefault("analysis.includePatterns", def.Analysis.IncludePatterns)
	v.SetDefault("analysis.excludePatterns", def.Analysis.ExcludePatterns)
	v.SetDefault("analysis.moduleRoots", def.Analysis.ModuleRoots)
	v.SetDefault("analysis.workers", def.Analysis.Workers)
	v.SetDefault("analysis.ignoreUnused", def.Analysis.IgnoreUnused)
	v.SetDefault("analysis.suppressionFile", def.Analysis.SuppressionFile)
	v.SetDefault("cache.enabled", def.Cache.Enabled)
	v.SetDefault("cache.path", def.Cache.Path)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.level", def.Logging.Level)

	v.SetConfigName(".pybreak")
	v.AddConfigPath(repoRoot)

	v.SetEnvPrefix("PYBREAK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(errors.ConfigInvalid, "failed to read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid, "failed to parse config", err)
	}

	if cfg.RepoRoot == "" {
		cfg.RepoRoot = repoRoot
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Git.BaseRef == "" {
		return errors.New(errors.ConfigInvalid, "git.baseRef must not be empty")
	}
	if c.Git.HeadRef == "" {
		return errors.New(errors.ConfigInvalid, "git.headRef must not be empty")
	}
	if c.Analysis.Workers < 1 {
		return errors.Newf(errors.ConfigInvalid, "analysis.workers must be >= 1, got %d", c.Analysis.Workers)
	}
	if len(c.Analysis.IncludePatterns) == 0 {
		return errors.New(errors.ConfigInvalid, "analysis.includePatterns must not be empty")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf(errors.ConfigInvalid, "logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return errors.Newf(errors.ConfigInvalid, "logging.format %q is not one of human, json", c.Logging.Format)
	}
	return nil
}
