package config

import (
	"errors"
	"fmt"
	"runtime"
	"sort"

	"mapcheck/internal/diagnostic"
	"mapcheck/internal/match"
)

// ErrInvalid is returned for configuration values that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Defaults.
const (
	DefaultBulkThreshold     = 4
	DefaultMaxQueryOperators = 5
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
)

// Config is the analyzer configuration.
type Config struct {
	// Rules holds per-rule overrides keyed by rule id.
	Rules map[string]RuleConfig `yaml:"rules,omitempty" toml:"rules,omitempty"`

	Fuzzy       FuzzyConfig       `yaml:"fuzzy" toml:"fuzzy"`
	Fix         FixConfig         `yaml:"fix" toml:"fix"`
	Performance PerformanceConfig `yaml:"performance" toml:"performance"`

	// Workers limits concurrently analysed registration sites.
	Workers int `yaml:"workers,omitempty" toml:"workers,omitempty"`

	Log LogConfig `yaml:"log" toml:"log"`
}

// RuleConfig overrides one rule.
type RuleConfig struct {
	Severity string `yaml:"severity,omitempty" toml:"severity,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty" toml:"disabled,omitempty"`
}

// FuzzyConfig bounds fuzzy name suggestions.
type FuzzyConfig struct {
	MaxDistance     int `yaml:"max_distance" toml:"max_distance"`
	ShortNameLength int `yaml:"short_name_length" toml:"short_name_length"`
}

// FixConfig controls fix synthesis.
type FixConfig struct {
	// BulkThreshold is the number of findings on one registration from
	// which bulk proposals replace per-member ones at the top level.
	BulkThreshold int `yaml:"bulk_threshold" toml:"bulk_threshold"`
}

// PerformanceConfig tunes the performance rule family.
type PerformanceConfig struct {
	MaxQueryOperators int `yaml:"max_query_operators" toml:"max_query_operators"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)

	return cfg
}

// applyDefaults fills in default values for unset fields.
func applyDefaults(cfg *Config) {
	if cfg.Fuzzy.MaxDistance == 0 {
		cfg.Fuzzy.MaxDistance = match.DefaultMaxDistance
	}

	if cfg.Fuzzy.ShortNameLength == 0 {
		cfg.Fuzzy.ShortNameLength = match.DefaultShortNameLength
	}

	if cfg.Fix.BulkThreshold == 0 {
		cfg.Fix.BulkThreshold = DefaultBulkThreshold
	}

	if cfg.Performance.MaxQueryOperators == 0 {
		cfg.Performance.MaxQueryOperators = DefaultMaxQueryOperators
	}

	if cfg.Workers == 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}

	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// Validate checks the configuration and returns every problem found,
// each wrapping ErrInvalid.
func (c *Config) Validate() error {
	var errs []error

	for _, id := range c.ruleIDs() {
		rc := c.Rules[id]

		if !diagnostic.IsRuleID(id) {
			errs = append(errs, fmt.Errorf("%w: unknown rule %q", ErrInvalid, id))
			continue
		}

		if rc.Severity != "" {
			if _, err := diagnostic.ParseSeverity(rc.Severity); err != nil {
				errs = append(errs, fmt.Errorf("%w: rule %s: %w", ErrInvalid, id, err))
			}
		}
	}

	if c.Fuzzy.MaxDistance < 0 {
		errs = append(errs, fmt.Errorf("%w: fuzzy.max_distance must not be negative", ErrInvalid))
	}

	if c.Fuzzy.ShortNameLength < 0 {
		errs = append(errs, fmt.Errorf("%w: fuzzy.short_name_length must not be negative", ErrInvalid))
	}

	if c.Fix.BulkThreshold < 2 {
		errs = append(errs, fmt.Errorf("%w: fix.bulk_threshold must be at least 2", ErrInvalid))
	}

	if c.Performance.MaxQueryOperators < 1 {
		errs = append(errs, fmt.Errorf("%w: performance.max_query_operators must be positive", ErrInvalid))
	}

	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("%w: workers must be positive", ErrInvalid))
	}

	return errors.Join(errs...)
}

// FuzzyOptions returns the fuzzy matching bounds.
func (c *Config) FuzzyOptions() match.FuzzyOptions {
	return match.FuzzyOptions{
		MaxDistance:     c.Fuzzy.MaxDistance,
		ShortNameLength: c.Fuzzy.ShortNameLength,
	}
}

// Enabled reports whether a rule runs.
func (c *Config) Enabled(id string) bool {
	return !c.Rules[id].Disabled
}

// Severity returns the effective severity of a rule.
func (c *Config) Severity(id string, def diagnostic.Severity) diagnostic.Severity {
	rc, ok := c.Rules[id]
	if !ok || rc.Severity == "" {
		return def
	}

	sev, err := diagnostic.ParseSeverity(rc.Severity)
	if err != nil {
		return def
	}

	return sev
}

func (c *Config) ruleIDs() []string {
	ids := make([]string, 0, len(c.Rules))
	for id := range c.Rules {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}
