// Package config holds the analysis configuration: per-rule overrides and
// the thresholds used by heuristic detectors.
package config

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/slowql/slowql/pkg/types"
)

// Thresholds are the tunable cutoffs for heuristic rules. The detectors
// flagging huge IN lists, deep pagination and wildcard-heavy LIKE patterns
// have no schema knowledge, so aggressiveness is a policy choice exposed
// here rather than hard-coded.
type Thresholds struct {
	// InListMaxLiterals is the literal count above which an IN (...) list
	// is flagged.
	InListMaxLiterals int `yaml:"inListMaxLiterals" json:"inListMaxLiterals"`

	// OffsetMaxRows is the OFFSET value above which pagination is flagged.
	OffsetMaxRows int `yaml:"offsetMaxRows" json:"offsetMaxRows"`

	// MaxWildcards is the number of % wildcards in a LIKE pattern above
	// which the pattern is flagged.
	MaxWildcards int `yaml:"maxWildcards" json:"maxWildcards"`

	// MaxJoinTables is the number of FROM/JOIN targets above which a
	// statement is flagged.
	MaxJoinTables int `yaml:"maxJoinTables" json:"maxJoinTables"`

	// MaxSubqueryDepth is the subquery nesting depth above which a
	// statement is flagged.
	MaxSubqueryDepth int `yaml:"maxSubqueryDepth" json:"maxSubqueryDepth"`
}

// RuleOverride customizes a single rule.
type RuleOverride struct {
	ID       string `yaml:"id" json:"id"`
	Disabled bool   `yaml:"disabled,omitempty" json:"disabled,omitempty"`
	// Severity overrides the rule's default severity when non-empty.
	Severity string `yaml:"severity,omitempty" json:"severity,omitempty"`
}

// Config is the analysis configuration.
type Config struct {
	Thresholds Thresholds     `yaml:"thresholds" json:"thresholds"`
	Rules      []RuleOverride `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Thresholds: Thresholds{
			InListMaxLiterals: 50,
			OffsetMaxRows:     1000,
			MaxWildcards:      2,
			MaxJoinTables:     5,
			MaxSubqueryDepth:  2,
		},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file. Missing
// threshold values fall back to the defaults.
func LoadFromFile(filename string) (*Config, error) {
	slog.Debug("loading config", "filename", filename)
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", filename)
	}

	cfg := Default()

	// Try YAML first, then JSON.
	if yamlErr := yaml.Unmarshal(data, cfg); yamlErr != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, errors.Wrapf(yamlErr, "failed to parse config file %s", filename)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file %s", filename)
	}

	slog.Debug("loaded config", "overrides", len(cfg.Rules))
	return cfg, nil
}

// Validate checks override severities and rejects duplicate rule IDs.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Rules))
	for _, o := range c.Rules {
		if o.ID == "" {
			return errors.New("rule override with empty id")
		}
		if seen[o.ID] {
			return errors.Errorf("duplicate rule override: %s", o.ID)
		}
		seen[o.ID] = true
		if o.Severity != "" {
			if _, err := types.ParseSeverity(o.Severity); err != nil {
				return errors.Wrapf(err, "rule override %s", o.ID)
			}
		}
	}
	return nil
}

// Disabled reports whether the rule is disabled by an override.
func (c *Config) Disabled(ruleID string) bool {
	for _, o := range c.Rules {
		if o.ID == ruleID {
			return o.Disabled
		}
	}
	return false
}

// SeverityFor returns the severity for the rule, honoring overrides.
func (c *Config) SeverityFor(ruleID string, def types.Severity) types.Severity {
	for _, o := range c.Rules {
		if o.ID == ruleID && o.Severity != "" {
			if sev, err := types.ParseSeverity(o.Severity); err == nil {
				return sev
			}
		}
	}
	return def
}
