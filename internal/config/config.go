// Package config loads treelint.toml, the per-project rule configuration.
// The engine core never reads configuration directly: the CLI resolves it
// into an engine.Options value at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"treelint/internal/diag"
	"treelint/internal/rules"
)

// ManifestName is the file the CLI searches for upward from the target.
const ManifestName = "treelint.toml"

// RuleConfig adjusts one rule.
type RuleConfig struct {
	Enabled  *bool  `toml:"enabled"`
	Severity string `toml:"severity"`
}

// Config is the decoded manifest.
type Config struct {
	MaxDiagnostics int                   `toml:"max_diagnostics"`
	MaxDepth       uint32                `toml:"max_depth"`
	Rules          map[string]RuleConfig `toml:"rules"`
}

// Default returns the configuration used when no manifest exists.
func Default() *Config {
	return &Config{
		MaxDiagnostics: 100,
		Rules:          make(map[string]RuleConfig),
	}
}

// Find walks upward from startDir looking for the manifest.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load decodes the manifest at path on top of defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if cfg.MaxDiagnostics <= 0 {
		cfg.MaxDiagnostics = Default().MaxDiagnostics
	}
	if cfg.Rules == nil {
		cfg.Rules = make(map[string]RuleConfig)
	}
	return cfg, nil
}

// Validate checks the manifest against the registry: unknown rule names
// and unknown severities are configuration mistakes, reported rather than
// ignored so a typo cannot silently disable a rule.
func (c *Config) Validate(registry *rules.Registry) error {
	for id, rc := range c.Rules {
		if _, ok := registry.Lookup(id); !ok {
			return fmt.Errorf("%s: unknown rule %q", diag.CfgUnknownRule.ID(), id)
		}
		if rc.Severity != "" {
			if _, ok := diag.SeverityFromString(rc.Severity); !ok {
				return fmt.Errorf("%s: rule %q: unknown severity %q", diag.CfgBadSeverity.ID(), id, rc.Severity)
			}
		}
	}
	return nil
}

// RuleEnabled reports whether the rule should run; rules are opt-out.
func (c *Config) RuleEnabled(id string) bool {
	rc, ok := c.Rules[id]
	if !ok || rc.Enabled == nil {
		return true
	}
	return *rc.Enabled
}

// RuleSeverity resolves the effective severity for a rule.
func (c *Config) RuleSeverity(rule rules.Rule) diag.Severity {
	rc, ok := c.Rules[rule.ID()]
	if !ok || rc.Severity == "" {
		return rule.DefaultSeverity()
	}
	if sev, ok := diag.SeverityFromString(rc.Severity); ok {
		return sev
	}
	return rule.DefaultSeverity()
}
