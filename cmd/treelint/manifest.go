package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"treelint/internal/config"
	"treelint/internal/rules"
)

// resolveConfig loads the manifest for a target path. An explicit --config
// wins; otherwise the search walks upward from the target's directory.
// Without a manifest the defaults apply.
func resolveConfig(cmd *cobra.Command, targetPath string, registry *rules.Registry) (*config.Config, error) {
	explicit, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	manifestPath := explicit
	if manifestPath == "" {
		startDir := targetPath
		if info, err := os.Stat(targetPath); err == nil && !info.IsDir() {
			startDir = filepath.Dir(targetPath)
		}
		found, ok, err := config.Find(startDir)
		if err != nil {
			return nil, err
		}
		if !ok {
			return config.Default(), nil
		}
		manifestPath = found
	}

	cfg, err := config.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(registry); err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}
	return cfg, nil
}
