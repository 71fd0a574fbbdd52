package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"tenure/internal/driver"
)

// workspaceConfig is the optional tenure.toml manifest: per-workspace
// defaults that explicit flags override.
type workspaceConfig struct {
	Defaults defaultsConfig `toml:"defaults"`
	Cache    cacheConfig    `toml:"cache"`
}

type defaultsConfig struct {
	Format string `toml:"format"`
	Jobs   int    `toml:"jobs"`
	UI     string `toml:"ui"`
}

type cacheConfig struct {
	Dir     string `toml:"dir"`
	Disable bool   `toml:"disable"`
}

// findWorkspaceManifest walks from startDir upward looking for
// tenure.toml. Absence is not an error.
func findWorkspaceManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, driver.ManifestName)
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

// loadWorkspaceConfig decodes the manifest with unknown keys rejected,
// so a typo in tenure.toml surfaces instead of silently doing nothing.
func loadWorkspaceConfig(startDir string) (workspaceConfig, error) {
	var cfg workspaceConfig

	path, ok, err := findWorkspaceManifest(startDir)
	if err != nil || !ok {
		return cfg, err
	}

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return workspaceConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return workspaceConfig{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if cfg.Defaults.Format != "" {
		switch cfg.Defaults.Format {
		case "pretty", "json", "short":
		default:
			return workspaceConfig{}, fmt.Errorf("%s: [defaults].format must be pretty, json or short, got %q", path, cfg.Defaults.Format)
		}
	}
	if cfg.Defaults.UI != "" {
		if _, err := readUIMode(cfg.Defaults.UI); err != nil {
			return workspaceConfig{}, fmt.Errorf("%s: [defaults].ui: %w", path, err)
		}
	}
	return cfg, nil
}

// manifestStartDir picks the directory the manifest search starts from:
// the target itself when it is a directory, its parent otherwise.
func manifestStartDir(target string) string {
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return target
	}
	return filepath.Dir(target)
}
