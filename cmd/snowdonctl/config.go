package main

import (
	"os"
	"strings"

	"github.com/danmuck/snowdon/internal/config"
)

const (
	envConfigPath     = "SNOWDON_CONFIG"
	defaultConfigPath = "cmd/snowdonctl/config.toml"
)

// loadConfig resolves the config path from flag, then env, then the
// in-repo default, and loads it.
func loadConfig(flagPath string) (config.Config, string, error) {
	path := resolveConfigPath(flagPath)
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, path, err
	}
	return cfg, path, nil
}

func resolveConfigPath(flagPath string) string {
	if p := strings.TrimSpace(flagPath); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(envConfigPath)); p != "" {
		return p
	}
	return defaultConfigPath
}
