package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the CLI configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	LogLevel     string `json:"log_level"`
	LogFormat    string `json:"log_format"`
	CatalogPath  string `json:"catalog_path"`
	Strict       bool   `json:"strict"`
	HistoryLimit int    `json:"history_limit"`
}

func defaultConfig() Config {
	return Config{
		LogLevel:     "warn",
		LogFormat:    "text",
		HistoryLimit: 1024,
	}
}

func pipetraceDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pipetrace"
	}
	return filepath.Join(home, ".pipetrace")
}

func settingsPath() string {
	return filepath.Join(pipetraceDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("PIPETRACE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PIPETRACE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("PIPETRACE_CATALOG"); v != "" {
		cfg.CatalogPath = v
	}
	if v := os.Getenv("PIPETRACE_STRICT"); v != "" {
		cfg.Strict = v == "true" || v == "1"
	}
	if v := os.Getenv("PIPETRACE_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HistoryLimit = n
		}
	}

	return cfg
}
