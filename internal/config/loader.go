// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hjson/hjson-go/v4"
)

// Loader handles configuration file loading.
type Loader struct{}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses the configuration from the given path.
func (l *Loader) Load(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Parse HJSON to intermediate map
	var raw map[string]interface{}
	if err := hjson.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse hjson: %w", err)
	}

	// Convert to JSON and unmarshal to struct (for type safety)
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert to json: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config with default values applied.
func (l *Loader) LoadWithDefaults(ctx context.Context, path string) (*Config, error) {
	cfg, err := l.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// FindConfig searches for a config file in the current directory.
// It looks for sessioncore.hjson first, then sessioncore.json.
func (l *Loader) FindConfig() (string, error) {
	candidates := []string{
		"sessioncore.hjson",
		"sessioncore.json",
	}

	for _, name := range candidates {
		path := filepath.Join(".", name)
		if _, err := os.Stat(path); err == nil {
			abs, err := filepath.Abs(path)
			if err != nil {
				return path, nil
			}
			return abs, nil
		}
	}

	return "", fmt.Errorf("config file not found (looked for sessioncore.hjson, sessioncore.json)")
}

// applyDefaults sets default values for missing config fields.
func applyDefaults(cfg *Config) {
	if cfg.Session.StreamsDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Session.StreamsDir = filepath.Join(home, ".sessioncore", "streams")
		} else {
			cfg.Session.StreamsDir = filepath.Join(os.TempDir(), "sessioncore", "streams")
		}
	}
	if cfg.Session.FlushDebounce == "" {
		cfg.Session.FlushDebounce = "250ms"
	}
	if cfg.Session.ReaderCapacityBytes == 0 {
		cfg.Session.ReaderCapacityBytes = 1024 * 1024
	}
	if cfg.Session.ReaderMinBufferedBytes == 0 {
		cfg.Session.ReaderMinBufferedBytes = 10 * 1024
	}
	if cfg.Session.GrabberChunkLines == 0 {
		cfg.Session.GrabberChunkLines = 50000
	}

	if cfg.Events.History.MaxEvents == 0 {
		cfg.Events.History.MaxEvents = 10000
	}
	if cfg.Events.History.MaxAge == "" {
		cfg.Events.History.MaxAge = "1h"
	}

	if cfg.Bridge.Host == "" {
		cfg.Bridge.Host = "127.0.0.1"
	}
	if cfg.Bridge.Port == 0 {
		cfg.Bridge.Port = 7777
	}
}
