// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load_ValidConfig(t *testing.T) {
	configContent := `{
		version: "1.0"
		project: {
			name: "test-project"
			description: "A test project"
		}
		session: {
			streams_dir: "/tmp/streams"
			flush_debounce: "250ms"
		}
	}`

	cfg := loadFromString(t, configContent)

	assert.Equal(t, "1.0", cfg.Version)
	assert.Equal(t, "test-project", cfg.Project.Name)
	assert.Equal(t, "A test project", cfg.Project.Description)
	assert.Equal(t, "/tmp/streams", cfg.Session.StreamsDir)
	assert.Equal(t, "250ms", cfg.Session.FlushDebounce)
}

func TestLoader_Load_HJSONFeatures(t *testing.T) {
	// Test HJSON-specific features: comments, unquoted keys, trailing commas
	configContent := `{
		// This is a comment
		version: "1.0"

		# Hash comment
		project: {
			name: test-project
			description: '''
				Multi-line
				description
			'''
		}

		session: {
			streams_dir: /tmp/streams,
			grabber_chunk_lines: 50000,
		}
	}`

	cfg := loadFromString(t, configContent)

	assert.Equal(t, "1.0", cfg.Version)
	assert.Equal(t, "test-project", cfg.Project.Name)
	assert.Contains(t, cfg.Project.Description, "Multi-line")
	assert.Equal(t, 50000, cfg.Session.GrabberChunkLines)
}

func TestLoader_Load_AllSections(t *testing.T) {
	configContent := `{
		version: "1.0"

		project: {
			name: "full-project"
		}

		session: {
			streams_dir: "/var/sessioncore/streams"
			flush_debounce: "250ms"
			reader_capacity_bytes: 1048576
			reader_min_buffered_bytes: 10240
			grabber_chunk_lines: 50000
			debug: true
		}

		ingest: [
			{
				name: "app-log"
				type: "process"
				command: ["tail", "-f", "/var/log/app.log"]
			}
			{
				name: "dev-console"
				type: "pty"
				command: ["bash"]
				work_dir: "/home/dev"
			}
		]

		events: {
			history: {
				max_events: 10000
				max_age: "1h"
			}
		}

		bridge: {
			host: "0.0.0.0"
			port: 7777
		}
	}`

	cfg := loadFromString(t, configContent)

	assert.Equal(t, "/var/sessioncore/streams", cfg.Session.StreamsDir)
	assert.True(t, cfg.Session.Debug)
	assert.Equal(t, 1048576, cfg.Session.ReaderCapacityBytes)

	require.Len(t, cfg.Ingest, 2)
	assert.Equal(t, "process", cfg.Ingest[0].Type)
	assert.Equal(t, []string{"tail", "-f", "/var/log/app.log"}, cfg.Ingest[0].Command)
	assert.Equal(t, "pty", cfg.Ingest[1].Type)
	assert.Equal(t, "/home/dev", cfg.Ingest[1].WorkDir)

	assert.Equal(t, 10000, cfg.Events.History.MaxEvents)
	assert.Equal(t, "1h", cfg.Events.History.MaxAge)

	assert.Equal(t, "0.0.0.0", cfg.Bridge.Host)
	assert.Equal(t, 7777, cfg.Bridge.Port)
}

func TestLoader_Load_Defaults(t *testing.T) {
	configContent := `{
		version: "1.0"
		project: { name: "test" }
	}`

	loader := NewLoader()
	cfg, err := loader.LoadWithDefaults(context.Background(), writeTestConfig(t, configContent))
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Session.StreamsDir)
	assert.Equal(t, "250ms", cfg.Session.FlushDebounce)
	assert.Equal(t, 1024*1024, cfg.Session.ReaderCapacityBytes)
	assert.Equal(t, 10*1024, cfg.Session.ReaderMinBufferedBytes)
	assert.Equal(t, 50000, cfg.Session.GrabberChunkLines)
	assert.Equal(t, 10000, cfg.Events.History.MaxEvents)
	assert.Equal(t, "1h", cfg.Events.History.MaxAge)
	assert.Equal(t, "127.0.0.1", cfg.Bridge.Host)
	assert.Equal(t, 7777, cfg.Bridge.Port)
}

func TestLoader_Load_FileNotFound(t *testing.T) {
	loader := NewLoader()
	_, err := loader.Load(context.Background(), "/nonexistent/path/config.hjson")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoader_Load_InvalidHJSON(t *testing.T) {
	configContent := `{
		version: "1.0"
		invalid json here {{{
	}`

	loader := NewLoader()
	path := writeTestConfig(t, configContent)
	_, err := loader.Load(context.Background(), path)
	assert.Error(t, err)
}

func TestLoader_Load_ConfigPaths(t *testing.T) {
	dir := t.TempDir()

	hjsonPath := filepath.Join(dir, "sessioncore.hjson")
	require.NoError(t, os.WriteFile(hjsonPath, []byte(`{version: "1.0", project: {name: "hjson"}}`), 0644))

	jsonPath := filepath.Join(dir, "sessioncore.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"version": "1.0", "project": {"name": "json"}}`), 0644))

	loader := NewLoader()

	cfg, err := loader.Load(context.Background(), hjsonPath)
	require.NoError(t, err)
	assert.Equal(t, "hjson", cfg.Project.Name)

	cfg, err = loader.Load(context.Background(), jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Project.Name)
}

func TestLoader_FindConfig(t *testing.T) {
	dir := t.TempDir()
	originalWd, _ := os.Getwd()
	defer os.Chdir(originalWd)
	os.Chdir(dir)

	loader := NewLoader()

	_, err := loader.FindConfig()
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sessioncore.hjson"), []byte(`{}`), 0644))
	path, err := loader.FindConfig()
	require.NoError(t, err)
	assert.Contains(t, path, "sessioncore.hjson")

	os.Remove(filepath.Join(dir, "sessioncore.hjson"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sessioncore.json"), []byte(`{}`), 0644))
	path, err = loader.FindConfig()
	require.NoError(t, err)
	assert.Contains(t, path, "sessioncore.json")
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		def      string
		expected string
	}{
		{"500ms", "100ms", "500ms"},
		{"1m", "100ms", "1m"},
		{"", "100ms", "100ms"},
		{"invalid", "100ms", "100ms"},
		{"1h30m", "100ms", "1h30m"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			defDur := mustParseDuration(tt.def)
			result := ParseDuration(tt.input, defDur)
			assert.Equal(t, mustParseDuration(tt.expected), result)
		})
	}
}

// Helper functions

func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	path := writeTestConfig(t, content)
	loader := NewLoader()
	cfg, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	return cfg
}

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sessioncore.hjson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func mustParseDuration(s string) time.Duration {
	dur, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return dur
}
