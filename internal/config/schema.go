// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config handles HJSON configuration loading for sessioncore.
package config

import "time"

// ParseDuration parses s as a time.Duration, returning def if s is empty or
// malformed. Session and event-history settings are stored as strings so
// they round-trip cleanly through HJSON/JSON.
func ParseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// Config is the root configuration structure for sessioncore.
type Config struct {
	Version string       `json:"version"`
	Project ProjectConfig `json:"project"`
	Session SessionConfig `json:"session"`
	Ingest  []IngestConfig `json:"ingest"`
	Events  EventsConfig  `json:"events"`
	Bridge  BridgeConfig  `json:"bridge"`
}

// ProjectConfig contains project metadata.
type ProjectConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SessionConfig configures the session state actor and its incremental
// search engine.
type SessionConfig struct {
	// StreamsDir is the directory session files are created in when the
	// caller doesn't hand SetSessionFile an existing path.
	StreamsDir string `json:"streams_dir"`
	// FlushDebounce is the minimum interval between session-writer flushes
	// triggered by WriteSessionFile (e.g. "250ms").
	FlushDebounce string `json:"flush_debounce"`
	// ReaderCapacityBytes is the buffered-reader capacity execute_search
	// uses when scanning the session file (default 1 MiB).
	ReaderCapacityBytes int `json:"reader_capacity_bytes"`
	// ReaderMinBufferedBytes documents the refill-threshold intent from the
	// spec; Go's bufio.Reader always refills on exhaustion, so this value
	// is informational rather than behavior-changing.
	ReaderMinBufferedBytes int `json:"reader_min_buffered_bytes"`
	// GrabberChunkLines controls how many lines each Grabber rescan chunk
	// covers; chunks are scanned sequentially, with a cancellation check
	// between them (see internal/grabber).
	GrabberChunkLines int `json:"grabber_chunk_lines"`
	// Debug enables verbose actor tracing (SetDebugMode's initial value).
	Debug bool `json:"debug"`
}

// IngestConfig describes one Text Source to wire up at startup (see
// internal/ingest). It is demo/harness configuration, not part of the
// session core's contract.
type IngestConfig struct {
	Name string `json:"name"`
	// Type selects the adapter: "process" or "pty".
	Type    string   `json:"type"`
	Command []string `json:"command"`
	WorkDir string   `json:"work_dir"`
}

// EventsConfig configures the event bus's retention.
type EventsConfig struct {
	History HistoryConfig `json:"history"`
}

// HistoryConfig configures event history retention.
type HistoryConfig struct {
	MaxEvents int    `json:"max_events"`
	MaxAge    string `json:"max_age"`
}

// BridgeConfig configures the demo HTTP+WebSocket front end in
// internal/bridge. Not part of the session core's contract.
type BridgeConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}
