// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validator validates configuration against schema rules.
type Validator struct{}

// NewValidator creates a new config validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidationError contains multiple validation failures.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single field validation error.
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, "; ")
}

// IsEmpty returns true if there are no validation errors.
func (e *ValidationError) IsEmpty() bool {
	return len(e.Errors) == 0
}

// Add adds a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Validate checks configuration validity.
func (v *Validator) Validate(cfg *Config) error {
	errs := &ValidationError{}

	v.validateRequired(cfg, errs)
	v.validateSession(cfg, errs)
	v.validateIngest(cfg, errs)
	v.validateDurations(cfg, errs)
	v.validateBridge(cfg, errs)

	if errs.IsEmpty() {
		return nil
	}
	return errs
}

func (v *Validator) validateRequired(cfg *Config, errs *ValidationError) {
	if cfg.Version == "" {
		errs.Add("version", "is required")
	}
}

func (v *Validator) validateSession(cfg *Config, errs *ValidationError) {
	if cfg.Session.StreamsDir == "" {
		errs.Add("session.streams_dir", "is required")
	}
	if cfg.Session.ReaderCapacityBytes < 0 {
		errs.Add("session.reader_capacity_bytes", "must not be negative")
	}
	if cfg.Session.ReaderMinBufferedBytes < 0 {
		errs.Add("session.reader_min_buffered_bytes", "must not be negative")
	}
	if cfg.Session.ReaderMinBufferedBytes > 0 && cfg.Session.ReaderCapacityBytes > 0 &&
		cfg.Session.ReaderMinBufferedBytes >= cfg.Session.ReaderCapacityBytes {
		errs.Add("session.reader_min_buffered_bytes", "must be smaller than reader_capacity_bytes")
	}
	if cfg.Session.GrabberChunkLines < 0 {
		errs.Add("session.grabber_chunk_lines", "must not be negative")
	}
}

func (v *Validator) validateIngest(cfg *Config, errs *ValidationError) {
	seenNames := make(map[string]bool)
	validTypes := map[string]bool{
		"process": true,
		"pty":     true,
	}

	for i, src := range cfg.Ingest {
		prefix := fmt.Sprintf("ingest[%d]", i)

		if src.Name == "" {
			errs.Add(prefix+".name", "is required")
		} else if seenNames[src.Name] {
			errs.Add(prefix+".name", fmt.Sprintf("duplicate ingest name '%s'", src.Name))
		} else {
			seenNames[src.Name] = true
		}

		if !validTypes[src.Type] {
			errs.Add(prefix+".type", fmt.Sprintf("invalid type '%s', must be one of: process, pty", src.Type))
		}

		if len(src.Command) == 0 {
			errs.Add(prefix+".command", "is required")
		}
	}
}

func (v *Validator) validateDurations(cfg *Config, errs *ValidationError) {
	if cfg.Session.FlushDebounce != "" {
		d, err := time.ParseDuration(cfg.Session.FlushDebounce)
		if err != nil {
			errs.Add("session.flush_debounce", fmt.Sprintf("invalid duration format: %s", err))
		} else if d < 0 {
			errs.Add("session.flush_debounce", "must be positive")
		}
	}

	if cfg.Events.History.MaxAge != "" {
		d, err := time.ParseDuration(cfg.Events.History.MaxAge)
		if err != nil {
			errs.Add("events.history.max_age", fmt.Sprintf("invalid duration format: %s", err))
		} else if d < 0 {
			errs.Add("events.history.max_age", "must be positive")
		}
	}
}

func (v *Validator) validateBridge(cfg *Config, errs *ValidationError) {
	if cfg.Bridge.Port != 0 {
		if cfg.Bridge.Port < 0 || cfg.Bridge.Port > 65535 {
			errs.Add("bridge.port", "must be between 0 and 65535")
		}
	}
}
