// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"fmt"

	"github.com/wingedpig/sessioncore/internal/config"
)

// New builds the Source named by cfg.Type ("process" or "pty").
func New(cfg config.IngestConfig) (Source, error) {
	switch cfg.Type {
	case "process", "":
		return NewProcessSource(cfg)
	case "pty":
		return NewPTYSource(cfg)
	default:
		return nil, fmt.Errorf("ingest: unknown source type %q for %q", cfg.Type, cfg.Name)
	}
}
