// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/wingedpig/sessioncore/internal/config"
)

// ProcessSource runs a command and streams its stdout line by line. It is
// the Text Source adapter for ingest entries of type "process".
type ProcessSource struct {
	sourceBase
	cfg config.IngestConfig
}

// NewProcessSource creates a process-backed source from cfg. cfg.Command
// must be non-empty.
func NewProcessSource(cfg config.IngestConfig) (*ProcessSource, error) {
	if len(cfg.Command) == 0 {
		return nil, fmt.Errorf("ingest: process source %q requires a command", cfg.Name)
	}
	return &ProcessSource{cfg: cfg}, nil
}

// Name returns the source's configured name, falling back to the command
// line if unnamed.
func (s *ProcessSource) Name() string {
	if s.cfg.Name != "" {
		return s.cfg.Name
	}
	return fmt.Sprintf("process:%s", strings.Join(s.cfg.Command, " "))
}

// Start launches the command and begins streaming its stdout to lineCh.
func (s *ProcessSource) Start(ctx context.Context, lineCh chan<- string, errCh chan<- error) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(lineCh)
		s.run(ctx, lineCh, errCh)
	}()

	return nil
}

func (s *ProcessSource) run(ctx context.Context, lineCh chan<- string, errCh chan<- error) {
	cmd := exec.CommandContext(ctx, s.cfg.Command[0], s.cfg.Command[1:]...)
	if s.cfg.WorkDir != "" {
		cmd.Dir = s.cfg.WorkDir
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.setError(err)
		errCh <- fmt.Errorf("ingest %s: stdout pipe: %w", s.Name(), err)
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.setError(err)
		errCh <- fmt.Errorf("ingest %s: stderr pipe: %w", s.Name(), err)
		return
	}

	if err := cmd.Start(); err != nil {
		s.setError(err)
		errCh <- fmt.Errorf("ingest %s: start: %w", s.Name(), err)
		return
	}
	s.setConnected()

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			// Stderr is surfaced via status, not fed into the session file.
		}
	}()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		case lineCh <- scanner.Text():
			s.incrementLines()
		}
	}

	if err := scanner.Err(); err != nil {
		s.setError(err)
		errCh <- fmt.Errorf("ingest %s: read: %w", s.Name(), err)
	}

	if err := cmd.Wait(); err != nil && ctx.Err() == nil {
		s.setError(err)
		errCh <- fmt.Errorf("ingest %s: exited: %w", s.Name(), err)
	}
}
