// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/creack/pty"

	"github.com/wingedpig/sessioncore/internal/config"
)

// PTYSource runs a command attached to a pseudo-terminal and streams its
// combined output line by line. It is the Text Source adapter for ingest
// entries of type "pty" — interactive commands (a shell, a REPL) that
// behave differently without a controlling terminal.
type PTYSource struct {
	sourceBase
	cfg  config.IngestConfig
	ptmx *os.File
}

// NewPTYSource creates a PTY-backed source from cfg. cfg.Command must be
// non-empty.
func NewPTYSource(cfg config.IngestConfig) (*PTYSource, error) {
	if len(cfg.Command) == 0 {
		return nil, fmt.Errorf("ingest: pty source %q requires a command", cfg.Name)
	}
	return &PTYSource{cfg: cfg}, nil
}

// Name returns the source's configured name, falling back to the command
// line if unnamed.
func (s *PTYSource) Name() string {
	if s.cfg.Name != "" {
		return s.cfg.Name
	}
	return fmt.Sprintf("pty:%s", strings.Join(s.cfg.Command, " "))
}

// Start launches the command under a PTY and begins streaming its output
// to lineCh.
func (s *PTYSource) Start(ctx context.Context, lineCh chan<- string, errCh chan<- error) error {
	cmd := exec.Command(s.cfg.Command[0], s.cfg.Command[1:]...)
	if s.cfg.WorkDir != "" {
		cmd.Dir = s.cfg.WorkDir
	}
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.Start(cmd)
	if err != nil {
		s.setError(err)
		return fmt.Errorf("ingest %s: pty start: %w", s.Name(), err)
	}
	s.ptmx = ptmx
	s.setConnected()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(lineCh)
		defer ptmx.Close()
		defer func() {
			if cmd.Process != nil {
				cmd.Process.Kill()
				cmd.Wait()
			}
		}()

		scanner := bufio.NewScanner(ptmx)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			case lineCh <- scanner.Text():
				s.incrementLines()
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			s.setError(err)
			errCh <- fmt.Errorf("ingest %s: read: %w", s.Name(), err)
		}
	}()

	return nil
}

// Resize adjusts the PTY's window size, used when an interactive source is
// attached to a resizable UI terminal.
func (s *PTYSource) Resize(rows, cols uint16) error {
	if s.ptmx == nil {
		return fmt.Errorf("ingest %s: pty not started", s.Name())
	}
	return pty.Setsize(s.ptmx, &pty.Winsize{Rows: rows, Cols: cols})
}
