// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package ingest adapts growing external text streams — a child process's
// stdout, a pseudo-terminal — into the session core's only entry point for
// new data: repeated calls to Session.WriteSessionFile. Sources are
// external collaborators per the session core's scope; they never touch
// actor state directly.
package ingest

import (
	"context"
	"sync"
	"time"
)

// Source produces lines from some external text stream and feeds each one
// to a session as it arrives.
type Source interface {
	// Name identifies the source for logging and status reporting.
	Name() string
	// Start begins reading from the source. It returns once the source has
	// started (or failed to start); ongoing errors are reported via errCh.
	// lineCh is closed when the source stops.
	Start(ctx context.Context, lineCh chan<- string, errCh chan<- error) error
	// Stop gracefully shuts the source down and waits for it to exit.
	Stop() error
	// Status reports the source's current connection state.
	Status() Status
}

// Status mirrors a source's connection/activity state for diagnostics.
type Status struct {
	Connected   bool
	Error       string
	LastConnect time.Time
	LastError   time.Time
	LinesRead   int64
}

// sourceBase holds the fields and status bookkeeping common to every
// Source implementation.
type sourceBase struct {
	mu     sync.RWMutex
	status Status
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (b *sourceBase) setConnected() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status.Connected = true
	b.status.LastConnect = time.Now()
	b.status.Error = ""
}

func (b *sourceBase) setError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status.Connected = false
	b.status.Error = err.Error()
	b.status.LastError = time.Now()
}

func (b *sourceBase) incrementLines() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status.LinesRead++
}

func (b *sourceBase) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

func (b *sourceBase) Stop() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	return nil
}

// Pump reads from src and appends every line it produces to sess via
// WriteSessionFile, calling sess.FileRead once the source's line channel
// closes. It blocks until the source stops or ctx is cancelled.
func Pump(ctx context.Context, src Source, write func(line string) error, onDrained func() error) error {
	lineCh := make(chan string, 256)
	errCh := make(chan error, 1)

	if err := src.Start(ctx, lineCh, errCh); err != nil {
		return err
	}

	var firstErr error
	for lineCh != nil || errCh != nil {
		select {
		case line, ok := <-lineCh:
			if !ok {
				lineCh = nil
				// Sources send every error before closing lineCh, so any
				// error not yet received is already buffered.
				select {
				case err := <-errCh:
					if err != nil && firstErr == nil {
						firstErr = err
					}
				default:
				}
				errCh = nil
				continue
			}
			if err := write(line + "\n"); err != nil && firstErr == nil {
				firstErr = err
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
		case <-ctx.Done():
			_ = src.Stop()
			if onDrained != nil {
				_ = onDrained()
			}
			return ctx.Err()
		}
	}

	if onDrained != nil {
		if err := onDrained(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
