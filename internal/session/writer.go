// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"bufio"
	"os"
	"time"

	"github.com/wingedpig/sessioncore/internal/errkind"
)

// writer is a buffered appender over a session file. Per the design notes,
// the debounced flush needs no background timer: just an instant
// timestamp compared against a constant on each write.
type writer struct {
	f           *os.File
	buf         *bufio.Writer
	lastFlush   time.Time
	dirty       bool
	flushPeriod time.Duration
}

func newWriter(path string, flushPeriod time.Duration) (*writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errkind.New(errkind.KindIO, "open session writer", err)
	}
	return &writer{
		f:           f,
		buf:         bufio.NewWriter(f),
		lastFlush:   time.Now(),
		flushPeriod: flushPeriod,
	}, nil
}

// write appends s to the buffer and reports whether the elapsed time
// since the last flush exceeds flushPeriod. If so, the caller is expected
// to call flush immediately afterward; write itself never flushes so the
// debounce decision stays in one place (the actor's WriteSessionFile
// handler).
func (w *writer) write(s string) (shouldFlush bool, err error) {
	if _, err := w.buf.WriteString(s); err != nil {
		return false, errkind.New(errkind.KindIO, "write session file", err)
	}
	w.dirty = true
	return time.Since(w.lastFlush) > w.flushPeriod, nil
}

// flush writes buffered bytes to disk and clears dirty, regardless of the
// debounce window. It is a no-op (but still resets lastFlush) when
// nothing is pending.
func (w *writer) flush() error {
	if err := w.buf.Flush(); err != nil {
		return errkind.New(errkind.KindIO, "flush session file", err)
	}
	w.dirty = false
	w.lastFlush = time.Now()
	return nil
}

func (w *writer) isDirty() bool {
	return w.dirty
}

func (w *writer) close() error {
	if err := w.flush(); err != nil {
		return err
	}
	return w.f.Close()
}
