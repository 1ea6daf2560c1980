// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/wingedpig/sessioncore/internal/events"
)

// SessionFileWatcher watches a session's backing file for external growth
// (lines appended by a process outside the session's own writer) and
// debounces the resulting fsnotify storm into a single rescan trigger.
type SessionFileWatcher struct {
	mu        sync.Mutex
	bus       events.EventBus
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	onChange  map[string]func()
	closed    bool
	closeCh   chan struct{}
	wg        sync.WaitGroup
}

// NewSessionFileWatcher creates a watcher that fires onChange, debounced by
// the given duration, whenever a watched session file is written to.
func NewSessionFileWatcher(bus events.EventBus, debounce time.Duration) (*SessionFileWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &SessionFileWatcher{
		bus:       bus,
		watcher:   fsWatcher,
		debouncer: NewDebouncer(debounce),
		onChange:  make(map[string]func()),
		closeCh:   make(chan struct{}),
	}

	w.wg.Add(1)
	go w.processEvents()

	return w, nil
}

// Watch starts watching path, calling onChange (debounced) after each
// detected write. Calling Watch again for the same path replaces its
// callback.
func (w *SessionFileWatcher) Watch(path string, onChange func()) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("watcher is closed")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	if _, exists := w.onChange[abs]; !exists {
		if err := w.watcher.Add(abs); err != nil {
			return fmt.Errorf("watch %s: %w", abs, err)
		}
	}
	w.onChange[abs] = onChange
	return nil
}

// Unwatch stops watching path.
func (w *SessionFileWatcher) Unwatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	if _, exists := w.onChange[abs]; !exists {
		return fmt.Errorf("%s not being watched", path)
	}
	delete(w.onChange, abs)
	w.debouncer.Cancel(abs)
	w.watcher.Remove(abs)
	return nil
}

// SetDebounce changes the debounce duration for future triggers.
func (w *SessionFileWatcher) SetDebounce(d time.Duration) {
	w.debouncer.SetDuration(d)
}

// Close stops the watcher and releases resources.
func (w *SessionFileWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.debouncer.Stop()
	w.watcher.Close()
	w.wg.Wait()
	return nil
}

func (w *SessionFileWatcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *SessionFileWatcher) handleEvent(event fsnotify.Event) {
	// Only growth matters: renames, removes and chmod events are ignored.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	w.mu.Lock()
	onChange, exists := w.onChange[event.Name]
	w.mu.Unlock()

	if !exists {
		return
	}

	w.debouncer.Debounce(event.Name, func() {
		onChange()
		if w.bus != nil {
			w.bus.Publish(context.Background(), events.Event{
				Type: events.EventStreamUpdated,
				Payload: map[string]interface{}{
					"path": event.Name,
				},
			})
		}
	})
}
