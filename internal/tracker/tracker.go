// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package tracker implements the OperationTracker external collaborator:
// a registry mapping an operation UUID to the cancellation function for
// the work it names, letting a caller cancel a specific in-flight
// operation (a search execution, a grab) without tearing down the whole
// session.
package tracker

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Tracker maps operation IDs to their cancellation functions. It is safe
// for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{cancels: make(map[uuid.UUID]context.CancelFunc)}
}

// Start derives a cancellable context from parent, registers its cancel
// function under a fresh UUID, and returns both. Callers run their
// operation with the returned context and must call Finish(id) when the
// operation completes, successfully or not, to release the registry
// entry.
func (t *Tracker) Start(parent context.Context) (uuid.UUID, context.Context) {
	id := uuid.New()
	ctx, cancel := context.WithCancel(parent)

	t.mu.Lock()
	t.cancels[id] = cancel
	t.mu.Unlock()

	return id, ctx
}

// Cancel cancels the operation registered under id, if any. It is a no-op
// if id is unknown (already finished, or never started).
func (t *Tracker) Cancel(id uuid.UUID) {
	t.mu.Lock()
	cancel, ok := t.cancels[id]
	t.mu.Unlock()
	if ok {
		cancel()
	}
}

// Finish releases the registry entry for id. It does not cancel the
// operation; callers that want cancellation-as-part-of-finishing should
// call Cancel first.
func (t *Tracker) Finish(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.cancels, id)
}

// Tracking reports whether id currently has a registered cancellation
// function.
func (t *Tracker) Tracking(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.cancels[id]
	return ok
}

// Len returns the number of in-flight operations currently tracked.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.cancels)
}
