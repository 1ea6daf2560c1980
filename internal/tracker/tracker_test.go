// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_StartAndCancel(t *testing.T) {
	tr := New()

	id, ctx := tr.Start(context.Background())
	assert.True(t, tr.Tracking(id))

	tr.Cancel(id)

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled")
	}
}

func TestTracker_CancelUnknownIsNoop(t *testing.T) {
	tr := New()
	id, _ := tr.Start(context.Background())
	tr.Finish(id)

	assert.NotPanics(t, func() { tr.Cancel(id) })
}

func TestTracker_Finish(t *testing.T) {
	tr := New()
	id, _ := tr.Start(context.Background())
	require.True(t, tr.Tracking(id))

	tr.Finish(id)
	assert.False(t, tr.Tracking(id))
	assert.Equal(t, 0, tr.Len())
}

func TestTracker_ParentCancellationPropagates(t *testing.T) {
	tr := New()
	parent, cancelParent := context.WithCancel(context.Background())

	_, ctx := tr.Start(parent)
	cancelParent()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("child context did not observe parent cancellation")
	}
}
