// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/sessioncore/internal/config"
)

func TestProcessSource_StreamsLines(t *testing.T) {
	src, err := NewProcessSource(config.IngestConfig{
		Name:    "echo-test",
		Type:    "process",
		Command: []string{"printf", "a\\nb\\nc\\n"},
	})
	require.NoError(t, err)
	assert.Equal(t, "echo-test", src.Name())

	var got []string
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = Pump(ctx, src, func(line string) error {
		got = append(got, strings.TrimSuffix(line, "\n"))
		return nil
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.True(t, src.Status().Connected == false || src.Status().LinesRead == 3)
}

func TestNewProcessSource_RequiresCommand(t *testing.T) {
	_, err := NewProcessSource(config.IngestConfig{Name: "empty"})
	assert.Error(t, err)
}

func TestNewSource_UnknownType(t *testing.T) {
	_, err := New(config.IngestConfig{Name: "x", Type: "carrier-pigeon"})
	assert.Error(t, err)
}
