// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const s1Corpus = "[Info](1.3): a\n[Warn](1.4): b\n[Info](1.5): c\n[Err](1.6): d\n[Info](1.7): e\n[Info](1.8): f\n"

func writeSessionFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stream.session")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readFileString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// S1 - two-filter disjunction over a static corpus.
func TestExecuteSearch_S1_TwoFilterDisjunction(t *testing.T) {
	path := writeSessionFile(t, s1Corpus)

	h, err := NewHolder(path, []Filter{
		{Value: "[Err]", IsRegex: false, IgnoreCase: true},
		{Value: `\[Warn\]`, IsRegex: true, IgnoreCase: true},
	})
	require.NoError(t, err)
	defer h.Close()

	matches, stats, err := h.ExecuteSearch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1\n3\n", readFileString(t, h.OutputPath()))
	assert.Equal(t, uint64(1), stats[0])
	assert.Equal(t, uint64(1), stats[1])
	require.Len(t, matches, 2)
	assert.Equal(t, uint64(1), matches[0].LineIndex)
	assert.Equal(t, uint64(3), matches[1].LineIndex)
}

// S2 - case sensitivity.
func TestExecuteSearch_S2_CaseSensitivity(t *testing.T) {
	path := writeSessionFile(t, s1Corpus)

	h, err := NewHolder(path, []Filter{
		{Value: "[err]", IsRegex: false, IgnoreCase: true},
		{Value: "[warn]", IsRegex: false, IgnoreCase: false},
	})
	require.NoError(t, err)
	defer h.Close()

	_, _, err = h.ExecuteSearch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "3\n", readFileString(t, h.OutputPath()))
}

// S3 - incremental resumption.
func TestExecuteSearch_S3_IncrementalResumption(t *testing.T) {
	lines := strings.SplitAfter(s1Corpus, "\n")
	lines = lines[:len(lines)-1] // drop trailing empty element from SplitAfter
	first := strings.Join(lines[:3], "")

	path := writeSessionFile(t, first)

	h, err := NewHolder(path, []Filter{
		{Value: "[Err]", IsRegex: false, IgnoreCase: true},
		{Value: `\[Warn\]`, IsRegex: true, IgnoreCase: true},
	})
	require.NoError(t, err)
	defer h.Close()

	_, _, err = h.ExecuteSearch(context.Background())
	require.NoError(t, err)
	firstRunOutput := readFileString(t, h.OutputPath())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(strings.Join(lines[3:], ""))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, _, err = h.ExecuteSearch(context.Background())
	require.NoError(t, err)
	secondRunOutput := readFileString(t, h.OutputPath())

	assert.Equal(t, "1\n3\n", secondRunOutput)
	assert.True(t, strings.HasPrefix(secondRunOutput, firstRunOutput))
}

func TestExecuteSearch_EmptyFilters(t *testing.T) {
	path := writeSessionFile(t, s1Corpus)
	h, err := NewHolder(path, nil)
	require.NoError(t, err)
	defer h.Close()

	_, _, err = h.ExecuteSearch(context.Background())
	assert.Error(t, err)
}

func TestExecuteSearch_EmptySessionFile(t *testing.T) {
	path := writeSessionFile(t, "")
	h, err := NewHolder(path, []Filter{{Value: "x"}})
	require.NoError(t, err)
	defer h.Close()

	matches, stats, err := h.ExecuteSearch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Empty(t, stats)
}

func TestHolder_Close_RemovesOutputFile(t *testing.T) {
	path := writeSessionFile(t, s1Corpus)
	h, err := NewHolder(path, []Filter{{Value: "[Err]"}})
	require.NoError(t, err)

	_, _, err = h.ExecuteSearch(context.Background())
	require.NoError(t, err)

	_, statErr := os.Stat(h.OutputPath())
	require.NoError(t, statErr)

	require.NoError(t, h.Close())
	_, statErr = os.Stat(h.OutputPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestExecuteSearch_LineSpanningBufferBoundary(t *testing.T) {
	// Build a corpus where a matching line straddles the 1 MiB buffer
	// boundary, to confirm it's still classified exactly once.
	pad := strings.Repeat("x", defaultReaderCapacity-10)
	content := pad + "\n[Err] boundary line\nmore\n"
	path := writeSessionFile(t, content)

	h, err := NewHolder(path, []Filter{{Value: "[Err]", IgnoreCase: true}})
	require.NoError(t, err)
	defer h.Close()

	matches, stats, err := h.ExecuteSearch(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, uint64(1), matches[0].LineIndex)
	assert.Equal(t, uint64(1), stats[0])
}

func TestExecuteSearch_CancellationReturnsPartialPrefix(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 1000; i++ {
		b.WriteString("[Err] line\n")
	}
	path := writeSessionFile(t, b.String())

	h, err := NewHolder(path, []Filter{{Value: "[Err]", IgnoreCase: true}})
	require.NoError(t, err)
	defer h.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	matches, _, err := h.ExecuteSearch(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(matches), 1000)
	assert.LessOrEqual(t, h.BytesRead, uint64(len(b.String())))
}

func TestExecuteSearch_ShrunkFileIsIOError(t *testing.T) {
	path := writeSessionFile(t, s1Corpus)
	h, err := NewHolder(path, []Filter{{Value: "[Err]"}})
	require.NoError(t, err)
	defer h.Close()

	_, _, err = h.ExecuteSearch(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("short\n"), 0644))

	_, _, err = h.ExecuteSearch(context.Background())
	assert.Error(t, err)
}

func TestExtractMatches_SkipsFiltersWithoutCaptureGroups(t *testing.T) {
	path := writeSessionFile(t, "value=42\nvalue=7\nno match here\n")

	results, err := ExtractMatches(context.Background(), path, []Filter{
		{Value: `value=(\d+)`, IsRegex: true},
		{Value: `value=\d+`, IsRegex: true},
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, uint8(0), results[0].FilterIndex)
	require.Len(t, results[0].Values, 2)
	assert.Equal(t, []string{"42"}, results[0].Values[0].Captures)
	assert.Equal(t, []string{"7"}, results[0].Values[1].Captures)
}
