// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package grabber implements a lazy line-offset index over a growing text
// file, letting callers fetch arbitrary contiguous line ranges without
// re-scanning the whole file on every request.
package grabber

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"
)

// defaultChunkLines bounds how many lines a rescan indexes between
// cancellation checks, so UpdateFromFile can offer reasonably fine-grained
// cancellation on very large files.
const defaultChunkLines = 50000

// Metadata describes the current state of a Grabber's index.
type Metadata struct {
	LineCount uint64
}

// Line is one line returned by GrabContent, tagged with its absolute
// 0-based index into the underlying file.
type Line struct {
	Index   uint64
	Content string
}

// Range selects an inclusive-start, exclusive-end span of absolute line
// indices, e.g. [0, 3) selects lines 0, 1, 2.
type Range struct {
	Start uint64
	End   uint64
}

// Grabber lazily indexes the line offsets of a single text file. Its
// methods serialize access to the index through an internal mutex; in the
// session, the state actor is the sole owner of each grabber.
type Grabber struct {
	mu         sync.Mutex
	path       string
	chunkLines int
	offsets    []uint64 // offsets[i] is the byte offset where line i begins
	lineCount  uint64
	fileSize   int64
}

// New creates a Grabber over path. The index is empty until the first
// UpdateFromFile call.
func New(path string) *Grabber {
	return NewWithChunkSize(path, defaultChunkLines)
}

// NewWithChunkSize is like New but lets the caller tune the rescan chunk
// size (see internal/config's SessionConfig.GrabberChunkLines).
func NewWithChunkSize(path string, chunkLines int) *Grabber {
	if chunkLines <= 0 {
		chunkLines = defaultChunkLines
	}
	return &Grabber{
		path:       path,
		chunkLines: chunkLines,
		offsets:    []uint64{0},
	}
}

// Path returns the file path this grabber indexes.
func (g *Grabber) Path() string {
	return g.path
}

// Metadata returns a snapshot of the current index state.
func (g *Grabber) Metadata() Metadata {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Metadata{LineCount: g.lineCount}
}

// UpdateFromFile rescans the file for newly appended complete lines,
// extending the offset index. It is safe to call repeatedly; each call
// only scans bytes beyond the previously indexed region. Returns the new
// total line count.
//
// Large rescans are split into chunkLines-sized spans scanned one after
// another on the calling goroutine, so ctx cancellation is observed
// between chunks rather than only at the very end of a potentially
// enormous scan.
func (g *Grabber) UpdateFromFile(ctx context.Context) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	f, err := os.Open(g.path)
	if err != nil {
		return g.lineCount, fmt.Errorf("grabber: open %s: %w", g.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return g.lineCount, fmt.Errorf("grabber: stat %s: %w", g.path, err)
	}

	startOffset := g.offsets[len(g.offsets)-1]
	if info.Size() < int64(startOffset) {
		// File shrank beneath our cursor: reset rather than guess.
		g.offsets = []uint64{0}
		g.lineCount = 0
		startOffset = 0
	}

	if _, err := f.Seek(int64(startOffset), 0); err != nil {
		return g.lineCount, fmt.Errorf("grabber: seek %s: %w", g.path, err)
	}

	newOffsets, err := scanLineOffsets(ctx, f, startOffset, g.chunkLines)
	if err != nil {
		return g.lineCount, err
	}

	g.offsets = append(g.offsets, newOffsets...)
	g.lineCount += uint64(len(newOffsets))
	g.fileSize = info.Size()

	return g.lineCount, nil
}

// scanLineOffsets reads sequential chunkLines-sized spans from r (already
// positioned at startOffset), returning the byte offset immediately after
// each newline found. It is a plain sequential loop: ctx.Err() is checked
// between chunks, but within a chunk bufio.Scanner itself is not
// interruptible, matching the "bounded intervals" cancellation contract
// rather than per-byte cancellation.
func scanLineOffsets(ctx context.Context, r *os.File, startOffset uint64, chunkLines int) ([]uint64, error) {
	var all []uint64
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanCompleteLines)

	offset := startOffset
	for {
		if err := ctx.Err(); err != nil {
			return all, nil
		}

		chunk, newOffset, more, err := scanChunk(scanner, offset, chunkLines)
		if err != nil {
			return all, fmt.Errorf("grabber: scan: %w", err)
		}
		all = append(all, chunk...)
		offset = newOffset
		if !more {
			break
		}
	}
	return all, nil
}

// scanChunk reads up to chunkLines complete lines starting at offset,
// returning the offsets immediately following each, the offset reached,
// and whether the scanner has more input.
func scanChunk(scanner *bufio.Scanner, offset uint64, chunkLines int) ([]uint64, uint64, bool, error) {
	offsets := make([]uint64, 0, chunkLines)
	for i := 0; i < chunkLines; i++ {
		if !scanner.Scan() {
			return offsets, offset, false, scanner.Err()
		}
		// +1 for the newline delimiter bufio.Scanner strips.
		offset += uint64(len(scanner.Bytes())) + 1
		offsets = append(offsets, offset)
	}
	return offsets, offset, true, nil
}

// scanCompleteLines is bufio.ScanLines with the trailing-partial-line case
// removed: a final, non-newline-terminated token at EOF is not a line yet
// and must not be surfaced until a newline closes it.
func scanCompleteLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}
	return 0, nil, nil
}

// GrabContent returns the contiguous lines in rng, reading them fresh from
// disk using the indexed offsets as seek points. An empty slice is
// returned (without error) for a range past the currently indexed line
// count.
func (g *Grabber) GrabContent(rng Range) ([]Line, error) {
	g.mu.Lock()
	lineCount := g.lineCount
	if rng.Start >= lineCount || rng.Start >= rng.End {
		g.mu.Unlock()
		return nil, nil
	}
	end := rng.End
	if end > lineCount {
		end = lineCount
	}
	startOffset := g.offsets[rng.Start]
	g.mu.Unlock()

	f, err := os.Open(g.path)
	if err != nil {
		return nil, fmt.Errorf("grabber: open %s: %w", g.path, err)
	}
	defer f.Close()

	if _, err := f.Seek(int64(startOffset), 0); err != nil {
		return nil, fmt.Errorf("grabber: seek %s: %w", g.path, err)
	}

	n := int(end - rng.Start)
	lines := make([]Line, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for i := 0; i < n; i++ {
		if !scanner.Scan() {
			break
		}
		lines = append(lines, Line{Index: rng.Start + uint64(i), Content: scanner.Text()})
	}
	if err := scanner.Err(); err != nil {
		return lines, fmt.Errorf("grabber: scan %s: %w", g.path, err)
	}
	return lines, nil
}

// ParallelUpdateMany rescans several independent grabbers concurrently.
// Not used by the session actor: its content and search grabbers must
// rescan in a fixed order (the search run depends on the content
// grabber's freshly indexed lines, and the search grabber must only
// rescan after that run appends new matches), so nothing in that path
// can refresh two grabbers at once. This is a general-purpose helper for
// callers that do hold multiple grabbers with no such ordering
// constraint. The first error from any grabber is returned and cancels
// the shared ctx for the others; lines they had already indexed are kept.
func ParallelUpdateMany(ctx context.Context, grabbers ...*Grabber) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, gr := range grabbers {
		gr := gr
		g.Go(func() error {
			_, err := gr.UpdateFromFile(ctx)
			return err
		})
	}
	return g.Wait()
}
