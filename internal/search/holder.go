// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/wingedpig/sessioncore/internal/errkind"
)

// defaultReaderCapacity and defaultReaderRefillThreshold describe the
// buffered-reader policy execute_search uses: large enough to amortize
// syscalls, small enough to check cancellation between refills.
// bufio.Reader always refills from empty, so the refill threshold is
// advisory sizing guidance rather than a behavior Go's bufio exposes a
// knob for; the capacity is the one that actually governs buffer size.
const (
	defaultReaderCapacity       = 1 << 20 // 1 MiB
	defaultReaderRefillThreshold = 10 * 1024
)

// Holder owns a compiled filter set and the incremental cursor into a
// single session file. Exactly one Holder exists per session's active
// search; the session actor enforces exclusive access via
// SearchHolderState (see internal/session).
type Holder struct {
	sessionPath string
	outPath     string
	filters     []Filter
	compiled    *compiledSet
	BytesRead   uint64
	LinesRead   uint64
	OperationID uuid.UUID

	readerCapacity int
}

// NewHolder creates a Holder over sessionPath with the given filters. The
// output file path is sessionPath + ".out", matching the on-disk contract
// external tools rely on. An empty filter list is accepted here (the
// NotInited -> InUse transition hands out a holder before the caller has
// chosen filters); compilation is deferred until ExecuteSearch, which is
// also where the "Cannot search without filters" input error surfaces.
func NewHolder(sessionPath string, filters []Filter) (*Holder, error) {
	h := &Holder{
		sessionPath:    sessionPath,
		outPath:        sessionPath + ".out",
		OperationID:    uuid.New(),
		readerCapacity: defaultReaderCapacity,
	}
	if len(filters) > 0 {
		if err := h.SetFilters(filters); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// SetFilters (re)compiles the holder's filter set. Changing filters
// mid-life is only meaningful before the first ExecuteSearch call, or
// paired with resetting the cursor; callers that want a filter edit to
// restart the scan from the top should construct a fresh Holder instead
// (see the DropSearch / GetSearchHolder hand-off in internal/session).
func (h *Holder) SetFilters(filters []Filter) error {
	compiled, err := compile(filters)
	if err != nil {
		return err
	}
	h.filters = filters
	h.compiled = compiled
	return nil
}

// Filters returns the holder's current filter set.
func (h *Holder) Filters() []Filter {
	return h.filters
}

// OutputPath returns the result file path.
func (h *Holder) OutputPath() string {
	return h.outPath
}

// SetReaderCapacity overrides the buffered-reader capacity ExecuteSearch
// uses (see SessionConfig.ReaderCapacityBytes). A non-positive value is
// ignored, leaving the default in place.
func (h *Holder) SetReaderCapacity(capacity int) {
	if capacity > 0 {
		h.readerCapacity = capacity
	}
}

// Close implements the "drop deletes the output file" resource semantics:
// when a Holder is released (filters changed, search dropped, session
// closing) its result file is removed so stale matches never linger on
// disk across filter edits.
func (h *Holder) Close() error {
	if err := os.Remove(h.outPath); err != nil && !os.IsNotExist(err) {
		return errkind.New(errkind.KindIO, "remove search result file", err)
	}
	return nil
}

// ExecuteSearch scans the session file from the current cursor to EOF,
// appending matching absolute line numbers to the result file and
// returning the batch of matches produced plus their per-filter hit
// counts. Cancelling ctx mid-scan is not an error: the partial batch
// accumulated so far is returned as success, and BytesRead only advances
// to the last fully-consumed line.
func (h *Holder) ExecuteSearch(ctx context.Context) ([]FilterMatch, FilterStats, error) {
	if len(h.filters) == 0 {
		return nil, nil, errkind.New(errkind.KindInput, "execute_search", errCannotSearchWithoutFilters)
	}

	sessionFile, err := os.Open(h.sessionPath)
	if err != nil {
		return nil, nil, errkind.New(errkind.KindIO, "open session file", err)
	}
	defer sessionFile.Close()

	info, err := sessionFile.Stat()
	if err != nil {
		return nil, nil, errkind.New(errkind.KindIO, "stat session file", err)
	}

	// Seek to bytes_read + 1: the +1 skips the newline that terminated the
	// previously consumed last line. The very first run has bytes_read==0
	// and no prior line to skip past, so it starts at offset 0.
	startOffset := h.BytesRead
	if h.BytesRead > 0 {
		startOffset = h.BytesRead + 1
	}
	if info.Size() < int64(startOffset) {
		return nil, nil, errkind.New(errkind.KindIO, "execute_search", fmt.Errorf("session file shrank below cursor %d (size %d)", startOffset, info.Size()))
	}

	outFile, err := os.OpenFile(h.outPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, errkind.New(errkind.KindIO, "open search result file", err)
	}
	defer outFile.Close()

	// Count complete lines between the cursor and EOF to discover how many
	// more lines bytes_read's region now covers, then re-seek and drive
	// the actual match scan from the same starting point.
	extra, _, err := countCompleteLines(sessionFile, startOffset, h.readerCapacity)
	if err != nil {
		return nil, nil, errkind.New(errkind.KindIO, "count new lines", err)
	}
	linesReadBeforeRun := h.LinesRead
	h.LinesRead += extra

	if _, err := sessionFile.Seek(int64(startOffset), 0); err != nil {
		return nil, nil, errkind.New(errkind.KindIO, "seek session file", err)
	}

	matches, stats, consumed, err := h.scanForMatches(ctx, sessionFile, linesReadBeforeRun, outFile)
	if err != nil {
		return nil, nil, err
	}

	// bytes_read lands on the newline terminating the last consumed line
	// (not past it), so the next run's "+1" skip lands exactly on the
	// following line's first byte. No new complete line means no advance.
	if consumed > 0 {
		h.BytesRead = startOffset + consumed - 1
	}

	return matches, stats, nil
}

// countCompleteLines counts complete newline-terminated lines from
// startOffset to EOF without consuming r's position permanently (the
// caller re-seeks before the real scan), returning the count and the byte
// offset of EOF.
func countCompleteLines(f *os.File, startOffset uint64, capacity int) (uint64, uint64, error) {
	if _, err := f.Seek(int64(startOffset), 0); err != nil {
		return 0, startOffset, err
	}
	r := newCappedReader(context.Background(), f, capacity)
	var count uint64
	offset := startOffset
	for {
		line, err := r.ReadLine()
		if line == "" && err != nil {
			break
		}
		if err == nil {
			count++
			offset += uint64(len(line)) + 1
		}
		if err != nil {
			break
		}
	}
	return count, offset, nil
}

// scanForMatches drives the combined matcher over r from its current
// position, classifying each matched line against every per-filter
// matcher, appending matches to the result file, and honoring
// cancellation between lines. It returns the bytes actually consumed.
func (h *Holder) scanForMatches(ctx context.Context, f *os.File, linesReadBeforeRun uint64, out *os.File) ([]FilterMatch, FilterStats, uint64, error) {
	r := newCappedReader(ctx, f, h.readerCapacity)
	stats := make(FilterStats)
	var matches []FilterMatch
	var consumed uint64
	var lnum uint64

	writer := bufio.NewWriter(out)
	defer writer.Flush()

	for {
		if ctx.Err() != nil {
			break
		}

		line, err := r.ReadLine()
		if line == "" && err != nil {
			break
		}

		lnum++
		lineBytes := uint64(len(line)) + 1

		if h.compiled.combined.MatchString(line) {
			filterSet := make(map[uint8]struct{})
			for idx, re := range h.compiled.perFilter {
				if re.MatchString(line) {
					filterSet[uint8(idx)] = struct{}{}
					stats[uint8(idx)]++
				}
			}
			if len(filterSet) > 0 {
				abs := (lnum - 1) + linesReadBeforeRun
				matches = append(matches, FilterMatch{LineIndex: abs, Filters: filterSet})
				if _, werr := fmt.Fprintf(writer, "%d\n", abs); werr != nil {
					return matches, stats, consumed, errkind.New(errkind.KindIO, "write search result file", werr)
				}
			}
		}

		consumed += lineBytes

		if err != nil {
			break
		}
	}

	if err := writer.Flush(); err != nil {
		return matches, stats, consumed, errkind.New(errkind.KindIO, "flush search result file", err)
	}

	return matches, stats, consumed, nil
}

// ExtractedMatchValue holds, for one filter index, the non-full-match
// capture groups pulled from every session-file line that filter matched.
// Each element of Values is (line_index, captures).
type ExtractedMatchValue struct {
	FilterIndex uint8
	Values      []LineCaptures
}

// LineCaptures pairs a matched line index with the capture groups a
// filter's regex extracted from it.
type LineCaptures struct {
	LineIndex uint64
	Captures  []string
}

// ExtractMatches scans the session file from start to end (non-
// incremental — this does not touch BytesRead/LinesRead) and, for each
// line any filter matches, records that filter's non-full-match capture
// groups. Lines where a filter has no capture groups are silently
// skipped, matching the upstream behavior this was ported from; whether
// that silence should instead be a warning hook is an open question this
// implementation leaves unresolved in the same way.
func ExtractMatches(ctx context.Context, sessionPath string, filters []Filter) ([]ExtractedMatchValue, error) {
	compiled, err := compile(filters)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(sessionPath)
	if err != nil {
		return nil, errkind.New(errkind.KindIO, "open session file", err)
	}
	defer f.Close()

	results := make([]*ExtractedMatchValue, len(filters))
	for i := range results {
		results[i] = &ExtractedMatchValue{FilterIndex: uint8(i)}
	}

	r := newCappedReader(ctx, f, defaultReaderCapacity)
	var lnum uint64
	for {
		if ctx.Err() != nil {
			break
		}
		line, err := r.ReadLine()
		if line == "" && err != nil {
			break
		}

		for i, re := range compiled.perFilter {
			groups := re.FindStringSubmatch(line)
			if len(groups) <= 1 {
				// No capture groups on this filter: nothing to extract.
				continue
			}
			results[i].Values = append(results[i].Values, LineCaptures{
				LineIndex: lnum,
				Captures:  groups[1:],
			})
		}

		lnum++
		if err != nil {
			break
		}
	}

	out := make([]ExtractedMatchValue, 0, len(results))
	for _, r := range results {
		if len(r.Values) > 0 {
			out = append(out, *r)
		}
	}
	return out, nil
}

// cappedReader wraps a bufio.Reader with a fixed capacity and checks
// ctx.Err() before each ReadLine, so long scans observe cancellation at
// the "between buffer refills" granularity the concurrency contract
// requires without needing per-byte interruption.
type cappedReader struct {
	ctx context.Context
	br  *bufio.Reader
}

func newCappedReader(ctx context.Context, f *os.File, capacity int) *cappedReader {
	if capacity <= 0 {
		capacity = defaultReaderCapacity
	}
	return &cappedReader{ctx: ctx, br: bufio.NewReaderSize(f, capacity)}
}

// ReadLine returns the next line with its trailing newline stripped. A
// non-nil error (including io.EOF) means no further complete line could
// be read, and line is then always empty: a final unterminated partial
// line is dropped, since only complete, newline-terminated lines are ever
// classified.
func (r *cappedReader) ReadLine() (string, error) {
	if err := r.ctx.Err(); err != nil {
		return "", err
	}
	line, err := r.br.ReadString('\n')
	if err != nil {
		// Whatever was read (possibly a trailing partial line with no
		// newline yet) is not a complete line; signal "nothing usable".
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}
