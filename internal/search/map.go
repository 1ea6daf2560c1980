// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package search

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// FilterMatch records that line LineIndex (0-based, absolute into the
// session file) satisfied the filters in Filters (by index into the
// filter list that produced it).
type FilterMatch struct {
	LineIndex uint64
	Filters   map[uint8]struct{}
}

// FilterStats maps filter index to hit count for one execute_search
// invocation.
type FilterStats map[uint8]uint64

// SortedPairs returns stats as (filter_index, count) pairs sorted by
// filter index, the serialization order the design notes call for since
// a flat list's order is otherwise unspecified.
func (s FilterStats) SortedPairs() [][2]uint64 {
	pairs := make([][2]uint64, 0, len(s))
	for idx, count := range s {
		pairs = append(pairs, [2]uint64{uint64(idx), count})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })
	return pairs
}

// Map is the append-ordered set of FilterMatch records accumulated across
// search runs, plus the stream-length hint a UI down-sampler uses to pick
// a heat-map bucket size. It is safe for concurrent use.
type Map struct {
	mu           sync.Mutex
	byLine       map[uint64]map[uint8]struct{}
	order        []uint64 // insertion order of first-seen line indices
	streamLenHint uint64
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{byLine: make(map[uint64]map[uint8]struct{})}
}

// Append merges new matches into the map. A line index already present
// gets its filter set unioned with the new entry rather than duplicated,
// keeping the invariant that SearchMap never holds two entries for the
// same line.
func (m *Map) Append(matches []FilterMatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, fm := range matches {
		existing, ok := m.byLine[fm.LineIndex]
		if !ok {
			existing = make(map[uint8]struct{}, len(fm.Filters))
			m.byLine[fm.LineIndex] = existing
			m.order = append(m.order, fm.LineIndex)
		}
		for idx := range fm.Filters {
			existing[idx] = struct{}{}
		}
	}
}

// Set replaces the map's contents wholesale. Passing nil clears it.
func (m *Map) Set(matches []FilterMatch) {
	m.mu.Lock()
	m.byLine = make(map[uint64]map[uint8]struct{})
	m.order = nil
	m.mu.Unlock()
	if matches != nil {
		m.Append(matches)
	}
}

// SetStreamLen sets the stream-length hint used by the UI down-sampler.
func (m *Map) SetStreamLen(n uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamLenHint = n
}

// StreamLen returns the current stream-length hint.
func (m *Map) StreamLen() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streamLenHint
}

// Snapshot returns the current entries as a slice of FilterMatch, in
// append order, suitable for GetSearchMap's reply.
func (m *Map) Snapshot() []FilterMatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]FilterMatch, 0, len(m.order))
	for _, line := range m.order {
		out = append(out, FilterMatch{LineIndex: line, Filters: m.byLine[line]})
	}
	return out
}

// Len returns the number of distinct matched lines.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// MapAsStr renders matches as the UI's compact serialization: one
// "<line>:<bitmask>" pair per match, sorted by line index and joined with
// ";". The bitmask packs filter indices into a uint32, which is an
// implementation choice (not a spec requirement) — filter indices are
// single bytes, but no component here ever wires in more than 32
// simultaneous filters, so a uint32 bitmask is adequate and compact.
func MapAsStr(matches []FilterMatch) string {
	if len(matches) == 0 {
		return ""
	}

	sorted := make([]FilterMatch, len(matches))
	copy(sorted, matches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LineIndex < sorted[j].LineIndex })

	parts := make([]string, 0, len(sorted))
	for _, fm := range sorted {
		var mask uint32
		for idx := range fm.Filters {
			mask |= 1 << uint(idx)
		}
		parts = append(parts, fmt.Sprintf("%d:%d", fm.LineIndex, mask))
	}
	return strings.Join(parts, ";")
}
