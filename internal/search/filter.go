// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package search implements the incremental multi-filter search engine
// that scans a session file for regex matches and records hits as a
// searchable, down-samplable map.
package search

import (
	"regexp"
	"strings"

	"github.com/wingedpig/sessioncore/internal/errkind"
)

// Filter is one user-supplied search term. It is immutable once created;
// compiling it never mutates the Filter itself.
type Filter struct {
	Value      string
	IsRegex    bool
	IgnoreCase bool
	IsWord     bool
}

// escapeChars are the regex metacharacters filter_as_regex escapes when a
// filter's value is a literal rather than a regex.
const escapeChars = `{}[]+$^/!.*|():?,=<>\`

// escape prefixes each character in escapeChars with a backslash, leaving
// everything else untouched.
func escape(value string) string {
	var b strings.Builder
	b.Grow(len(value) * 2)
	for _, r := range value {
		if strings.ContainsRune(escapeChars, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// asRegexString renders f as the regex pattern string:
// [ignore_case_on][word_boundary][subject][word_boundary][ignore_case_off].
func (f Filter) asRegexString() string {
	var b strings.Builder

	if f.IgnoreCase {
		b.WriteString("(?i)")
	}
	if f.IsWord {
		b.WriteString(`\b`)
	}
	if f.IsRegex {
		b.WriteString(f.Value)
	} else {
		b.WriteString(escape(f.Value))
	}
	if f.IsWord {
		b.WriteString(`\b`)
	}
	if f.IgnoreCase {
		b.WriteString("(?-i)")
	}

	return b.String()
}

// compiledSet is the pair of artifacts filter compilation produces: a
// single combined matcher used to cheaply find candidate lines, and the
// ordered per-filter matchers used to classify which filters each
// candidate line actually satisfies.
type compiledSet struct {
	combined  *regexp.Regexp
	perFilter []*regexp.Regexp
}

// compile builds the combined and per-filter matchers for filters. Rather
// than compiling the (?i)...(?-i) display form from asRegexString, the
// ignore-case flag is rendered as an (?i:...) non-capturing group wrapped
// around just the subject + word boundaries, which is equivalent for this
// grammar (case-insensitivity never needs to extend past the single term
// it is attached to).
func compile(filters []Filter) (*compiledSet, error) {
	if len(filters) == 0 {
		return nil, errkind.New(errkind.KindInput, "compile", errCannotSearchWithoutFilters)
	}

	perFilter := make([]*regexp.Regexp, len(filters))
	patterns := make([]string, len(filters))

	for i, f := range filters {
		pattern := f.scopedPattern()
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errkind.New(errkind.KindRegex, "compile filter", err)
		}
		perFilter[i] = re
		patterns[i] = pattern
	}

	combinedPattern := "(" + strings.Join(patterns, "|") + ")"
	combined, err := regexp.Compile(combinedPattern)
	if err != nil {
		return nil, errkind.New(errkind.KindRegex, "compile combined filter", err)
	}

	return &compiledSet{combined: combined, perFilter: perFilter}, nil
}

// scopedPattern renders the same logical pattern as asRegexString but
// using Go-regexp-legal scoping for the ignore-case flag.
func (f Filter) scopedPattern() string {
	var subject strings.Builder
	if f.IsWord {
		subject.WriteString(`\b`)
	}
	if f.IsRegex {
		subject.WriteString(f.Value)
	} else {
		subject.WriteString(escape(f.Value))
	}
	if f.IsWord {
		subject.WriteString(`\b`)
	}

	if f.IgnoreCase {
		return "(?i:" + subject.String() + ")"
	}
	return subject.String()
}

// FilterAsRegex exposes the exact display-form pattern string described by
// the filter-compilation rules, independent of how it is actually compiled
// for matching. Callers that surface the pattern to a user (or test it
// against the documented examples) should use this rather than reaching
// into compile().
func FilterAsRegex(f Filter) string {
	return f.asRegexString()
}
