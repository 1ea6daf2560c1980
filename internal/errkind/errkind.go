// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package errkind defines the classifiable error-kind taxonomy shared by
// the session actor and the search engine, so callers can distinguish
// (for example) a transient I/O failure from a filter-compilation error
// without string-matching error messages.
package errkind

// Kind classifies why an operation failed.
type Kind int

const (
	// KindUnknown is the zero value; real errors always set a specific kind.
	KindUnknown Kind = iota
	// KindIO covers open/read/write/seek failures against the session or
	// result files.
	KindIO
	// KindGrabber covers missing metadata, grabs out of range, or a failed
	// index update.
	KindGrabber
	// KindOperationSearch covers malformed lines in the search result file.
	KindOperationSearch
	// KindConfiguration covers unexpected internal state, such as
	// attempting to replace a search holder that isn't checked out.
	KindConfiguration
	// KindChannel covers a reply channel that was closed or failed to send.
	KindChannel
	// KindRegex covers a filter that failed to compile.
	KindRegex
	// KindInput covers caller-supplied input that is invalid on its face,
	// such as an empty filter list.
	KindInput
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "Io"
	case KindGrabber:
		return "Grabber"
	case KindOperationSearch:
		return "OperationSearch"
	case KindConfiguration:
		return "Configuration"
	case KindChannel:
		return "Channel"
	case KindRegex:
		return "Regex"
	case KindInput:
		return "Input"
	default:
		return "Unknown"
	}
}

// Error is the classifiable error type returned across the session and
// search package boundary. Op names the operation that failed; Err, when
// present, is the underlying cause and is reachable via errors.Unwrap.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Op + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, errkind.KindX) style checks work by comparing
// kinds directly; callers more commonly use errors.As to get at the Kind
// field, but this keeps simple sentinel-style checks convenient too.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// New constructs an Error of the given kind for operation op, wrapping err
// (which may be nil).
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
