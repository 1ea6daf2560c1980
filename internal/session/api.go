// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wingedpig/sessioncore/internal/config"
	"github.com/wingedpig/sessioncore/internal/events"
	"github.com/wingedpig/sessioncore/internal/grabber"
	"github.com/wingedpig/sessioncore/internal/search"
)

// sessionCore is the shared state behind every clone of a Session handle:
// the command channel into the actor plus a closed flag guarding sends
// after Shutdown. Session itself is just a pointer to one of these, so
// cloning a Session never duplicates state.
type sessionCore struct {
	mu        sync.RWMutex
	cmds      chan command
	closed    bool
	sessionID string
}

// Session is a cheap, cloneable handle onto a session's actor. Every
// method sends a command and blocks for its one-shot reply; callers from
// multiple goroutines may share (or copy) a Session freely, since all
// serialization happens inside the actor.
type Session struct {
	core *sessionCore
}

// New starts a session actor and returns a handle to it. sessionID
// identifies the session in emitted events; a fresh UUID is used if
// empty.
func New(cfg config.SessionConfig, bus events.EventBus, sessionID string) *Session {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	flushDebounce := config.ParseDuration(cfg.FlushDebounce, 250*time.Millisecond)

	a := newActor(cfg.StreamsDir, bus, sessionID, flushDebounce, cfg.ReaderCapacityBytes, cfg.GrabberChunkLines)
	a.debug = cfg.Debug
	a.st.debug = cfg.Debug

	go a.run()

	return &Session{core: &sessionCore{cmds: a.cmds, sessionID: sessionID}}
}

// ID returns the session's identifier, as stamped on every event it emits.
func (s *Session) ID() string {
	return s.core.sessionID
}

func (s *Session) send(cmd command) error {
	s.core.mu.RLock()
	defer s.core.mu.RUnlock()
	if s.core.closed {
		return errActorIsClosed()
	}
	s.core.cmds <- cmd
	return nil
}

func request[T any](s *Session, build func(reply chan replyT[T]) command) (T, error) {
	var zero T
	reply := make(chan replyT[T], 1)
	if err := s.send(build(reply)); err != nil {
		return zero, err
	}
	r := <-reply
	return r.Value, r.Err
}

func requestErr(s *Session, build func(reply chan error) command) error {
	reply := make(chan error, 1)
	if err := s.send(build(reply)); err != nil {
		return err
	}
	return <-reply
}

// SetSessionFile adopts an existing session file or creates a fresh one
// under the configured streams directory. Idempotent once a session file
// is already assigned.
func (s *Session) SetSessionFile(f File) error {
	return requestErr(s, func(reply chan error) command {
		return cmdSetSessionFile{file: f, reply: reply}
	})
}

// GetSessionFile returns the current session file's path.
func (s *Session) GetSessionFile() (string, error) {
	return request(s, func(reply chan replyT[string]) command {
		return cmdGetSessionFile{reply: reply}
	})
}

// WriteSessionFile appends data to the session file. The returned bool
// reports whether the write's debounced flush ran UpdateSession and it
// produced new lines.
func (s *Session) WriteSessionFile(data string) (bool, error) {
	return request(s, func(reply chan replyT[bool]) command {
		return cmdWriteSessionFile{data: data, reply: reply}
	})
}

// FlushSessionFile force-flushes a dirty session writer and, if it was
// dirty, runs UpdateSession.
func (s *Session) FlushSessionFile() error {
	return requestErr(s, func(reply chan error) command {
		return cmdFlushSessionFile{reply: reply}
	})
}

// UpdateSession rescans the content grabber and, if new lines appeared,
// drives a search run and emits the StreamUpdated/SearchUpdated/
// SearchMapUpdated events. Returns whether the line count increased.
func (s *Session) UpdateSession() (bool, error) {
	return request(s, func(reply chan replyT[bool]) command {
		return cmdUpdateSession{reply: reply}
	})
}

// FileRead emits the FileRead callback event, used by ingestors to signal
// a source has been fully drained.
func (s *Session) FileRead() error {
	return requestErr(s, func(reply chan error) command {
		return cmdFileRead{reply: reply}
	})
}

// Grab returns the content grabber's lines for rng.
func (s *Session) Grab(rng grabber.Range) ([]grabber.Line, error) {
	return request(s, func(reply chan replyT[[]grabber.Line]) command {
		return cmdGrab{rng: rng, reply: reply}
	})
}

// GrabSearch returns content lines for the matches named by rng over the
// search result file, coalesced into runs per the GrabSearch algorithm.
func (s *Session) GrabSearch(rng grabber.Range) ([]GrabSearchElement, error) {
	return request(s, func(reply chan replyT[[]GrabSearchElement]) command {
		return cmdGrabSearch{rng: rng, reply: reply}
	})
}

// SetStreamLen sets the SearchMap's stream-length hint used for heat-map
// down-sampling.
func (s *Session) SetStreamLen(n uint64) error {
	return requestErr(s, func(reply chan error) command {
		return cmdSetStreamLen{length: n, reply: reply}
	})
}

// GetStreamLen returns the content grabber's current line count.
func (s *Session) GetStreamLen() (uint64, error) {
	return request(s, func(reply chan replyT[uint64]) command {
		return cmdGetStreamLen{reply: reply}
	})
}

// GetSearchResultLen returns the search grabber's current line count, or
// 0 if no search has produced one yet.
func (s *Session) GetSearchResultLen() (uint64, error) {
	return request(s, func(reply chan replyT[uint64]) command {
		return cmdGetSearchResultLen{reply: reply}
	})
}

// GetSearchMap returns a snapshot of the current SearchMap contents.
func (s *Session) GetSearchMap() ([]search.FilterMatch, error) {
	return request(s, func(reply chan replyT[[]search.FilterMatch]) command {
		return cmdGetSearchMap{reply: reply}
	})
}

// SetMatches replaces the SearchMap contents wholesale. Passing nil
// clears it.
func (s *Session) SetMatches(matches []search.FilterMatch) error {
	return requestErr(s, func(reply chan error) command {
		return cmdSetMatches{matches: matches, reply: reply}
	})
}

// UpdateSearchResult lazily creates (if needed) and rescans the search
// grabber over path, unless operationID has been flagged via
// NotifyCancelingOperation, in which case it returns 0 without doing any
// work.
func (s *Session) UpdateSearchResult(operationID uuid.UUID, path string) (uint64, error) {
	return request(s, func(reply chan replyT[uint64]) command {
		return cmdUpdateSearchResult{operationID: operationID, path: path, reply: reply}
	})
}

// GetSearchHolder checks out the session's search holder exclusively. It
// fails with HolderBusy if another operation already holds it.
func (s *Session) GetSearchHolder(operationID uuid.UUID) (*search.Holder, error) {
	return request(s, func(reply chan replyT[*search.Holder]) command {
		return cmdGetSearchHolder{operationID: operationID, reply: reply}
	})
}

// SetSearchHolder returns a checked-out holder to the session. Passing
// nil resets the holder state to NotInited instead of Available.
func (s *Session) SetSearchHolder(operationID uuid.UUID, h *search.Holder) error {
	return requestErr(s, func(reply chan error) command {
		return cmdSetSearchHolder{operationID: operationID, holder: h, reply: reply}
	})
}

// DropSearch tears down the current search: its result file is removed,
// the search grabber and SearchMap are reset, and SearchUpdated(0) /
// SearchMapUpdated(None) are emitted. Returns false without doing
// anything if the holder is currently checked out.
func (s *Session) DropSearch() (bool, error) {
	return request(s, func(reply chan replyT[bool]) command {
		return cmdDropSearch{reply: reply}
	})
}

// CloseSession cancels the state-level cancellation token and marks the
// session closed, without deleting the session file.
func (s *Session) CloseSession() error {
	return requestErr(s, func(reply chan error) command {
		return cmdCloseSession{reply: reply}
	})
}

// SetDebugMode toggles verbose actor tracing.
func (s *Session) SetDebugMode(debug bool) error {
	return requestErr(s, func(reply chan error) command {
		return cmdSetDebugMode{debug: debug, reply: reply}
	})
}

// NotifyCancelingOperation flags operationID as canceling: any subsequent
// UpdateSearchResult for it returns 0 without work, until
// NotifyCanceledOperation clears the flag.
func (s *Session) NotifyCancelingOperation(operationID uuid.UUID) error {
	return s.send(cmdNotifyCancelingOperation{operationID: operationID})
}

// NotifyCanceledOperation clears the canceling flag set by
// NotifyCancelingOperation.
func (s *Session) NotifyCanceledOperation(operationID uuid.UUID) error {
	return s.send(cmdNotifyCanceledOperation{operationID: operationID})
}

// Shutdown cancels the state token, deletes the session file if this
// actor created it, and stops the actor's goroutine. Further calls on
// this (or any cloned) Session handle return a Channel error.
func (s *Session) Shutdown() error {
	done := make(chan struct{})
	if err := s.send(cmdShutdown{done: done}); err != nil {
		return err
	}
	<-done

	s.core.mu.Lock()
	s.core.closed = true
	s.core.mu.Unlock()
	return nil
}
