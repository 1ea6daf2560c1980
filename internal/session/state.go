// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"github.com/google/uuid"
	"github.com/wingedpig/sessioncore/internal/grabber"
	"github.com/wingedpig/sessioncore/internal/search"
)

// Status reflects whether the session may still accept work.
type Status int

const (
	StatusOpen Status = iota
	StatusClosed
)

// state bundles everything the actor owns exclusively. Only the actor's
// own goroutine ever touches it; every other piece of code reaches it
// exclusively through commands.
type state struct {
	streamsDir string

	sessionFile File
	sessionPath string
	owned       bool // true if this actor created the file (vs. adopting an existing path)
	writer      *writer

	contentGrabber *grabber.Grabber
	searchGrabber  *grabber.Grabber

	holderState HolderState
	holder      *search.Holder

	searchMap *search.Map

	status               Status
	debug                bool
	cancellingOperations map[uuid.UUID]struct{}
}

func newState(streamsDir string) *state {
	return &state{
		streamsDir:           streamsDir,
		searchMap:            search.NewMap(),
		cancellingOperations: make(map[uuid.UUID]struct{}),
	}
}

func (s *state) isCancelling(id uuid.UUID) bool {
	_, ok := s.cancellingOperations[id]
	return ok
}
