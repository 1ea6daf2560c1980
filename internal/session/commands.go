// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"github.com/google/uuid"
	"github.com/wingedpig/sessioncore/internal/grabber"
	"github.com/wingedpig/sessioncore/internal/search"
)

// command is the sealed set of messages the actor accepts. Every variant
// but the two Notify* messages and Shutdown carries a one-shot reply
// channel; the two Notify* messages are fire-and-forget notifications,
// and Shutdown carries only a done channel the actor closes once it has
// stopped.
type command interface {
	isCommand()
}

// GrabSearchElement is one row of a GrabSearch response: Content from the
// content grabber at absolute line Pos, labeled with its Row within the
// requested range.
type GrabSearchElement struct {
	Pos     uint64
	Row     uint64
	Content string
}

type cmdSetSessionFile struct {
	file  File
	reply chan error
}

func (cmdSetSessionFile) isCommand() {}

type cmdGetSessionFile struct {
	reply chan replyT[string]
}

func (cmdGetSessionFile) isCommand() {}

type cmdWriteSessionFile struct {
	data  string
	reply chan replyT[bool]
}

func (cmdWriteSessionFile) isCommand() {}

type cmdFlushSessionFile struct {
	reply chan error
}

func (cmdFlushSessionFile) isCommand() {}

type cmdUpdateSession struct {
	reply chan replyT[bool]
}

func (cmdUpdateSession) isCommand() {}

type cmdFileRead struct {
	reply chan error
}

func (cmdFileRead) isCommand() {}

type cmdGrab struct {
	rng   grabber.Range
	reply chan replyT[[]grabber.Line]
}

func (cmdGrab) isCommand() {}

type cmdGrabSearch struct {
	rng   grabber.Range
	reply chan replyT[[]GrabSearchElement]
}

func (cmdGrabSearch) isCommand() {}

type cmdSetStreamLen struct {
	length uint64
	reply  chan error
}

func (cmdSetStreamLen) isCommand() {}

type cmdGetStreamLen struct {
	reply chan replyT[uint64]
}

func (cmdGetStreamLen) isCommand() {}

type cmdGetSearchResultLen struct {
	reply chan replyT[uint64]
}

func (cmdGetSearchResultLen) isCommand() {}

type cmdGetSearchMap struct {
	reply chan replyT[[]search.FilterMatch]
}

func (cmdGetSearchMap) isCommand() {}

type cmdSetMatches struct {
	matches []search.FilterMatch // nil means "clear"
	reply   chan error
}

func (cmdSetMatches) isCommand() {}

type cmdUpdateSearchResult struct {
	operationID uuid.UUID
	path        string
	reply       chan replyT[uint64]
}

func (cmdUpdateSearchResult) isCommand() {}

type cmdGetSearchHolder struct {
	operationID uuid.UUID
	reply       chan replyT[*search.Holder]
}

func (cmdGetSearchHolder) isCommand() {}

type cmdSetSearchHolder struct {
	operationID uuid.UUID
	holder      *search.Holder // nil means "no holder" (-> NotInited)
	reply       chan error
}

func (cmdSetSearchHolder) isCommand() {}

type cmdDropSearch struct {
	reply chan replyT[bool]
}

func (cmdDropSearch) isCommand() {}

type cmdCloseSession struct {
	reply chan error
}

func (cmdCloseSession) isCommand() {}

type cmdSetDebugMode struct {
	debug bool
	reply chan error
}

func (cmdSetDebugMode) isCommand() {}

type cmdNotifyCancelingOperation struct {
	operationID uuid.UUID
}

func (cmdNotifyCancelingOperation) isCommand() {}

type cmdNotifyCanceledOperation struct {
	operationID uuid.UUID
}

func (cmdNotifyCanceledOperation) isCommand() {}

type cmdShutdown struct {
	done chan struct{}
}

func (cmdShutdown) isCommand() {}

// replyT carries either a value or an error on a one-shot reply channel,
// the Go rendering of a oneshot::Sender<Result<T, Error>>.
type replyT[T any] struct {
	Value T
	Err   error
}
