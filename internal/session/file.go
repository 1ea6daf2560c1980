// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package session implements the session state actor: the single task
// that owns a session's file, its content and search grabbers, its search
// holder, and its search map, serializing all mutation through a command
// queue.
package session

// File identifies where a session's backing file lives, mirroring the
// upstream either-or: a caller can hand the actor a path that already
// exists, or ask it to create one under the streams directory. Existed
// and ToBeCreated are the only implementations; the unexported marker
// method seals the set the same way a tagged union would.
type File interface {
	isSessionFile()
}

// Existed designates a session file that already exists on disk at Path.
type Existed struct {
	Path string
}

func (Existed) isSessionFile() {}

// ToBeCreated designates that the actor should create a fresh session
// file under the configured streams directory, named <uuid v4>.session.
type ToBeCreated struct{}

func (ToBeCreated) isSessionFile() {}
