// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

// HolderState is the three-state tagged variant guarding exclusive
// transfer of a search.Holder out of the actor and back. It is
// deliberately not modeled as a pair of null checks: NotInited and
// Available both mean "the actor may hand out the holder", but only
// Available actually has one to hand out, and InUse means no command may
// touch it until SetSearchHolder returns ownership.
type HolderState int

const (
	// HolderNotInited means no search has ever been started (or the last
	// one was dropped): GetSearchHolder must construct a fresh holder.
	HolderNotInited HolderState = iota
	// HolderAvailable means a holder exists and is checked in: the actor
	// owns it and GetSearchHolder may hand out the existing one.
	HolderAvailable
	// HolderInUse means a holder has been checked out by a caller and no
	// other command may mutate it until SetSearchHolder returns it.
	HolderInUse
)

func (s HolderState) String() string {
	switch s {
	case HolderNotInited:
		return "NotInited"
	case HolderAvailable:
		return "Available"
	case HolderInUse:
		return "InUse"
	default:
		return "Unknown"
	}
}
