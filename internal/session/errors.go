// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"

	"github.com/wingedpig/sessioncore/internal/errkind"
)

// Sentinel causes wrapped into the Configuration/Grabber/Channel kinds
// below; callers match on these with errors.Is.
var (
	errSessionNotAssigned = errors.New("session file not assigned")
	errHolderBusy         = errors.New("search holder is in use")
	errHolderNotInUse     = errors.New("search holder is not checked out")
	errMetadataMissing    = errors.New("grabber metadata not available")
	errGrabberMissing     = errors.New("grabber not initialized")
	errActorClosed        = errors.New("session actor is closed")
)

func errSessionFileNotAssigned() error {
	return errkind.New(errkind.KindConfiguration, "get_session_file", errSessionNotAssigned)
}

func errHolderBusyErr() error {
	return errkind.New(errkind.KindConfiguration, "get_search_holder", errHolderBusy)
}

func errHolderNotInUseErr() error {
	return errkind.New(errkind.KindConfiguration, "set_search_holder", errHolderNotInUse)
}

func errGrabberNotReady() error {
	return errkind.New(errkind.KindGrabber, "grab", errMetadataMissing)
}

func errGrabberNotInitialized() error {
	return errkind.New(errkind.KindGrabber, "grab", errGrabberMissing)
}

func errActorIsClosed() error {
	return errkind.New(errkind.KindChannel, "send command", errActorClosed)
}
