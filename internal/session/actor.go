// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/wingedpig/sessioncore/internal/errkind"
	"github.com/wingedpig/sessioncore/internal/events"
	"github.com/wingedpig/sessioncore/internal/grabber"
	"github.com/wingedpig/sessioncore/internal/search"
)

// actor is the Session State Actor: a single goroutine draining cmds and
// serializing every mutation to st. No other goroutine ever touches st
// directly.
type actor struct {
	cmds chan command

	st *state

	ctx    context.Context
	cancel context.CancelFunc

	bus       events.EventBus
	sessionID string

	flushDebounce  time.Duration
	readerCapacity int
	chunkLines     int
	debug          bool
}

func newActor(streamsDir string, bus events.EventBus, sessionID string, flushDebounce time.Duration, readerCapacity, chunkLines int) *actor {
	ctx, cancel := context.WithCancel(context.Background())
	return &actor{
		cmds:           make(chan command, 32),
		st:             newState(streamsDir),
		ctx:            ctx,
		cancel:         cancel,
		bus:            bus,
		sessionID:      sessionID,
		flushDebounce:  flushDebounce,
		readerCapacity: readerCapacity,
		chunkLines:     chunkLines,
	}
}

// run is the actor's whole life: drain cmds in order until Shutdown
// closes the loop, then delete the owned session file on exit.
func (a *actor) run() {
	for cmd := range a.cmds {
		if a.handle(cmd) {
			return
		}
	}
}

// handle dispatches one command and reports whether the actor should
// stop draining cmds afterward (true only for Shutdown).
func (a *actor) handle(cmd command) (stop bool) {
	switch c := cmd.(type) {
	case cmdSetSessionFile:
		c.reply <- a.doSetSessionFile(c.file)
	case cmdGetSessionFile:
		path, err := a.doGetSessionFile()
		c.reply <- replyT[string]{Value: path, Err: err}
	case cmdWriteSessionFile:
		ok, err := a.doWriteSessionFile(c.data)
		c.reply <- replyT[bool]{Value: ok, Err: err}
	case cmdFlushSessionFile:
		c.reply <- a.doFlushSessionFile()
	case cmdUpdateSession:
		ok, err := a.doUpdateSession()
		c.reply <- replyT[bool]{Value: ok, Err: err}
	case cmdFileRead:
		a.emit(events.EventFileRead, nil)
		c.reply <- nil
	case cmdGrab:
		lines, err := a.doGrab(c.rng)
		c.reply <- replyT[[]grabber.Line]{Value: lines, Err: err}
	case cmdGrabSearch:
		elems, err := a.doGrabSearch(c.rng)
		c.reply <- replyT[[]GrabSearchElement]{Value: elems, Err: err}
	case cmdSetStreamLen:
		a.st.searchMap.SetStreamLen(c.length)
		c.reply <- nil
	case cmdGetStreamLen:
		var n uint64
		if a.st.contentGrabber != nil {
			n = a.st.contentGrabber.Metadata().LineCount
		}
		c.reply <- replyT[uint64]{Value: n}
	case cmdGetSearchResultLen:
		var n uint64
		if a.st.searchGrabber != nil {
			n = a.st.searchGrabber.Metadata().LineCount
		}
		c.reply <- replyT[uint64]{Value: n}
	case cmdGetSearchMap:
		c.reply <- replyT[[]search.FilterMatch]{Value: a.st.searchMap.Snapshot()}
	case cmdSetMatches:
		a.st.searchMap.Set(c.matches)
		a.emitSearchMapUpdated()
		c.reply <- nil
	case cmdUpdateSearchResult:
		n, err := a.doUpdateSearchResult(c.operationID, c.path)
		c.reply <- replyT[uint64]{Value: n, Err: err}
	case cmdGetSearchHolder:
		h, err := a.doGetSearchHolder(c.operationID)
		c.reply <- replyT[*search.Holder]{Value: h, Err: err}
	case cmdSetSearchHolder:
		c.reply <- a.doSetSearchHolder(c.operationID, c.holder)
	case cmdDropSearch:
		ok, err := a.doDropSearch()
		c.reply <- replyT[bool]{Value: ok, Err: err}
	case cmdCloseSession:
		a.cancel()
		a.st.status = StatusClosed
		c.reply <- nil
	case cmdSetDebugMode:
		a.debug = c.debug
		a.st.debug = c.debug
		c.reply <- nil
	case cmdNotifyCancelingOperation:
		a.st.cancellingOperations[c.operationID] = struct{}{}
	case cmdNotifyCanceledOperation:
		delete(a.st.cancellingOperations, c.operationID)
	case cmdShutdown:
		a.doShutdown()
		close(c.done)
		return true
	default:
		log.Printf("sessioncore: actor received unknown command %T", cmd)
	}
	return false
}

func (a *actor) logf(format string, args ...interface{}) {
	if a.debug {
		log.Printf("sessioncore[%s]: "+format, append([]interface{}{a.sessionID}, args...)...)
	}
}

func (a *actor) emit(eventType string, payload map[string]interface{}) {
	if a.bus == nil {
		return
	}
	if err := a.bus.Publish(context.Background(), events.Event{
		Type:      eventType,
		Timestamp: time.Now(),
		SessionID: a.sessionID,
		Payload:   payload,
	}); err != nil {
		log.Printf("sessioncore: publish %s failed: %v", eventType, err)
	}
}

func (a *actor) emitSearchMapUpdated() {
	snap := a.st.searchMap.Snapshot()
	var serialized interface{}
	if len(snap) > 0 {
		serialized = search.MapAsStr(snap)
	}
	a.emit(events.EventSearchMapUpdate, map[string]interface{}{"map": serialized})
}

// doSetSessionFile adopts an existing path or creates a fresh session
// file under streamsDir, opening a lazy grabber over it. Idempotent once
// a grabber already exists.
func (a *actor) doSetSessionFile(f File) error {
	if a.st.contentGrabber != nil {
		return nil
	}

	var path string
	switch v := f.(type) {
	case Existed:
		path = v.Path
	case ToBeCreated:
		path = filepath.Join(a.st.streamsDir, uuid.New().String()+".session")
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return errkind.New(errkind.KindIO, "create session file", err)
		}
		file.Close()
		a.st.owned = true
	default:
		return errkind.New(errkind.KindConfiguration, "set_session_file", fmt.Errorf("unrecognized session file variant %T", f))
	}

	a.st.sessionFile = f
	a.st.sessionPath = path
	a.st.contentGrabber = grabber.NewWithChunkSize(path, a.chunkLines)
	a.logf("session file set to %s", path)
	return nil
}

func (a *actor) doGetSessionFile() (string, error) {
	if a.st.sessionPath == "" {
		return "", errSessionFileNotAssigned()
	}
	return a.st.sessionPath, nil
}

// doWriteSessionFile appends data to the session writer, lazily creating
// it, and debounces the follow-on UpdateSession per the 250ms flush
// policy.
func (a *actor) doWriteSessionFile(data string) (bool, error) {
	if a.st.sessionPath == "" {
		return false, errSessionFileNotAssigned()
	}
	if a.st.writer == nil {
		w, err := newWriter(a.st.sessionPath, a.flushDebounce)
		if err != nil {
			return false, err
		}
		a.st.writer = w
	}

	shouldFlush, err := a.st.writer.write(data)
	if err != nil {
		return false, err
	}
	if !shouldFlush {
		return false, nil
	}
	if err := a.st.writer.flush(); err != nil {
		return false, err
	}
	return a.doUpdateSession()
}

func (a *actor) doFlushSessionFile() error {
	if a.st.writer == nil || !a.st.writer.isDirty() {
		return nil
	}
	if err := a.st.writer.flush(); err != nil {
		return err
	}
	_, err := a.doUpdateSession()
	return err
}

// doUpdateSession rescans the content grabber and, if new lines appeared,
// drives a search run (when a holder is checked in), rescans the search
// grabber, and emits the three events in the mandated order.
func (a *actor) doUpdateSession() (bool, error) {
	if a.st.contentGrabber == nil {
		return false, nil
	}

	oldCount := a.st.contentGrabber.Metadata().LineCount
	newCount, err := a.st.contentGrabber.UpdateFromFile(a.ctx)
	if err != nil {
		return false, errkind.New(errkind.KindGrabber, "update_session", err)
	}
	if newCount == oldCount {
		return false, nil
	}

	a.emit(events.EventStreamUpdated, map[string]interface{}{"new_line_count": newCount})

	if a.st.holderState == HolderAvailable && a.st.holder != nil {
		matches, _, err := a.st.holder.ExecuteSearch(a.ctx)
		if err != nil {
			log.Printf("sessioncore: search run failed: %v", err)
		} else {
			a.st.searchMap.Append(matches)

			if a.st.searchGrabber == nil {
				a.st.searchGrabber = grabber.New(a.st.holder.OutputPath())
			}
			found, err := a.st.searchGrabber.UpdateFromFile(a.ctx)
			if err != nil {
				log.Printf("sessioncore: search grabber rescan failed: %v", err)
				found = a.st.searchGrabber.Metadata().LineCount
			}

			a.emit(events.EventSearchUpdated, map[string]interface{}{"result_line_count": found})
			a.emitSearchMapUpdated()
		}
	}

	return true, nil
}

func (a *actor) doGrab(rng grabber.Range) ([]grabber.Line, error) {
	if a.st.contentGrabber == nil {
		return nil, errGrabberNotInitialized()
	}
	lines, err := a.st.contentGrabber.GrabContent(rng)
	if err != nil {
		return nil, errkind.New(errkind.KindGrabber, "grab", err)
	}
	return lines, nil
}

// doGrabSearch implements the result-file-to-content coalescing
// algorithm: grab the raw line-number rows from the search grabber,
// collapse consecutive absolute indices into runs, and fetch each run
// from the content grabber in one contiguous read.
func (a *actor) doGrabSearch(rng grabber.Range) ([]GrabSearchElement, error) {
	if a.st.searchGrabber == nil || a.st.contentGrabber == nil {
		return nil, errGrabberNotReady()
	}

	rows, err := a.st.searchGrabber.GrabContent(rng)
	if err != nil {
		return nil, errkind.New(errkind.KindGrabber, "grab_search", err)
	}

	positions := make([]uint64, 0, len(rows))
	for _, row := range rows {
		var pos uint64
		if _, err := fmt.Sscanf(row.Content, "%d", &pos); err != nil {
			return nil, errkind.New(errkind.KindOperationSearch, "grab_search", fmt.Errorf("parse result line %q: %w", row.Content, err))
		}
		positions = append(positions, pos)
	}

	type run struct{ lo, hi uint64 }
	var runs []run
	for _, pos := range positions {
		if len(runs) > 0 && runs[len(runs)-1].hi+1 == pos {
			runs[len(runs)-1].hi = pos
			continue
		}
		runs = append(runs, run{lo: pos, hi: pos})
	}

	out := make([]GrabSearchElement, 0, len(positions))
	rowCounter := rng.Start
	for _, rn := range runs {
		contentLines, err := a.st.contentGrabber.GrabContent(grabber.Range{Start: rn.lo, End: rn.hi + 1})
		if err != nil {
			return nil, errkind.New(errkind.KindGrabber, "grab_search", err)
		}
		for i, line := range contentLines {
			out = append(out, GrabSearchElement{
				Pos:     rn.lo + uint64(i),
				Row:     rowCounter,
				Content: line.Content,
			})
			rowCounter++
		}
	}
	return out, nil
}

// doUpdateSearchResult lazily creates the search grabber for path and
// rescans it, unless operationID was flagged as canceling, in which case
// it returns 0 without touching anything.
func (a *actor) doUpdateSearchResult(operationID uuid.UUID, path string) (uint64, error) {
	if a.st.isCancelling(operationID) {
		return 0, nil
	}
	if a.st.searchGrabber == nil {
		a.st.searchGrabber = grabber.New(path)
	}
	n, err := a.st.searchGrabber.UpdateFromFile(a.ctx)
	if err != nil {
		return 0, errkind.New(errkind.KindGrabber, "update_search_result", err)
	}
	return n, nil
}

// doGetSearchHolder implements the NotInited/Available/InUse transition
// table: a fresh or existing holder is handed out and the state moves to
// InUse atomically with the hand-off so a concurrent checkout is
// impossible.
func (a *actor) doGetSearchHolder(operationID uuid.UUID) (*search.Holder, error) {
	switch a.st.holderState {
	case HolderInUse:
		return nil, errHolderBusyErr()
	case HolderAvailable:
		h := a.st.holder
		a.st.holderState = HolderInUse
		return h, nil
	default: // HolderNotInited
		h, err := search.NewHolder(a.st.sessionPath, nil)
		if err != nil {
			return nil, err
		}
		h.OperationID = operationID
		h.SetReaderCapacity(a.readerCapacity)
		a.st.holderState = HolderInUse
		return h, nil
	}
}

func (a *actor) doSetSearchHolder(operationID uuid.UUID, h *search.Holder) error {
	if a.st.holderState != HolderInUse {
		return errHolderNotInUseErr()
	}
	if h != nil {
		a.st.holder = h
		a.st.holderState = HolderAvailable
	} else {
		a.st.holder = nil
		a.st.holderState = HolderNotInited
	}
	return nil
}

// doDropSearch tears down the current search entirely: the holder's
// output file is removed, the search grabber is dropped, the search map
// is cleared, and both emptied events fire. Refused while InUse since the
// holder is owned by whoever checked it out.
func (a *actor) doDropSearch() (bool, error) {
	if a.st.holderState == HolderInUse {
		return false, nil
	}
	if a.st.holder != nil {
		if err := a.st.holder.Close(); err != nil {
			log.Printf("sessioncore: drop search: %v", err)
		}
	}
	a.st.holder = nil
	a.st.holderState = HolderNotInited
	a.st.searchGrabber = nil
	a.st.searchMap.Set(nil)

	a.emit(events.EventSearchUpdated, map[string]interface{}{"result_line_count": uint64(0)})
	a.emit(events.EventSearchMapUpdate, map[string]interface{}{"map": nil})
	return true, nil
}

// doShutdown cancels the state token and, if the session file is owned
// (created by this actor rather than adopted) and still exists, removes
// it so scratch sessions never leak into the streams directory.
func (a *actor) doShutdown() {
	a.cancel()
	a.st.status = StatusClosed
	if a.st.holder != nil {
		if err := a.st.holder.Close(); err != nil {
			log.Printf("sessioncore: shutdown: drop search holder: %v", err)
		}
	}
	if a.st.owned && a.st.sessionPath != "" {
		if err := os.Remove(a.st.sessionPath); err != nil && !os.IsNotExist(err) {
			log.Printf("sessioncore: shutdown: remove session file %s: %v", a.st.sessionPath, err)
		}
	}
	if a.st.writer != nil {
		if err := a.st.writer.close(); err != nil {
			log.Printf("sessioncore: shutdown: close writer: %v", err)
		}
	}
}
