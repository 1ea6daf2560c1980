// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package bridge is the demo HTTP+WebSocket front end that exposes a
// Session to a UI runtime: commands arrive as JSON-RPC-ish HTTP requests,
// events are pushed out over a WebSocket. It is explicitly out of scope
// for the session core's own contract (see the native-bridge collaborator
// named in the scope notes) and is deliberately thin: a reference wiring,
// not a hardened API surface.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/wingedpig/sessioncore/internal/config"
	"github.com/wingedpig/sessioncore/internal/events"
	"github.com/wingedpig/sessioncore/internal/grabber"
	"github.com/wingedpig/sessioncore/internal/session"
)

// Server wires a *session.Session and an events.EventBus to an HTTP+WS
// surface. One Server instance serves exactly one session.
type Server struct {
	sess   *session.Session
	bus    events.EventBus
	router *mux.Router

	upgrader websocket.Upgrader
}

// New builds a Server for sess, reachable over the routes this package
// registers. bus (may be nil) is subscribed to for WebSocket fan-out.
func New(sess *session.Session, bus events.EventBus) *Server {
	s := &Server{
		sess:     sess,
		bus:      bus,
		router:   mux.NewRouter(),
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
	}
	s.routes()
	return s
}

// ListenAndServe starts the HTTP server per cfg. It blocks until the
// server stops (normally via an error from net/http).
func (s *Server) ListenAndServe(cfg config.BridgeConfig) error {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	log.Printf("bridge: listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) routes() {
	s.router.HandleFunc("/api/session/stream-len", s.handleGetStreamLen).Methods(http.MethodGet)
	s.router.HandleFunc("/api/session/grab", s.handleGrab).Methods(http.MethodGet)
	s.router.HandleFunc("/api/session/write", s.handleWrite).Methods(http.MethodPost)
	s.router.HandleFunc("/api/session/update", s.handleUpdateSession).Methods(http.MethodPost)
	s.router.HandleFunc("/ws/events", s.handleEventsWS)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleGetStreamLen(w http.ResponseWriter, r *http.Request) {
	n, err := s.sess.GetStreamLen()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"line_count": n})
}

func (s *Server) handleGrab(w http.ResponseWriter, r *http.Request) {
	var start, end uint64
	_, _ = fmt.Sscanf(r.URL.Query().Get("start"), "%d", &start)
	_, _ = fmt.Sscanf(r.URL.Query().Get("end"), "%d", &end)

	lines, err := s.sess.Grab(grabber.Range{Start: start, End: end})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data string `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := s.sess.WriteSessionFile(body.Data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": updated})
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	updated, err := s.sess.UpdateSession()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": updated})
}

// handleEventsWS upgrades to a WebSocket and forwards every bus event as
// JSON until the client disconnects.
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	if s.bus == nil {
		http.Error(w, "event bus not configured", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("bridge: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	subID, err := s.bus.SubscribeAsync("*", func(ctx context.Context, event events.Event) error {
		return conn.WriteJSON(event)
	}, 64)
	_ = subID
	if err != nil {
		log.Printf("bridge: subscribe failed: %v", err)
		return
	}
	defer s.bus.Unsubscribe(subID)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
