package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"clearpoints/internal/round"
	"clearpoints/internal/sessions"
	"clearpoints/internal/wshub"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Server struct {
	Sessions *sessions.Store
	Hub      *wshub.Hub
}

type sessionResponse struct {
	ID       string         `json:"id"`
	Snapshot round.Snapshot `json:"snapshot"`
}

type configureRequest struct {
	TargetCount *int `json:"target_count"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// session resolves the {id} path value, writing a 404 when it is unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *sessions.Session {
	sess := s.Sessions.Get(r.PathValue("id"))
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
	}
	return sess
}

func (s *Server) writeSnapshot(w http.ResponseWriter, status int, sess *sessions.Session) {
	writeJSON(w, status, sessionResponse{ID: sess.ID, Snapshot: sess.Game.Snapshot()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": len(s.Sessions.List()),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.Sessions.Create()
	log.Info().Str("session_id", sess.ID).Msg("session created")
	s.writeSnapshot(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if sess := s.session(w, r); sess != nil {
		s.writeSnapshot(w, http.StatusOK, sess)
	}
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.Hub.BroadcastSession(id, wshub.ServerMessage{Type: "closed"})
	if !s.Sessions.Delete(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var req configureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetCount == nil {
		writeError(w, http.StatusBadRequest, "target_count is required")
		return
	}

	if err := sess.Game.Configure(*req.TargetCount); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, round.ErrRoundRunning) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	s.writeSnapshot(w, http.StatusOK, sess)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if sess := s.session(w, r); sess != nil {
		sess.Game.Start()
		s.writeSnapshot(w, http.StatusOK, sess)
	}
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	if sess := s.session(w, r); sess != nil {
		sess.Game.Restart()
		s.writeSnapshot(w, http.StatusOK, sess)
	}
}

// handleActivate always answers with the resulting snapshot; an ignored or
// failing click is visible only through it.
func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	value, err := strconv.Atoi(r.PathValue("value"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target value")
		return
	}
	sess.Game.Activate(value)
	s.writeSnapshot(w, http.StatusOK, sess)
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sess.ID).Msg("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := &wshub.Client{
		ConnID:    uuid.New().String(),
		SessionID: sess.ID,
		Conn:      conn,
		Send:      make(chan []byte, 64),
	}
	s.Hub.Register(client)
	defer s.Hub.Unregister(client.ConnID)
	go client.WritePump(ctx)

	changes := sess.Broadcaster.Subscribe()
	defer sess.Broadcaster.Unsubscribe(changes)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-changes:
				if !ok {
					cancel()
					return
				}
				snap := sess.Game.Snapshot()
				s.Hub.SendTo(client.ConnID, wshub.ServerMessage{Type: "snapshot", Change: string(ev.Type), Snapshot: &snap})
			}
		}
	}()

	logger := log.With().Str("session_id", sess.ID).Str("conn_id", client.ConnID).Logger()
	logger.Debug().Msg("socket connected")

	snap := sess.Game.Snapshot()
	s.Hub.SendTo(client.ConnID, wshub.ServerMessage{Type: "snapshot", Snapshot: &snap})

	for {
		var msg wshub.ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			logger.Debug().Err(err).Msg("socket closed")
			return
		}
		s.Sessions.Touch(sess.ID)
		if err := msg.Apply(sess.Game); err != nil {
			s.Hub.SendTo(client.ConnID, wshub.ServerMessage{Type: "error", Error: err.Error()})
			continue
		}
		snap := sess.Game.Snapshot()
		s.Hub.SendTo(client.ConnID, wshub.ServerMessage{Type: "snapshot", Change: msg.Type, Snapshot: &snap})
	}
}

// handleEvents streams change notifications as server-sent events, each
// carrying the snapshot taken when the change was relayed.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	changes := sess.Broadcaster.Subscribe()
	defer sess.Broadcaster.Unsubscribe(changes)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-changes:
			if !ok {
				return
			}
			data, err := json.Marshal(sess.Game.Snapshot())
			if err != nil {
				log.Error().Err(err).Msg("encoding snapshot")
				continue
			}
			fmt.Fprintf(w, "event: %s\n", ev.Type)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
