package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListSessions returns every session the coordinator tracks.
// GET /api/v1/sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, s.queue.Sessions())
}

// handleGetSession returns a single session by name.
// GET /api/v1/sessions/{name}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	name := chi.URLParam(r, "name")

	sess, err := s.queue.Session(name)
	if err != nil {
		respondAPIError(w, reqID, err)
		return
	}
	respondOK(w, reqID, sess)
}

// handleDeleteSession removes an idle session. Busy sessions are refused.
// DELETE /api/v1/sessions/{name}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	name := chi.URLParam(r, "name")

	if err := s.queue.DeleteSession(name); err != nil {
		respondAPIError(w, reqID, err)
		return
	}

	s.logger.Info("session deleted", "name", name)
	respondOK(w, reqID, map[string]any{"name": name, "deleted": true})
}
