package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/me/runhub/pkg/model"
)

// listOptionsFromQuery builds ListOptions from ?state=&limit=&offset=.
func listOptionsFromQuery(r *http.Request) model.ListOptions {
	opts := model.DefaultListOptions()
	q := r.URL.Query()
	if state := q.Get("state"); state != "" {
		opts.Status = state
	}
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			opts.Limit = n
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			opts.Offset = n
		}
	}
	opts.Clamp()
	return opts
}

// handleSubmitRun accepts a new run for dispatch.
// POST /api/v1/runs
func (s *Server) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req model.SubmitRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "invalid JSON body: " + err.Error(),
		})
		return
	}

	run, err := s.queue.Submit(req)
	if err != nil {
		respondAPIError(w, reqID, err)
		return
	}

	s.logger.Info("run submitted", "id", run.ID, "session", run.SessionName, "kind", run.Kind)
	respondCreated(w, reqID, run)
}

// handleListRuns returns runs currently held by the coordinator.
// GET /api/v1/runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	opts := listOptionsFromQuery(r)
	runs, total := s.queue.List(opts)

	respondList(w, reqID, runs, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+opts.Limit < total,
	})
}

// handleGetRun returns a single run by ID.
// GET /api/v1/runs/{id}
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	run, err := s.queue.Get(id)
	if err != nil {
		respondAPIError(w, reqID, err)
		return
	}
	respondOK(w, reqID, run)
}

// handleStopRun asks the run's current runner to wind the run down.
// POST /api/v1/runs/{id}/stop
func (s *Server) handleStopRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	run, err := s.queue.RequestStop(id)
	if err != nil {
		respondAPIError(w, reqID, err)
		return
	}

	if !s.dispatcher.RequestStop(run.RunnerID, run.ID) {
		// The run is already STOPPING; if its runner vanished the stale-claim
		// sweep picks it up.
		s.logger.Warn("stop requested but runner unknown", "run_id", run.ID, "runner_id", run.RunnerID)
	}

	s.logger.Info("stop requested", "run_id", run.ID, "runner_id", run.RunnerID)
	respondOK(w, reqID, run)
}
