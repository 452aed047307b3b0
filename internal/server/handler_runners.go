package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/me/runhub/pkg/model"
)

// handleRegisterRunner creates a new runner record.
// POST /api/v1/runners
func (s *Server) handleRegisterRunner(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req model.RegisterRunnerRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, reqID, http.StatusBadRequest, &model.APIError{
				Code:    model.ErrValidation,
				Message: "invalid JSON body: " + err.Error(),
			})
			return
		}
	}

	runner := s.registry.Register(req)

	s.logger.Info("runner registered", "id", runner.ID, "tags", runner.Tags, "profile", runner.Profile, "strict_tags", runner.StrictTags)
	respondCreated(w, reqID, runner)
}

// handleListRunners returns all known runners.
// GET /api/v1/runners
func (s *Server) handleListRunners(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, s.registry.List())
}

// handleRunnerHeartbeat refreshes a runner's liveness timestamp.
// PUT /api/v1/runners/{id}/heartbeat
func (s *Server) handleRunnerHeartbeat(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.registry.Heartbeat(id); err != nil {
		respondAPIError(w, reqID, err)
		return
	}

	respondOK(w, reqID, map[string]any{"runner_id": id})
}

// handleRunnerWork is the long-poll work checkout.
// GET /api/v1/runners/{id}/work?max_wait=30s
// Returns 200 with a PollResult or 204 No Content when nothing appeared
// before the wait deadline.
func (s *Server) handleRunnerWork(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	maxWait := s.config.MaxPollWait
	if raw := r.URL.Query().Get("max_wait"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			respondError(w, reqID, http.StatusBadRequest,
				model.NewValidationError("invalid max_wait",
					model.FieldError{Field: "max_wait", Message: err.Error()}))
			return
		}
		maxWait = parsed
	}

	result, err := s.dispatcher.Poll(r.Context(), id, maxWait)
	if err != nil {
		respondAPIError(w, reqID, err)
		return
	}

	if result.Empty() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if result.Run != nil {
		s.logger.Debug("run checked out", "runner_id", id, "run_id", result.Run.ID)
	}
	respondOK(w, reqID, result)
}

// handleReportStarted marks a claimed run as running.
// PUT /api/v1/runners/{id}/runs/{rid}/started
func (s *Server) handleReportStarted(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	runnerID := chi.URLParam(r, "id")
	rid := chi.URLParam(r, "rid")

	run, err := s.queue.ReportStarted(rid, runnerID)
	if err != nil {
		respondAPIError(w, reqID, err)
		return
	}

	respondOK(w, reqID, run)
}

// handleReportCompleted records a successful finish.
// PUT /api/v1/runners/{id}/runs/{rid}/completed
func (s *Server) handleReportCompleted(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	runnerID := chi.URLParam(r, "id")
	rid := chi.URLParam(r, "rid")

	run, err := s.queue.ReportCompleted(rid, runnerID)
	if err != nil {
		respondAPIError(w, reqID, err)
		return
	}

	s.logger.Info("run completed", "run_id", run.ID, "runner_id", runnerID)
	respondOK(w, reqID, run)
}

// handleReportFailed records a failed finish with the runner's error message.
// PUT /api/v1/runners/{id}/runs/{rid}/failed
func (s *Server) handleReportFailed(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	runnerID := chi.URLParam(r, "id")
	rid := chi.URLParam(r, "rid")

	var req model.ReportRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, reqID, http.StatusBadRequest, &model.APIError{
				Code:    model.ErrValidation,
				Message: "invalid JSON body: " + err.Error(),
			})
			return
		}
	}

	run, err := s.queue.ReportFailed(rid, runnerID, req.Error)
	if err != nil {
		respondAPIError(w, reqID, err)
		return
	}

	s.logger.Info("run failed", "run_id", run.ID, "runner_id", runnerID, "error", run.Error)
	respondOK(w, reqID, run)
}

// handleReportStopped acknowledges a stop request.
// PUT /api/v1/runners/{id}/runs/{rid}/stopped
func (s *Server) handleReportStopped(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	runnerID := chi.URLParam(r, "id")
	rid := chi.URLParam(r, "rid")

	run, err := s.queue.ReportStopped(rid, runnerID)
	if err != nil {
		respondAPIError(w, reqID, err)
		return
	}

	s.logger.Info("run stopped", "run_id", run.ID, "runner_id", runnerID)
	respondOK(w, reqID, run)
}

// handleDeregisterRunner begins draining a runner. The runner learns about
// it on its next poll, which returns a deregistered result.
// DELETE /api/v1/runners/{id}
func (s *Server) handleDeregisterRunner(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.registry.Deregister(id); err != nil {
		respondAPIError(w, reqID, err)
		return
	}
	s.dispatcher.NotifyDeregister(id)

	s.logger.Info("runner deregistering", "id", id)
	respondOK(w, reqID, map[string]any{"id": id, "state": model.RunnerStateDraining})
}
