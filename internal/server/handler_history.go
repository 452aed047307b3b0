package server

import (
	"net/http"

	"github.com/me/runhub/pkg/model"
)

// handleListHistory returns archived terminal runs, newest first.
// GET /api/v1/history
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	if s.archive == nil {
		respondError(w, reqID, http.StatusNotFound,
			model.NewNotFoundError("history", "archive disabled"))
		return
	}

	opts := listOptionsFromQuery(r)
	runs, total, err := s.archive.List(r.Context(), opts)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}

	respondList(w, reqID, runs, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+opts.Limit < total,
	})
}
