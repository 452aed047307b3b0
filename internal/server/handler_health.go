package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/me/runhub/pkg/model"
)

type healthResponse struct {
	Status    string                  `json:"status"`
	Version   string                  `json:"version"`
	GoVersion string                  `json:"go_version"`
	Uptime    string                  `json:"uptime"`
	Runs      map[model.RunStatus]int `json:"runs"`
	Runners   int                     `json:"runners"`
	History   string                  `json:"history"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	history := "disabled"
	if s.archive != nil {
		history = "enabled"
	}

	respondOK(w, reqID, healthResponse{
		Status:    "healthy",
		Version:   "0.1.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Runs:      s.queue.Counts(),
		Runners:   len(s.registry.List()),
		History:   history,
	})
}
