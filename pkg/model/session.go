package model

import "time"

// Session tracks a logical conversation that runs act upon. Sessions are
// created lazily on first submission and outlive any single run.
type Session struct {
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	TotalRuns  int       `json:"total_runs"`
	ActiveRuns int       `json:"active_runs"`
	LastRunAt  time.Time `json:"last_run_at"`
}

// IsBusy reports whether the session has any non-terminal run. A pending
// resume counts: children completing behind it aggregate into the next flush.
func (s *Session) IsBusy() bool {
	return s.ActiveRuns > 0
}
