package model

import "time"

// Response is the standard API response envelope.
type Response struct {
	Status     string      `json:"status"`
	RequestID  string      `json:"request_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Data       any         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      *APIError   `json:"error"`
}

// Pagination holds pagination metadata for list endpoints.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// ListOptions configures list queries with pagination and status filtering.
type ListOptions struct {
	Limit  int
	Offset int
	Status string
}

// DefaultListOptions returns sensible defaults.
func DefaultListOptions() ListOptions {
	return ListOptions{Limit: 20, Offset: 0}
}

// Clamp enforces limits (max 100, min 1).
func (o *ListOptions) Clamp() {
	if o.Limit <= 0 {
		o.Limit = 20
	}
	if o.Limit > 100 {
		o.Limit = 100
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}

// SubmitRunRequest is the body of POST /api/v1/runs.
type SubmitRunRequest struct {
	SessionName       string      `json:"session_name"`
	Kind              RunKind     `json:"kind,omitempty"`
	Payload           string      `json:"payload"`
	ParentSessionName string      `json:"parent_session_name,omitempty"`
	Demand            *DemandSpec `json:"demand,omitempty"`
}

// RegisterRunnerRequest is the body of POST /api/v1/runners.
type RegisterRunnerRequest struct {
	Tags       []string `json:"tags,omitempty"`
	Profile    string   `json:"profile,omitempty"`
	StrictTags bool     `json:"strict_tags,omitempty"`
}

// ReportRequest is the body of the runner report endpoints. Error is only
// meaningful for failure reports.
type ReportRequest struct {
	Error string `json:"error,omitempty"`
}
