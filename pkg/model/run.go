package model

import "time"

// RunKind distinguishes a caller-submitted run from a coordinator-synthesized
// resume of a parent session.
type RunKind string

const (
	RunKindStart  RunKind = "START"
	RunKindResume RunKind = "RESUME"
)

// DemandSpec holds the constraints a run places on eligible runners.
// Profile is an exact match. Tags use superset semantics: a runner
// qualifies only if its tag set contains every demanded tag.
type DemandSpec struct {
	Profile string   `json:"profile,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// IsZero reports whether the demand places no constraints at all.
func (d *DemandSpec) IsZero() bool {
	return d == nil || (d.Profile == "" && len(d.Tags) == 0)
}

// Run is one dispatchable unit of work acting on a session.
type Run struct {
	ID                string      `json:"id"`
	Kind              RunKind     `json:"kind"`
	SessionName       string      `json:"session_name"`
	ParentSessionName string      `json:"parent_session_name,omitempty"`
	Payload           string      `json:"payload"`
	Demand            *DemandSpec `json:"demand,omitempty"`

	Status RunStatus `json:"status"`

	// RunnerID is set while the run is claimed, running, or stopping,
	// and cleared again once the run reaches a terminal status.
	RunnerID string `json:"runner_id,omitempty"`
	Error    string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Clone returns a deep copy. The queue hands copies to callers so that
// its internal records are never mutated from outside.
func (r *Run) Clone() *Run {
	c := *r
	if r.Demand != nil {
		d := *r.Demand
		d.Tags = append([]string(nil), r.Demand.Tags...)
		c.Demand = &d
	}
	if r.ClaimedAt != nil {
		t := *r.ClaimedAt
		c.ClaimedAt = &t
	}
	if r.StartedAt != nil {
		t := *r.StartedAt
		c.StartedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// PollResult is the long-poll response handed to a runner. Exactly one of
// the fields is populated; an entirely empty result means no work appeared
// before the wait deadline.
type PollResult struct {
	Run          *Run     `json:"run,omitempty"`
	StopRuns     []string `json:"stop_runs,omitempty"`
	Deregistered bool     `json:"deregistered,omitempty"`
}

// Empty reports whether the poll produced nothing.
func (p *PollResult) Empty() bool {
	return p.Run == nil && len(p.StopRuns) == 0 && !p.Deregistered
}
