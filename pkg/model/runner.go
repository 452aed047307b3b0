package model

import "time"

// Runner represents a registered worker process that claims and executes runs.
// Runner records are never hard-deleted: staleness is inferred from
// LastHeartbeat so in-flight runs stay attributable after a crash.
type Runner struct {
	ID      string   `json:"id"`
	Tags    []string `json:"tags,omitempty"`
	Profile string   `json:"profile,omitempty"`

	// StrictTags opts the runner out of generic work: when set (and the
	// runner advertises tags), it only claims runs that demand at least
	// one of its tags.
	StrictTags bool `json:"strict_tags,omitempty"`

	State         RunnerState `json:"state"`
	LastHeartbeat time.Time   `json:"last_heartbeat"`
	RegisteredAt  time.Time   `json:"registered_at"`
}

// HasTag reports whether the runner advertises the given tag.
func (r *Runner) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AliveAt reports whether the runner's heartbeat is recent enough at the
// given instant. Offline runners are never considered alive.
func (r *Runner) AliveAt(now time.Time, timeout time.Duration) bool {
	if r.State == RunnerStateOffline {
		return false
	}
	return now.Sub(r.LastHeartbeat) <= timeout
}

// Clone returns a copy safe to hand outside the registry.
func (r *Runner) Clone() *Runner {
	c := *r
	c.Tags = append([]string(nil), r.Tags...)
	return &c
}
