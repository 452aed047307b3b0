package model

import (
	"testing"
	"time"
)

func TestDemandSpec_IsZero(t *testing.T) {
	var nilSpec *DemandSpec
	if !nilSpec.IsZero() {
		t.Error("nil DemandSpec should be zero")
	}
	if !(&DemandSpec{}).IsZero() {
		t.Error("empty DemandSpec should be zero")
	}
	if (&DemandSpec{Profile: "coding"}).IsZero() {
		t.Error("DemandSpec with profile should not be zero")
	}
	if (&DemandSpec{Tags: []string{"gpu"}}).IsZero() {
		t.Error("DemandSpec with tags should not be zero")
	}
}

func TestRun_Clone(t *testing.T) {
	now := time.Now().UTC()
	r := &Run{
		ID:          "run_1",
		Kind:        RunKindStart,
		SessionName: "sess",
		Payload:     "do the thing",
		Demand:      &DemandSpec{Tags: []string{"gpu"}},
		Status:      RunStatusClaimed,
		RunnerID:    "rnr_1",
		CreatedAt:   now,
		ClaimedAt:   &now,
	}
	c := r.Clone()

	c.Demand.Tags[0] = "cpu"
	if r.Demand.Tags[0] != "gpu" {
		t.Error("Clone shares demand tags with original")
	}

	later := now.Add(time.Minute)
	*c.ClaimedAt = later
	if !r.ClaimedAt.Equal(now) {
		t.Error("Clone shares timestamps with original")
	}
}

func TestRunner_AliveAt(t *testing.T) {
	now := time.Now().UTC()
	r := &Runner{ID: "rnr_1", State: RunnerStateOnline, LastHeartbeat: now.Add(-10 * time.Second)}

	if !r.AliveAt(now, 30*time.Second) {
		t.Error("runner with recent heartbeat should be alive")
	}
	if r.AliveAt(now, 5*time.Second) {
		t.Error("runner past heartbeat timeout should not be alive")
	}

	r.State = RunnerStateOffline
	if r.AliveAt(now, 30*time.Second) {
		t.Error("offline runner should never be alive")
	}
}

func TestPollResult_Empty(t *testing.T) {
	if !(&PollResult{}).Empty() {
		t.Error("zero PollResult should be empty")
	}
	if (&PollResult{Deregistered: true}).Empty() {
		t.Error("deregistered PollResult should not be empty")
	}
	if (&PollResult{StopRuns: []string{"run_1"}}).Empty() {
		t.Error("stop PollResult should not be empty")
	}
}
