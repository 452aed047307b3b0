package model

// RunStatus represents the lifecycle state of a Run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusClaimed   RunStatus = "claimed"
	RunStatusRunning   RunStatus = "running"
	RunStatusStopping  RunStatus = "stopping"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusStopped   RunStatus = "stopped"
)

// String returns the string representation of the run status.
func (s RunStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the run is in a final state.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusStopped:
		return true
	}
	return false
}

// ValidRunTransitions defines the allowed state transitions for Runs.
// claimed→failed covers orphaned-claim recovery; a claimed runner that
// never reports started can still be failed by the sweep.
var ValidRunTransitions = map[RunStatus][]RunStatus{
	RunStatusPending:  {RunStatusClaimed},
	RunStatusClaimed:  {RunStatusRunning, RunStatusStopping, RunStatusFailed},
	RunStatusRunning:  {RunStatusCompleted, RunStatusFailed, RunStatusStopping},
	RunStatusStopping: {RunStatusStopped},
}

// CanTransitionTo returns true if moving from the current status to next is valid.
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	for _, allowed := range ValidRunTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RunnerState represents the lifecycle state of a Runner.
type RunnerState string

const (
	RunnerStateOnline   RunnerState = "online"
	RunnerStateDraining RunnerState = "draining"
	RunnerStateOffline  RunnerState = "offline"
)

// ValidRunnerTransitions defines the allowed state transitions for Runners.
var ValidRunnerTransitions = map[RunnerState][]RunnerState{
	RunnerStateOnline:   {RunnerStateDraining, RunnerStateOffline},
	RunnerStateDraining: {RunnerStateOffline},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s RunnerState) CanTransitionTo(next RunnerState) bool {
	for _, allowed := range ValidRunnerTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
