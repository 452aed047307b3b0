package model

import "testing"

func TestRunStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   RunStatus
		terminal bool
	}{
		{RunStatusPending, false},
		{RunStatusClaimed, false},
		{RunStatusRunning, false},
		{RunStatusStopping, false},
		{RunStatusCompleted, true},
		{RunStatusFailed, true},
		{RunStatusStopped, true},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("RunStatus(%q).IsTerminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestRunStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from  RunStatus
		to    RunStatus
		valid bool
	}{
		// Valid transitions
		{RunStatusPending, RunStatusClaimed, true},
		{RunStatusClaimed, RunStatusRunning, true},
		{RunStatusClaimed, RunStatusStopping, true},
		{RunStatusClaimed, RunStatusFailed, true},
		{RunStatusRunning, RunStatusCompleted, true},
		{RunStatusRunning, RunStatusFailed, true},
		{RunStatusRunning, RunStatusStopping, true},
		{RunStatusStopping, RunStatusStopped, true},

		// Invalid transitions
		{RunStatusPending, RunStatusRunning, false},
		{RunStatusPending, RunStatusCompleted, false},
		{RunStatusPending, RunStatusStopping, false},
		{RunStatusClaimed, RunStatusCompleted, false},
		{RunStatusStopping, RunStatusCompleted, false},
		{RunStatusStopping, RunStatusFailed, false},
		{RunStatusCompleted, RunStatusPending, false},
		{RunStatusCompleted, RunStatusFailed, false},
		{RunStatusFailed, RunStatusRunning, false},
		{RunStatusStopped, RunStatusStopping, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.valid {
			t.Errorf("RunStatus(%q).CanTransitionTo(%q) = %v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestRunnerState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from  RunnerState
		to    RunnerState
		valid bool
	}{
		{RunnerStateOnline, RunnerStateDraining, true},
		{RunnerStateOnline, RunnerStateOffline, true},
		{RunnerStateDraining, RunnerStateOffline, true},
		{RunnerStateOffline, RunnerStateOnline, false},
		{RunnerStateDraining, RunnerStateOnline, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.valid {
			t.Errorf("RunnerState(%q).CanTransitionTo(%q) = %v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}
