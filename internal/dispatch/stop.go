package dispatch

import "sync"

// StopSet holds the pending stop commands per runner. Insertion order is
// preserved so a runner sees stops in the order they were requested.
type StopSet struct {
	mu      sync.Mutex
	pending map[string][]string            // runnerID -> ordered run ids
	seen    map[string]map[string]struct{} // dedupe per runner
}

// NewStopSet creates an empty stop set.
func NewStopSet() *StopSet {
	return &StopSet{
		pending: make(map[string][]string),
		seen:    make(map[string]map[string]struct{}),
	}
}

// Add records a stop command for the runner. Duplicate run ids collapse.
func (s *StopSet) Add(runnerID, runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.seen[runnerID]
	if !ok {
		set = make(map[string]struct{})
		s.seen[runnerID] = set
	}
	if _, dup := set[runID]; dup {
		return
	}
	set[runID] = struct{}{}
	s.pending[runnerID] = append(s.pending[runnerID], runID)
}

// Drain atomically removes and returns all pending stops for the runner.
// Draining an empty set returns nil and is always safe to repeat.
func (s *StopSet) Drain(runnerID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.pending[runnerID]
	if len(out) == 0 {
		return nil
	}
	delete(s.pending, runnerID)
	delete(s.seen, runnerID)
	return out
}
