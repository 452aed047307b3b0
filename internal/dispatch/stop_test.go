package dispatch

import (
	"reflect"
	"testing"
)

func TestStopSet_AddAndDrain(t *testing.T) {
	s := NewStopSet()
	s.Add("rnr_1", "run_a")
	s.Add("rnr_1", "run_b")
	s.Add("rnr_1", "run_a") // duplicate collapses
	s.Add("rnr_2", "run_c")

	got := s.Drain("rnr_1")
	want := []string{"run_a", "run_b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Drain(rnr_1) = %v, want %v", got, want)
	}

	// Other runners unaffected.
	if got := s.Drain("rnr_2"); !reflect.DeepEqual(got, []string{"run_c"}) {
		t.Errorf("Drain(rnr_2) = %v, want [run_c]", got)
	}
}

func TestStopSet_DrainEmptyIsIdempotent(t *testing.T) {
	s := NewStopSet()
	for i := 0; i < 3; i++ {
		if got := s.Drain("rnr_1"); len(got) != 0 {
			t.Errorf("Drain of empty set = %v, want empty", got)
		}
	}

	s.Add("rnr_1", "run_a")
	s.Drain("rnr_1")
	if got := s.Drain("rnr_1"); len(got) != 0 {
		t.Errorf("second Drain = %v, want empty", got)
	}

	// Re-adding after a drain works, including ids seen before.
	s.Add("rnr_1", "run_a")
	if got := s.Drain("rnr_1"); !reflect.DeepEqual(got, []string{"run_a"}) {
		t.Errorf("Drain after re-add = %v, want [run_a]", got)
	}
}
