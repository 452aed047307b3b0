package queue

import "github.com/me/runhub/pkg/model"

// Eligible reports whether a runner may claim the given run. Pure function:
// locking is the caller's concern.
//
// Rules, AND-combined:
//   - demand.profile, when set, must equal the runner's profile exactly.
//   - demand.tags, when set, must be a subset of the runner's tags.
//   - a strict_tags runner with a non-empty tag set additionally requires
//     the run to demand at least one tag it has. Note the deliberate
//     asymmetry: subset semantics select runners for a run, intersection
//     semantics only guard specialized runners against undemanding work.
func Eligible(run *model.Run, rn *model.Runner) bool {
	demand := run.Demand

	if !demand.IsZero() {
		if demand.Profile != "" && demand.Profile != rn.Profile {
			return false
		}
		if !hasAllTags(rn, demand.Tags) {
			return false
		}
	}

	if rn.StrictTags && len(rn.Tags) > 0 {
		if demand.IsZero() || !anyTagShared(rn, demand.Tags) {
			return false
		}
	}

	return true
}

// hasAllTags reports whether the runner's tag set is a superset of want.
func hasAllTags(rn *model.Runner, want []string) bool {
	for _, tag := range want {
		if !rn.HasTag(tag) {
			return false
		}
	}
	return true
}

// anyTagShared reports whether the runner shares at least one tag with want.
func anyTagShared(rn *model.Runner, want []string) bool {
	for _, tag := range want {
		if rn.HasTag(tag) {
			return true
		}
	}
	return false
}
