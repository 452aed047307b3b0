package queue

import (
	"testing"

	"github.com/me/runhub/pkg/model"
)

func TestEligible(t *testing.T) {
	tests := []struct {
		name   string
		demand *model.DemandSpec
		runner model.Runner
		want   bool
	}{
		{
			name:   "no demand, plain runner",
			runner: model.Runner{},
			want:   true,
		},
		{
			name:   "no demand, tagged runner",
			runner: model.Runner{Tags: []string{"gpu"}},
			want:   true,
		},
		{
			name:   "no demand, strict tagged runner opts out",
			runner: model.Runner{Tags: []string{"gpu"}, StrictTags: true},
			want:   false,
		},
		{
			name:   "no demand, strict runner without tags still takes work",
			runner: model.Runner{StrictTags: true},
			want:   true,
		},
		{
			name:   "profile match",
			demand: &model.DemandSpec{Profile: "coding"},
			runner: model.Runner{Profile: "coding"},
			want:   true,
		},
		{
			name:   "profile mismatch",
			demand: &model.DemandSpec{Profile: "coding"},
			runner: model.Runner{Profile: "review"},
			want:   false,
		},
		{
			name:   "profile demanded, runner has none",
			demand: &model.DemandSpec{Profile: "coding"},
			runner: model.Runner{},
			want:   false,
		},
		{
			name:   "tags subset satisfied",
			demand: &model.DemandSpec{Tags: []string{"gpu"}},
			runner: model.Runner{Tags: []string{"gpu", "linux"}},
			want:   true,
		},
		{
			name:   "tags subset missing one",
			demand: &model.DemandSpec{Tags: []string{"gpu", "cuda"}},
			runner: model.Runner{Tags: []string{"gpu", "linux"}},
			want:   false,
		},
		{
			name:   "tags demanded, runner untagged",
			demand: &model.DemandSpec{Tags: []string{"gpu"}},
			runner: model.Runner{},
			want:   false,
		},
		{
			name:   "profile and tags both required, both met",
			demand: &model.DemandSpec{Profile: "coding", Tags: []string{"gpu"}},
			runner: model.Runner{Profile: "coding", Tags: []string{"gpu"}},
			want:   true,
		},
		{
			name:   "profile met, tags not",
			demand: &model.DemandSpec{Profile: "coding", Tags: []string{"gpu"}},
			runner: model.Runner{Profile: "coding", Tags: []string{"linux"}},
			want:   false,
		},
		{
			name:   "strict runner takes run demanding its tag",
			demand: &model.DemandSpec{Tags: []string{"gpu"}},
			runner: model.Runner{Tags: []string{"gpu"}, StrictTags: true},
			want:   true,
		},
		{
			name:   "strict runner rejects run demanding only a profile",
			demand: &model.DemandSpec{Profile: "coding"},
			runner: model.Runner{Profile: "coding", Tags: []string{"gpu"}, StrictTags: true},
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := &model.Run{Demand: tt.demand}
			if got := Eligible(run, &tt.runner); got != tt.want {
				t.Errorf("Eligible(demand=%+v, runner=%+v) = %v, want %v", tt.demand, tt.runner, got, tt.want)
			}
		})
	}
}
