package archive

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/me/runhub/pkg/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func terminalRun(id string, status model.RunStatus, completedAt time.Time) *model.Run {
	created := completedAt.Add(-time.Minute)
	return &model.Run{
		ID:          id,
		Kind:        model.RunKindStart,
		SessionName: "sess",
		Payload:     "work",
		Status:      status,
		CreatedAt:   created,
		CompletedAt: &completedAt,
	}
}

func TestRecordAndList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	older := terminalRun("run_1", model.RunStatusCompleted, now.Add(-time.Hour))
	older.Demand = &model.DemandSpec{Profile: "coding", Tags: []string{"gpu"}}
	older.Error = ""
	newer := terminalRun("run_2", model.RunStatusFailed, now)
	newer.Error = "orphaned: runner unresponsive"

	if err := s.Record(ctx, older); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Record(ctx, newer); err != nil {
		t.Fatalf("Record: %v", err)
	}

	runs, total, err := s.List(ctx, model.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(runs) != 2 {
		t.Fatalf("List = %d/%d, want 2/2", len(runs), total)
	}
	if runs[0].ID != "run_2" {
		t.Errorf("first run = %s, want most recently completed run_2", runs[0].ID)
	}
	if runs[0].Error != "orphaned: runner unresponsive" {
		t.Errorf("error round-trip = %q", runs[0].Error)
	}
	if runs[1].Demand == nil || runs[1].Demand.Profile != "coding" {
		t.Errorf("demand round-trip = %+v", runs[1].Demand)
	}
	if runs[1].CompletedAt == nil || !runs[1].CompletedAt.Equal(*older.CompletedAt) {
		t.Errorf("completed_at round-trip = %v", runs[1].CompletedAt)
	}
}

func TestList_StatusFilter(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	s.Record(ctx, terminalRun("run_1", model.RunStatusCompleted, now))
	s.Record(ctx, terminalRun("run_2", model.RunStatusFailed, now))
	s.Record(ctx, terminalRun("run_3", model.RunStatusStopped, now))

	runs, total, err := s.List(ctx, model.ListOptions{Status: "failed"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(runs) != 1 || runs[0].ID != "run_2" {
		t.Errorf("filtered list = %v (total %d), want [run_2]", runs, total)
	}
}

func TestRecord_RejectsNonTerminal(t *testing.T) {
	s := testStore(t)
	run := &model.Run{ID: "run_1", Status: model.RunStatusRunning, CreatedAt: time.Now()}
	if err := s.Record(context.Background(), run); err == nil {
		t.Fatal("expected error recording non-terminal run")
	}
}

func TestRecord_ReplayIsIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	run := terminalRun("run_1", model.RunStatusCompleted, time.Now().UTC())

	if err := s.Record(ctx, run); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Record(ctx, run); err != nil {
		t.Fatalf("replayed Record: %v", err)
	}
	_, total, _ := s.List(ctx, model.ListOptions{})
	if total != 1 {
		t.Errorf("total = %d, want 1 after replay", total)
	}
}
