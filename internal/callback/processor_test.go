package callback

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/me/runhub/internal/queue"
	"github.com/me/runhub/pkg/model"
)

func testSetup() (*queue.Queue, *Processor) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	q := queue.New(logger)
	p := New(q, logger)
	q.SetOnTerminal(p.OnRunTerminal)
	return q, p
}

// startRun submits a run and drives it to running on the given runner.
// Callers must not leave other pending runs around: claim takes the oldest.
func startRun(t *testing.T, q *queue.Queue, session, parent, runnerID string) *model.Run {
	t.Helper()
	run, err := q.Submit(model.SubmitRunRequest{
		SessionName:       session,
		ParentSessionName: parent,
		Payload:           "work",
	})
	if err != nil {
		t.Fatalf("Submit(%s): %v", session, err)
	}
	claimed := q.Claim(&model.Runner{ID: runnerID})
	if claimed == nil || claimed.ID != run.ID {
		t.Fatalf("Claim for %s = %v, want %s", session, claimed, run.ID)
	}
	if _, err := q.ReportStarted(run.ID, runnerID); err != nil {
		t.Fatalf("ReportStarted(%s): %v", session, err)
	}
	return run
}

func resumesFor(q *queue.Queue, session string) []*model.Run {
	runs, _ := q.List(model.ListOptions{Status: "pending"})
	var out []*model.Run
	for _, r := range runs {
		if r.SessionName == session && r.Kind == model.RunKindResume {
			out = append(out, r)
		}
	}
	return out
}

func TestImmediateCallback_IdleParent(t *testing.T) {
	q, p := testSetup()

	// "orch" exists (implied by the child submission) and is idle.
	child := startRun(t, q, "child-A", "orch", "rnr_1")
	if _, err := q.ReportCompleted(child.ID, "rnr_1"); err != nil {
		t.Fatalf("ReportCompleted: %v", err)
	}

	resumes := resumesFor(q, "orch")
	if len(resumes) != 1 {
		t.Fatalf("resumes for orch = %d, want exactly 1", len(resumes))
	}
	if !strings.Contains(resumes[0].Payload, "child-A") {
		t.Errorf("resume payload = %q, want mention of child-A", resumes[0].Payload)
	}
	if got := p.PendingFor("orch"); len(got) != 0 {
		t.Errorf("PendingFor(orch) = %v, want empty (nothing queued on the immediate path)", got)
	}
}

func TestBusyAggregation(t *testing.T) {
	q, p := testSetup()

	orch := startRun(t, q, "orch", "", "rnr_orch")

	childA := startRun(t, q, "child-A", "orch", "rnr_a")
	if _, err := q.ReportCompleted(childA.ID, "rnr_a"); err != nil {
		t.Fatalf("complete child-A: %v", err)
	}
	childB := startRun(t, q, "child-B", "orch", "rnr_b")
	if _, err := q.ReportCompleted(childB.ID, "rnr_b"); err != nil {
		t.Fatalf("complete child-B: %v", err)
	}

	// Parent still busy: both queued, nothing submitted.
	if got := resumesFor(q, "orch"); len(got) != 0 {
		t.Fatalf("resumes while parent busy = %d, want 0", len(got))
	}
	if got := p.PendingFor("orch"); len(got) != 2 || got[0] != "child-A" || got[1] != "child-B" {
		t.Fatalf("PendingFor(orch) = %v, want [child-A child-B]", got)
	}

	// Parent goes idle: one aggregated resume in completion order.
	if _, err := q.ReportCompleted(orch.ID, "rnr_orch"); err != nil {
		t.Fatalf("complete orch: %v", err)
	}

	resumes := resumesFor(q, "orch")
	if len(resumes) != 1 {
		t.Fatalf("resumes after flush = %d, want exactly 1", len(resumes))
	}
	payload := resumes[0].Payload
	ai, bi := strings.Index(payload, "child-A"), strings.Index(payload, "child-B")
	if ai < 0 || bi < 0 || ai > bi {
		t.Errorf("payload = %q, want child-A before child-B", payload)
	}
	if got := p.PendingFor("orch"); len(got) != 0 {
		t.Errorf("PendingFor(orch) = %v, want cleared after flush", got)
	}
}

func TestFailedChild_AlsoNotifies(t *testing.T) {
	q, _ := testSetup()

	child := startRun(t, q, "child-A", "orch", "rnr_1")
	if _, err := q.ReportFailed(child.ID, "rnr_1", "boom"); err != nil {
		t.Fatalf("ReportFailed: %v", err)
	}
	if got := resumesFor(q, "orch"); len(got) != 1 {
		t.Fatalf("resumes = %d, want 1 (failed children notify too)", len(got))
	}
}

func TestDeletedParent_DropsNotification(t *testing.T) {
	q, p := testSetup()

	child := startRun(t, q, "child-A", "orch", "rnr_1")
	if err := q.DeleteSession("orch"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}

	if _, err := q.ReportCompleted(child.ID, "rnr_1"); err != nil {
		t.Fatalf("ReportCompleted: %v", err)
	}
	if got := resumesFor(q, "orch"); len(got) != 0 {
		t.Fatalf("resumes = %d, want 0 after parent deletion", len(got))
	}
	if got := p.PendingFor("orch"); len(got) != 0 {
		t.Errorf("PendingFor(orch) = %v, want empty", got)
	}
}

func TestConcurrentSiblings_OneAggregatedResume(t *testing.T) {
	q, p := testSetup()

	orch := startRun(t, q, "orch", "", "rnr_orch")

	const siblings = 8
	children := make([]*model.Run, siblings)
	for i := range children {
		children[i] = startRun(t, q, fmt.Sprintf("child-%d", i), "orch", fmt.Sprintf("rnr_%d", i))
	}

	var wg sync.WaitGroup
	for i, child := range children {
		wg.Add(1)
		go func(n int, run *model.Run) {
			defer wg.Done()
			if _, err := q.ReportCompleted(run.ID, fmt.Sprintf("rnr_%d", n)); err != nil {
				t.Errorf("complete child-%d: %v", n, err)
			}
		}(i, child)
	}
	wg.Wait()

	if _, err := q.ReportCompleted(orch.ID, "rnr_orch"); err != nil {
		t.Fatalf("complete orch: %v", err)
	}

	resumes := resumesFor(q, "orch")
	if len(resumes) != 1 {
		t.Fatalf("resumes = %d, want exactly one aggregated resume", len(resumes))
	}
	for i := 0; i < siblings; i++ {
		if !strings.Contains(resumes[0].Payload, fmt.Sprintf("child-%d", i)) {
			t.Errorf("payload missing child-%d: %q", i, resumes[0].Payload)
		}
	}
	if got := p.PendingFor("orch"); len(got) != 0 {
		t.Errorf("PendingFor(orch) = %v, want empty", got)
	}
}

func TestResumePayload(t *testing.T) {
	if got := resumePayload([]string{"a"}); got != "child session a completed" {
		t.Errorf("single payload = %q", got)
	}
	if got := resumePayload([]string{"a", "b"}); got != "child sessions completed: a, b" {
		t.Errorf("aggregated payload = %q", got)
	}
}
