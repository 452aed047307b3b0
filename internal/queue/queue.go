package queue

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/me/runhub/pkg/model"
)

// Queue owns all Run records and their status transitions, plus the session
// table derived from them. It is the single writer for both: callers only
// ever see copies.
type Queue struct {
	mu       sync.Mutex
	logger   *slog.Logger
	runs     map[string]*model.Run
	pending  []*model.Run // FIFO among eligible; claim scans oldest first
	sessions map[string]*model.Session

	notify     func()               // fired after each enqueue, outside the lock
	onTerminal func(run *model.Run) // fired after each terminal transition, outside the lock
}

// New creates an empty queue.
func New(logger *slog.Logger) *Queue {
	return &Queue{
		logger:   logger.With("component", "queue"),
		runs:     make(map[string]*model.Run),
		sessions: make(map[string]*model.Session),
	}
}

// SetNotify registers the wake hook invoked after every successful
// submission. The hook runs outside the queue lock.
func (q *Queue) SetNotify(fn func()) {
	q.notify = fn
}

// SetOnTerminal registers the hook invoked after every terminal transition,
// outside the queue lock. The run passed in is a copy.
func (q *Queue) SetOnTerminal(fn func(run *model.Run)) {
	q.onTerminal = fn
}

// Submit validates and enqueues a new run, creating its session lazily.
func (q *Queue) Submit(req model.SubmitRunRequest) (*model.Run, error) {
	var fields []model.FieldError
	if req.SessionName == "" {
		fields = append(fields, model.FieldError{Field: "session_name", Message: "required"})
	}
	if req.Payload == "" {
		fields = append(fields, model.FieldError{Field: "payload", Message: "required"})
	}
	kind := req.Kind
	if kind == "" {
		kind = model.RunKindStart
	}
	if kind != model.RunKindStart && kind != model.RunKindResume {
		fields = append(fields, model.FieldError{Field: "kind", Message: "must be START or RESUME"})
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError("invalid run submission", fields...)
	}

	demand := req.Demand
	if demand.IsZero() {
		demand = nil
	}

	run := &model.Run{
		ID:                "run_" + uuid.New().String(),
		Kind:              kind,
		SessionName:       req.SessionName,
		ParentSessionName: req.ParentSessionName,
		Payload:           req.Payload,
		Demand:            demand,
		Status:            model.RunStatusPending,
		CreatedAt:         time.Now().UTC(),
	}

	q.mu.Lock()
	q.runs[run.ID] = run
	q.pending = append(q.pending, run)
	q.touchSessionLocked(run.SessionName, run.CreatedAt)
	if run.ParentSessionName != "" {
		// A child submission implies its parent session exists, even if
		// the parent has not run anything yet.
		q.ensureSessionLocked(run.ParentSessionName, run.CreatedAt)
	}
	out := run.Clone()
	q.mu.Unlock()

	q.logger.Info("run submitted",
		"run_id", run.ID,
		"session", run.SessionName,
		"kind", run.Kind,
	)
	if q.notify != nil {
		q.notify()
	}
	return out, nil
}

// SubmitResume enqueues a coordinator-synthesized resume run for an existing
// session. Unlike Submit it never creates the session: a missing session
// means the target was deleted and the caller should drop the notification.
func (q *Queue) SubmitResume(sessionName, payload string) (*model.Run, error) {
	run := &model.Run{
		ID:          "run_" + uuid.New().String(),
		Kind:        model.RunKindResume,
		SessionName: sessionName,
		Payload:     payload,
		Status:      model.RunStatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	q.mu.Lock()
	if _, ok := q.sessions[sessionName]; !ok {
		q.mu.Unlock()
		return nil, model.NewNotFoundError("session", sessionName)
	}
	q.runs[run.ID] = run
	q.pending = append(q.pending, run)
	q.touchSessionLocked(sessionName, run.CreatedAt)
	out := run.Clone()
	q.mu.Unlock()

	q.logger.Info("resume submitted", "run_id", run.ID, "session", sessionName)
	if q.notify != nil {
		q.notify()
	}
	return out, nil
}

// Get returns a copy of the run with the given id.
func (q *Queue) Get(id string) (*model.Run, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	run, ok := q.runs[id]
	if !ok {
		return nil, model.NewNotFoundError("run", id)
	}
	return run.Clone(), nil
}

// List returns runs matching the options, newest first, plus the total count
// before pagination.
func (q *Queue) List(opts model.ListOptions) ([]*model.Run, int) {
	opts.Clamp()

	q.mu.Lock()
	matched := make([]*model.Run, 0, len(q.runs))
	for _, run := range q.runs {
		if opts.Status != "" && string(run.Status) != opts.Status {
			continue
		}
		matched = append(matched, run)
	}
	q.mu.Unlock()

	sortRunsNewestFirst(matched)

	total := len(matched)
	if opts.Offset >= total {
		return []*model.Run{}, total
	}
	end := opts.Offset + opts.Limit
	if end > total {
		end = total
	}
	out := make([]*model.Run, 0, end-opts.Offset)
	for _, run := range matched[opts.Offset:end] {
		out = append(out, run.Clone())
	}
	return out, total
}

// Claim atomically assigns the oldest eligible pending run to the runner.
// Returns nil when nothing matches. This is the single point where two
// concurrent callers could race for one run; the queue lock decides.
func (q *Queue) Claim(rn *model.Runner) *model.Run {
	now := time.Now().UTC()

	q.mu.Lock()
	defer q.mu.Unlock()

	for i, run := range q.pending {
		if !Eligible(run, rn) {
			continue
		}
		run.Status = model.RunStatusClaimed
		run.RunnerID = rn.ID
		run.ClaimedAt = &now
		q.pending = append(q.pending[:i], q.pending[i+1:]...)
		q.logger.Info("run claimed", "run_id", run.ID, "runner_id", rn.ID)
		return run.Clone()
	}
	return nil
}

// ReportStarted moves a claimed run to running.
func (q *Queue) ReportStarted(runID, runnerID string) (*model.Run, error) {
	return q.report(runID, runnerID, model.RunStatusRunning, "")
}

// ReportCompleted moves a running run to completed.
func (q *Queue) ReportCompleted(runID, runnerID string) (*model.Run, error) {
	return q.report(runID, runnerID, model.RunStatusCompleted, "")
}

// ReportFailed moves a running run to failed with the given error.
func (q *Queue) ReportFailed(runID, runnerID, errMsg string) (*model.Run, error) {
	if errMsg == "" {
		errMsg = "failed"
	}
	return q.report(runID, runnerID, model.RunStatusFailed, errMsg)
}

// ReportStopped acknowledges a stop: stopping → stopped.
func (q *Queue) ReportStopped(runID, runnerID string) (*model.Run, error) {
	return q.report(runID, runnerID, model.RunStatusStopped, "")
}

// report applies a runner-attributed status transition. Any report against
// a terminal run, from the wrong runner, or violating the state machine is
// rejected with a conflict and mutates nothing.
func (q *Queue) report(runID, runnerID string, next model.RunStatus, errMsg string) (*model.Run, error) {
	q.mu.Lock()

	run, ok := q.runs[runID]
	if !ok {
		q.mu.Unlock()
		return nil, model.NewNotFoundError("run", runID)
	}
	if run.Status.IsTerminal() {
		q.mu.Unlock()
		return nil, model.NewConflictError(fmt.Sprintf("run %s is already %s", runID, run.Status))
	}
	if run.RunnerID != runnerID {
		q.mu.Unlock()
		return nil, model.NewConflictError(fmt.Sprintf("run %s is not assigned to runner %s", runID, runnerID))
	}
	if !run.Status.CanTransitionTo(next) {
		q.mu.Unlock()
		return nil, model.NewConflictError(
			(&model.InvalidTransitionError{Entity: "Run", ID: runID, From: run.Status.String(), To: next.String()}).Error())
	}

	q.applyTransitionLocked(run, next, errMsg)
	out := run.Clone()
	q.mu.Unlock()

	q.logger.Info("run reported", "run_id", runID, "runner_id", runnerID, "status", next)
	if next.IsTerminal() {
		q.fireTerminal(out)
	}
	return out, nil
}

// RequestStop flips a claimed or running run to stopping and returns the
// updated run so the caller can route the stop command to its runner.
func (q *Queue) RequestStop(runID string) (*model.Run, error) {
	q.mu.Lock()

	run, ok := q.runs[runID]
	if !ok {
		q.mu.Unlock()
		return nil, model.NewNotFoundError("run", runID)
	}
	if run.Status != model.RunStatusClaimed && run.Status != model.RunStatusRunning {
		q.mu.Unlock()
		return nil, model.NewConflictError(fmt.Sprintf("cannot stop run %s in status %s", runID, run.Status))
	}

	run.Status = model.RunStatusStopping
	out := run.Clone()
	q.mu.Unlock()

	q.logger.Info("stop requested", "run_id", runID, "runner_id", out.RunnerID)
	return out, nil
}

// ActiveClaims returns copies of all claimed and running runs. Used by the
// stale-claim sweep.
func (q *Queue) ActiveClaims() []*model.Run {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []*model.Run
	for _, run := range q.runs {
		switch run.Status {
		case model.RunStatusClaimed, model.RunStatusRunning:
			out = append(out, run.Clone())
		}
	}
	return out
}

// FailOrphan fails a claimed or running run whose runner went stale. The
// normal wrong-runner and terminal guards are bypassed on purpose: the
// assigned runner is presumed dead.
func (q *Queue) FailOrphan(runID, reason string) (*model.Run, error) {
	q.mu.Lock()

	run, ok := q.runs[runID]
	if !ok {
		q.mu.Unlock()
		return nil, model.NewNotFoundError("run", runID)
	}
	if run.Status != model.RunStatusClaimed && run.Status != model.RunStatusRunning {
		q.mu.Unlock()
		return nil, model.NewConflictError(fmt.Sprintf("run %s is %s, not orphanable", runID, run.Status))
	}

	q.applyTransitionLocked(run, model.RunStatusFailed, reason)
	out := run.Clone()
	q.mu.Unlock()

	q.logger.Warn("orphaned run failed", "run_id", runID, "reason", reason)
	q.fireTerminal(out)
	return out, nil
}

// SessionState reports whether the named session exists and whether it has
// any non-terminal run. Consumed by the callback processor.
func (q *Queue) SessionState(name string) (exists, busy bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.sessions[name]
	if !ok {
		return false, false
	}
	return true, s.IsBusy()
}

// Session returns a copy of the named session.
func (q *Queue) Session(name string) (*model.Session, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.sessions[name]
	if !ok {
		return nil, model.NewNotFoundError("session", name)
	}
	c := *s
	return &c, nil
}

// Sessions returns copies of all known sessions.
func (q *Queue) Sessions() []*model.Session {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*model.Session, 0, len(q.sessions))
	for _, s := range q.sessions {
		c := *s
		out = append(out, &c)
	}
	return out
}

// DeleteSession removes an idle session. Deleting a session with active
// runs is a conflict; deleting it while idle means any later child
// completion aimed at it is dropped by the callback processor.
func (q *Queue) DeleteSession(name string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	s, ok := q.sessions[name]
	if !ok {
		return model.NewNotFoundError("session", name)
	}
	if s.IsBusy() {
		return model.NewConflictError(fmt.Sprintf("session %s has %d active runs", name, s.ActiveRuns))
	}
	delete(q.sessions, name)
	return nil
}

// Counts returns the number of runs per status. Used by the health endpoint.
func (q *Queue) Counts() map[model.RunStatus]int {
	q.mu.Lock()
	defer q.mu.Unlock()
	counts := make(map[model.RunStatus]int)
	for _, run := range q.runs {
		counts[run.Status]++
	}
	return counts
}

// applyTransitionLocked mutates run to the next status, maintaining the
// timestamp and session-count invariants. Caller holds the lock and has
// already validated the transition.
func (q *Queue) applyTransitionLocked(run *model.Run, next model.RunStatus, errMsg string) {
	now := time.Now().UTC()
	run.Status = next

	switch {
	case next == model.RunStatusRunning:
		run.StartedAt = &now
	case next.IsTerminal():
		run.CompletedAt = &now
		run.RunnerID = ""
		run.Error = errMsg
		if s, ok := q.sessions[run.SessionName]; ok && s.ActiveRuns > 0 {
			s.ActiveRuns--
		}
	}
}

func (q *Queue) fireTerminal(run *model.Run) {
	if q.onTerminal != nil {
		q.onTerminal(run)
	}
}

// touchSessionLocked records a new run against a session, creating it if needed.
func (q *Queue) touchSessionLocked(name string, at time.Time) {
	s := q.ensureSessionLocked(name, at)
	s.TotalRuns++
	s.ActiveRuns++
	s.LastRunAt = at
}

func (q *Queue) ensureSessionLocked(name string, at time.Time) *model.Session {
	s, ok := q.sessions[name]
	if !ok {
		s = &model.Session{Name: name, CreatedAt: at}
		q.sessions[name] = s
	}
	return s
}

func sortRunsNewestFirst(runs []*model.Run) {
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
}
