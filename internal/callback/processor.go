package callback

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/me/runhub/pkg/model"
)

// Submitter is the slice of the run queue the processor uses. It only ever
// goes through the queue's public submission entry point, never its
// internals: single-writer discipline per structure.
type Submitter interface {
	SubmitResume(sessionName, payload string) (*model.Run, error)
	SessionState(name string) (exists, busy bool)
}

// Processor turns terminal child runs into parent resume runs. While a
// parent is busy, child completions accumulate; once the parent itself goes
// idle they collapse into exactly one aggregated resume.
type Processor struct {
	mu      sync.Mutex
	logger  *slog.Logger
	queue   Submitter
	pending map[string][]string // parent session -> child sessions, completion order
}

// New creates a processor submitting through q.
func New(q Submitter, logger *slog.Logger) *Processor {
	return &Processor{
		logger:  logger.With("component", "callback"),
		queue:   q,
		pending: make(map[string][]string),
	}
}

// OnRunTerminal handles one terminal run report. Intended as the queue's
// terminal hook. Both branches run under one lock so two siblings
// completing back-to-back while the parent flips from busy to idle cannot
// double-deliver or strand a notification.
func (p *Processor) OnRunTerminal(run *model.Run) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if parent := run.ParentSessionName; parent != "" {
		p.notifyParentLocked(parent, run.SessionName)
	}

	// Self-flush: if this session was a busy parent, it just went idle
	// (or at least finished a run); deliver everything queued for it.
	if children := p.pending[run.SessionName]; len(children) > 0 {
		delete(p.pending, run.SessionName)
		if _, err := p.queue.SubmitResume(run.SessionName, resumePayload(children)); err != nil {
			// No caller waits on this path; log and drop.
			p.logger.Warn("dropping aggregated child notifications",
				"session", run.SessionName,
				"children", children,
				"error", err,
			)
		} else {
			p.logger.Info("aggregated resume submitted",
				"session", run.SessionName,
				"children", len(children),
			)
		}
	}
}

// notifyParentLocked runs the child-completion branch: idle parent gets an
// immediate single-child resume, busy parent gets the child queued.
func (p *Processor) notifyParentLocked(parent, child string) {
	exists, busy := p.queue.SessionState(parent)
	switch {
	case !exists:
		p.logger.Warn("dropping child notification, parent session gone",
			"parent", parent,
			"child", child,
		)
	case busy:
		p.pending[parent] = append(p.pending[parent], child)
		p.logger.Debug("parent busy, child notification queued", "parent", parent, "child", child)
	default:
		if _, err := p.queue.SubmitResume(parent, resumePayload([]string{child})); err != nil {
			p.logger.Warn("dropping child notification",
				"parent", parent,
				"child", child,
				"error", err,
			)
		}
	}
}

// PendingFor returns a copy of the undelivered child notifications queued
// for a session.
func (p *Processor) PendingFor(session string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.pending[session]...)
}

func resumePayload(children []string) string {
	if len(children) == 1 {
		return fmt.Sprintf("child session %s completed", children[0])
	}
	return fmt.Sprintf("child sessions completed: %s", strings.Join(children, ", "))
}
