package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/me/runhub/internal/queue"
	"github.com/me/runhub/internal/registry"
	"github.com/me/runhub/pkg/model"
)

// Config holds dispatcher tuning.
type Config struct {
	// Slice bounds one wait cycle; the loop re-checks for work at least
	// this often even without a wake signal.
	Slice time.Duration

	// MaxWait caps the overall wait a runner may request.
	MaxWait time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Slice: time.Second, MaxWait: 60 * time.Second}
}

// Dispatcher implements the long-poll protocol: a runner blocks in Poll
// until a matching run, a pending stop, a deregistration signal, or the
// wait deadline. Wake signals, not a sleep loop, provide the low latency:
// submissions broadcast to all waiters, stops and deregistrations wake the
// one runner they concern.
type Dispatcher struct {
	queue    *queue.Queue
	registry *registry.Registry
	stops    *StopSet
	cfg      Config
	logger   *slog.Logger

	mu      sync.Mutex
	waiters map[string]chan struct{} // per runner, buffered 1: signals coalesce
}

// New creates a dispatcher and hooks the queue's enqueue notification so
// new submissions interrupt in-flight polls immediately.
func New(q *queue.Queue, reg *registry.Registry, cfg Config, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		queue:    q,
		registry: reg,
		stops:    NewStopSet(),
		cfg:      cfg,
		logger:   logger.With("component", "dispatch"),
		waiters:  make(map[string]chan struct{}),
	}
	q.SetNotify(d.Broadcast)
	return d
}

// RequestStop queues a stop command for the runner and wakes it. Returns
// false when the runner is unknown; the caller should treat the run as
// unreachable rather than fail hard.
func (d *Dispatcher) RequestStop(runnerID, runID string) bool {
	if _, err := d.registry.Get(runnerID); err != nil {
		d.logger.Warn("stop for unknown runner", "runner_id", runnerID, "run_id", runID)
		return false
	}
	d.stops.Add(runnerID, runID)
	d.Wake(runnerID)
	return true
}

// NotifyDeregister wakes a runner so a blocked poll observes its drain.
func (d *Dispatcher) NotifyDeregister(runnerID string) {
	d.Wake(runnerID)
}

// Poll blocks until the runner has something to act on, or maxWait elapses,
// whichever comes first. Priority each cycle: deregistration, pending
// stops, claimable run, then wait.
func (d *Dispatcher) Poll(ctx context.Context, runnerID string, maxWait time.Duration) (*model.PollResult, error) {
	if maxWait < 0 {
		maxWait = 0
	}
	if maxWait > d.cfg.MaxWait {
		maxWait = d.cfg.MaxWait
	}
	deadline := time.Now().Add(maxWait)
	w := d.waiter(runnerID)

	for {
		rn, err := d.registry.Get(runnerID)
		if err != nil {
			return nil, err
		}

		if rn.State != model.RunnerStateOnline {
			d.registry.FinishDeregister(runnerID)
			d.logger.Info("poll answered with deregistration", "runner_id", runnerID)
			return &model.PollResult{Deregistered: true}, nil
		}

		if stops := d.stops.Drain(runnerID); len(stops) > 0 {
			d.logger.Info("poll answered with stops", "runner_id", runnerID, "runs", stops)
			return &model.PollResult{StopRuns: stops}, nil
		}

		if run := d.queue.Claim(rn); run != nil {
			return &model.PollResult{Run: run}, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return &model.PollResult{}, nil
		}
		slice := d.cfg.Slice
		if slice > remaining {
			slice = remaining
		}

		timer := time.NewTimer(slice)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-w:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Wake signals one runner's waiter without blocking.
func (d *Dispatcher) Wake(runnerID string) {
	select {
	case d.waiter(runnerID) <- struct{}{}:
	default:
	}
}

// Broadcast wakes every waiter. Fired on each submission: matching is
// cheap enough that woken runners just re-attempt a claim.
func (d *Dispatcher) Broadcast() {
	d.mu.Lock()
	channels := make([]chan struct{}, 0, len(d.waiters))
	for _, ch := range d.waiters {
		channels = append(channels, ch)
	}
	d.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (d *Dispatcher) waiter(runnerID string) chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch, ok := d.waiters[runnerID]
	if !ok {
		ch = make(chan struct{}, 1)
		d.waiters[runnerID] = ch
	}
	return ch
}
