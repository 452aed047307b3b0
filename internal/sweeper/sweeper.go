package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/me/runhub/internal/queue"
	"github.com/me/runhub/internal/registry"
	"github.com/me/runhub/pkg/model"
)

// OrphanReason is the error recorded on runs failed by the sweep.
const OrphanReason = "orphaned: runner unresponsive"

// Config holds sweeper configuration.
type Config struct {
	// Interval is how often the sweep runs.
	Interval time.Duration

	// ClaimGrace is how long a claimed or running run may go without
	// progress before a stale runner makes it an orphan.
	ClaimGrace time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Interval: 30 * time.Second, ClaimGrace: 2 * time.Minute}
}

// Sweeper fails runs stuck on runners that stopped heartbeating. Advisory
// only: no retry is issued, the submitter observes the failure through the
// normal reporting channels.
type Sweeper struct {
	queue    *queue.Queue
	registry *registry.Registry
	cfg      Config
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a sweeper over the given queue and registry.
func New(q *queue.Queue, reg *registry.Registry, cfg Config, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		queue:    q,
		registry: reg,
		cfg:      cfg,
		logger:   logger.With("component", "sweeper"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the sweep loop. Blocks until ctx is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info("sweeper started", "interval", s.cfg.Interval, "claim_grace", s.cfg.ClaimGrace)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(s.doneCh)
			return ctx.Err()
		case <-s.stopCh:
			close(s.doneCh)
			return nil
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Stop shuts the sweeper down and waits for the current tick to finish.
func (s *Sweeper) Stop() error {
	close(s.stopCh)
	<-s.doneCh
	return nil
}

// Tick runs a single sweep and returns the number of runs failed.
func (s *Sweeper) Tick() int {
	now := time.Now().UTC()
	failed := 0

	for _, run := range s.queue.ActiveClaims() {
		if run.ClaimedAt == nil || now.Sub(*run.ClaimedAt) <= s.cfg.ClaimGrace {
			continue
		}
		if s.registry.IsAlive(run.RunnerID) {
			continue
		}
		if _, err := s.queue.FailOrphan(run.ID, OrphanReason); err != nil {
			// Lost a race with a late report; that settles the run too.
			if !model.IsConflict(err) {
				s.logger.Error("orphan sweep failed", "run_id", run.ID, "error", err)
			}
			continue
		}
		s.logger.Warn("orphaned run failed by sweep",
			"run_id", run.ID,
			"runner_id", run.RunnerID,
			"claimed_at", run.ClaimedAt,
		)
		failed++
	}
	return failed
}
