package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/me/runhub/pkg/model"
)

// Config holds runner daemon configuration.
type Config struct {
	ServerURL  string
	Tags       []string
	Profile    string
	StrictTags bool
	Command    []string
	WorkDir    string
	Heartbeat  time.Duration
	MaxWait    time.Duration
}

// Runner is the daemon loop: register, heartbeat in the background, then
// long-poll for work and execute claimed runs until the context is
// cancelled or the coordinator deregisters us.
type Runner struct {
	client    *Client
	exec      Executor
	cfg       Config
	logger    *slog.Logger
	wg        sync.WaitGroup
	mu        sync.Mutex
	active    map[string]context.CancelFunc
	stopAcked map[string]bool
}

// New creates a Runner from configuration with a subprocess executor.
func New(cfg Config, logger *slog.Logger) (*Runner, error) {
	exec, err := NewSubprocessExecutor(cfg.Command, cfg.WorkDir, logger)
	if err != nil {
		return nil, err
	}
	return NewWithExecutor(cfg, exec, logger), nil
}

// NewWithExecutor creates a Runner with a caller-supplied executor.
func NewWithExecutor(cfg Config, exec Executor, logger *slog.Logger) *Runner {
	if cfg.Heartbeat == 0 {
		cfg.Heartbeat = 10 * time.Second
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = 30 * time.Second
	}
	return &Runner{
		client:    NewClient(cfg.ServerURL),
		exec:      exec,
		cfg:       cfg,
		logger:    logger.With("component", "runner"),
		active:    make(map[string]context.CancelFunc),
		stopAcked: make(map[string]bool),
	}
}

// Run starts the main loop and blocks until shutdown completes.
func (r *Runner) Run(ctx context.Context) error {
	runner, err := r.client.Register(ctx, model.RegisterRunnerRequest{
		Tags:       r.cfg.Tags,
		Profile:    r.cfg.Profile,
		StrictTags: r.cfg.StrictTags,
	})
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	r.logger.Info("registered with coordinator",
		"runner_id", runner.ID,
		"tags", runner.Tags,
		"profile", runner.Profile,
	)

	go r.heartbeatLoop(ctx)

	return r.pollLoop(ctx)
}

// heartbeatLoop sends heartbeats at regular intervals until the context is
// cancelled. It keeps running during execution so long runs stay claimed.
func (r *Runner) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.client.Heartbeat(ctx); err != nil {
				r.logger.Warn("heartbeat failed", "error", err)
			}
		}
	}
}

// pollLoop long-polls for work until cancelled or deregistered.
func (r *Runner) pollLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return r.shutdown()
		}

		result, err := r.client.Poll(ctx, r.cfg.MaxWait)
		if err != nil {
			if ctx.Err() != nil {
				return r.shutdown()
			}
			r.logger.Error("poll failed", "error", err)
			select {
			case <-ctx.Done():
				return r.shutdown()
			case <-time.After(2 * time.Second):
			}
			continue
		}

		if result.Deregistered {
			r.logger.Info("deregistered by coordinator")
			r.cancelAll()
			r.wg.Wait()
			return nil
		}

		for _, runID := range result.StopRuns {
			r.stopRun(runID)
		}

		if result.Run != nil {
			r.launch(ctx, result.Run)
		}
	}
}

// shutdown drains in-flight runs, then asks the coordinator to deregister.
func (r *Runner) shutdown() error {
	r.logger.Info("shutting down, deregistering")
	r.cancelAll()
	r.wg.Wait()

	deregCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.client.Deregister(deregCtx); err != nil {
		r.logger.Error("deregister failed", "error", err)
	}
	return nil
}

// cancelAll cancels every in-flight run.
func (r *Runner) cancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cancel := range r.active {
		cancel()
	}
}

// launch starts a claimed run in its own goroutine so the poll loop keeps
// receiving stop requests while work is in flight.
func (r *Runner) launch(ctx context.Context, run *model.Run) {
	runCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.active[run.ID] = cancel
	r.mu.Unlock()

	r.logger.Info("run received", "run_id", run.ID, "session", run.SessionName, "kind", run.Kind)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			cancel()
			r.mu.Lock()
			delete(r.active, run.ID)
			delete(r.stopAcked, run.ID)
			r.mu.Unlock()
		}()
		r.execute(runCtx, run)
	}()
}

// stopRun cancels the in-flight execution for runID, remembering that the
// cancellation came from a coordinator stop request.
func (r *Runner) stopRun(runID string) {
	r.mu.Lock()
	cancel, ok := r.active[runID]
	if ok {
		r.stopAcked[runID] = true
	}
	r.mu.Unlock()

	if !ok {
		r.logger.Warn("stop requested for unknown run", "run_id", runID)
		return
	}
	r.logger.Info("stopping run", "run_id", runID)
	cancel()
}

// execute drives one run through started -> terminal, reporting the outcome.
// Reports use a fresh context so they still go out after cancellation.
func (r *Runner) execute(ctx context.Context, run *model.Run) {
	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	err := r.client.ReportStarted(startCtx, run.ID)
	cancelStart()
	if err != nil {
		r.logger.Error("report started failed", "run_id", run.ID, "error", err)
		return
	}

	err = r.exec.Run(ctx, run)

	reportCtx, cancelReport := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelReport()

	r.mu.Lock()
	stopped := r.stopAcked[run.ID]
	r.mu.Unlock()

	switch {
	case stopped:
		if rerr := r.client.ReportStopped(reportCtx, run.ID); rerr != nil {
			r.logger.Error("report stopped failed", "run_id", run.ID, "error", rerr)
		}
	case err != nil:
		r.logger.Error("run failed", "run_id", run.ID, "error", err)
		if rerr := r.client.ReportFailed(reportCtx, run.ID, err.Error()); rerr != nil {
			r.logger.Error("report failed failed", "run_id", run.ID, "error", rerr)
		}
	default:
		r.logger.Info("run completed", "run_id", run.ID)
		if rerr := r.client.ReportCompleted(reportCtx, run.ID); rerr != nil {
			r.logger.Error("report completed failed", "run_id", run.ID, "error", rerr)
		}
	}
}
