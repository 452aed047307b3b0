package registry

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/me/runhub/pkg/model"
)

// Registry owns all Runner records. Runners are never hard-deleted;
// deregistration drains them to offline and staleness is inferred from
// heartbeat recency, so crashed runners stay visible for diagnostics.
type Registry struct {
	mu               sync.Mutex
	logger           *slog.Logger
	runners          map[string]*model.Runner
	heartbeatTimeout time.Duration
}

// New creates an empty registry. heartbeatTimeout is the staleness window
// used by IsAlive.
func New(logger *slog.Logger, heartbeatTimeout time.Duration) *Registry {
	return &Registry{
		logger:           logger.With("component", "registry"),
		runners:          make(map[string]*model.Runner),
		heartbeatTimeout: heartbeatTimeout,
	}
}

// Register creates a new runner record and issues its id.
func (r *Registry) Register(req model.RegisterRunnerRequest) *model.Runner {
	now := time.Now().UTC()
	rn := &model.Runner{
		ID:            "rnr_" + uuid.New().String(),
		Tags:          append([]string(nil), req.Tags...),
		Profile:       req.Profile,
		StrictTags:    req.StrictTags,
		State:         model.RunnerStateOnline,
		LastHeartbeat: now,
		RegisteredAt:  now,
	}

	r.mu.Lock()
	r.runners[rn.ID] = rn
	r.mu.Unlock()

	r.logger.Info("runner registered",
		"runner_id", rn.ID,
		"profile", rn.Profile,
		"tags", rn.Tags,
		"strict_tags", rn.StrictTags,
	)
	return rn.Clone()
}

// Heartbeat refreshes the runner's last-heartbeat timestamp.
func (r *Registry) Heartbeat(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rn, ok := r.runners[id]
	if !ok {
		return model.NewNotFoundError("runner", id)
	}
	if rn.State == model.RunnerStateOffline {
		return model.NewConflictError(fmt.Sprintf("runner %s is deregistered", id))
	}
	rn.LastHeartbeat = time.Now().UTC()
	return nil
}

// Get returns a copy of the runner with the given id.
func (r *Registry) Get(id string) (*model.Runner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rn, ok := r.runners[id]
	if !ok {
		return nil, model.NewNotFoundError("runner", id)
	}
	return rn.Clone(), nil
}

// List returns copies of all known runners.
func (r *Registry) List() []*model.Runner {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.Runner, 0, len(r.runners))
	for _, rn := range r.runners {
		out = append(out, rn.Clone())
	}
	return out
}

// IsAlive reports whether the runner's heartbeat is within the staleness
// window. Recency check only; nothing is deleted.
func (r *Registry) IsAlive(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rn, ok := r.runners[id]
	if !ok {
		return false
	}
	return rn.AliveAt(time.Now().UTC(), r.heartbeatTimeout)
}

// Deregister marks a runner for graceful shutdown. The runner learns about
// it on its next poll, which finalizes the drain. Idempotent while draining.
func (r *Registry) Deregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rn, ok := r.runners[id]
	if !ok {
		return model.NewNotFoundError("runner", id)
	}
	switch rn.State {
	case model.RunnerStateOnline:
		rn.State = model.RunnerStateDraining
		r.logger.Info("runner draining", "runner_id", id)
	case model.RunnerStateDraining:
		// Already draining; nothing to do.
	case model.RunnerStateOffline:
		return model.NewConflictError(fmt.Sprintf("runner %s is already deregistered", id))
	}
	return nil
}

// FinishDeregister completes a drain once the runner has been told.
// Called by the dispatcher when it returns a deregistration signal.
func (r *Registry) FinishDeregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rn, ok := r.runners[id]
	if !ok {
		return
	}
	if rn.State.CanTransitionTo(model.RunnerStateOffline) {
		rn.State = model.RunnerStateOffline
		r.logger.Info("runner offline", "runner_id", id)
	}
}
