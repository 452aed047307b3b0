package runner

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/me/runhub/pkg/model"
)

// Executor runs the actual work for a claimed run. Run blocks until the
// work finishes or ctx is cancelled.
type Executor interface {
	Run(ctx context.Context, run *model.Run) error
}

// SubprocessExecutor launches a configured command per run. The run payload
// is written to the child's stdin and run metadata is exposed through
// RUNHUB_* environment variables.
type SubprocessExecutor struct {
	command []string
	workDir string
	logger  *slog.Logger
}

// NewSubprocessExecutor creates an executor that launches command for each
// run. command must have at least the program name.
func NewSubprocessExecutor(command []string, workDir string, logger *slog.Logger) (*SubprocessExecutor, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("executor command is empty")
	}
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "runhub-runner")
	}
	return &SubprocessExecutor{
		command: command,
		workDir: workDir,
		logger:  logger.With("component", "executor"),
	}, nil
}

// Run executes the configured command for a single run.
func (e *SubprocessExecutor) Run(ctx context.Context, run *model.Run) error {
	runDir := filepath.Join(e.workDir, run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("create run dir %s: %w", runDir, err)
	}

	cmd := exec.CommandContext(ctx, e.command[0], e.command[1:]...)
	cmd.Dir = runDir
	cmd.Stdin = strings.NewReader(run.Payload)
	cmd.Env = append(os.Environ(),
		"RUNHUB_RUN_ID="+run.ID,
		"RUNHUB_RUN_KIND="+string(run.Kind),
		"RUNHUB_SESSION="+run.SessionName,
	)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	e.logger.Debug("launching", "run_id", run.ID, "command", e.command[0], "dir", runDir)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		tail := out.String()
		if len(tail) > 2048 {
			tail = tail[len(tail)-2048:]
		}
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(tail))
	}
	return nil
}
