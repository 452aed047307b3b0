package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/runhub/pkg/model"

	_ "modernc.org/sqlite"
)

// Store keeps a SQLite record of every run that reached a terminal status.
// Diagnostics only: the live queue never reads it back, so coordinator
// restarts still reset queue state as designed.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the archive database at dbPath.
// Use ":memory:" for an in-process database (useful in tests).
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// WAL for concurrent reads while the coordinator appends.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.With("component", "archive"),
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS run_history (
		id                  TEXT PRIMARY KEY,
		kind                TEXT NOT NULL,
		session_name        TEXT NOT NULL,
		parent_session_name TEXT NOT NULL DEFAULT '',
		payload             TEXT NOT NULL,
		demand              TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL,
		error               TEXT NOT NULL DEFAULT '',
		created_at          TEXT NOT NULL,
		claimed_at          TEXT,
		started_at          TEXT,
		completed_at        TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_run_history_status ON run_history(status)`,
	`CREATE INDEX IF NOT EXISTS idx_run_history_session ON run_history(session_name)`,
	`CREATE INDEX IF NOT EXISTS idx_run_history_completed_at ON run_history(completed_at)`,
}

// Migrate creates the history table and indexes. Idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Record appends a terminal run. Duplicate ids are replaced so a replayed
// hook never fails the caller.
func (s *Store) Record(ctx context.Context, run *model.Run) error {
	if !run.Status.IsTerminal() {
		return fmt.Errorf("run %s is %s, not terminal", run.ID, run.Status)
	}
	s.logger.Debug("sql", "op", "insert", "run_id", run.ID, "status", run.Status)

	demandJSON := ""
	if run.Demand != nil {
		data, err := json.Marshal(run.Demand)
		if err != nil {
			return fmt.Errorf("marshal demand: %w", err)
		}
		demandJSON = string(data)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO run_history
		 (id, kind, session_name, parent_session_name, payload, demand, status, error,
		  created_at, claimed_at, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Kind), run.SessionName, run.ParentSessionName,
		run.Payload, demandJSON, string(run.Status), run.Error,
		run.CreatedAt.Format(time.RFC3339Nano),
		formatTime(run.ClaimedAt), formatTime(run.StartedAt), formatTime(run.CompletedAt),
	)
	return err
}

// List returns archived runs, most recently completed first, plus the total
// count before pagination.
func (s *Store) List(ctx context.Context, opts model.ListOptions) ([]*model.Run, int, error) {
	opts.Clamp()
	s.logger.Debug("sql", "op", "select", "status", opts.Status)

	where, args := "", []any{}
	if opts.Status != "" {
		where = " WHERE status = ?"
		args = append(args, opts.Status)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM run_history"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, session_name, parent_session_name, payload, demand, status, error,
		 created_at, claimed_at, started_at, completed_at
		 FROM run_history`+where+` ORDER BY completed_at DESC LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.Run
	for rows.Next() {
		var run model.Run
		var kind, status, demandJSON, createdAt string
		var claimedAt, startedAt, completedAt *string

		if err := rows.Scan(
			&run.ID, &kind, &run.SessionName, &run.ParentSessionName,
			&run.Payload, &demandJSON, &status, &run.Error,
			&createdAt, &claimedAt, &startedAt, &completedAt,
		); err != nil {
			return nil, 0, err
		}

		run.Kind = model.RunKind(kind)
		run.Status = model.RunStatus(status)
		if demandJSON != "" {
			var demand model.DemandSpec
			if err := json.Unmarshal([]byte(demandJSON), &demand); err != nil {
				return nil, 0, fmt.Errorf("unmarshal demand: %w", err)
			}
			run.Demand = &demand
		}
		if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, 0, fmt.Errorf("parse created_at: %w", err)
		}
		if run.ClaimedAt, err = parseTime(claimedAt); err != nil {
			return nil, 0, err
		}
		if run.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, 0, err
		}
		if run.CompletedAt, err = parseTime(completedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, &run)
	}
	return out, total, rows.Err()
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339Nano)
	return &s
}

func parseTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp: %w", err)
	}
	return &t, nil
}
