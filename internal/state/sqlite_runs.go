package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const runColumns = `id, input_dir, output_path, engine, mode, workers, total_shards, status,
	started_at, completed_at, error, records, candidates, rows_written, skipped`

// CreateRun inserts a running run. ID and StartedAt are assigned when empty.
func (s *SQLiteStore) CreateRun(run Run) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	if run.ID == "" {
		run.ID = generateID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = nowUTC()
	}
	run.Status = RunStatusRunning

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.Int("shards", run.TotalShards))

	_, err := s.db.ExecContext(context.Background(), `INSERT INTO runs (id, input_dir, output_path, engine, mode, workers,
		total_shards, status, started_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.InputDir, run.OutputPath, run.Engine, run.Mode, run.Workers,
		run.TotalShards, string(run.Status), run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return &run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	row := s.db.QueryRowContext(context.Background(), `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.QueryContext(context.Background(), `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// CompleteRun marks a run as finished with the given status and totals.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, errMsg string, totals Counts) error {
	if s.db == nil {
		return errNotOpened
	}

	res, err := s.db.ExecContext(context.Background(), `UPDATE runs SET status = ?, completed_at = ?, error = ?,
		records = ?, candidates = ?, rows_written = ?, skipped = ? WHERE id = ?`,
		string(status), nowUTC(), nullString(errMsg),
		totals.Records, totals.Candidates, totals.Rows, totals.Skipped, id)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (*Run, error) {
	var (
		run       Run
		status    string
		completed sql.NullTime
		errMsg    sql.NullString
	)
	err := r.Scan(&run.ID, &run.InputDir, &run.OutputPath, &run.Engine, &run.Mode, &run.Workers,
		&run.TotalShards, &status, &run.StartedAt, &completed, &errMsg,
		&run.Counts.Records, &run.Counts.Candidates, &run.Counts.Rows, &run.Counts.Skipped)
	if err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return &run, nil
}

// RecordShard records the totals of a completed shard.
func (s *SQLiteStore) RecordShard(runID, shard string, c Counts) error {
	if s.db == nil {
		return errNotOpened
	}

	_, err := s.db.ExecContext(context.Background(), `INSERT INTO shard_runs (run_id, shard, records, candidates,
		rows_written, skipped, completed_at) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, shard) DO UPDATE SET records = excluded.records,
		candidates = excluded.candidates, rows_written = excluded.rows_written,
		skipped = excluded.skipped, completed_at = excluded.completed_at`,
		runID, shard, c.Records, c.Candidates, c.Rows, c.Skipped, nowUTC())
	if err != nil {
		return fmt.Errorf("failed to record shard: %w", err)
	}
	return nil
}

// ListShardRuns returns the completed shards of a run in completion order.
func (s *SQLiteStore) ListShardRuns(runID string) ([]*ShardRun, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.QueryContext(context.Background(), `SELECT run_id, shard, records, candidates, rows_written,
		skipped, completed_at FROM shard_runs WHERE run_id = ? ORDER BY completed_at, shard`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shard runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*ShardRun
	for rows.Next() {
		var sr ShardRun
		var completed time.Time
		if err := rows.Scan(&sr.RunID, &sr.Shard, &sr.Counts.Records, &sr.Counts.Candidates,
			&sr.Counts.Rows, &sr.Counts.Skipped, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan shard run: %w", err)
		}
		sr.CompletedAt = completed
		out = append(out, &sr)
	}
	return out, rows.Err()
}
