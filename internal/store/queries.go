package store

import (
	"database/sql"
	"fmt"
	"time"
)

// RecordStart inserts a new run in the running state
func (s *Store) RecordStart(taskID int64, kind string, startedAt time.Time) error {
	_, err := s.Exec(s.bind(`
		INSERT INTO task_runs (task_id, kind, state, started_at)
		VALUES (?, ?, 'running', ?)
	`), taskID, kind, startedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}
	return nil
}

// RecordFinish marks a run terminal. errMsg is stored only when non-empty;
// itemCount only when non-negative.
func (s *Store) RecordFinish(taskID int64, state string, finishedAt time.Time, errMsg string, itemCount int) error {
	var storedErr sql.NullString
	if errMsg != "" {
		storedErr = sql.NullString{String: errMsg, Valid: true}
	}
	var storedCount sql.NullInt64
	if itemCount >= 0 {
		storedCount = sql.NullInt64{Int64: int64(itemCount), Valid: true}
	}

	_, err := s.Exec(s.bind(`
		UPDATE task_runs
		SET state = ?, finished_at = ?, error = ?, item_count = ?
		WHERE task_id = ?
	`), state, finishedAt.UTC(), storedErr, storedCount, taskID)
	if err != nil {
		return fmt.Errorf("failed to record run finish: %w", err)
	}
	return nil
}

// MarkSuperseded closes out any still-running rows older than taskID. A
// superseded load never reports a terminal state of its own, so its row is
// finished here when the next load starts.
func (s *Store) MarkSuperseded(taskID int64, at time.Time) error {
	_, err := s.Exec(s.bind(`
		UPDATE task_runs
		SET state = 'superseded', finished_at = ?
		WHERE state = 'running' AND task_id < ?
	`), at.UTC(), taskID)
	if err != nil {
		return fmt.Errorf("failed to mark superseded runs: %w", err)
	}
	return nil
}

// GetRun retrieves a run by task id
func (s *Store) GetRun(taskID int64) (*TaskRun, error) {
	run := &TaskRun{}
	err := s.QueryRow(s.bind(`
		SELECT task_id, kind, state, started_at, finished_at, error, item_count
		FROM task_runs
		WHERE task_id = ?
	`), taskID).Scan(
		&run.TaskID, &run.Kind, &run.State, &run.StartedAt,
		&run.FinishedAt, &run.Error, &run.ItemCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run not found")
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs, newest first
func (s *Store) ListRuns(limit int) ([]*TaskRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Query(s.bind(`
		SELECT task_id, kind, state, started_at, finished_at, error, item_count
		FROM task_runs
		ORDER BY task_id DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*TaskRun
	for rows.Next() {
		run := &TaskRun{}
		if err := rows.Scan(
			&run.TaskID, &run.Kind, &run.State, &run.StartedAt,
			&run.FinishedAt, &run.Error, &run.ItemCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// CountBefore returns how many runs started before the cutoff
func (s *Store) CountBefore(cutoff time.Time) (int64, error) {
	var n int64
	err := s.QueryRow(s.bind(`
		SELECT COUNT(*) FROM task_runs WHERE started_at < ?
	`), cutoff.UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

// PruneBefore deletes runs started before the cutoff and returns how many
// were removed
func (s *Store) PruneBefore(cutoff time.Time) (int64, error) {
	result, err := s.Exec(s.bind(`
		DELETE FROM task_runs WHERE started_at < ?
	`), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned runs: %w", err)
	}
	return n, nil
}
