package store

import (
	"database/sql"
	"time"
)

// TaskRun is one background load, keyed by the manager-assigned task id.
type TaskRun struct {
	TaskID     int64
	Kind       string
	State      string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Error      sql.NullString
	ItemCount  sql.NullInt64
}

// Duration returns how long the run took, or 0 if it has not finished.
func (r *TaskRun) Duration() time.Duration {
	if !r.FinishedAt.Valid {
		return 0
	}
	return r.FinishedAt.Time.Sub(r.StartedAt)
}
