package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RefreshRun records one execution of a scheduled refresh job.
type RefreshRun struct {
	ID        int64         `json:"id"`
	Job       string        `json:"job"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

type RefreshRunStore struct {
	db *sql.DB
}

func NewRefreshRunStore(db *sql.DB) *RefreshRunStore {
	return &RefreshRunStore{db: db}
}

func (s *RefreshRunStore) Record(ctx context.Context, job string, started time.Time, d time.Duration, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_runs (job, started_at, duration_ms, error) VALUES (?, ?, ?, ?)`,
		job, started.UTC(), d.Milliseconds(), msg,
	)
	if err != nil {
		return fmt.Errorf("record refresh run %s: %w", job, err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (s *RefreshRunStore) Recent(ctx context.Context, limit int) ([]RefreshRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job, started_at, duration_ms, error FROM refresh_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list refresh runs: %w", err)
	}
	defer rows.Close()

	var out []RefreshRun
	for rows.Next() {
		var r RefreshRun
		var ms int64
		if err := rows.Scan(&r.ID, &r.Job, &r.StartedAt, &ms, &r.Error); err != nil {
			return nil, fmt.Errorf("scan refresh run: %w", err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune deletes runs older than before.
func (s *RefreshRunStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM refresh_runs WHERE started_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune refresh runs: %w", err)
	}
	return res.RowsAffected()
}
