package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"photosorter/internal/model"
)

// RunRepository implements repository.RunRepository for SQLite.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new SQLite run repository.
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Insert adds a new run record.
func (r *RunRepository) Insert(run *model.Run) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO runs (id, started_at, total, processed, failed, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.Total, run.Processed, run.Failed, run.Status)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Finish records the final counters and status of a run.
func (r *RunRepository) Finish(id string, stats model.RunStats, status string, finishedAt time.Time) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		UPDATE runs SET finished_at = ?, processed = ?, failed = ?, status = ?
		WHERE id = ?
	`, finishedAt, stats.Processed, stats.Failed, status, id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID, or nil when absent.
func (r *RunRepository) GetByID(id string) (*model.Run, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var run model.Run
	var finishedAt sql.NullTime
	err := r.db.Conn().QueryRow(`
		SELECT id, started_at, finished_at, total, processed, failed, status
		FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.StartedAt, &finishedAt, &run.Total, &run.Processed, &run.Failed, &run.Status)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}

// Recent returns the most recently started runs, newest first.
func (r *RunRepository) Recent(limit int) ([]model.Run, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, started_at, finished_at, total, processed, failed, status
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var run model.Run
		var finishedAt sql.NullTime
		if err := rows.Scan(&run.ID, &run.StartedAt, &finishedAt, &run.Total, &run.Processed, &run.Failed, &run.Status); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if finishedAt.Valid {
			run.FinishedAt = &finishedAt.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteAll removes every run record.
func (r *RunRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`DELETE FROM runs`)
	if err != nil {
		return fmt.Errorf("failed to delete runs: %w", err)
	}
	return nil
}
