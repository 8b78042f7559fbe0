package repository

import (
	"time"

	"photosorter/internal/model"
)

// RunRepository journals processing runs. Only run counters are recorded;
// classification results themselves live in memory only.
type RunRepository interface {
	// Create operations
	Insert(run *model.Run) error

	// Update operations
	Finish(id string, stats model.RunStats, status string, finishedAt time.Time) error

	// Read operations
	GetByID(id string) (*model.Run, error)
	Recent(limit int) ([]model.Run, error)

	// Delete operations
	DeleteAll() error
}
