package model

import "time"

// RunStats holds the counters for one processing run. Total is fixed when
// the run starts; Processed and Failed only ever grow, and their sum never
// exceeds Total.
type RunStats struct {
	RunID     string `json:"runId"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
}

// Done reports whether every input has been accounted for.
func (s RunStats) Done() bool {
	return s.Processed+s.Failed >= s.Total
}

// Percent returns run progress in whole percent. An empty run is complete
// by definition, which also keeps the division well-defined.
func (s RunStats) Percent() int {
	if s.Total == 0 {
		return 100
	}
	return (s.Processed + s.Failed) * 100 / s.Total
}

// RunStatus values recorded in the run journal.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusCanceled = "canceled"
)

// Run is one journal record of a processing run.
type Run struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Total      int        `json:"total"`
	Processed  int        `json:"processed"`
	Failed     int        `json:"failed"`
	Status     string     `json:"status"`
}
