package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"photosorter/internal/logger"
	"photosorter/internal/model"
	"photosorter/internal/repository"
	"photosorter/internal/services/ai"
	"photosorter/internal/services/pipeline"
	"photosorter/internal/services/storage"
	"photosorter/internal/services/websocket"
)

// Manager owns the run lifecycle. At most one run is in flight; starting a
// new one cancels the old run, releases its results and starts fresh.
type Manager struct {
	detector         ai.Detector
	store            *storage.Store
	spool            *storage.Spool
	hub              *websocket.HubService
	runs             repository.RunRepository // nil when the journal is unavailable
	logger           *logger.Logger
	detectionTimeout time.Duration

	// startMu serializes run replacement; mu guards the snapshot fields.
	startMu sync.Mutex
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stats   model.RunStats
}

func NewManager(detector ai.Detector, store *storage.Store, spool *storage.Spool, hub *websocket.HubService, runs repository.RunRepository, logger *logger.Logger, detectionTimeout time.Duration) *Manager {
	return &Manager{
		detector:         detector,
		store:            store,
		spool:            spool,
		hub:              hub,
		runs:             runs,
		logger:           logger,
		detectionTimeout: detectionTimeout,
	}
}

// StartRun begins classifying the given already-filtered inputs. An in-flight
// run is canceled and its results cleared first. The returned stats are the
// run's starting snapshot; completion is signaled over the progress hub.
func (m *Manager) StartRun(inputs []pipeline.Input) (model.RunStats, error) {
	if !m.detector.Ready() {
		return model.RunStats{}, ai.ErrModelUnavailable
	}

	m.startMu.Lock()
	defer m.startMu.Unlock()

	m.cancelCurrent()

	id, err := uuid.NewV4()
	if err != nil {
		return model.RunStats{}, err
	}
	runID := id.String()

	// Prior results and their spool files go away before the new run starts.
	m.store.Clear()

	stats := model.RunStats{RunID: runID, Total: len(inputs)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	m.mu.Lock()
	m.cancel = cancel
	m.done = done
	m.stats = stats
	m.mu.Unlock()

	if m.runs != nil {
		err := m.runs.Insert(&model.Run{
			ID:        runID,
			StartedAt: time.Now(),
			Total:     len(inputs),
			Status:    model.RunStatusRunning,
		})
		if err != nil {
			m.logger.Error("Failed to journal run start: %v", err)
		}
	}

	m.logger.Info("Starting run %s with %d images", runID, len(inputs))

	p := pipeline.NewPipeline(m.detector, m.store, m.spool, m.logger, m.detectionTimeout, m.publishProgress)
	go func() {
		defer close(done)
		defer cancel()

		final, runErr := p.Run(ctx, runID, inputs)

		status := model.RunStatusComplete
		if runErr != nil {
			status = model.RunStatusCanceled
		}

		if m.runs != nil {
			if err := m.runs.Finish(runID, final, status, time.Now()); err != nil {
				m.logger.Error("Failed to journal run finish: %v", err)
			}
		}

		m.publishFrame(status, final)
	}()

	return stats, nil
}

// cancelCurrent stops the in-flight run, if any, and waits for it to wind down.
func (m *Manager) cancelCurrent() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Busy reports whether a run is in flight.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Stats returns a snapshot of the latest run's counters.
func (m *Manager) Stats() model.RunStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Stop cancels any in-flight run and releases all stored results.
func (m *Manager) Stop() {
	m.startMu.Lock()
	defer m.startMu.Unlock()

	m.cancelCurrent()
	m.store.Clear()
	m.logger.Info("Manager stopped, all results released")
}

func (m *Manager) GetStore() *storage.Store {
	return m.store
}
func (m *Manager) GetHub() *websocket.HubService {
	return m.hub
}
func (m *Manager) GetRunRepository() repository.RunRepository {
	return m.runs
}

// publishProgress records the pipeline's latest counters and fans them out.
// Snapshots from a superseded run are dropped.
func (m *Manager) publishProgress(stats model.RunStats) {
	m.mu.Lock()
	if stats.RunID != m.stats.RunID {
		m.mu.Unlock()
		return
	}
	m.stats = stats
	m.mu.Unlock()

	m.publishFrame("progress", stats)
}

type progressFrame struct {
	Type      string `json:"type"`
	RunID     string `json:"runId"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Percent   int    `json:"percent"`
}

func (m *Manager) publishFrame(frameType string, stats model.RunStats) {
	frame := progressFrame{
		Type:      frameType,
		RunID:     stats.RunID,
		Total:     stats.Total,
		Processed: stats.Processed,
		Failed:    stats.Failed,
		Percent:   stats.Percent(),
	}

	msg, err := json.Marshal(frame)
	if err != nil {
		m.logger.Error("Failed to encode progress frame: %v", err)
		return
	}
	m.hub.Broadcast(msg)
}
