package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid"

	"photosorter/internal/logger"
	"photosorter/internal/model"
	"photosorter/internal/services/ai"
	"photosorter/internal/services/storage"
)

const (
	// BatchSize is how many images are classified between scheduling points.
	BatchSize = 10
)

// ErrDetectTimeout marks a detection call that exceeded the per-image time limit.
var ErrDetectTimeout = errors.New("detection timed out")

// Input is one image-bearing file handed to the pipeline.
type Input struct {
	Name string
	Data []byte
}

// ProgressFunc is invoked with a stats snapshot after every classified or
// failed image. Counters are monotonic across calls.
type ProgressFunc func(stats model.RunStats)

// Pipeline classifies images in fixed-size batches. Images are processed
// strictly sequentially; cancellation is honored at batch boundaries.
type Pipeline struct {
	detector   ai.Detector
	store      *storage.Store
	spool      *storage.Spool
	logger     *logger.Logger
	timeout    time.Duration
	onProgress ProgressFunc
}

func NewPipeline(detector ai.Detector, store *storage.Store, spool *storage.Spool, logger *logger.Logger, timeout time.Duration, onProgress ProgressFunc) *Pipeline {
	return &Pipeline{
		detector:   detector,
		store:      store,
		spool:      spool,
		logger:     logger,
		timeout:    timeout,
		onProgress: onProgress,
	}
}

// Run classifies every input, appending results to the store. Each input
// ends exactly one way: classified into one category, or counted as failed.
// A canceled context stops the run at the next batch boundary and returns
// the stats accumulated so far along with the context error.
func (p *Pipeline) Run(ctx context.Context, runID string, inputs []Input) (model.RunStats, error) {
	stats := model.RunStats{RunID: runID, Total: len(inputs)}
	p.report(stats)

	for start := 0; start < len(inputs); start += BatchSize {
		select {
		case <-ctx.Done():
			p.logger.Info("Run %s canceled after %d/%d images", runID, stats.Processed+stats.Failed, stats.Total)
			return stats, ctx.Err()
		default:
		}

		end := start + BatchSize
		if end > len(inputs) {
			end = len(inputs)
		}

		for _, input := range inputs[start:end] {
			if err := p.classifyOne(input); err != nil {
				stats.Failed++
				p.logger.Warning("Failed to classify %s: %v", input.Name, err)
			} else {
				stats.Processed++
			}
			p.report(stats)
		}
	}

	p.logger.Info("Run %s complete: %d processed, %d failed of %d", runID, stats.Processed, stats.Failed, stats.Total)
	return stats, nil
}

// classifyOne detects, counts people, spools the bytes and appends the
// result. Any error leaves no trace in the store.
func (p *Pipeline) classifyOne(input Input) error {
	detections, err := p.detect(input.Data)
	if err != nil {
		return err
	}

	personCount := ai.CountPersons(detections)

	id, err := uuid.NewV4()
	if err != nil {
		return err
	}

	handle, err := p.spool.Write(id.String(), input.Data)
	if err != nil {
		return err
	}

	p.store.Append(model.ClassifiedImage{
		ID:          id.String(),
		SourceName:  input.Name,
		Category:    model.CategoryForCount(personCount),
		PersonCount: personCount,
		ProcessedAt: time.Now(),
	}, handle)

	return nil
}

// detect bounds the detector call with the per-image timeout so one
// pathological image cannot stall the whole run.
func (p *Pipeline) detect(data []byte) ([]model.Detection, error) {
	type outcome struct {
		detections []model.Detection
		err        error
	}

	done := make(chan outcome, 1)
	go func() {
		detections, err := p.detector.Detect(data)
		done <- outcome{detections: detections, err: err}
	}()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case o := <-done:
		return o.detections, o.err
	case <-timer.C:
		return nil, ErrDetectTimeout
	}
}

func (p *Pipeline) report(stats model.RunStats) {
	if p.onProgress != nil {
		p.onProgress(stats)
	}
}
