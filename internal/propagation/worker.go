package propagation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/star/orbitcov/internal/metrics"
)

// propagateJob is a unit of work for the worker pool.
type propagateJob struct {
	pos int
	job Job
}

// propagateResult is the output of a single spacecraft propagation.
type propagateResult struct {
	pos    int
	result Result
}

// WorkerPool manages a fixed number of goroutines for parallel propagation.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a worker pool with the given number of workers.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger,
	}
}

// PropagateBatch propagates every job on the shared sampling grid. Results
// come back in job order; a job skipped by cancellation carries ctx.Err().
func (wp *WorkerPool) PropagateBatch(ctx context.Context, jobs []Job, cfg Config) []Result {
	out := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return out
	}
	for i, j := range jobs {
		out[i] = Result{SpacecraftID: j.SpacecraftID}
	}

	jobCh := make(chan propagateJob, wp.workers*2)
	results := make(chan propagateResult, wp.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < wp.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				r := propagateSingle(ctx, j.job, cfg)
				select {
				case results <- propagateResult{pos: j.pos, result: r}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobCh)
		for i, j := range jobs {
			select {
			case jobCh <- propagateJob{pos: i, job: j}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	done := make([]bool, len(jobs))
	var successCount, errorCount int
	for r := range results {
		done[r.pos] = true
		out[r.pos] = r.result
		if r.result.Err != nil {
			errorCount++
			wp.logger.Warn("propagation failed",
				"spacecraft_id", r.result.SpacecraftID,
				"error", r.result.Err,
			)
			continue
		}
		successCount++
	}
	for i := range out {
		if !done[i] {
			out[i].Err = ctx.Err()
		}
	}

	wp.logger.Debug("propagation batch complete",
		"success", successCount,
		"errors", errorCount,
		"workers", wp.workers,
	)
	return out
}

func propagateSingle(ctx context.Context, j Job, cfg Config) Result {
	start := time.Now()
	s, err := Propagate(ctx, j.Propagator, cfg)
	states := 0
	if s != nil {
		states = len(s.Records)
	}
	metrics.RecordPropagation(j.Propagator.Name(), time.Since(start), states, err)
	return Result{SpacecraftID: j.SpacecraftID, Series: s, Err: err}
}
