package engine

import (
	"context"
	"sync"

	"github.com/mohamedkhairy/trading-kb/internal/models"
	"github.com/mohamedkhairy/trading-kb/pkg/logger"
)

// DefaultBatchWorkers is the default concurrency for batch evaluation
const DefaultBatchWorkers = 8

// BatchRequest is one symbol snapshot in a batch evaluation
type BatchRequest struct {
	Symbol     string
	Indicators *models.MarketIndicators
}

// BatchResult pairs a request with its outcome
type BatchResult struct {
	Symbol string
	Result *models.InferenceResult
	Err    error
}

// EvaluateBatch runs the engine over many snapshots concurrently.
// Results are returned in request order; a failed snapshot carries its
// error without affecting the others. The Engine is read-only during
// inference, so a single instance serves all workers.
func (e *Engine) EvaluateBatch(ctx context.Context, requests []BatchRequest, workers int) []BatchResult {
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	if workers > len(requests) {
		workers = len(requests)
	}

	results := make([]BatchResult, len(requests))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				req := requests[i]
				result, err := e.Evaluate(req.Indicators)
				results[i] = BatchResult{Symbol: req.Symbol, Result: result, Err: err}
				if err != nil {
					logger.Warn("Batch evaluation failed for symbol",
						logger.String("symbol", req.Symbol),
						logger.ErrorField(err),
					)
				}
			}
		}()
	}

	for i := range requests {
		select {
		case <-ctx.Done():
			// Mark the remaining requests as cancelled and stop feeding
			for j := i; j < len(requests); j++ {
				results[j] = BatchResult{Symbol: requests[j].Symbol, Err: ctx.Err()}
			}
			close(jobs)
			wg.Wait()
			return results
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}
