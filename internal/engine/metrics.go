package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mohamedkhairy/trading-kb/internal/models"
)

var (
	inferenceRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kb_inference_runs_total",
		Help: "Total number of inference runs by resolved action",
	}, []string{"action"})

	ruleFirings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kb_rule_firings_total",
		Help: "Total number of rule firings across all inference runs",
	})

	inferenceConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kb_inference_conflicts_total",
		Help: "Total number of runs where BUY and SELL were both derived",
	})

	inferenceTruncations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kb_inference_truncations_total",
		Help: "Total number of runs stopped by the step budget",
	})

	inferenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kb_inference_duration_seconds",
		Help:    "Duration of inference runs",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
	})
)

func observeRun(result *models.InferenceResult, elapsed time.Duration) {
	inferenceRuns.WithLabelValues(string(result.Action)).Inc()
	ruleFirings.Add(float64(len(result.FiredRules)))
	if result.Conflict {
		inferenceConflicts.Inc()
	}
	if result.Truncated {
		inferenceTruncations.Inc()
	}
	inferenceDuration.Observe(elapsed.Seconds())
}
