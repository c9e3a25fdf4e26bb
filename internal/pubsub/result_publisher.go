package pubsub

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mohamedkhairy/trading-kb/internal/models"
	"github.com/mohamedkhairy/trading-kb/internal/storage"
	"github.com/mohamedkhairy/trading-kb/pkg/logger"
)

var (
	publishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kb_result_publish_total",
			Help: "Total number of inference results published",
		},
		[]string{"channel"},
	)

	publishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kb_result_publish_errors_total",
			Help: "Total number of result publish errors",
		},
		[]string{"channel"},
	)

	publishLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kb_result_publish_latency_seconds",
			Help:    "Result publish latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"channel"},
	)
)

// ResultPublisherConfig holds configuration for the result publisher
type ResultPublisherConfig struct {
	Channel       string
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultResultPublisherConfig returns default configuration
func DefaultResultPublisherConfig() ResultPublisherConfig {
	return ResultPublisherConfig{
		Channel:       "kb:results",
		RetryAttempts: 3,
		RetryDelay:    100 * time.Millisecond,
	}
}

// ResultEvent is the message envelope published for each inference run
type ResultEvent struct {
	Symbol string                  `json:"symbol"`
	Result *models.InferenceResult `json:"result"`
}

// ResultPublisher fans out inference results over a Redis channel so
// downstream consumers (dashboards, research workers) see every
// recommendation as it is made.
type ResultPublisher struct {
	config ResultPublisherConfig
	redis  storage.RedisClient
}

// NewResultPublisher creates a result publisher over the given Redis client
func NewResultPublisher(redis storage.RedisClient, config ResultPublisherConfig) (*ResultPublisher, error) {
	if redis == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if config.Channel == "" {
		return nil, fmt.Errorf("channel cannot be empty")
	}
	if config.RetryAttempts < 1 {
		config.RetryAttempts = 1
	}
	return &ResultPublisher{config: config, redis: redis}, nil
}

// Publish sends a single result event, retrying transient failures
func (p *ResultPublisher) Publish(ctx context.Context, symbol string, result *models.InferenceResult) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}

	event := ResultEvent{Symbol: symbol, Result: result}
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt < p.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.config.RetryDelay):
			}
		}

		if err := p.redis.Publish(ctx, p.config.Channel, event); err != nil {
			lastErr = err
			continue
		}

		publishTotal.WithLabelValues(p.config.Channel).Inc()
		publishLatency.WithLabelValues(p.config.Channel).Observe(time.Since(start).Seconds())
		return nil
	}

	publishErrors.WithLabelValues(p.config.Channel).Inc()
	logger.Warn("Failed to publish inference result",
		logger.String("channel", p.config.Channel),
		logger.String("run_id", result.ID),
		logger.Int("attempts", p.config.RetryAttempts),
		logger.ErrorField(lastErr),
	)
	return fmt.Errorf("publish failed after %d attempts: %w", p.config.RetryAttempts, lastErr)
}
