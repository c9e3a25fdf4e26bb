package indicator

import (
	"fmt"
	"math"

	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// EMA is an exponential moving average of close prices.
// Seeded with the first close; multiplier is 2 / (period + 1).
type EMA struct {
	period     int
	name       string
	multiplier float64
	value      float64
	ready      bool
	processed  int
}

// NewEMA creates an EMA calculator with the given period
func NewEMA(period int) (*EMA, error) {
	if period < 1 {
		return nil, fmt.Errorf("EMA period must be at least 1, got %d", period)
	}
	return &EMA{
		period:     period,
		name:       fmt.Sprintf("ema_%d", period),
		multiplier: 2.0 / float64(period+1),
	}, nil
}

// Name returns the indicator name
func (e *EMA) Name() string {
	return e.name
}

// Update processes a new bar
func (e *EMA) Update(bar *models.Bar) (float64, error) {
	if bar == nil {
		return 0, fmt.Errorf("bar cannot be nil")
	}

	price := bar.Close
	e.processed++

	if !e.ready {
		e.value = price
		e.ready = true
		return e.value, nil
	}

	e.value = (price-e.value)*e.multiplier + e.value
	if math.IsNaN(e.value) || math.IsInf(e.value, 0) {
		e.value = price
	}
	return e.value, nil
}

// Value returns the current EMA
func (e *EMA) Value() (float64, error) {
	if !e.ready {
		return 0, fmt.Errorf("EMA not ready: need at least 1 bar")
	}
	return e.value, nil
}

// Reset clears the state
func (e *EMA) Reset() {
	e.value = 0
	e.ready = false
	e.processed = 0
}

// IsReady reports whether at least one bar was processed
func (e *EMA) IsReady() bool {
	return e.ready
}

// WindowSize returns 1; an EMA produces a value immediately
func (e *EMA) WindowSize() int {
	return 1
}

// BarsProcessed returns the number of bars processed
func (e *EMA) BarsProcessed() int {
	return e.processed
}
