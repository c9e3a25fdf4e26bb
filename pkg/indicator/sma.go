package indicator

import (
	"fmt"

	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// SMA is a simple moving average of close prices over a fixed window
type SMA struct {
	period    int
	name      string
	window    []float64
	sum       float64
	processed int
}

// NewSMA creates an SMA calculator with the given period
func NewSMA(period int) (*SMA, error) {
	if period < 1 {
		return nil, fmt.Errorf("SMA period must be at least 1, got %d", period)
	}
	return &SMA{
		period: period,
		name:   fmt.Sprintf("sma_%d", period),
		window: make([]float64, 0, period),
	}, nil
}

// Name returns the indicator name
func (s *SMA) Name() string {
	return s.name
}

// Update processes a new bar
func (s *SMA) Update(bar *models.Bar) (float64, error) {
	if bar == nil {
		return 0, fmt.Errorf("bar cannot be nil")
	}

	s.window = append(s.window, bar.Close)
	s.sum += bar.Close
	s.processed++

	if len(s.window) > s.period {
		s.sum -= s.window[0]
		copy(s.window, s.window[1:])
		s.window = s.window[:len(s.window)-1]
	}

	if !s.IsReady() {
		return 0, nil
	}
	return s.sum / float64(s.period), nil
}

// Value returns the current SMA
func (s *SMA) Value() (float64, error) {
	if !s.IsReady() {
		return 0, fmt.Errorf("SMA not ready: need at least %d bars", s.period)
	}
	return s.sum / float64(s.period), nil
}

// Reset clears the window
func (s *SMA) Reset() {
	s.window = s.window[:0]
	s.sum = 0
	s.processed = 0
}

// IsReady reports whether the window is full
func (s *SMA) IsReady() bool {
	return len(s.window) >= s.period
}

// WindowSize returns the period
func (s *SMA) WindowSize() int {
	return s.period
}

// BarsProcessed returns the number of bars processed
func (s *SMA) BarsProcessed() int {
	return s.processed
}
