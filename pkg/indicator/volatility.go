package indicator

import (
	"fmt"
	"math"

	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// Volatility is the sample standard deviation of close-to-close simple
// returns over a fixed window. It stays not-ready until the window is
// full, letting callers distinguish "calm market" from "not enough
// history".
type Volatility struct {
	window    int
	name      string
	prevClose float64
	havePrev  bool
	returns   []float64
	processed int
}

// NewVolatility creates a volatility calculator over the given return
// window (typically 20 bars)
func NewVolatility(window int) (*Volatility, error) {
	if window < 2 {
		return nil, fmt.Errorf("volatility window must be at least 2, got %d", window)
	}
	return &Volatility{
		window:  window,
		name:    fmt.Sprintf("volatility_%d", window),
		returns: make([]float64, 0, window),
	}, nil
}

// Name returns the indicator name
func (v *Volatility) Name() string {
	return v.name
}

// Update processes a new bar
func (v *Volatility) Update(bar *models.Bar) (float64, error) {
	if bar == nil {
		return 0, fmt.Errorf("bar cannot be nil")
	}
	v.processed++

	if !v.havePrev {
		v.prevClose = bar.Close
		v.havePrev = true
		return 0, nil
	}

	var ret float64
	if v.prevClose != 0 {
		ret = (bar.Close - v.prevClose) / v.prevClose
	}
	v.prevClose = bar.Close

	v.returns = append(v.returns, ret)
	if len(v.returns) > v.window {
		copy(v.returns, v.returns[1:])
		v.returns = v.returns[:len(v.returns)-1]
	}

	if !v.IsReady() {
		return 0, nil
	}
	return v.current(), nil
}

func (v *Volatility) current() float64 {
	n := len(v.returns)
	var mean float64
	for _, r := range v.returns {
		mean += r
	}
	mean /= float64(n)

	var sumSq float64
	for _, r := range v.returns {
		d := r - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// Value returns the current volatility
func (v *Volatility) Value() (float64, error) {
	if !v.IsReady() {
		return 0, fmt.Errorf("volatility not ready: need at least %d bars", v.window+1)
	}
	return v.current(), nil
}

// Reset clears all state
func (v *Volatility) Reset() {
	v.returns = v.returns[:0]
	v.prevClose = 0
	v.havePrev = false
	v.processed = 0
}

// IsReady reports whether the return window is full
func (v *Volatility) IsReady() bool {
	return len(v.returns) >= v.window
}

// WindowSize returns window + 1 (a return needs two bars)
func (v *Volatility) WindowSize() int {
	return v.window + 1
}

// BarsProcessed returns the number of bars processed
func (v *Volatility) BarsProcessed() int {
	return v.processed
}
