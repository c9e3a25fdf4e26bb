package indicator

import (
	"fmt"
	"math"

	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// RSI is the Relative Strength Index over close-to-close changes.
// RSI = 100 - (100 / (1 + avgGain/avgLoss)), with Wilder's smoothing
// after the initial simple average.
type RSI struct {
	period    int
	name      string
	prevClose float64
	havePrev  bool
	changes   int
	avgGain   float64
	avgLoss   float64
	sumGain   float64
	sumLoss   float64
}

// NewRSI creates an RSI calculator with the given period (typically 14)
func NewRSI(period int) (*RSI, error) {
	if period < 2 {
		return nil, fmt.Errorf("RSI period must be at least 2, got %d", period)
	}
	return &RSI{
		period: period,
		name:   fmt.Sprintf("rsi_%d", period),
	}, nil
}

// Name returns the indicator name
func (r *RSI) Name() string {
	return r.name
}

// Update processes a new bar
func (r *RSI) Update(bar *models.Bar) (float64, error) {
	if bar == nil {
		return 0, fmt.Errorf("bar cannot be nil")
	}

	if !r.havePrev {
		r.prevClose = bar.Close
		r.havePrev = true
		return 0, nil
	}

	change := bar.Close - r.prevClose
	r.prevClose = bar.Close

	var gain, loss float64
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}
	r.changes++

	switch {
	case r.changes < r.period:
		r.sumGain += gain
		r.sumLoss += loss
		return 0, nil
	case r.changes == r.period:
		// Initial averages are simple means over the first period
		r.sumGain += gain
		r.sumLoss += loss
		r.avgGain = r.sumGain / float64(r.period)
		r.avgLoss = r.sumLoss / float64(r.period)
	default:
		// Wilder's smoothing
		r.avgGain = (r.avgGain*float64(r.period-1) + gain) / float64(r.period)
		r.avgLoss = (r.avgLoss*float64(r.period-1) + loss) / float64(r.period)
	}

	return r.current(), nil
}

func (r *RSI) current() float64 {
	if r.avgLoss == 0 {
		return 100.0
	}
	rs := r.avgGain / r.avgLoss
	rsi := 100.0 - (100.0 / (1.0 + rs))
	if math.IsNaN(rsi) || math.IsInf(rsi, 0) {
		return 50.0
	}
	return math.Max(0.0, math.Min(100.0, rsi))
}

// Value returns the current RSI
func (r *RSI) Value() (float64, error) {
	if !r.IsReady() {
		return 0, fmt.Errorf("RSI not ready: need at least %d bars", r.period+1)
	}
	return r.current(), nil
}

// Reset clears all state
func (r *RSI) Reset() {
	*r = RSI{period: r.period, name: r.name}
}

// IsReady reports whether a full period of changes has been observed
func (r *RSI) IsReady() bool {
	return r.changes >= r.period
}

// WindowSize returns period + 1 (a change needs two bars)
func (r *RSI) WindowSize() int {
	return r.period + 1
}

// BarsProcessed returns the number of bars processed
func (r *RSI) BarsProcessed() int {
	if !r.havePrev {
		return 0
	}
	return r.changes + 1
}
