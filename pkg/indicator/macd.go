package indicator

import (
	"fmt"

	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// MACD is the Moving Average Convergence Divergence line: the fast EMA
// minus the slow EMA of close prices. The signal line is not computed;
// the fact vocabulary only consumes the MACD line itself.
type MACD struct {
	name string
	fast *EMA
	slow *EMA
}

// NewMACD creates a MACD calculator with the given fast and slow periods
// (conventionally 12 and 26)
func NewMACD(fastPeriod, slowPeriod int) (*MACD, error) {
	if fastPeriod >= slowPeriod {
		return nil, fmt.Errorf("MACD fast period %d must be below slow period %d", fastPeriod, slowPeriod)
	}
	fast, err := NewEMA(fastPeriod)
	if err != nil {
		return nil, err
	}
	slow, err := NewEMA(slowPeriod)
	if err != nil {
		return nil, err
	}
	return &MACD{
		name: fmt.Sprintf("macd_%d_%d", fastPeriod, slowPeriod),
		fast: fast,
		slow: slow,
	}, nil
}

// Name returns the indicator name
func (m *MACD) Name() string {
	return m.name
}

// Update processes a new bar
func (m *MACD) Update(bar *models.Bar) (float64, error) {
	fastVal, err := m.fast.Update(bar)
	if err != nil {
		return 0, err
	}
	slowVal, err := m.slow.Update(bar)
	if err != nil {
		return 0, err
	}
	return fastVal - slowVal, nil
}

// Value returns the current MACD line value
func (m *MACD) Value() (float64, error) {
	fastVal, err := m.fast.Value()
	if err != nil {
		return 0, fmt.Errorf("MACD not ready: %w", err)
	}
	slowVal, err := m.slow.Value()
	if err != nil {
		return 0, fmt.Errorf("MACD not ready: %w", err)
	}
	return fastVal - slowVal, nil
}

// Reset clears both EMAs
func (m *MACD) Reset() {
	m.fast.Reset()
	m.slow.Reset()
}

// IsReady reports whether both EMAs have seen data
func (m *MACD) IsReady() bool {
	return m.fast.IsReady() && m.slow.IsReady()
}

// WindowSize returns the slow period; MACD values before that are noisy
func (m *MACD) WindowSize() int {
	return m.slow.period
}

// BarsProcessed returns the number of bars processed
func (m *MACD) BarsProcessed() int {
	return m.slow.BarsProcessed()
}
