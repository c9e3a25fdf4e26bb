package indicator

import (
	"fmt"
	"time"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"

	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// TechanCalculator wraps a techan indicator behind the Calculator
// interface, mainly to cross-check the hand-rolled calculators and to
// make the rest of the techan indicator catalog available.
type TechanCalculator struct {
	name      string
	series    *techan.TimeSeries
	indicator techan.Indicator
	period    int
	barPeriod time.Duration
	ready     bool
}

// NewTechanCalculator wraps an indicator built over the given series.
// The indicator must have been constructed from the same series.
func NewTechanCalculator(name string, series *techan.TimeSeries, ind techan.Indicator, period int) *TechanCalculator {
	return &TechanCalculator{
		name:      name,
		series:    series,
		indicator: ind,
		period:    period,
		barPeriod: 24 * time.Hour,
	}
}

// Name returns the indicator name
func (t *TechanCalculator) Name() string {
	return t.name
}

// Update appends the bar as a candle and recalculates
func (t *TechanCalculator) Update(bar *models.Bar) (float64, error) {
	if bar == nil {
		return 0, fmt.Errorf("bar cannot be nil")
	}

	candle := techan.NewCandle(techan.NewTimePeriod(bar.Timestamp, t.barPeriod))
	candle.OpenPrice = big.NewDecimal(bar.Open)
	candle.MaxPrice = big.NewDecimal(bar.High)
	candle.MinPrice = big.NewDecimal(bar.Low)
	candle.ClosePrice = big.NewDecimal(bar.Close)
	candle.Volume = big.NewDecimal(float64(bar.Volume))

	t.series.AddCandle(candle)

	lastIndex := t.series.LastIndex()
	if lastIndex < 0 {
		return 0, nil
	}

	value := t.indicator.Calculate(lastIndex).Float()
	if lastIndex+1 >= t.period && value == value { // NaN check
		t.ready = true
	}
	if !t.ready {
		return 0, nil
	}
	return value, nil
}

// Value returns the current indicator value
func (t *TechanCalculator) Value() (float64, error) {
	if !t.ready {
		return 0, fmt.Errorf("%s not ready: need at least %d bars", t.name, t.period)
	}
	return t.indicator.Calculate(t.series.LastIndex()).Float(), nil
}

// Reset is not supported for techan-backed calculators; the indicator is
// bound to its series. Callers should build a fresh calculator instead.
func (t *TechanCalculator) Reset() {
	t.ready = false
}

// IsReady reports whether the warm-up period has elapsed
func (t *TechanCalculator) IsReady() bool {
	return t.ready
}

// WindowSize returns the warm-up period
func (t *TechanCalculator) WindowSize() int {
	return t.period
}

// BarsProcessed returns the number of candles in the series
func (t *TechanCalculator) BarsProcessed() int {
	return t.series.LastIndex() + 1
}
