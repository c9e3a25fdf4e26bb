package indicator

import (
	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// Calculator is a streaming technical indicator. Calculators consume
// bars one at a time and expose their current value once warmed up.
type Calculator interface {
	// Name returns the unique name of this indicator (e.g. "rsi_14")
	Name() string

	// Update processes a new bar and returns the updated value.
	// The value is 0 while the indicator is still warming up.
	Update(bar *models.Bar) (float64, error)

	// Value returns the current value, or an error before warm-up
	Value() (float64, error)

	// Reset clears all state
	Reset()

	// IsReady reports whether enough bars have been processed
	IsReady() bool
}

// WindowedCalculator is a Calculator with a fixed warm-up window
type WindowedCalculator interface {
	Calculator

	// WindowSize returns the number of bars required for a valid value
	WindowSize() int

	// BarsProcessed returns the number of bars processed so far
	BarsProcessed() int
}
