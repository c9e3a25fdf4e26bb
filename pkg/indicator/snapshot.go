package indicator

import (
	"fmt"

	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// SnapshotConfig selects the indicator periods used to build a
// MarketIndicators snapshot
type SnapshotConfig struct {
	RSIPeriod        int // default 14
	MACDFast         int // default 12
	MACDSlow         int // default 26
	FastMAPeriod     int // default 20
	SlowMAPeriod     int // default 50
	VolatilityWindow int // default 20
}

// DefaultSnapshotConfig returns the conventional daily-bar periods
func DefaultSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{
		RSIPeriod:        14,
		MACDFast:         12,
		MACDSlow:         26,
		FastMAPeriod:     20,
		SlowMAPeriod:     50,
		VolatilityWindow: 20,
	}
}

func (c *SnapshotConfig) applyDefaults() {
	defaults := DefaultSnapshotConfig()
	if c.RSIPeriod <= 0 {
		c.RSIPeriod = defaults.RSIPeriod
	}
	if c.MACDFast <= 0 {
		c.MACDFast = defaults.MACDFast
	}
	if c.MACDSlow <= 0 {
		c.MACDSlow = defaults.MACDSlow
	}
	if c.FastMAPeriod <= 0 {
		c.FastMAPeriod = defaults.FastMAPeriod
	}
	if c.SlowMAPeriod <= 0 {
		c.SlowMAPeriod = defaults.SlowMAPeriod
	}
	if c.VolatilityWindow <= 0 {
		c.VolatilityWindow = defaults.VolatilityWindow
	}
}

// SnapshotBuilder streams bars through the indicator set the fact
// vocabulary consumes and assembles MarketIndicators snapshots.
// Volatility is optional: until its window fills, snapshots carry a nil
// Volatility and downstream rules see VOLATILITY_UNKNOWN.
type SnapshotBuilder struct {
	rsi        *RSI
	macd       *MACD
	fastMA     *SMA
	slowMA     *SMA
	volatility *Volatility
	lastVolume float64
	processed  int
}

// NewSnapshotBuilder creates a builder with the given periods
func NewSnapshotBuilder(config SnapshotConfig) (*SnapshotBuilder, error) {
	config.applyDefaults()
	if config.FastMAPeriod >= config.SlowMAPeriod {
		return nil, fmt.Errorf("fast MA period %d must be below slow MA period %d",
			config.FastMAPeriod, config.SlowMAPeriod)
	}

	rsi, err := NewRSI(config.RSIPeriod)
	if err != nil {
		return nil, err
	}
	macd, err := NewMACD(config.MACDFast, config.MACDSlow)
	if err != nil {
		return nil, err
	}
	fastMA, err := NewSMA(config.FastMAPeriod)
	if err != nil {
		return nil, err
	}
	slowMA, err := NewSMA(config.SlowMAPeriod)
	if err != nil {
		return nil, err
	}
	volatility, err := NewVolatility(config.VolatilityWindow)
	if err != nil {
		return nil, err
	}

	return &SnapshotBuilder{
		rsi:        rsi,
		macd:       macd,
		fastMA:     fastMA,
		slowMA:     slowMA,
		volatility: volatility,
	}, nil
}

// Add feeds one bar into every underlying indicator
func (b *SnapshotBuilder) Add(bar *models.Bar) error {
	if bar == nil {
		return fmt.Errorf("bar cannot be nil")
	}
	if err := bar.Validate(); err != nil {
		return fmt.Errorf("invalid bar: %w", err)
	}

	for _, calc := range []Calculator{b.rsi, b.macd, b.fastMA, b.slowMA, b.volatility} {
		if _, err := calc.Update(bar); err != nil {
			return fmt.Errorf("%s: %w", calc.Name(), err)
		}
	}
	b.lastVolume = float64(bar.Volume)
	b.processed++
	return nil
}

// Ready reports whether enough bars have been seen to emit a snapshot.
// The slow MA has the longest warm-up, so it is the gate.
func (b *SnapshotBuilder) Ready() bool {
	return b.rsi.IsReady() && b.macd.IsReady() && b.fastMA.IsReady() && b.slowMA.IsReady()
}

// BarsProcessed returns the number of bars consumed so far
func (b *SnapshotBuilder) BarsProcessed() int {
	return b.processed
}

// Snapshot assembles the current MarketIndicators. Volatility is nil if
// its window has not filled yet.
func (b *SnapshotBuilder) Snapshot() (*models.MarketIndicators, error) {
	if !b.Ready() {
		return nil, fmt.Errorf("snapshot not ready: need %d bars, have %d",
			b.slowMA.WindowSize(), b.processed)
	}

	rsi, err := b.rsi.Value()
	if err != nil {
		return nil, err
	}
	macd, err := b.macd.Value()
	if err != nil {
		return nil, err
	}
	fastMA, err := b.fastMA.Value()
	if err != nil {
		return nil, err
	}
	slowMA, err := b.slowMA.Value()
	if err != nil {
		return nil, err
	}

	snapshot := &models.MarketIndicators{
		RSI:    rsi,
		MACD:   macd,
		MA20:   fastMA,
		MA50:   slowMA,
		Volume: b.lastVolume,
	}
	if b.volatility.IsReady() {
		vol, err := b.volatility.Value()
		if err != nil {
			return nil, err
		}
		snapshot.Volatility = &vol
	}
	return snapshot, nil
}

// Reset clears every underlying indicator
func (b *SnapshotBuilder) Reset() {
	b.rsi.Reset()
	b.macd.Reset()
	b.fastMA.Reset()
	b.slowMA.Reset()
	b.volatility.Reset()
	b.lastVolume = 0
	b.processed = 0
}

// BuildSnapshot is a convenience over a full bar history
func BuildSnapshot(bars []*models.Bar, config SnapshotConfig) (*models.MarketIndicators, error) {
	builder, err := NewSnapshotBuilder(config)
	if err != nil {
		return nil, err
	}
	for i, bar := range bars {
		if err := builder.Add(bar); err != nil {
			return nil, fmt.Errorf("bar %d: %w", i, err)
		}
	}
	return builder.Snapshot()
}
