package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/mohamedkhairy/trading-kb/internal/models"
)

func barsFromCloses(closes ...float64) []*models.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]*models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = &models.Bar{
			Symbol:    "TEST",
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func feed(t *testing.T, calc Calculator, bars []*models.Bar) float64 {
	t.Helper()
	var last float64
	for i, bar := range bars {
		v, err := calc.Update(bar)
		if err != nil {
			t.Fatalf("Update bar %d failed: %v", i, err)
		}
		last = v
	}
	return last
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA(t *testing.T) {
	sma, err := NewSMA(3)
	if err != nil {
		t.Fatal(err)
	}

	if sma.IsReady() {
		t.Error("SMA should not be ready with no data")
	}
	if _, err := sma.Value(); err == nil {
		t.Error("Value before warm-up should fail")
	}

	last := feed(t, sma, barsFromCloses(1, 2, 3))
	if !almostEqual(last, 2) {
		t.Errorf("expected SMA 2, got %f", last)
	}

	// Window rolls: (2+3+4)/3
	last = feed(t, sma, barsFromCloses(4))
	if !almostEqual(last, 3) {
		t.Errorf("expected SMA 3, got %f", last)
	}

	sma.Reset()
	if sma.IsReady() || sma.BarsProcessed() != 0 {
		t.Error("Reset should clear state")
	}
}

func TestSMA_InvalidPeriod(t *testing.T) {
	if _, err := NewSMA(0); err == nil {
		t.Error("expected error for period 0")
	}
}

func TestEMA(t *testing.T) {
	ema, err := NewEMA(3)
	if err != nil {
		t.Fatal(err)
	}

	// Seeded with first close, multiplier 2/(3+1) = 0.5
	first := feed(t, ema, barsFromCloses(2))
	if !almostEqual(first, 2) {
		t.Errorf("expected EMA seed 2, got %f", first)
	}
	next := feed(t, ema, barsFromCloses(4))
	if !almostEqual(next, 3) {
		t.Errorf("expected EMA 3, got %f", next)
	}
}

func TestRSI(t *testing.T) {
	rsi, err := NewRSI(2)
	if err != nil {
		t.Fatal(err)
	}
	if rsi.IsReady() {
		t.Error("RSI should not be ready with no data")
	}

	// All gains: RSI pegs at 100
	last := feed(t, rsi, barsFromCloses(1, 2, 3))
	if !almostEqual(last, 100) {
		t.Errorf("expected RSI 100 on all gains, got %f", last)
	}

	// All losses: RSI pegs at 0
	down, _ := NewRSI(2)
	last = feed(t, down, barsFromCloses(3, 2, 1))
	if !almostEqual(last, 0) {
		t.Errorf("expected RSI 0 on all losses, got %f", last)
	}
}

func TestRSI_WindowSize(t *testing.T) {
	rsi, _ := NewRSI(14)
	if rsi.WindowSize() != 15 {
		t.Errorf("expected window 15, got %d", rsi.WindowSize())
	}

	// One bar short of the window: still warming up
	feed(t, rsi, barsFromCloses(make([]float64, 14)...))
	if rsi.IsReady() {
		t.Error("RSI should not be ready before period+1 bars")
	}
}

func TestMACD(t *testing.T) {
	macd, err := NewMACD(3, 6)
	if err != nil {
		t.Fatal(err)
	}

	// Rising closes: fast EMA above slow EMA, MACD positive
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	last := feed(t, macd, barsFromCloses(closes...))
	if last <= 0 {
		t.Errorf("expected positive MACD in uptrend, got %f", last)
	}

	// Falling closes: MACD negative
	down, _ := NewMACD(3, 6)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}
	last = feed(t, down, barsFromCloses(closes...))
	if last >= 0 {
		t.Errorf("expected negative MACD in downtrend, got %f", last)
	}
}

func TestMACD_InvalidPeriods(t *testing.T) {
	if _, err := NewMACD(26, 12); err == nil {
		t.Error("expected error when fast period >= slow period")
	}
}

func TestVolatility(t *testing.T) {
	vol, err := NewVolatility(2)
	if err != nil {
		t.Fatal(err)
	}
	if vol.IsReady() {
		t.Error("volatility should not be ready with no data")
	}

	// Constant prices: zero volatility
	last := feed(t, vol, barsFromCloses(100, 100, 100))
	if !almostEqual(last, 0) {
		t.Errorf("expected 0 volatility for constant prices, got %f", last)
	}

	// Returns +10% then -10%: sample stddev sqrt(0.02)
	swing, _ := NewVolatility(2)
	last = feed(t, swing, barsFromCloses(100, 110, 99))
	if !almostEqual(last, math.Sqrt(0.02)) {
		t.Errorf("expected %f, got %f", math.Sqrt(0.02), last)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	sma, _ := NewSMA(20)
	rsi, _ := NewRSI(14)
	if err := reg.Register(sma); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := reg.Register(rsi); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := reg.Register(sma); err == nil {
		t.Error("expected error on duplicate registration")
	}

	got, err := reg.Get("sma_20")
	if err != nil || got.Name() != "sma_20" {
		t.Errorf("Get(sma_20) = %v, %v", got, err)
	}

	names := reg.List()
	if len(names) != 2 || names[0] != "rsi_14" || names[1] != "sma_20" {
		t.Errorf("expected sorted [rsi_14 sma_20], got %v", names)
	}

	if err := reg.Unregister("sma_20"); err != nil {
		t.Fatalf("Unregister failed: %v", err)
	}
	if _, err := reg.Get("sma_20"); err == nil {
		t.Error("expected error after unregister")
	}
}

func TestTechanSMA_MatchesHandRolled(t *testing.T) {
	bars := barsFromCloses(10, 11, 12, 13, 14, 15)

	ours, _ := NewSMA(3)
	theirs := NewTechanSMA(3)

	ourLast := feed(t, ours, bars)
	theirLast := feed(t, theirs, bars)

	if math.Abs(ourLast-theirLast) > 1e-6 {
		t.Errorf("SMA mismatch: ours %f, techan %f", ourLast, theirLast)
	}
}
