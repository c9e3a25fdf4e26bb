package indicator

import (
	"fmt"

	"github.com/sdcoffey/techan"
)

// NewTechanRSI creates a techan-backed RSI calculator
func NewTechanRSI(period int) Calculator {
	series := techan.NewTimeSeries()
	closePrice := techan.NewClosePriceIndicator(series)
	rsi := techan.NewRelativeStrengthIndexIndicator(closePrice, period)
	return NewTechanCalculator(fmt.Sprintf("techan_rsi_%d", period), series, rsi, period+1)
}

// NewTechanSMA creates a techan-backed SMA calculator
func NewTechanSMA(period int) Calculator {
	series := techan.NewTimeSeries()
	closePrice := techan.NewClosePriceIndicator(series)
	sma := techan.NewSimpleMovingAverage(closePrice, period)
	return NewTechanCalculator(fmt.Sprintf("techan_sma_%d", period), series, sma, period)
}

// NewTechanEMA creates a techan-backed EMA calculator
func NewTechanEMA(period int) Calculator {
	series := techan.NewTimeSeries()
	closePrice := techan.NewClosePriceIndicator(series)
	ema := techan.NewEMAIndicator(closePrice, period)
	return NewTechanCalculator(fmt.Sprintf("techan_ema_%d", period), series, ema, period)
}

// NewTechanMACD creates a techan-backed MACD line calculator
func NewTechanMACD(fastPeriod, slowPeriod int) Calculator {
	series := techan.NewTimeSeries()
	closePrice := techan.NewClosePriceIndicator(series)
	macd := techan.NewMACDIndicator(closePrice, fastPeriod, slowPeriod)
	return NewTechanCalculator(fmt.Sprintf("techan_macd_%d_%d", fastPeriod, slowPeriod), series, macd, slowPeriod)
}
