package facts

import (
	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// Built-in fact vocabulary. Volatility facts are deliberately asymmetric:
// when the snapshot has no volatility reading, VOLATILITY_HIGH and
// VOLATILITY_LOW both stay false and VOLATILITY_UNKNOWN becomes true, so
// rules can distinguish "calm market" from "no data".
func builtinDefinitions() []Definition {
	return []Definition{
		{
			Name:        "RSI_OVERSOLD",
			Description: "RSI below the oversold threshold",
			Predicate: func(ind *models.MarketIndicators, t Thresholds) bool {
				return ind.RSI < t.Get(KeyRSIOversold)
			},
		},
		{
			Name:        "RSI_OVERBOUGHT",
			Description: "RSI above the overbought threshold",
			Predicate: func(ind *models.MarketIndicators, t Thresholds) bool {
				return ind.RSI > t.Get(KeyRSIOverbought)
			},
		},
		{
			Name:        "MACD_POSITIVE",
			Description: "MACD above epsilon (bullish momentum)",
			Predicate: func(ind *models.MarketIndicators, t Thresholds) bool {
				return ind.MACD > t.Get(KeyMACDEpsilon)
			},
		},
		{
			Name:        "MACD_NEGATIVE",
			Description: "MACD below negative epsilon (bearish momentum)",
			Predicate: func(ind *models.MarketIndicators, t Thresholds) bool {
				return ind.MACD < -t.Get(KeyMACDEpsilon)
			},
		},
		{
			Name:        "MACD_STRONG_POSITIVE",
			Description: "MACD above the strong-momentum threshold",
			Predicate: func(ind *models.MarketIndicators, t Thresholds) bool {
				return ind.MACD > t.Get(KeyMACDStrong)
			},
		},
		{
			Name:        "MACD_STRONG_NEGATIVE",
			Description: "MACD below the negative strong-momentum threshold",
			Predicate: func(ind *models.MarketIndicators, t Thresholds) bool {
				return ind.MACD < -t.Get(KeyMACDStrong)
			},
		},
		{
			Name:        "GOLDEN_CROSS",
			Description: "MA20 above MA50 (uptrend)",
			Predicate: func(ind *models.MarketIndicators, t Thresholds) bool {
				return ind.MA20 > ind.MA50
			},
		},
		{
			Name:        "DEATH_CROSS",
			Description: "MA20 below MA50 (downtrend)",
			Predicate: func(ind *models.MarketIndicators, t Thresholds) bool {
				return ind.MA20 < ind.MA50
			},
		},
		{
			Name:        "STRONG_UPTREND",
			Description: "MA20 above MA50 by more than the trend-strength margin",
			Predicate: func(ind *models.MarketIndicators, t Thresholds) bool {
				return ind.MA50 > 0 && ind.MA20 > ind.MA50*(1+t.Get(KeyTrendStrength))
			},
		},
		{
			Name:        "STRONG_DOWNTREND",
			Description: "MA20 below MA50 by more than the trend-strength margin",
			Predicate: func(ind *models.MarketIndicators, t Thresholds) bool {
				return ind.MA50 > 0 && ind.MA20 < ind.MA50*(1-t.Get(KeyTrendStrength))
			},
		},
		{
			Name:        "VOLUME_HIGH",
			Description: "Volume above the high-volume threshold",
			Predicate: func(ind *models.MarketIndicators, t Thresholds) bool {
				return ind.Volume > t.Get(KeyVolumeHigh)
			},
		},
		{
			Name:        "VOLUME_SURGE",
			Description: "Volume above the surge threshold (unusual activity)",
			Predicate: func(ind *models.MarketIndicators, t Thresholds) bool {
				return ind.Volume > t.Get(KeyVolumeSurge)
			},
		},
		{
			Name:        "VOLATILITY_HIGH",
			Description: "Volatility known and above the high-volatility threshold",
			Predicate: func(ind *models.MarketIndicators, t Thresholds) bool {
				return ind.HasVolatility() && *ind.Volatility > t.Get(KeyVolatilityHigh)
			},
		},
		{
			Name:        "VOLATILITY_LOW",
			Description: "Volatility known and below the high-volatility threshold",
			Predicate: func(ind *models.MarketIndicators, t Thresholds) bool {
				return ind.HasVolatility() && *ind.Volatility < t.Get(KeyVolatilityHigh)
			},
		},
		{
			Name:        models.FactVolatilityUnknown,
			Description: "Snapshot carries no volatility reading",
			Predicate: func(ind *models.MarketIndicators, t Thresholds) bool {
				return !ind.HasVolatility()
			},
		},
	}
}
