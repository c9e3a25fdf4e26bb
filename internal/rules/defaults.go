package rules

import (
	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// DefaultTradingRules returns the built-in rule library, organized by
// strategy style:
//
//   - momentum continuation: ride confirmed trends
//   - mean reversion: enter on pullbacks within a trend
//   - volume confirmed: require unusual volume behind the move
//   - conservative: every signal aligned, lower risk
//   - aggressive: fewer conditions, faster entry
//   - low volatility: stable-trend entries
//
// Parameter-search and evolution tooling treats this library as the
// starting population; it is not special to the engine in any way.
func DefaultTradingRules() *Set {
	set, err := NewSet(
		// Momentum continuation
		&models.HornRule{
			ID: "BUY_MOMENTUM_1",
			Premises: []models.Literal{
				{Symbol: "RSI_OVERSOLD"},
				{Symbol: "MACD_POSITIVE"},
				{Symbol: "GOLDEN_CROSS"},
				{Symbol: "VOLATILITY_HIGH", Negated: true},
			},
			Conclusion:  models.FactBuy,
			Description: "Classic momentum buy: oversold RSI + positive MACD + uptrend, avoid high volatility",
		},
		&models.HornRule{
			ID: "BUY_MOMENTUM_STRONG",
			Premises: []models.Literal{
				{Symbol: "STRONG_UPTREND"},
				{Symbol: "MACD_STRONG_POSITIVE"},
				{Symbol: "VOLUME_HIGH"},
			},
			Conclusion:  models.FactBuy,
			Description: "Strong momentum buy: confirmed uptrend with strong MACD and volume",
		},
		&models.HornRule{
			ID: "SELL_MOMENTUM_1",
			Premises: []models.Literal{
				{Symbol: "RSI_OVERBOUGHT"},
				{Symbol: "MACD_NEGATIVE"},
				{Symbol: "DEATH_CROSS"},
			},
			Conclusion:  models.FactSell,
			Description: "Classic momentum sell: overbought RSI + negative MACD + downtrend",
		},
		&models.HornRule{
			ID: "SELL_MOMENTUM_STRONG",
			Premises: []models.Literal{
				{Symbol: "STRONG_DOWNTREND"},
				{Symbol: "MACD_STRONG_NEGATIVE"},
				{Symbol: "VOLUME_HIGH"},
			},
			Conclusion:  models.FactSell,
			Description: "Strong momentum sell: confirmed downtrend with strong bearish MACD and volume",
		},
		// Mean reversion (pullback entries)
		&models.HornRule{
			ID: "BUY_PULLBACK",
			Premises: []models.Literal{
				{Symbol: "GOLDEN_CROSS"},
				{Symbol: "RSI_OVERSOLD"},
				{Symbol: "VOLATILITY_HIGH", Negated: true},
			},
			Conclusion:  models.FactBuy,
			Description: "Pullback buy: temporarily oversold in an uptrend - buy the dip",
		},
		&models.HornRule{
			ID: "SELL_RALLY",
			Premises: []models.Literal{
				{Symbol: "DEATH_CROSS"},
				{Symbol: "RSI_OVERBOUGHT"},
				{Symbol: "VOLATILITY_HIGH", Negated: true},
			},
			Conclusion:  models.FactSell,
			Description: "Rally sell: temporarily overbought in a downtrend - sell the rip",
		},
		// Volume confirmed
		&models.HornRule{
			ID: "BUY_VOLUME_BREAKOUT",
			Premises: []models.Literal{
				{Symbol: "GOLDEN_CROSS"},
				{Symbol: "MACD_POSITIVE"},
				{Symbol: "VOLUME_SURGE"},
			},
			Conclusion:  models.FactBuy,
			Description: "Volume breakout buy: uptrend confirmed by unusual volume surge",
		},
		&models.HornRule{
			ID: "SELL_VOLUME_BREAKDOWN",
			Premises: []models.Literal{
				{Symbol: "DEATH_CROSS"},
				{Symbol: "MACD_NEGATIVE"},
				{Symbol: "VOLUME_SURGE"},
			},
			Conclusion:  models.FactSell,
			Description: "Volume breakdown sell: downtrend confirmed by unusual volume surge",
		},
		// Conservative (multiple confirmations)
		&models.HornRule{
			ID: "BUY_CONSERVATIVE",
			Premises: []models.Literal{
				{Symbol: "RSI_OVERSOLD"},
				{Symbol: "MACD_POSITIVE"},
				{Symbol: "GOLDEN_CROSS"},
				{Symbol: "VOLUME_HIGH"},
				{Symbol: "VOLATILITY_HIGH", Negated: true},
			},
			Conclusion:  models.FactBuy,
			Description: "Conservative buy: oversold, positive momentum, uptrend, volume, low volatility",
		},
		&models.HornRule{
			ID: "SELL_CONSERVATIVE",
			Premises: []models.Literal{
				{Symbol: "RSI_OVERBOUGHT"},
				{Symbol: "MACD_NEGATIVE"},
				{Symbol: "DEATH_CROSS"},
				{Symbol: "VOLUME_HIGH"},
				{Symbol: "VOLATILITY_HIGH", Negated: true},
			},
			Conclusion:  models.FactSell,
			Description: "Conservative sell: overbought, negative momentum, downtrend, volume, low volatility",
		},
		// Aggressive (faster entry, fewer conditions)
		&models.HornRule{
			ID: "BUY_AGGRESSIVE",
			Premises: []models.Literal{
				{Symbol: "RSI_OVERSOLD"},
				{Symbol: "STRONG_UPTREND"},
			},
			Conclusion:  models.FactBuy,
			Description: "Aggressive buy: oversold in strong uptrend - fast entry",
		},
		&models.HornRule{
			ID: "SELL_AGGRESSIVE",
			Premises: []models.Literal{
				{Symbol: "RSI_OVERBOUGHT"},
				{Symbol: "STRONG_DOWNTREND"},
			},
			Conclusion:  models.FactSell,
			Description: "Aggressive sell: overbought in strong downtrend - fast exit",
		},
		// Low volatility opportunities
		&models.HornRule{
			ID: "BUY_LOW_VOL",
			Premises: []models.Literal{
				{Symbol: "GOLDEN_CROSS"},
				{Symbol: "MACD_POSITIVE"},
				{Symbol: "VOLATILITY_LOW"},
			},
			Conclusion:  models.FactBuy,
			Description: "Low volatility buy: stable uptrend with positive momentum",
		},
		&models.HornRule{
			ID: "SELL_LOW_VOL",
			Premises: []models.Literal{
				{Symbol: "DEATH_CROSS"},
				{Symbol: "MACD_NEGATIVE"},
				{Symbol: "VOLATILITY_LOW"},
			},
			Conclusion:  models.FactSell,
			Description: "Low volatility sell: stable downtrend with negative momentum",
		},
	)
	if err != nil {
		// The library is static; a construction error is a programming bug
		panic("default trading rules: " + err.Error())
	}
	return set
}
