package engine

import (
	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// ResolveAction maps a final truth assignment to a trading action.
// BUY and SELL derived together is a conflict and resolves to HOLD;
// the synthetic FALSE fact never influences the action.
func ResolveAction(truth map[string]bool) (models.Action, bool) {
	buy := truth[models.FactBuy]
	sell := truth[models.FactSell]

	switch {
	case buy && sell:
		return models.ActionHold, true
	case buy:
		return models.ActionBuy, false
	case sell:
		return models.ActionSell, false
	default:
		return models.ActionHold, false
	}
}
