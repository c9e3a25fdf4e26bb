package engine

import (
	"fmt"
	"strings"

	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// Summarize renders a human-readable account of an inference run, one
// line per derivation step followed by the resolved action. Used by the
// CLI and the evaluate endpoint's summary field.
func Summarize(result *models.InferenceResult) string {
	var b strings.Builder

	if len(result.Chain) == 0 {
		b.WriteString("No rules fired; no signal facts were derived.\n")
	} else {
		fmt.Fprintf(&b, "%d rule(s) fired:\n", len(result.Chain))
		for i, step := range result.Chain {
			premises := make([]string, len(step.Premises))
			for j, lit := range step.Premises {
				premises[j] = lit.String()
			}
			if len(premises) == 0 {
				fmt.Fprintf(&b, "  %d. %s asserted %s\n", i+1, step.RuleID, step.AddedFact)
				continue
			}
			fmt.Fprintf(&b, "  %d. %s: %s => %s\n",
				i+1, step.RuleID, strings.Join(premises, " AND "), step.AddedFact)
		}
	}

	if result.Conflict {
		b.WriteString("Conflicting BUY and SELL signals; resolved to HOLD.\n")
	}
	if result.Truncated {
		b.WriteString("Inference stopped at the step budget before reaching a fixed point.\n")
	}

	fmt.Fprintf(&b, "Action: %s\n", result.Action)
	return b.String()
}
