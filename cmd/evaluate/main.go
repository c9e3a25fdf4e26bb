package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/mohamedkhairy/trading-kb/internal/engine"
	"github.com/mohamedkhairy/trading-kb/internal/facts"
	"github.com/mohamedkhairy/trading-kb/internal/models"
	"github.com/mohamedkhairy/trading-kb/internal/rules"
	"github.com/mohamedkhairy/trading-kb/pkg/logger"
)

// evaluate runs a single inference pass from the command line: indicator
// values in, trading action and derivation trace out. Useful for trying
// out rule files without standing up the API.
func main() {
	var (
		ruleFile   = flag.String("rules", "", "path to a rule file (defaults to the built-in rule library)")
		rsi        = flag.Float64("rsi", 50, "RSI value (0-100)")
		macd       = flag.Float64("macd", 0, "MACD histogram value")
		ma20       = flag.Float64("ma20", 0, "20-period moving average")
		ma50       = flag.Float64("ma50", 0, "50-period moving average")
		volume     = flag.Float64("volume", 0, "trading volume")
		volatility = flag.Float64("volatility", -1, "volatility (negative means unknown)")
		maxSteps   = flag.Int("max-steps", engine.DefaultMaxSteps, "rule firing budget per run")
		asJSON     = flag.Bool("json", false, "emit the full inference result as JSON")
		logLevel   = flag.String("log-level", "error", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	if err := logger.Init(*logLevel, "development"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	set, err := loadRules(*ruleFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load rules: %v\n", err)
		os.Exit(1)
	}

	eng, err := engine.New(set, facts.NewRegistry(), nil, engine.Config{MaxSteps: *maxSteps})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build engine: %v\n", err)
		os.Exit(1)
	}

	indicators := &models.MarketIndicators{
		RSI:    *rsi,
		MACD:   *macd,
		MA20:   *ma20,
		MA50:   *ma50,
		Volume: *volume,
	}
	if *volatility >= 0 {
		v := *volatility
		indicators.Volatility = &v
	}

	result, err := eng.Evaluate(indicators)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Evaluation failed: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println(engine.Summarize(result))
}

func loadRules(path string) (*rules.Set, error) {
	if path == "" {
		return rules.DefaultTradingRules(), nil
	}
	return rules.LoadSetFromFile(path)
}
