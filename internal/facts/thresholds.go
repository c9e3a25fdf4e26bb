package facts

// Threshold keys recognized by the built-in fact definitions
const (
	KeyRSIOversold    = "rsi_oversold"
	KeyRSIOverbought  = "rsi_overbought"
	KeyMACDEpsilon    = "macd_epsilon"
	KeyMACDStrong     = "macd_strong"
	KeyVolumeHigh     = "volume_high"
	KeyVolumeSurge    = "volume_surge"
	KeyVolatilityHigh = "volatility_high"
	KeyTrendStrength  = "trend_strength"
)

// Default threshold values, used when a key is not supplied
const (
	DefaultRSIOversold    = 30.0
	DefaultRSIOverbought  = 70.0
	DefaultMACDEpsilon    = 0.0
	DefaultMACDStrong     = 0.5
	DefaultVolumeHigh     = 1_000_000.0
	DefaultVolumeSurge    = 2_500_000.0
	DefaultVolatilityHigh = 0.03
	DefaultTrendStrength  = 0.02
)

// Thresholds maps threshold names to numeric values. Missing keys fall
// back to the documented defaults, so a partial override map is fine.
type Thresholds map[string]float64

// DefaultThresholds returns a Thresholds map with every recognized key
// set to its default value
func DefaultThresholds() Thresholds {
	return Thresholds{
		KeyRSIOversold:    DefaultRSIOversold,
		KeyRSIOverbought:  DefaultRSIOverbought,
		KeyMACDEpsilon:    DefaultMACDEpsilon,
		KeyMACDStrong:     DefaultMACDStrong,
		KeyVolumeHigh:     DefaultVolumeHigh,
		KeyVolumeSurge:    DefaultVolumeSurge,
		KeyVolatilityHigh: DefaultVolatilityHigh,
		KeyTrendStrength:  DefaultTrendStrength,
	}
}

// Get returns the configured value for key, falling back to the default
// when the key is absent. Unrecognized keys without an explicit value
// resolve to 0.
func (t Thresholds) Get(key string) float64 {
	if t != nil {
		if v, ok := t[key]; ok {
			return v
		}
	}
	if v, ok := DefaultThresholds()[key]; ok {
		return v
	}
	return 0
}

// Merge returns a new Thresholds with defaults overlaid by t and then by
// overrides. Neither input map is modified.
func (t Thresholds) Merge(overrides Thresholds) Thresholds {
	merged := DefaultThresholds()
	for k, v := range t {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
