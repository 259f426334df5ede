// Package selector filters candidate option contracts to the out-of-the-money
// set and ranks them with a deterministic, weighted, three-dimensional score
// (liquidity, moneyness, time-to-expiry).
package selector

import "optionstrategy/internal/pricing"

// Candidate is one row of an option-chain table.
type Candidate struct {
	VtSymbol         string
	OptionType       pricing.OptionType
	StrikePrice      float64
	ExpiryDate       string
	BidPrice         float64
	BidVolume        int
	AskPrice         float64
	AskVolume        int
	DaysToExpiry     int
	UnderlyingSymbol string
}

// Config holds every tunable used by filtering and scoring. All fields have
// sensible defaults (Default()) and are overridable from internal/config.
type Config struct {
	StrikeLevel      int
	MinBidPrice      float64
	MinBidVolume     int
	MinTradingDays   int
	MaxTradingDays   int

	LiquidityMinVolume       int
	LiquidityMinBidVolume    int
	LiquidityMaxSpreadTicks  int

	ScoreLiquidityWeight float64
	ScoreOTMWeight       float64
	ScoreExpiryWeight    float64

	LiqSpreadWeight float64
	LiqVolumeWeight float64

	DeltaTolerance     float64
	DefaultSpreadWidth int
}

// Default returns the config with the original system's defaults.
func Default() Config {
	return Config{
		StrikeLevel:    3,
		MinBidPrice:    10.0,
		MinBidVolume:   10,
		MinTradingDays: 1,
		MaxTradingDays: 50,

		LiquidityMinVolume:      100,
		LiquidityMinBidVolume:   1,
		LiquidityMaxSpreadTicks: 3,

		ScoreLiquidityWeight: 0.4,
		ScoreOTMWeight:       0.3,
		ScoreExpiryWeight:    0.3,

		LiqSpreadWeight: 0.6,
		LiqVolumeWeight: 0.4,

		DeltaTolerance:     0.05,
		DefaultSpreadWidth: 1,
	}
}

// Score is the per-candidate scoring output.
type Score struct {
	VtSymbol       string
	LiquidityScore float64
	OTMScore       float64
	ExpiryScore    float64
	TotalScore     float64
}
