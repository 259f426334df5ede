// Package pricing implements the option pricing engine: Black-Scholes,
// Barone-Adesi-Whaley, Cox-Ross-Rubinstein, Greeks, and the implied
// volatility solver. Every exported entry point is a pure function of its
// inputs — no I/O, no shared mutable state.
package pricing

// OptionType distinguishes a call from a put.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ExerciseStyle is the option's exercise convention.
type ExerciseStyle string

const (
	European ExerciseStyle = "european"
	American ExerciseStyle = "american"
)

// Model names the pricer a PricingEngine dispatched to.
type Model string

const (
	ModelBAW          Model = "baw"
	ModelCRR          Model = "crr"
	ModelBlackScholes Model = "black_scholes"
)

// SolveMethod selects the implied-volatility search algorithm.
type SolveMethod string

const (
	Newton    SolveMethod = "newton"
	Bisection SolveMethod = "bisection"
	Brent     SolveMethod = "brent"
)

// GreeksInput bundles the Black-Scholes parameters needed to compute Greeks.
type GreeksInput struct {
	SpotPrice     float64
	StrikePrice   float64
	TimeToExpiry  float64
	RiskFreeRate  float64
	Volatility    float64
	OptionType    OptionType
}

// GreeksResult carries Delta, Gamma, Theta, Vega. On failure all Greeks are
// zero and Success is false.
type GreeksResult struct {
	Delta        float64
	Gamma        float64
	Theta        float64
	Vega         float64
	Success      bool
	ErrorMessage string
}

// okGreeks constructs a successful GreeksResult.
func okGreeks(delta, gamma, theta, vega float64) GreeksResult {
	return GreeksResult{Delta: delta, Gamma: gamma, Theta: theta, Vega: vega, Success: true}
}

func failGreeks(message string) GreeksResult {
	return GreeksResult{ErrorMessage: message}
}

// IVResult carries the solved implied volatility, iteration count, and a
// success flag.
type IVResult struct {
	ImpliedVolatility float64
	Iterations        int
	Success           bool
	ErrorMessage      string
}

func okIV(sigma float64, iterations int) IVResult {
	return IVResult{ImpliedVolatility: sigma, Iterations: iterations, Success: true}
}

func failIV(message string, iterations int) IVResult {
	return IVResult{ErrorMessage: message, Iterations: iterations}
}

// IVQuote is one input row for batch implied-volatility solving.
type IVQuote struct {
	MarketPrice  float64
	SpotPrice    float64
	StrikePrice  float64
	TimeToExpiry float64
	RiskFreeRate float64
	OptionType   OptionType
}

// PricingInput bundles GreeksInput's fields plus the exercise style.
type PricingInput struct {
	SpotPrice     float64
	StrikePrice   float64
	TimeToExpiry  float64
	RiskFreeRate  float64
	Volatility    float64
	OptionType    OptionType
	ExerciseStyle ExerciseStyle
}

// PricingResult carries the theoretical price and the model actually used.
type PricingResult struct {
	Price        float64
	ModelUsed    Model
	Success      bool
	ErrorMessage string
}

func okPricing(price float64, model Model) PricingResult {
	return PricingResult{Price: price, ModelUsed: model, Success: true}
}

func failPricing(message string, model Model) PricingResult {
	return PricingResult{ErrorMessage: message, ModelUsed: model}
}

// validateCommon checks the shared S/K/σ/T preconditions every pricer and
// the Greeks calculator enforce, returning the offending field's message or
// "" when the input is valid.
func validateCommon(spot, strike, vol, t float64) string {
	if spot <= 0 {
		return "spot_price 必须大于 0"
	}
	if strike <= 0 {
		return "strike_price 必须大于 0"
	}
	if vol <= 0 {
		return "volatility 必须大于 0"
	}
	if t < 0 {
		return "time_to_expiry 不能为负数"
	}
	return ""
}

func intrinsicValue(spot, strike float64, opt OptionType) float64 {
	if opt == Call {
		return max(spot-strike, 0.0)
	}
	return max(strike-spot, 0.0)
}
