package pricing

import "math"

func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2.0*math.Pi)
}

// bsD1D2 computes the Black-Scholes d1, d2 terms. T must be > 0.
func bsD1D2(spot, strike, t, r, vol float64) (d1, d2 float64) {
	sqrtT := math.Sqrt(t)
	d1 = (math.Log(spot/strike) + (r+0.5*vol*vol)*t) / (vol * sqrtT)
	d2 = d1 - vol*sqrtT
	return d1, d2
}

// bsPrice is the raw Black-Scholes closed form, shared by every pricer and
// the IV solver so every consumer prices identically.
func bsPrice(spot, strike, t, r, vol float64, opt OptionType) float64 {
	if t == 0 {
		return intrinsicValue(spot, strike, opt)
	}
	d1, d2 := bsD1D2(spot, strike, t, r, vol)
	if opt == Call {
		return spot*normCDF(d1) - strike*math.Exp(-r*t)*normCDF(d2)
	}
	return strike*math.Exp(-r*t)*normCDF(-d2) - spot*normCDF(-d1)
}

// bsVegaRaw is dPrice/dSigma, undivided by 100 — used internally by the IV
// solvers. It is not the reported Vega (see GreeksCalculator.CalculateGreeks).
func bsVegaRaw(spot, strike, t, r, vol float64) float64 {
	if t <= 0 {
		return 0.0
	}
	d1, _ := bsD1D2(spot, strike, t, r, vol)
	return spot * normPDF(d1) * math.Sqrt(t)
}

// GreeksCalculator computes Black-Scholes Greeks and delegates implied
// volatility solving to an IVSolver.
type GreeksCalculator struct {
	solver *IVSolver
}

// NewGreeksCalculator returns a calculator backed by solver, or a default
// IVSolver when solver is nil.
func NewGreeksCalculator(solver *IVSolver) *GreeksCalculator {
	if solver == nil {
		solver = NewIVSolver()
	}
	return &GreeksCalculator{solver: solver}
}

// CalculateGreeks computes Delta, Gamma, Theta, Vega under Black-Scholes.
// Domain errors reachable only through adversarial floating-point inputs are
// recovered and reported as a failed GreeksResult rather than a panic.
func (g *GreeksCalculator) CalculateGreeks(in GreeksInput) (result GreeksResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failGreeks("计算溢出: overflow computing greeks")
		}
	}()

	spot, strike, t, r, vol := in.SpotPrice, in.StrikePrice, in.TimeToExpiry, in.RiskFreeRate, in.Volatility
	if spot <= 0 || strike <= 0 {
		return failGreeks("spot_price 和 strike_price 必须大于 0")
	}
	if t < 0 {
		return failGreeks("time_to_expiry 不能为负数")
	}
	if vol <= 0 {
		return failGreeks("volatility 必须大于 0")
	}

	if t == 0 {
		var delta float64
		if in.OptionType == Call {
			if spot > strike {
				delta = 1.0
			}
		} else {
			if spot < strike {
				delta = -1.0
			}
		}
		return okGreeks(delta, 0, 0, 0)
	}

	sqrtT := math.Sqrt(t)
	d1, d2 := bsD1D2(spot, strike, t, r, vol)
	pdfD1 := normPDF(d1)
	cdfD1 := normCDF(d1)
	cdfD2 := normCDF(d2)

	gamma := pdfD1 / (spot * vol * sqrtT)
	vega := spot * pdfD1 * sqrtT / 100.0

	var delta, theta float64
	if in.OptionType == Call {
		delta = cdfD1
		theta = (-spot*pdfD1*vol/(2.0*sqrtT) - r*strike*math.Exp(-r*t)*cdfD2) / 365.0
	} else {
		delta = cdfD1 - 1.0
		theta = (-spot*pdfD1*vol/(2.0*sqrtT) + r*strike*math.Exp(-r*t)*normCDF(-d2)) / 365.0
	}
	return okGreeks(delta, gamma, theta, vega)
}

// BSPrice returns the Black-Scholes theoretical price for the same
// parameters used to compute Greeks. PricingEngine's european path must
// equal this to bit-exact precision.
func (g *GreeksCalculator) BSPrice(in GreeksInput) float64 {
	return bsPrice(in.SpotPrice, in.StrikePrice, in.TimeToExpiry, in.RiskFreeRate, in.Volatility, in.OptionType)
}

// CalculateImpliedVolatility delegates to the calculator's IVSolver.
func (g *GreeksCalculator) CalculateImpliedVolatility(
	marketPrice, spotPrice, strikePrice, timeToExpiry, riskFreeRate float64,
	optionType OptionType,
	maxIterations int,
	tolerance float64,
) IVResult {
	return g.solver.Solve(marketPrice, spotPrice, strikePrice, timeToExpiry, riskFreeRate, optionType, Newton, maxIterations, tolerance)
}

// BlackScholesPricer wraps bsPrice behind the common PricingInput/Result
// dispatcher contract used by PricingEngine.
type BlackScholesPricer struct {
	calc *GreeksCalculator
}

// NewBlackScholesPricer returns a pricer backed by calc, or a default
// GreeksCalculator when calc is nil.
func NewBlackScholesPricer(calc *GreeksCalculator) *BlackScholesPricer {
	if calc == nil {
		calc = NewGreeksCalculator(nil)
	}
	return &BlackScholesPricer{calc: calc}
}

// Price computes the European Black-Scholes price for params.
func (p *BlackScholesPricer) Price(params PricingInput) PricingResult {
	if msg := validateCommon(params.SpotPrice, params.StrikePrice, params.Volatility, params.TimeToExpiry); msg != "" {
		return failPricing(msg, ModelBlackScholes)
	}
	price := p.calc.BSPrice(GreeksInput{
		SpotPrice:    params.SpotPrice,
		StrikePrice:  params.StrikePrice,
		TimeToExpiry: params.TimeToExpiry,
		RiskFreeRate: params.RiskFreeRate,
		Volatility:   params.Volatility,
		OptionType:   params.OptionType,
	})
	return okPricing(price, ModelBlackScholes)
}
