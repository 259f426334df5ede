package pricing

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

const (
	sigmaLow     = 0.001
	sigmaHigh    = 10.0
	initialGuess = 0.5
)

// IVSolver recovers the implied volatility that reproduces a market price
// under Black-Scholes, via Newton's method (with bisection fallback), pure
// bisection, or Brent's method.
type IVSolver struct{}

// NewIVSolver returns a ready-to-use solver. It holds no state.
func NewIVSolver() *IVSolver {
	return &IVSolver{}
}

// Solve finds sigma such that bsPrice(..., sigma, ...) ≈ marketPrice.
//
// NEWTON automatically falls back to BISECTION when it fails to converge;
// an explicitly requested BISECTION or BRENT does not fall back further
// (BRENT still falls back to BISECTION when the search interval has no
// sign change, per the algorithm's own requirement).
func (s *IVSolver) Solve(
	marketPrice, spotPrice, strikePrice, timeToExpiry, riskFreeRate float64,
	optionType OptionType,
	method SolveMethod,
	maxIterations int,
	tolerance float64,
) (result IVResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failIV(fmt.Sprintf("计算异常: %v", r), 0)
		}
	}()

	if marketPrice <= 0 {
		return failIV("市场价格必须大于 0", 0)
	}

	var intrinsic float64
	if optionType == Call {
		intrinsic = max(spotPrice-strikePrice*math.Exp(-riskFreeRate*timeToExpiry), 0.0)
	} else {
		intrinsic = max(strikePrice*math.Exp(-riskFreeRate*timeToExpiry)-spotPrice, 0.0)
	}
	if marketPrice < intrinsic-tolerance {
		return failIV("市场价格低于期权内在价值", 0)
	}

	switch method {
	case Newton:
		result := s.solveNewton(marketPrice, spotPrice, strikePrice, timeToExpiry, riskFreeRate, optionType, maxIterations, tolerance)
		if !result.Success {
			result = s.solveBisection(marketPrice, spotPrice, strikePrice, timeToExpiry, riskFreeRate, optionType, maxIterations, tolerance)
		}
		return result
	case Bisection:
		return s.solveBisection(marketPrice, spotPrice, strikePrice, timeToExpiry, riskFreeRate, optionType, maxIterations, tolerance)
	default:
		return s.solveBrent(marketPrice, spotPrice, strikePrice, timeToExpiry, riskFreeRate, optionType, maxIterations, tolerance)
	}
}

// SolveBatch solves every quote independently; a failure on one quote never
// contaminates another, and the result slice matches quotes in length and
// order.
func (s *IVSolver) SolveBatch(quotes []IVQuote, method SolveMethod, maxIterations int, tolerance float64) []IVResult {
	results := make([]IVResult, len(quotes))
	for i, q := range quotes {
		results[i] = s.solveOne(q, method, maxIterations, tolerance)
	}
	return results
}

// SolveBatchConcurrent is SolveBatch's bounded-parallel counterpart for
// large chains: each goroutine writes only to its own output slot, so
// per-item isolation holds exactly as in the sequential path.
func (s *IVSolver) SolveBatchConcurrent(quotes []IVQuote, method SolveMethod, maxIterations int, tolerance float64) []IVResult {
	results := make([]IVResult, len(quotes))
	var g errgroup.Group
	g.SetLimit(8)
	for i, q := range quotes {
		i, q := i, q
		g.Go(func() error {
			results[i] = s.solveOne(q, method, maxIterations, tolerance)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *IVSolver) solveOne(q IVQuote, method SolveMethod, maxIterations int, tolerance float64) (result IVResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failIV(fmt.Sprintf("求解异常: %v", r), 0)
		}
	}()
	return s.Solve(q.MarketPrice, q.SpotPrice, q.StrikePrice, q.TimeToExpiry, q.RiskFreeRate, q.OptionType, method, maxIterations, tolerance)
}

func (s *IVSolver) solveNewton(
	marketPrice, spotPrice, strikePrice, timeToExpiry, riskFreeRate float64,
	optionType OptionType, maxIterations int, tolerance float64,
) IVResult {
	sigma := initialGuess
	sigmaLo := sigmaLow
	sigmaHi := sigmaHigh

	for i := 0; i < maxIterations; i++ {
		price := bsPrice(spotPrice, strikePrice, timeToExpiry, riskFreeRate, sigma, optionType)
		diff := price - marketPrice

		if math.Abs(diff) < tolerance {
			return okIV(sigma, i+1)
		}

		if diff > 0 {
			sigmaHi = sigma
		} else {
			sigmaLo = sigma
		}

		vegaRaw := bsVegaRaw(spotPrice, strikePrice, timeToExpiry, riskFreeRate, sigma)
		if math.Abs(vegaRaw) > 1e-10 {
			newSigma := sigma - diff/vegaRaw
			if sigmaLo < newSigma && newSigma < sigmaHi {
				sigma = newSigma
			} else {
				sigma = (sigmaLo + sigmaHi) / 2.0
			}
		} else {
			sigma = (sigmaLo + sigmaHi) / 2.0
		}
	}

	return failIV(fmt.Sprintf("在 %d 次迭代内未收敛", maxIterations), maxIterations)
}

func (s *IVSolver) solveBisection(
	marketPrice, spotPrice, strikePrice, timeToExpiry, riskFreeRate float64,
	optionType OptionType, maxIterations int, tolerance float64,
) IVResult {
	sigmaLo := sigmaLow
	sigmaHi := sigmaHigh

	for i := 0; i < maxIterations; i++ {
		sigmaMid := (sigmaLo + sigmaHi) / 2.0
		price := bsPrice(spotPrice, strikePrice, timeToExpiry, riskFreeRate, sigmaMid, optionType)
		diff := price - marketPrice

		if math.Abs(diff) < tolerance {
			return okIV(sigmaMid, i+1)
		}

		if diff > 0 {
			sigmaHi = sigmaMid
		} else {
			sigmaLo = sigmaMid
		}
	}

	return failIV(fmt.Sprintf("在 %d 次迭代内未收敛", maxIterations), maxIterations)
}

// solveBrent implements Brent's method by hand: inverse quadratic
// interpolation / secant stepping, falling back to bisection per the mflag
// bookkeeping bit whenever the interpolated step is untrustworthy.
func (s *IVSolver) solveBrent(
	marketPrice, spotPrice, strikePrice, timeToExpiry, riskFreeRate float64,
	optionType OptionType, maxIterations int, tolerance float64,
) IVResult {
	f := func(sigma float64) float64 {
		return bsPrice(spotPrice, strikePrice, timeToExpiry, riskFreeRate, sigma, optionType) - marketPrice
	}

	a, b := sigmaLow, sigmaHigh
	fa, fb := f(a), f(b)

	if fa*fb > 0 {
		return s.solveBisection(marketPrice, spotPrice, strikePrice, timeToExpiry, riskFreeRate, optionType, maxIterations, tolerance)
	}

	if math.Abs(fa) < math.Abs(fb) {
		a, b = b, a
		fa, fb = fb, fa
	}

	c, fc := a, fa
	mflag := true
	var d float64

	for i := 0; i < maxIterations; i++ {
		if math.Abs(fb) < tolerance {
			return okIV(b, i+1)
		}
		if math.Abs(b-a) < 1e-15 {
			return okIV(b, i+1)
		}

		var sNew float64
		if math.Abs(fa-fc) > 1e-15 && math.Abs(fb-fc) > 1e-15 {
			sNew = a*fb*fc/((fa-fb)*(fa-fc)) +
				b*fa*fc/((fb-fa)*(fb-fc)) +
				c*fa*fb/((fc-fa)*(fc-fb))
		} else if math.Abs(fa-fb) < 1e-15 {
			sNew = b
		} else {
			sNew = b - fb*(b-a)/(fb-fa)
		}

		mid := (a + b) / 2.0
		boundLo := math.Min((3*a+b)/4.0, b)
		boundHi := math.Max((3*a+b)/4.0, b)

		bisect := false
		switch {
		case !(boundLo <= sNew && sNew <= boundHi):
			bisect = true
		case mflag && math.Abs(sNew-b) >= math.Abs(b-c)/2.0:
			bisect = true
		case !mflag && math.Abs(sNew-b) >= math.Abs(c-d)/2.0:
			bisect = true
		case mflag && math.Abs(b-c) < 1e-15:
			bisect = true
		case !mflag && math.Abs(c-d) < 1e-15:
			bisect = true
		}

		if bisect {
			sNew = mid
			mflag = true
		} else {
			mflag = false
		}

		fs := f(sNew)
		d = c
		c, fc = b, fb

		if fa*fs < 0 {
			b, fb = sNew, fs
		} else {
			a, fa = sNew, fs
		}

		if math.Abs(fa) < math.Abs(fb) {
			a, b = b, a
			fa, fb = fb, fa
		}
	}

	return failIV(fmt.Sprintf("在 %d 次迭代内未收敛", maxIterations), maxIterations)
}
