package pricing

import (
	"math"
	"testing"
)

func TestIVSolveRoundTrip(t *testing.T) {
	solver := NewIVSolver()
	sigmas := []float64{0.05, 0.2, 0.5, 1.0, 3.0}
	methods := []SolveMethod{Newton, Bisection, Brent}

	for _, sigma := range sigmas {
		for _, method := range methods {
			for _, opt := range []OptionType{Call, Put} {
				t.Run(string(method), func(t *testing.T) {
					price := bsPrice(100, 100, 0.5, 0.05, sigma, opt)
					result := solver.Solve(price, 100, 100, 0.5, 0.05, opt, method, 100, 0.01)
					if !result.Success {
						t.Fatalf("Solve failed for sigma=%v opt=%v method=%v: %s", sigma, opt, method, result.ErrorMessage)
					}
					if math.Abs(result.ImpliedVolatility-sigma) > 0.01 {
						t.Errorf("IV = %v, want %v ± 0.01", result.ImpliedVolatility, sigma)
					}
				})
			}
		}
	}
}

func TestIVScenarioE1Newton(t *testing.T) {
	solver := NewIVSolver()
	result := solver.Solve(6.8887, 100, 100, 0.5, 0.05, Call, Newton, 100, 0.01)
	if !result.Success {
		t.Fatalf("Solve failed: %s", result.ErrorMessage)
	}
	if math.Abs(result.ImpliedVolatility-0.2) > 0.01 {
		t.Errorf("IV = %v, want 0.2 ± 0.01", result.ImpliedVolatility)
	}
}

func TestIVBelowIntrinsicFails(t *testing.T) {
	solver := NewIVSolver()
	result := solver.Solve(0.01, 150, 100, 0.5, 0.05, Call, Newton, 100, 0.01)
	if result.Success {
		t.Errorf("Solve succeeded for below-intrinsic market price, want failure")
	}
}

func TestIVBatchIsolation(t *testing.T) {
	solver := NewIVSolver()
	validQuote := IVQuote{MarketPrice: 6.8887, SpotPrice: 100, StrikePrice: 100, TimeToExpiry: 0.5, RiskFreeRate: 0.05, OptionType: Call}
	invalidQuote := IVQuote{MarketPrice: -5, SpotPrice: 100, StrikePrice: 100, TimeToExpiry: 0.5, RiskFreeRate: 0.05, OptionType: Call}

	quotes := []IVQuote{validQuote, invalidQuote, validQuote}
	results := solver.SolveBatch(quotes, Newton, 100, 0.01)

	if len(results) != len(quotes) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(quotes))
	}
	if !results[0].Success || !results[2].Success {
		t.Errorf("valid quotes failed: %+v, %+v", results[0], results[2])
	}
	if results[1].Success {
		t.Errorf("invalid quote unexpectedly succeeded: %+v", results[1])
	}
	if math.Abs(results[0].ImpliedVolatility-results[2].ImpliedVolatility) > 1e-9 {
		t.Errorf("isolated identical valid quotes diverged: %v vs %v", results[0].ImpliedVolatility, results[2].ImpliedVolatility)
	}
}

func TestIVBatchConcurrentMatchesSequential(t *testing.T) {
	solver := NewIVSolver()
	quotes := make([]IVQuote, 0, 20)
	for i := 0; i < 20; i++ {
		sigma := 0.1 + 0.05*float64(i)
		price := bsPrice(100, 100, 0.5, 0.05, sigma, Call)
		quotes = append(quotes, IVQuote{MarketPrice: price, SpotPrice: 100, StrikePrice: 100, TimeToExpiry: 0.5, RiskFreeRate: 0.05, OptionType: Call})
	}

	seq := solver.SolveBatch(quotes, Newton, 100, 0.01)
	con := solver.SolveBatchConcurrent(quotes, Newton, 100, 0.01)

	if len(seq) != len(con) {
		t.Fatalf("length mismatch: seq=%d con=%d", len(seq), len(con))
	}
	for i := range seq {
		if seq[i].Success != con[i].Success {
			t.Errorf("result[%d] success mismatch: seq=%v con=%v", i, seq[i].Success, con[i].Success)
			continue
		}
		if math.Abs(seq[i].ImpliedVolatility-con[i].ImpliedVolatility) > 1e-9 {
			t.Errorf("result[%d] IV mismatch: seq=%v con=%v", i, seq[i].ImpliedVolatility, con[i].ImpliedVolatility)
		}
	}
}

func TestIVBrentFallsBackWhenNoSignChange(t *testing.T) {
	solver := NewIVSolver()
	// A market price above the price attainable anywhere in [sigmaLow, sigmaHigh]
	// keeps f(a), f(b) the same sign, forcing the bisection fallback path.
	result := solver.Solve(1e9, 100, 100, 0.5, 0.05, Call, Brent, 50, 0.01)
	if result.Success {
		t.Errorf("Solve succeeded for an unreachable market price, want bisection-fallback failure")
	}
}
