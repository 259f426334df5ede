package pricing

import (
	"fmt"
	"math"
)

// CRRPricer prices European and American options via the Cox-Ross-Rubinstein
// binomial tree.
type CRRPricer struct {
	steps int
}

// NewCRRPricer returns a pricer with the given step count. steps must be
// >= 1; 100 is the conventional default.
func NewCRRPricer(steps int) *CRRPricer {
	if steps < 1 {
		steps = 100
	}
	return &CRRPricer{steps: steps}
}

// Price computes the CRR binomial-tree price for params.
func (p *CRRPricer) Price(params PricingInput) PricingResult {
	if msg := validateCommon(params.SpotPrice, params.StrikePrice, params.Volatility, params.TimeToExpiry); msg != "" {
		return failPricing(msg, ModelCRR)
	}
	if params.TimeToExpiry == 0 {
		return okPricing(intrinsicValue(params.SpotPrice, params.StrikePrice, params.OptionType), ModelCRR)
	}

	price, err := p.crrPrice(params.SpotPrice, params.StrikePrice, params.TimeToExpiry, params.RiskFreeRate,
		params.Volatility, params.OptionType, params.ExerciseStyle == American)
	if err != nil {
		return failPricing(fmt.Sprintf("计算异常: %v", err), ModelCRR)
	}
	return okPricing(price, ModelCRR)
}

func (p *CRRPricer) crrPrice(spot, strike, t, r, vol float64, opt OptionType, isAmerican bool) (float64, error) {
	n := p.steps
	dt := t / float64(n)
	u := math.Exp(vol * math.Sqrt(dt))
	d := 1.0 / u
	disc := math.Exp(-r * dt)
	prob := (math.Exp(r*dt) - d) / (u - d)
	q := 1.0 - prob

	if prob < 0 || prob > 1 {
		return 0, fmt.Errorf("CRR 概率 p=%.6f 超出 [0,1] 范围，参数组合无效 (r=%v, σ=%v, dt=%.6f)", prob, r, vol, dt)
	}

	isCall := opt == Call

	values := make([]float64, n+1)
	for j := 0; j <= n; j++ {
		spotAtNode := spot * math.Pow(u, float64(j)) * math.Pow(d, float64(n-j))
		if isCall {
			values[j] = max(spotAtNode-strike, 0.0)
		} else {
			values[j] = max(strike-spotAtNode, 0.0)
		}
	}

	for i := n - 1; i >= 0; i-- {
		for j := 0; j <= i; j++ {
			values[j] = disc * (prob*values[j+1] + q*values[j])

			if isAmerican {
				spotAtNode := spot * math.Pow(u, float64(j)) * math.Pow(d, float64(i-j))
				var exercise float64
				if isCall {
					exercise = max(spotAtNode-strike, 0.0)
				} else {
					exercise = max(strike-spotAtNode, 0.0)
				}
				values[j] = max(values[j], exercise)
			}
		}
	}

	return values[0], nil
}
