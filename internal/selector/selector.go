package selector

import (
	"math"
	"sort"

	"optionstrategy/internal/pricing"
)

// Filter keeps only out-of-the-money candidates of optionType (call: strike
// > underlying; put: strike < underlying) that pass the bid-price,
// bid-volume, and trading-day thresholds in cfg.
func Filter(candidates []Candidate, optionType pricing.OptionType, underlyingPrice float64, cfg Config) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.OptionType != optionType {
			continue
		}
		if optionType == pricing.Call && c.StrikePrice <= underlyingPrice {
			continue
		}
		if optionType == pricing.Put && c.StrikePrice >= underlyingPrice {
			continue
		}
		if c.BidPrice < cfg.MinBidPrice {
			continue
		}
		if c.BidVolume < cfg.MinBidVolume {
			continue
		}
		if c.DaysToExpiry < cfg.MinTradingDays || c.DaysToExpiry > cfg.MaxTradingDays {
			continue
		}
		out = append(out, c)
	}
	return out
}

// PassesLiquidity reports whether c clears the open-time liquidity gate:
// minimum daily volume is not part of Candidate (volume is exchange-reported
// separately), so this checks bid-side depth and the bid/ask spread in
// ticks against cfg's liquidity thresholds.
func PassesLiquidity(c Candidate, priceTick float64, cfg Config) bool {
	if c.BidVolume < cfg.LiquidityMinBidVolume {
		return false
	}
	if priceTick <= 0 {
		return true
	}
	spreadTicks := (c.AskPrice - c.BidPrice) / priceTick
	return spreadTicks <= float64(cfg.LiquidityMaxSpreadTicks)
}

// ScoreCandidates computes a Score for every candidate and returns them
// sorted by TotalScore descending.
func ScoreCandidates(candidates []Candidate, optionType pricing.OptionType, underlyingPrice float64, cfg Config) []Score {
	if len(candidates) == 0 {
		return nil
	}

	strikeStep := strikeStep(candidates, cfg)
	targetStrike := targetOTMStrike(candidates, optionType, underlyingPrice, strikeStep, cfg)
	mid := float64(cfg.MinTradingDays+cfg.MaxTradingDays) / 2.0
	halfRange := float64(cfg.MaxTradingDays-cfg.MinTradingDays) / 2.0

	scores := make([]Score, 0, len(candidates))
	for _, c := range candidates {
		liq := liquidityScore(c, cfg)
		otm := otmScore(c.StrikePrice, targetStrike, strikeStep)
		expiry := expiryScore(c.DaysToExpiry, mid, halfRange)
		total := liq*cfg.ScoreLiquidityWeight + otm*cfg.ScoreOTMWeight + expiry*cfg.ScoreExpiryWeight

		scores = append(scores, Score{
			VtSymbol:       c.VtSymbol,
			LiquidityScore: liq,
			OTMScore:       otm,
			ExpiryScore:    expiry,
			TotalScore:     total,
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalScore > scores[j].TotalScore
	})
	return scores
}

// liquidityScore is monotone decreasing in bid-ask spread and monotone
// increasing in bid volume: strictly smaller spread and strictly larger bid
// volume always yields a strictly higher score.
func liquidityScore(c Candidate, cfg Config) float64 {
	spread := c.AskPrice - c.BidPrice
	if spread < 0 {
		spread = 0
	}
	var spreadScore float64
	if c.BidPrice > 0 {
		spreadScore = 1.0 / (1.0 + spread/c.BidPrice)
	} else {
		spreadScore = 1.0 / (1.0 + spread)
	}
	volumeScore := float64(c.BidVolume) / (float64(c.BidVolume) + float64(cfg.LiquidityMinBidVolume)*10.0)
	return cfg.LiqSpreadWeight*spreadScore + cfg.LiqVolumeWeight*volumeScore
}

// otmScore is monotone decreasing in the distance from strike to the target
// out-of-the-money strike, normalized by the observed strike step.
func otmScore(strike, target, step float64) float64 {
	if step <= 0 {
		step = 1.0
	}
	return 1.0 / (1.0 + math.Abs(strike-target)/step)
}

// expiryScore peaks at the midpoint of [min_trading_days, max_trading_days]
// and decreases monotonically with absolute deviation from it.
func expiryScore(days int, mid, halfRange float64) float64 {
	if halfRange <= 0 {
		return 1.0
	}
	score := 1.0 - math.Abs(float64(days)-mid)/halfRange
	if score < 0 {
		return 0
	}
	return score
}

// strikeStep is the smallest positive gap between distinct strikes observed
// among candidates, falling back to cfg.DefaultSpreadWidth when fewer than
// two distinct strikes are present.
func strikeStep(candidates []Candidate, cfg Config) float64 {
	strikes := make([]float64, 0, len(candidates))
	seen := make(map[float64]bool)
	for _, c := range candidates {
		if !seen[c.StrikePrice] {
			seen[c.StrikePrice] = true
			strikes = append(strikes, c.StrikePrice)
		}
	}
	if len(strikes) < 2 {
		return float64(cfg.DefaultSpreadWidth)
	}
	sort.Float64s(strikes)
	step := math.Inf(1)
	for i := 1; i < len(strikes); i++ {
		gap := strikes[i] - strikes[i-1]
		if gap > 0 && gap < step {
			step = gap
		}
	}
	if math.IsInf(step, 1) {
		return float64(cfg.DefaultSpreadWidth)
	}
	return step
}

// targetOTMStrike is the at-the-money strike (nearest observed strike to
// underlyingPrice) shifted strike_level steps out of the money, in the
// direction that grows moneyness for the requested option type.
func targetOTMStrike(candidates []Candidate, optionType pricing.OptionType, underlyingPrice, step float64, cfg Config) float64 {
	atm := underlyingPrice
	bestDiff := math.Inf(1)
	for _, c := range candidates {
		diff := math.Abs(c.StrikePrice - underlyingPrice)
		if diff < bestDiff {
			bestDiff = diff
			atm = c.StrikePrice
		}
	}
	offset := float64(cfg.StrikeLevel) * step
	if optionType == pricing.Call {
		return atm + offset
	}
	return atm - offset
}
