package risk

import (
	"fmt"
	"math"
)

// Allocator splits portfolio-level Greek budgets across underlyings or
// strategies, accumulates usage from live positions, and checks limits.
type Allocator struct {
	config BudgetConfig
}

// NewAllocator constructs an Allocator, validating non-empty allocation
// ratios: every ratio must be non-negative and the ratios must sum to 1.0
// within ±0.01.
func NewAllocator(config BudgetConfig) (*Allocator, error) {
	if len(config.AllocationRatios) > 0 {
		if err := validateAllocationRatios(config.AllocationRatios); err != nil {
			return nil, err
		}
	}
	return &Allocator{config: config}, nil
}

func validateAllocationRatios(ratios map[string]float64) error {
	var total float64
	for key, ratio := range ratios {
		if ratio < 0 {
			return fmt.Errorf("分配比例不能为负数: %s = %v", key, ratio)
		}
		total += ratio
	}
	if math.Abs(total-1.0) > 0.01 {
		return fmt.Errorf("分配比例总和应为 1.0，当前为 %.4f", total)
	}
	return nil
}

// AllocateBudgetByUnderlying returns, for every key in the configured
// allocation ratios, a Budget equal to totalLimits scaled component-wise by
// that key's ratio.
func (a *Allocator) AllocateBudgetByUnderlying(totalLimits Thresholds) map[string]Budget {
	if len(a.config.AllocationRatios) == 0 {
		return map[string]Budget{}
	}

	budgets := make(map[string]Budget, len(a.config.AllocationRatios))
	for key, ratio := range a.config.AllocationRatios {
		budgets[key] = Budget{
			DeltaBudget: totalLimits.PortfolioDeltaLimit * ratio,
			GammaBudget: totalLimits.PortfolioGammaLimit * ratio,
			VegaBudget:  totalLimits.PortfolioVegaLimit * ratio,
		}
	}
	return budgets
}

// CalculateUsage accumulates Greek exposure across active positions with
// volume > 0, keyed by underlying or strategy signal. Positions whose
// Greeks are missing or failed are skipped silently — a lookup miss is not
// an error in this core.
func (a *Allocator) CalculateUsage(positions []Position, greeksMap map[string]Greeks, dimension Dimension) map[string]Usage {
	usageMap := make(map[string]Usage)

	for _, position := range positions {
		if !position.IsActive || position.Volume <= 0 {
			continue
		}

		greeks, ok := greeksMap[position.VtSymbol]
		if !ok || !greeks.Success {
			continue
		}

		var key string
		switch dimension {
		case ByUnderlying:
			key = position.UnderlyingVtSymbol
		case ByStrategy:
			key = position.Signal
		default:
			continue
		}

		u := usageMap[key]
		volume := float64(position.Volume)
		u.DeltaUsed += math.Abs(greeks.Delta * volume * ContractMultiplier)
		u.GammaUsed += math.Abs(greeks.Gamma * volume * ContractMultiplier)
		u.VegaUsed += math.Abs(greeks.Vega * volume * ContractMultiplier)
		u.PositionCount++
		usageMap[key] = u
	}

	return usageMap
}

// CheckBudgetLimit reports whether usage stays within budget, in the fixed
// dimension order {delta, gamma, vega}. Boundary equality passes.
func (a *Allocator) CheckBudgetLimit(usage Usage, budget Budget) CheckResult {
	var exceeded []string

	if usage.DeltaUsed > budget.DeltaBudget {
		exceeded = append(exceeded, "delta")
	}
	if usage.GammaUsed > budget.GammaBudget {
		exceeded = append(exceeded, "gamma")
	}
	if usage.VegaUsed > budget.VegaBudget {
		exceeded = append(exceeded, "vega")
	}

	passed := len(exceeded) == 0
	message := "预算检查通过"
	if !passed {
		message = "预算超限: " + joinComma(exceeded)
	}

	return CheckResult{
		Passed:             passed,
		ExceededDimensions: exceeded,
		Usage:              usage,
		Budget:             budget,
		Message:            message,
	}
}

// RemainingBudget returns the unused portion of budget, clamped at zero.
func RemainingBudget(usage Usage, budget Budget) Budget {
	return Budget{
		DeltaBudget: math.Max(0.0, budget.DeltaBudget-usage.DeltaUsed),
		GammaBudget: math.Max(0.0, budget.GammaBudget-usage.GammaUsed),
		VegaBudget:  math.Max(0.0, budget.VegaBudget-usage.VegaUsed),
	}
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
