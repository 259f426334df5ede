// Package risk implements the risk budget allocator: it splits
// portfolio-level Greek budgets across underlyings or strategies,
// accumulates usage from live positions, and enforces per-dimension limits.
package risk

import "optionstrategy/internal/order"

// ContractMultiplier is the standard Chinese equity-option contract size
// (100 shares × 100 price points). It is a fixed design constant in this
// core; a port mixing commodity options needs a per-contract multiplier.
const ContractMultiplier = 10000.0

// Dimension selects whether usage/budget is split by underlying or by
// named strategy signal.
type Dimension string

const (
	ByUnderlying Dimension = "underlying"
	ByStrategy   Dimension = "strategy"
)

// Position is a live holding, used only as input to the allocator.
type Position struct {
	VtSymbol           string
	UnderlyingVtSymbol string
	Signal             string
	Volume             int
	Direction          order.Direction
	OpenPrice          float64
	IsActive           bool
	IsClosed           bool
}

// Greeks is the minimal Greeks projection the allocator needs per contract.
// Callers typically populate this from pricing.GreeksResult.
type Greeks struct {
	Delta   float64
	Gamma   float64
	Vega    float64
	Success bool
}

// Thresholds holds per-position and per-portfolio Greek limits.
type Thresholds struct {
	PositionDeltaLimit  float64
	PositionGammaLimit  float64
	PositionVegaLimit   float64
	PortfolioDeltaLimit float64
	PortfolioGammaLimit float64
	PortfolioVegaLimit  float64
}

// BudgetConfig configures how the total portfolio budget is split.
// AllocationRatios, when non-empty, must all be non-negative and sum to
// 1.0 within ±0.01 — validated at construction by NewAllocator.
type BudgetConfig struct {
	AllocationDimension Dimension
	AllocationRatios    map[string]float64
}

// Budget is a per-key Greek budget (after applying an allocation ratio to
// the portfolio total).
type Budget struct {
	DeltaBudget float64
	GammaBudget float64
	VegaBudget  float64
}

// Usage accumulates per-key Greek exposure across contributing positions.
type Usage struct {
	DeltaUsed     float64
	GammaUsed     float64
	VegaUsed      float64
	PositionCount int
}

// CheckResult is the outcome of comparing Usage against a Budget.
type CheckResult struct {
	Passed             bool
	ExceededDimensions []string
	Usage              Usage
	Budget             Budget
	Message            string
}
