// Package config loads the engine's tunables from TOML files on disk,
// layered under any runtime overrides and the hard-coded defaults every
// domain package ships. Precedence is overrides > file > default, decided
// field by field so a file that only sets one key in a section never
// clobbers the rest.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"optionstrategy/internal/execution"
	"optionstrategy/internal/pricing"
	"optionstrategy/internal/risk"
	"optionstrategy/internal/selector"
)

func loadTOML(path string) map[string]any {
	if path == "" {
		return map[string]any{}
	}
	if _, err := os.Stat(path); err != nil {
		return map[string]any{}
	}
	var data map[string]any
	if _, err := toml.DecodeFile(path, &data); err != nil {
		return map[string]any{}
	}
	return data
}

func section(data map[string]any, key string) map[string]any {
	if s, ok := data[key].(map[string]any); ok {
		return s
	}
	return map[string]any{}
}

func mapField(overrides, tomlSection map[string]any, key string, set func(any)) {
	if v, ok := overrides[key]; ok {
		set(v)
		return
	}
	if v, ok := tomlSection[key]; ok {
		set(v)
	}
}

func asInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// LoadPricingEngineConfig loads internal/pricing.EngineConfig from path,
// applying overrides first. Sections: [american], [crr].
func LoadPricingEngineConfig(path string, overrides map[string]any) pricing.EngineConfig {
	cfg := pricing.DefaultEngineConfig()
	data := loadTOML(path)
	american := section(data, "american")
	crr := section(data, "crr")

	mapField(overrides, american, "american_model", func(v any) {
		switch asString(v) {
		case "BAW", "baw":
			cfg.AmericanModel = pricing.ModelBAW
		case "CRR", "crr":
			cfg.AmericanModel = pricing.ModelCRR
		}
	})
	mapField(overrides, crr, "crr_steps", func(v any) { cfg.CRRSteps = asInt(v) })

	return cfg
}

// LoadSelectorConfig loads internal/selector.Config from path, applying
// overrides first. Section and key names mirror the original TOML layout:
// [filter], [liquidity], [score_weight], [score_weight.liquidity_detail],
// [delta], [spread].
func LoadSelectorConfig(path string, overrides map[string]any) selector.Config {
	cfg := selector.Default()
	data := loadTOML(path)

	flt := section(data, "filter")
	liq := section(data, "liquidity")
	sw := section(data, "score_weight")
	liqDetail := section(sw, "liquidity_detail")
	delta := section(data, "delta")
	spread := section(data, "spread")

	mapField(overrides, flt, "strike_level", func(v any) { cfg.StrikeLevel = asInt(v) })
	mapField(overrides, flt, "min_bid_price", func(v any) { cfg.MinBidPrice = asFloat(v) })
	mapField(overrides, flt, "min_bid_volume", func(v any) { cfg.MinBidVolume = asInt(v) })
	mapField(overrides, flt, "min_trading_days", func(v any) { cfg.MinTradingDays = asInt(v) })
	mapField(overrides, flt, "max_trading_days", func(v any) { cfg.MaxTradingDays = asInt(v) })

	mapField(overrides, liq, "liquidity_min_volume", func(v any) { cfg.LiquidityMinVolume = asInt(v) })
	mapField(overrides, liq, "liquidity_min_bid_volume", func(v any) { cfg.LiquidityMinBidVolume = asInt(v) })
	mapField(overrides, liq, "liquidity_max_spread_ticks", func(v any) { cfg.LiquidityMaxSpreadTicks = asInt(v) })

	mapField(overrides, sw, "liquidity_weight", func(v any) { cfg.ScoreLiquidityWeight = asFloat(v) })
	mapField(overrides, sw, "otm_weight", func(v any) { cfg.ScoreOTMWeight = asFloat(v) })
	mapField(overrides, sw, "expiry_weight", func(v any) { cfg.ScoreExpiryWeight = asFloat(v) })

	mapField(overrides, liqDetail, "spread_weight", func(v any) { cfg.LiqSpreadWeight = asFloat(v) })
	mapField(overrides, liqDetail, "volume_weight", func(v any) { cfg.LiqVolumeWeight = asFloat(v) })

	mapField(overrides, delta, "delta_tolerance", func(v any) { cfg.DeltaTolerance = asFloat(v) })
	mapField(overrides, spread, "default_spread_width", func(v any) { cfg.DefaultSpreadWidth = asInt(v) })

	return cfg
}

// LoadExecutionConfig loads internal/execution.Config from path, applying
// overrides first. Sections: [timeout], [retry], [price].
func LoadExecutionConfig(path string, overrides map[string]any) execution.Config {
	cfg := execution.DefaultConfig()
	data := loadTOML(path)

	timeout := section(data, "timeout")
	retry := section(data, "retry")
	price := section(data, "price")

	mapField(overrides, timeout, "seconds", func(v any) { cfg.TimeoutSeconds = asInt(v) })
	mapField(overrides, retry, "max_retries", func(v any) { cfg.MaxRetries = asInt(v) })
	mapField(overrides, price, "slippage_ticks", func(v any) { cfg.SlippageTicks = asInt(v) })
	mapField(overrides, price, "price_tick", func(v any) { cfg.PriceTick = asFloat(v) })

	return cfg
}

// SchedulerDefaults holds the scheduler-side tunables a caller can omit
// when building a scheduler.Request. Sections: [iceberg], [split],
// [randomize], [price].
type SchedulerDefaults struct {
	DefaultBatchSize            int
	DefaultIntervalSeconds      int
	DefaultNumSlices            int
	DefaultVolumeRandomizeRatio float64
	DefaultPriceOffsetTicks     int
	DefaultPriceTick            float64
}

// LoadSchedulerDefaults loads SchedulerDefaults from path, applying
// overrides first.
func LoadSchedulerDefaults(path string, overrides map[string]any) SchedulerDefaults {
	cfg := SchedulerDefaults{
		DefaultBatchSize:            10,
		DefaultIntervalSeconds:      60,
		DefaultNumSlices:            5,
		DefaultVolumeRandomizeRatio: 0.2,
		DefaultPriceOffsetTicks:     0,
		DefaultPriceTick:            0.2,
	}
	data := loadTOML(path)

	iceberg := section(data, "iceberg")
	split := section(data, "split")
	randomize := section(data, "randomize")
	price := section(data, "price")

	mapField(overrides, iceberg, "default_batch_size", func(v any) { cfg.DefaultBatchSize = asInt(v) })
	mapField(overrides, split, "default_interval_seconds", func(v any) { cfg.DefaultIntervalSeconds = asInt(v) })
	mapField(overrides, split, "default_num_slices", func(v any) { cfg.DefaultNumSlices = asInt(v) })
	mapField(overrides, randomize, "default_volume_randomize_ratio", func(v any) { cfg.DefaultVolumeRandomizeRatio = asFloat(v) })
	mapField(overrides, price, "default_price_offset_ticks", func(v any) { cfg.DefaultPriceOffsetTicks = asInt(v) })
	mapField(overrides, price, "default_price_tick", func(v any) { cfg.DefaultPriceTick = asFloat(v) })

	return cfg
}

// LoadBudgetConfig loads internal/risk.BudgetConfig from path, applying
// overrides first. Section: [budget], with allocation ratios nested under
// [budget.allocation_ratios].
func LoadBudgetConfig(path string, overrides map[string]any) risk.BudgetConfig {
	cfg := risk.BudgetConfig{AllocationDimension: risk.ByUnderlying}
	data := loadTOML(path)
	budget := section(data, "budget")

	mapField(overrides, budget, "allocation_dimension", func(v any) {
		switch risk.Dimension(asString(v)) {
		case risk.ByStrategy:
			cfg.AllocationDimension = risk.ByStrategy
		case risk.ByUnderlying:
			cfg.AllocationDimension = risk.ByUnderlying
		}
	})

	ratios := section(budget, "allocation_ratios")
	if override, ok := overrides["allocation_ratios"].(map[string]any); ok {
		ratios = override
	}
	if len(ratios) > 0 {
		cfg.AllocationRatios = make(map[string]float64, len(ratios))
		for k, v := range ratios {
			cfg.AllocationRatios[k] = asFloat(v)
		}
	}

	return cfg
}
