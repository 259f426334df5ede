package config

import (
	"os"
	"path/filepath"
	"testing"

	"optionstrategy/internal/pricing"
	"optionstrategy/internal/risk"
	"optionstrategy/internal/selector"
)

func writeTempTOML(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadSelectorConfigMissingFileUsesDefaults(t *testing.T) {
	got := LoadSelectorConfig("", nil)
	want := selector.Default()
	if got != want {
		t.Errorf("LoadSelectorConfig() = %+v, want defaults %+v", got, want)
	}
}

func TestLoadSelectorConfigFileOverridesDefault(t *testing.T) {
	path := writeTempTOML(t, `
[filter]
strike_level = 5
min_bid_price = 20.0

[score_weight]
liquidity_weight = 0.5
otm_weight = 0.25
expiry_weight = 0.25

[score_weight.liquidity_detail]
spread_weight = 0.7
volume_weight = 0.3
`)
	got := LoadSelectorConfig(path, nil)
	if got.StrikeLevel != 5 {
		t.Errorf("StrikeLevel = %v, want 5", got.StrikeLevel)
	}
	if got.MinBidPrice != 20.0 {
		t.Errorf("MinBidPrice = %v, want 20.0", got.MinBidPrice)
	}
	if got.ScoreLiquidityWeight != 0.5 {
		t.Errorf("ScoreLiquidityWeight = %v, want 0.5", got.ScoreLiquidityWeight)
	}
	if got.LiqSpreadWeight != 0.7 {
		t.Errorf("LiqSpreadWeight = %v, want 0.7", got.LiqSpreadWeight)
	}
	// Fields absent from the file keep their default.
	if got.MinBidVolume != 10 {
		t.Errorf("MinBidVolume = %v, want default 10", got.MinBidVolume)
	}
}

func TestLoadSelectorConfigOverridesBeatFile(t *testing.T) {
	path := writeTempTOML(t, `
[filter]
strike_level = 5
`)
	overrides := map[string]any{"strike_level": 9}
	got := LoadSelectorConfig(path, overrides)
	if got.StrikeLevel != 9 {
		t.Errorf("StrikeLevel = %v, want 9 (overrides beat file)", got.StrikeLevel)
	}
}

func TestLoadExecutionConfigFileOverridesDefault(t *testing.T) {
	path := writeTempTOML(t, `
[timeout]
seconds = 45

[retry]
max_retries = 5

[price]
slippage_ticks = 4
price_tick = 0.5
`)
	got := LoadExecutionConfig(path, nil)
	if got.TimeoutSeconds != 45 || got.MaxRetries != 5 || got.SlippageTicks != 4 || got.PriceTick != 0.5 {
		t.Errorf("LoadExecutionConfig() = %+v, want {45 5 4 0.5}", got)
	}
}

func TestLoadSchedulerDefaultsFileOverridesDefault(t *testing.T) {
	path := writeTempTOML(t, `
[iceberg]
default_batch_size = 20

[split]
default_interval_seconds = 120
default_num_slices = 8

[randomize]
default_volume_randomize_ratio = 0.15

[price]
default_price_offset_ticks = 2
default_price_tick = 1.0
`)
	got := LoadSchedulerDefaults(path, nil)
	want := SchedulerDefaults{
		DefaultBatchSize:            20,
		DefaultIntervalSeconds:      120,
		DefaultNumSlices:            8,
		DefaultVolumeRandomizeRatio: 0.15,
		DefaultPriceOffsetTicks:     2,
		DefaultPriceTick:            1.0,
	}
	if got != want {
		t.Errorf("LoadSchedulerDefaults() = %+v, want %+v", got, want)
	}
}

func TestLoadPricingEngineConfigFileOverridesDefault(t *testing.T) {
	path := writeTempTOML(t, `
[american]
american_model = "CRR"

[crr]
crr_steps = 250
`)
	got := LoadPricingEngineConfig(path, nil)
	if got.AmericanModel != pricing.ModelCRR {
		t.Errorf("AmericanModel = %v, want CRR", got.AmericanModel)
	}
	if got.CRRSteps != 250 {
		t.Errorf("CRRSteps = %v, want 250", got.CRRSteps)
	}
}

func TestLoadBudgetConfigFileOverridesDefault(t *testing.T) {
	path := writeTempTOML(t, `
[budget]
allocation_dimension = "strategy"

[budget.allocation_ratios]
IF2501 = 0.6
IM2501 = 0.4
`)
	got := LoadBudgetConfig(path, nil)
	if got.AllocationDimension != risk.ByStrategy {
		t.Errorf("AllocationDimension = %v, want strategy", got.AllocationDimension)
	}
	if got.AllocationRatios["IF2501"] != 0.6 || got.AllocationRatios["IM2501"] != 0.4 {
		t.Errorf("AllocationRatios = %v, want IF2501:0.6 IM2501:0.4", got.AllocationRatios)
	}
}

func TestLoadBudgetConfigMissingFileDefaultsToUnderlying(t *testing.T) {
	got := LoadBudgetConfig("", nil)
	if got.AllocationDimension != risk.ByUnderlying {
		t.Errorf("AllocationDimension = %v, want underlying", got.AllocationDimension)
	}
	if got.AllocationRatios != nil {
		t.Errorf("AllocationRatios = %v, want nil", got.AllocationRatios)
	}
}
