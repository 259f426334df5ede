package pricing

// EngineConfig selects which American pricer the Engine routes to and how
// many CRR steps to use. Immutable; overridable from internal/config.
type EngineConfig struct {
	AmericanModel Model
	CRRSteps      int
}

// DefaultEngineConfig matches the original system's defaults: BAW for
// American options, 100-step CRR when CRR is selected explicitly.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{AmericanModel: ModelBAW, CRRSteps: 100}
}

// Engine is the unified pricing entry point: it validates inputs once,
// then routes EUROPEAN to Black-Scholes and AMERICAN to BAW or CRR per
// config.
type Engine struct {
	greeks *GreeksCalculator
	bs     *BlackScholesPricer
	baw    *BAWPricer
	crr    *CRRPricer
	cfg    EngineConfig
}

// NewEngine builds a dispatcher from cfg.
func NewEngine(cfg EngineConfig) *Engine {
	greeks := NewGreeksCalculator(nil)
	return &Engine{
		greeks: greeks,
		bs:     NewBlackScholesPricer(greeks),
		baw:    NewBAWPricer(),
		crr:    NewCRRPricer(cfg.CRRSteps),
		cfg:    cfg,
	}
}

// Price routes params to the configured pricer. Invalid inputs yield
// success=false, model_used="" without reaching any individual pricer.
func (e *Engine) Price(params PricingInput) PricingResult {
	if msg := validateCommon(params.SpotPrice, params.StrikePrice, params.Volatility, params.TimeToExpiry); msg != "" {
		return PricingResult{Success: false, ErrorMessage: msg, ModelUsed: ""}
	}

	if params.ExerciseStyle == European {
		return e.bs.Price(params)
	}
	if e.cfg.AmericanModel == ModelCRR {
		return e.crr.Price(params)
	}
	return e.baw.Price(params)
}

// Greeks exposes the engine's shared GreeksCalculator.
func (e *Engine) Greeks() *GreeksCalculator {
	return e.greeks
}
