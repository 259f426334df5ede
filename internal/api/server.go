// Package api implements a small read-only HTTP server for operational
// introspection: pricing, scoring, and risk-budget queries against the
// engine's pure domain packages. It holds no gateway connection, no
// persistence, and no session state.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"optionstrategy/internal/pricing"
	"optionstrategy/internal/risk"
	"optionstrategy/internal/selector"
)

// Server wires the pricing engine, option selector config, and risk
// allocator into a ServeMux serving JSON responses.
type Server struct {
	engine       *pricing.Engine
	selectorCfg  selector.Config
	budgetConfig risk.BudgetConfig
	mux          *http.ServeMux
}

// New builds a Server. engine, selectorCfg, and budgetConfig are typically
// produced by internal/config's loaders.
func New(engine *pricing.Engine, selectorCfg selector.Config, budgetConfig risk.BudgetConfig) *Server {
	s := &Server{
		engine:       engine,
		selectorCfg:  selectorCfg,
		budgetConfig: budgetConfig,
		mux:          http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP satisfies http.Handler, delegating to the internal mux.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/price", s.handlePrice)
	s.mux.HandleFunc("/score", s.handleScore)
	s.mux.HandleFunc("/risk/budget", s.handleRiskBudget)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("编码响应失败")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type priceRequest struct {
	SpotPrice     float64             `json:"spot_price"`
	StrikePrice   float64             `json:"strike_price"`
	TimeToExpiry  float64             `json:"time_to_expiry"`
	RiskFreeRate  float64             `json:"risk_free_rate"`
	Volatility    float64             `json:"volatility"`
	OptionType    pricing.OptionType  `json:"option_type"`
	ExerciseStyle pricing.ExerciseStyle `json:"exercise_style"`
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "仅支持 POST")
		return
	}

	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "请求体解析失败: "+err.Error())
		return
	}

	result := s.engine.Price(pricing.PricingInput{
		SpotPrice:     req.SpotPrice,
		StrikePrice:   req.StrikePrice,
		TimeToExpiry:  req.TimeToExpiry,
		RiskFreeRate:  req.RiskFreeRate,
		Volatility:    req.Volatility,
		OptionType:    req.OptionType,
		ExerciseStyle: req.ExerciseStyle,
	})

	greeks := s.engine.Greeks().CalculateGreeks(pricing.GreeksInput{
		SpotPrice:    req.SpotPrice,
		StrikePrice:  req.StrikePrice,
		TimeToExpiry: req.TimeToExpiry,
		RiskFreeRate: req.RiskFreeRate,
		Volatility:   req.Volatility,
		OptionType:   req.OptionType,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"price":  result,
		"greeks": greeks,
	})
}

type scoreRequest struct {
	Candidates      []selector.Candidate `json:"candidates"`
	OptionType      pricing.OptionType   `json:"option_type"`
	UnderlyingPrice float64              `json:"underlying_price"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "仅支持 POST")
		return
	}

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "请求体解析失败: "+err.Error())
		return
	}

	filtered := selector.Filter(req.Candidates, req.OptionType, req.UnderlyingPrice, s.selectorCfg)
	scores := selector.ScoreCandidates(filtered, req.OptionType, req.UnderlyingPrice, s.selectorCfg)

	writeJSON(w, http.StatusOK, map[string]any{"scores": scores})
}

type riskBudgetRequest struct {
	TotalLimits risk.Thresholds `json:"total_limits"`
}

func (s *Server) handleRiskBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "仅支持 POST")
		return
	}

	var req riskBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "请求体解析失败: "+err.Error())
		return
	}

	allocator, err := risk.NewAllocator(s.budgetConfig)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	budgets := allocator.AllocateBudgetByUnderlying(req.TotalLimits)
	writeJSON(w, http.StatusOK, map[string]any{"budgets": budgets})
}
