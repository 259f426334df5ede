package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"optionstrategy/internal/pricing"
	"optionstrategy/internal/risk"
	"optionstrategy/internal/selector"
)

func newTestServer() *Server {
	return New(pricing.NewEngine(pricing.DefaultEngineConfig()), selector.Default(), risk.BudgetConfig{
		AllocationDimension: risk.ByUnderlying,
		AllocationRatios:    map[string]float64{"IF2501.CFFEX": 1.0},
	})
}

func postJSON(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandlePriceValidInput(t *testing.T) {
	s := newTestServer()
	rec := postJSON(t, s, "/price", priceRequest{
		SpotPrice:     100,
		StrikePrice:   105,
		TimeToExpiry:  0.5,
		RiskFreeRate:  0.03,
		Volatility:    0.2,
		OptionType:    pricing.Call,
		ExerciseStyle: pricing.European,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Price pricing.PricingResult `json:"price"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !resp.Price.Success {
		t.Errorf("Price.Success = false, want true: %+v", resp.Price)
	}
}

func TestHandlePriceRejectsGetMethod(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/price", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandlePriceRejectsMalformedBody(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/price", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleScoreReturnsFilteredCandidates(t *testing.T) {
	s := newTestServer()
	rec := postJSON(t, s, "/score", scoreRequest{
		Candidates: []selector.Candidate{
			{VtSymbol: "IO2501-C-4200.CFFEX", OptionType: pricing.Call, StrikePrice: 4200, BidPrice: 15, BidVolume: 20, AskPrice: 16, DaysToExpiry: 10},
			{VtSymbol: "IO2501-C-3900.CFFEX", OptionType: pricing.Call, StrikePrice: 3900, BidPrice: 15, BidVolume: 20, AskPrice: 16, DaysToExpiry: 10},
		},
		OptionType:      pricing.Call,
		UnderlyingPrice: 4000,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Scores []selector.Score `json:"scores"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(resp.Scores) != 1 {
		t.Fatalf("len(Scores) = %d, want 1 (only the OTM candidate)", len(resp.Scores))
	}
	if resp.Scores[0].VtSymbol != "IO2501-C-4200.CFFEX" {
		t.Errorf("Scores[0].VtSymbol = %q, want IO2501-C-4200.CFFEX", resp.Scores[0].VtSymbol)
	}
}

func TestHandleRiskBudgetAllocatesByRatio(t *testing.T) {
	s := newTestServer()
	rec := postJSON(t, s, "/risk/budget", riskBudgetRequest{
		TotalLimits: risk.Thresholds{
			PortfolioDeltaLimit: 1000,
			PortfolioGammaLimit: 50,
			PortfolioVegaLimit:  200,
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Budgets map[string]risk.Budget `json:"budgets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	b, ok := resp.Budgets["IF2501.CFFEX"]
	if !ok {
		t.Fatalf("budgets missing IF2501.CFFEX: %+v", resp.Budgets)
	}
	if b.DeltaBudget != 1000 {
		t.Errorf("DeltaBudget = %v, want 1000 (ratio 1.0)", b.DeltaBudget)
	}
}

func TestHandleRiskBudgetRejectsGetMethod(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/risk/budget", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
