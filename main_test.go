package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"optionstrategy/internal/pricing"
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

func writeTempJSON(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "candidates.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() error = %v", err)
	}
	orig := os.Stdout
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = orig

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

// TestPriceCommandFlagOverrideBeatsConfigFile is Testable Property 8 at the
// CLI layer: a --american-model flag the operator actually set must win
// over the TOML file's american_model.
func TestPriceCommandFlagOverrideBeatsConfigFile(t *testing.T) {
	configPath := writeTempTOML(t, `
[american]
american_model = "BAW"
`)

	out := captureStdout(t, func() {
		cmd := newPriceCmd()
		cmd.SetArgs([]string{
			"--spot", "80", "--strike", "100", "--time", "0.5", "--rate", "0.05", "--vol", "0.2",
			"--option-type", "put", "--style", "american",
			"--config", configPath, "--american-model", "CRR", "--crr-steps", "50",
		})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	})

	var result pricing.PricingResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("Unmarshal(%q) error = %v", out, err)
	}
	if result.ModelUsed != pricing.ModelCRR {
		t.Errorf("ModelUsed = %v, want %v (flag override should beat the TOML file's BAW)", result.ModelUsed, pricing.ModelCRR)
	}
}

// TestPriceCommandUnsetFlagKeepsConfigFileValue is the converse: with
// --american-model left unset, the TOML file's value governs instead of
// being shadowed by the flag's zero value.
func TestPriceCommandUnsetFlagKeepsConfigFileValue(t *testing.T) {
	configPath := writeTempTOML(t, `
[american]
american_model = "CRR"

[crr]
crr_steps = 50
`)

	out := captureStdout(t, func() {
		cmd := newPriceCmd()
		cmd.SetArgs([]string{
			"--spot", "100", "--strike", "100", "--time", "0.5", "--rate", "0.05", "--vol", "0.2",
			"--option-type", "call", "--style", "american",
			"--config", configPath,
		})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	})

	var result pricing.PricingResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("Unmarshal(%q) error = %v", out, err)
	}
	if result.ModelUsed != pricing.ModelCRR {
		t.Errorf("ModelUsed = %v, want %v (unset flag should keep the TOML file's CRR)", result.ModelUsed, pricing.ModelCRR)
	}
}

// TestScoreCommandFlagOverrideBeatsConfigFile exercises the same mechanism
// through the selector's filter, where the override's effect is directly
// observable: a --min-bid-price higher than the file's value excludes a
// candidate the file alone would have kept.
func TestScoreCommandFlagOverrideBeatsConfigFile(t *testing.T) {
	configPath := writeTempTOML(t, `
[filter]
min_bid_price = 5.0
max_trading_days = 365
`)
	candidatesPath := writeTempJSON(t, `[
		{"VtSymbol": "IO2501-C-4200.CFFEX", "OptionType": "call", "StrikePrice": 4200,
		 "BidPrice": 15, "BidVolume": 20, "AskPrice": 16, "DaysToExpiry": 10}
	]`)

	out := captureStdout(t, func() {
		cmd := newScoreCmd()
		cmd.SetArgs([]string{
			"--candidates", candidatesPath, "--option-type", "call", "--underlying", "4000",
			"--config", configPath, "--min-bid-price", "20",
		})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	})

	var scores []map[string]any
	if err := json.Unmarshal([]byte(out), &scores); err != nil {
		t.Fatalf("Unmarshal(%q) error = %v", out, err)
	}
	if len(scores) != 0 {
		t.Errorf("scores = %v, want empty (flag's min-bid-price=20 should exclude the bid_price=15 candidate the file alone would keep)", scores)
	}
}
