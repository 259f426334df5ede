// Command optionstrategy is the CLI entry point for the option strategy
// engine: pricing, Greeks, implied volatility, selection scoring, risk
// budget checks, one scheduler/coordinator advance tick, and a read-only
// introspection HTTP server. The core packages never touch a gateway; every
// subcommand here exercises them against operator-supplied or synthetic
// inputs.
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"optionstrategy/internal/api"
	"optionstrategy/internal/config"
	"optionstrategy/internal/coordinator"
	"optionstrategy/internal/execution"
	"optionstrategy/internal/logger"
	"optionstrategy/internal/order"
	"optionstrategy/internal/pricing"
	"optionstrategy/internal/risk"
	"optionstrategy/internal/scheduler"
	"optionstrategy/internal/selector"
)

var version = "dev"

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "optionstrategy",
		Short: "Option strategy pricing, selection, and execution engine",
	}

	root.AddCommand(
		newPriceCmd(),
		newGreeksCmd(),
		newIVCmd(),
		newScoreCmd(),
		newRiskCmd(),
		newAdvanceCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			logger.Banner(version)
		},
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// overrideIfChanged stages value under key in overrides, but only when
// flagName was explicitly set on the command line. This is what makes CLI
// overrides beat a TOML file while an unset flag's zero value never
// shadows it: internal/config's Load*Config treats overrides as the
// highest-precedence layer, so only flags the operator actually typed may
// enter it.
func overrideIfChanged(cmd *cobra.Command, flagName string, overrides map[string]any, key string, value any) {
	if cmd.Flags().Changed(flagName) {
		overrides[key] = value
	}
}

func newPriceCmd() *cobra.Command {
	var spot, strike, t, r, vol float64
	var optType, style, configPath, americanModel string
	var crrSteps int

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a single option via Black-Scholes, BAW, or CRR",
		Run: func(cmd *cobra.Command, args []string) {
			overrides := map[string]any{}
			overrideIfChanged(cmd, "american-model", overrides, "american_model", americanModel)
			overrideIfChanged(cmd, "crr-steps", overrides, "crr_steps", crrSteps)

			cfg := config.LoadPricingEngineConfig(configPath, overrides)
			engine := pricing.NewEngine(cfg)
			result := engine.Price(pricing.PricingInput{
				SpotPrice:     spot,
				StrikePrice:   strike,
				TimeToExpiry:  t,
				RiskFreeRate:  r,
				Volatility:    vol,
				OptionType:    pricing.OptionType(optType),
				ExerciseStyle: pricing.ExerciseStyle(style),
			})
			printJSON(result)
		},
	}

	cmd.Flags().Float64Var(&spot, "spot", 0, "spot price")
	cmd.Flags().Float64Var(&strike, "strike", 0, "strike price")
	cmd.Flags().Float64Var(&t, "time", 0, "time to expiry in years")
	cmd.Flags().Float64Var(&r, "rate", 0, "risk-free rate")
	cmd.Flags().Float64Var(&vol, "vol", 0, "volatility")
	cmd.Flags().StringVar(&optType, "option-type", string(pricing.Call), "call | put")
	cmd.Flags().StringVar(&style, "style", string(pricing.European), "european | american")
	cmd.Flags().StringVar(&configPath, "config", "", "pricing engine TOML config path")
	cmd.Flags().StringVar(&americanModel, "american-model", "", "american exercise model override: BAW | CRR (unset = config default)")
	cmd.Flags().IntVar(&crrSteps, "crr-steps", 0, "CRR binomial step count override (unset = config default)")
	return cmd
}

func newGreeksCmd() *cobra.Command {
	var spot, strike, t, r, vol float64
	var optType string

	cmd := &cobra.Command{
		Use:   "greeks",
		Short: "Compute delta, gamma, theta, vega for an option",
		Run: func(cmd *cobra.Command, args []string) {
			calc := pricing.NewGreeksCalculator(nil)
			result := calc.CalculateGreeks(pricing.GreeksInput{
				SpotPrice:    spot,
				StrikePrice:  strike,
				TimeToExpiry: t,
				RiskFreeRate: r,
				Volatility:   vol,
				OptionType:   pricing.OptionType(optType),
			})
			printJSON(result)
		},
	}

	cmd.Flags().Float64Var(&spot, "spot", 0, "spot price")
	cmd.Flags().Float64Var(&strike, "strike", 0, "strike price")
	cmd.Flags().Float64Var(&t, "time", 0, "time to expiry in years")
	cmd.Flags().Float64Var(&r, "rate", 0, "risk-free rate")
	cmd.Flags().Float64Var(&vol, "vol", 0, "volatility")
	cmd.Flags().StringVar(&optType, "option-type", string(pricing.Call), "call | put")
	return cmd
}

func newIVCmd() *cobra.Command {
	var market, spot, strike, t, r float64
	var optType, method string
	var maxIter int
	var tol float64

	cmd := &cobra.Command{
		Use:   "iv",
		Short: "Solve implied volatility from a market price",
		Run: func(cmd *cobra.Command, args []string) {
			solver := pricing.NewIVSolver()
			result := solver.Solve(
				market, spot, strike, t, r, pricing.OptionType(optType),
				pricing.SolveMethod(method), maxIter, tol,
			)
			printJSON(result)
		},
	}

	cmd.Flags().Float64Var(&market, "market-price", 0, "observed market price")
	cmd.Flags().Float64Var(&spot, "spot", 0, "spot price")
	cmd.Flags().Float64Var(&strike, "strike", 0, "strike price")
	cmd.Flags().Float64Var(&t, "time", 0, "time to expiry in years")
	cmd.Flags().Float64Var(&r, "rate", 0, "risk-free rate")
	cmd.Flags().StringVar(&optType, "option-type", string(pricing.Call), "call | put")
	cmd.Flags().StringVar(&method, "method", string(pricing.Newton), "newton | bisection | brent")
	cmd.Flags().IntVar(&maxIter, "max-iterations", 100, "maximum solver iterations")
	cmd.Flags().Float64Var(&tol, "tolerance", 1e-6, "convergence tolerance")
	return cmd
}

func newScoreCmd() *cobra.Command {
	var candidatesPath, optType, configPath string
	var underlying, minBidPrice float64
	var strikeLevel, minBidVolume int

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Filter and score option candidates from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(candidatesPath)
			if err != nil {
				return err
			}
			var candidates []selector.Candidate
			if err := json.Unmarshal(data, &candidates); err != nil {
				return err
			}

			overrides := map[string]any{}
			overrideIfChanged(cmd, "strike-level", overrides, "strike_level", strikeLevel)
			overrideIfChanged(cmd, "min-bid-price", overrides, "min_bid_price", minBidPrice)
			overrideIfChanged(cmd, "min-bid-volume", overrides, "min_bid_volume", minBidVolume)

			cfg := config.LoadSelectorConfig(configPath, overrides)
			filtered := selector.Filter(candidates, pricing.OptionType(optType), underlying, cfg)
			scores := selector.ScoreCandidates(filtered, pricing.OptionType(optType), underlying, cfg)
			printJSON(scores)
			return nil
		},
	}

	cmd.Flags().StringVar(&candidatesPath, "candidates", "", "path to a JSON array of selector.Candidate")
	cmd.Flags().StringVar(&optType, "option-type", string(pricing.Call), "call | put")
	cmd.Flags().Float64Var(&underlying, "underlying", 0, "underlying price")
	cmd.Flags().StringVar(&configPath, "config", "", "selector TOML config path")
	cmd.Flags().IntVar(&strikeLevel, "strike-level", 0, "strike-level filter override (unset = config default)")
	cmd.Flags().Float64Var(&minBidPrice, "min-bid-price", 0, "minimum bid price filter override (unset = config default)")
	cmd.Flags().IntVar(&minBidVolume, "min-bid-volume", 0, "minimum bid volume filter override (unset = config default)")
	cmd.MarkFlagRequired("candidates")
	return cmd
}

func newRiskCmd() *cobra.Command {
	var configPath, allocationDimension string
	var deltaLimit, gammaLimit, vegaLimit float64

	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Allocate a portfolio risk budget across underlyings or strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[string]any{}
			overrideIfChanged(cmd, "allocation-dimension", overrides, "allocation_dimension", allocationDimension)

			budgetCfg := config.LoadBudgetConfig(configPath, overrides)
			allocator, err := risk.NewAllocator(budgetCfg)
			if err != nil {
				return err
			}
			budgets := allocator.AllocateBudgetByUnderlying(risk.Thresholds{
				PortfolioDeltaLimit: deltaLimit,
				PortfolioGammaLimit: gammaLimit,
				PortfolioVegaLimit:  vegaLimit,
			})
			printJSON(budgets)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "risk budget TOML config path")
	cmd.Flags().Float64Var(&deltaLimit, "portfolio-delta-limit", 0, "portfolio delta limit")
	cmd.Flags().Float64Var(&gammaLimit, "portfolio-gamma-limit", 0, "portfolio gamma limit")
	cmd.Flags().Float64Var(&vegaLimit, "portfolio-vega-limit", 0, "portfolio vega limit")
	cmd.Flags().StringVar(&allocationDimension, "allocation-dimension", "", "underlying | strategy override (unset = config default)")
	return cmd
}

// newAdvanceCmd ticks the scheduler/coordinator one step against synthetic
// quotes: submits a TWAP-sliced instruction, processes due children at
// adaptive prices, and reports the resulting instructions and events. It
// never touches a gateway.
func newAdvanceCmd() *cobra.Command {
	var vtSymbol string
	var volume, numSlices, intervalSeconds int
	var bid, ask, priceTick float64
	var execConfigPath, schedConfigPath string

	cmd := &cobra.Command{
		Use:   "advance",
		Short: "Tick the scheduler/coordinator one step against synthetic quotes",
		Run: func(cmd *cobra.Command, args []string) {
			execCfg := config.LoadExecutionConfig(execConfigPath, nil)
			schedDefaults := config.LoadSchedulerDefaults(schedConfigPath, nil)

			if numSlices == 0 {
				numSlices = schedDefaults.DefaultNumSlices
			}
			if intervalSeconds == 0 {
				intervalSeconds = schedDefaults.DefaultIntervalSeconds
			}
			if priceTick == 0 {
				priceTick = schedDefaults.DefaultPriceTick
			}

			now := time.Now()
			sched := scheduler.New(rand.New(rand.NewSource(now.UnixNano())))
			executor := execution.New(execCfg)
			coord := coordinator.New(executor, sched)

			instr := order.Instruction{
				VtSymbol:  vtSymbol,
				Direction: order.Long,
				Offset:    order.Open,
				Volume:    volume,
				OrderType: order.Limit,
			}
			parent := sched.SubmitTWAP(instr, scheduler.TWAP, numSlices, intervalSeconds, now)

			instrs, evs := coord.ProcessPendingChildren(now, bid, ask, priceTick)
			logger.Info("Advance", fmt.Sprintf("%s: submitting %s volume across %d slices",
				vtSymbol, humanize.Comma(int64(volume)), numSlices))
			printJSON(map[string]any{
				"parent_order_id":    parent.OrderID,
				"child_instructions": instrs,
				"events":             evs,
			})
		},
	}

	cmd.Flags().StringVar(&vtSymbol, "vt-symbol", "", "option vt_symbol to trade")
	cmd.Flags().IntVar(&volume, "volume", 0, "total parent volume")
	cmd.Flags().IntVar(&numSlices, "num-slices", 0, "TWAP slice count (0 = config default)")
	cmd.Flags().IntVar(&intervalSeconds, "interval-seconds", 0, "seconds between slices (0 = config default)")
	cmd.Flags().Float64Var(&bid, "bid", 0, "synthetic bid price")
	cmd.Flags().Float64Var(&ask, "ask", 0, "synthetic ask price")
	cmd.Flags().Float64Var(&priceTick, "price-tick", 0, "price tick (0 = config default)")
	cmd.Flags().StringVar(&execConfigPath, "exec-config", "", "executor TOML config path")
	cmd.Flags().StringVar(&schedConfigPath, "scheduler-config", "", "scheduler TOML config path")
	return cmd
}

func newServeCmd() *cobra.Command {
	var addr, pricingConfigPath, selectorConfigPath, budgetConfigPath string
	var americanModel, allocationDimension string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the read-only introspection HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			pricingOverrides := map[string]any{}
			overrideIfChanged(cmd, "american-model", pricingOverrides, "american_model", americanModel)
			budgetOverrides := map[string]any{}
			overrideIfChanged(cmd, "allocation-dimension", budgetOverrides, "allocation_dimension", allocationDimension)

			pricingCfg := config.LoadPricingEngineConfig(pricingConfigPath, pricingOverrides)
			selectorCfg := config.LoadSelectorConfig(selectorConfigPath, nil)
			budgetCfg := config.LoadBudgetConfig(budgetConfigPath, budgetOverrides)

			engine := pricing.NewEngine(pricingCfg)
			srv := api.New(engine, selectorCfg, budgetCfg)

			logger.Banner(version)
			logger.Info("Server", fmt.Sprintf("listening on %s", addr))
			return http.ListenAndServe(addr, srv)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&pricingConfigPath, "pricing-config", "", "pricing engine TOML config path")
	cmd.Flags().StringVar(&selectorConfigPath, "selector-config", "", "selector TOML config path")
	cmd.Flags().StringVar(&budgetConfigPath, "budget-config", "", "risk budget TOML config path")
	cmd.Flags().StringVar(&americanModel, "american-model", "", "american exercise model override: BAW | CRR (unset = config default)")
	cmd.Flags().StringVar(&allocationDimension, "allocation-dimension", "", "underlying | strategy override (unset = config default)")
	return cmd
}
