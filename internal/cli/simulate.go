package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"paperCoach/internal/app"
	"paperCoach/internal/simulation"
	"paperCoach/internal/utils"
)

func newSimulateCmd() *cobra.Command {
	var (
		req      app.SimulateRequest
		seed     int64
		curveOut string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a Monte Carlo projection of your trading plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("seed") {
				req.Seed = &seed
			}
			res, err := current.service.Simulate(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Seed:            %d\n", res.Seed)
			fmt.Fprintf(out, "Expected return: %.2f\n", res.ExpectedReturn)
			fmt.Fprintf(out, "Best / worst:    %.2f / %.2f\n", res.MaxProfit, res.MaxLoss)
			fmt.Fprintf(out, "P25 / P50 / P75: %.2f / %.2f / %.2f\n", res.Percentile25, res.Percentile50, res.Percentile75)
			fmt.Fprintf(out, "Profitable runs: %.1f%%\n", res.WinRate)
			fmt.Fprintf(out, "Sharpe:          %.3f\n", res.SharpeRatio)
			fmt.Fprintf(out, "Ruined runs:     %d\n", res.RuinedRuns)
			if req.RRRatio > 0 {
				fmt.Fprintf(out, "Break-even win rate at R:R %.2f: %.1f%%\n", req.RRRatio, simulation.BreakEvenWinRate(req.RRRatio)*100)
			}
			if curveOut != "" {
				if err := utils.WriteCurveToFile(curveOut, res.AverageCurve); err != nil {
					return err
				}
				fmt.Fprintf(out, "Average curve written to %s\n", curveOut)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&req.RRRatio, "rr", 0, "reward:risk ratio (default: average of your trades)")
	f.Float64Var(&req.WinRate, "win-rate", 0, "win probability in (0, 1] (default: your win rate)")
	f.Float64Var(&req.TradeAmount, "amount", 0, "amount risked per trade (default: settings)")
	f.IntVar(&req.NumberOfTrades, "trades", 0, "trades per run (default: MC_TRADES)")
	f.IntVar(&req.Iterations, "iterations", 0, "number of runs (default: MC_ITERATIONS)")
	f.Int64Var(&seed, "seed", 0, "random seed for a reproducible result")
	f.StringVar(&curveOut, "curve-out", "", "write the average equity curve to this CSV file")
	return cmd
}
