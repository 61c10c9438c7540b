package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"paperCoach/internal/app"
	"paperCoach/internal/domain"
	"paperCoach/internal/risk"
)

func newTradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Open and close paper positions",
	}
	cmd.AddCommand(newTradeOpenCmd(), newTradeCloseCmd())
	return cmd
}

func newTradeOpenCmd() *cobra.Command {
	var (
		req       app.TradeRequest
		side      string
		tradeType string
	)
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Validate and open a paper position",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Direction = domain.Direction(strings.ToUpper(side))
			req.TradeType = domain.TradeType(strings.ToUpper(tradeType))
			req.Symbol = strings.ToUpper(req.Symbol)

			placed, err := current.service.PlaceTrade(cmd.Context(), req)
			out := cmd.OutOrStdout()
			if placed != nil {
				printValidation(out, placed.Validation)
			}
			if err != nil {
				return err
			}
			p := placed.Position
			fmt.Fprintf(out, "Opened position %d: %s %s %s qty=%s entry=%s tp=%s sl=%s leverage=%dx\n",
				p.ID, p.TradeType, p.Direction, p.Symbol, num(p.Quantity), num(p.EntryPrice),
				num(p.TakeProfit), num(p.StopLoss), p.Leverage)
			if placed.LiquidationPrice > 0 {
				fmt.Fprintf(out, "Estimated liquidation price: %s\n", num(placed.LiquidationPrice))
			}
			fmt.Fprintf(out, "Trade risk score: %.0f/100\n", placed.RiskScore)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&req.Symbol, "symbol", "s", "", "trading symbol, e.g. BTCUSDT")
	f.StringVar(&side, "side", "long", "long or short")
	f.StringVar(&tradeType, "type", "", "spot or futures (default: settings trade mode)")
	f.Float64Var(&req.EntryPrice, "entry", 0, "entry price (default: current price)")
	f.Float64Var(&req.TakeProfit, "tp", 0, "take-profit price")
	f.Float64Var(&req.StopLoss, "sl", 0, "stop-loss price")
	f.IntVar(&req.Leverage, "leverage", 0, "leverage (default: settings)")
	f.Float64Var(&req.RiskAmount, "risk", 0, "amount to risk (default: settings)")
	_ = cmd.MarkFlagRequired("symbol")
	_ = cmd.MarkFlagRequired("tp")
	_ = cmd.MarkFlagRequired("sl")
	return cmd
}

func newTradeCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <position-id>",
		Short: "Close an open position at the current price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid position id %q: %w", args[0], err)
			}
			pos, err := current.service.ClosePosition(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Closed position %d at %s, PnL %s\n", pos.ID, num(*pos.ClosedPrice), num(pos.PNL))
			return nil
		},
	}
}

func printValidation(out io.Writer, res risk.ValidationResult) {
	for _, v := range res.Errors {
		fmt.Fprintf(out, "ERROR   %-24s %s\n", v.Code, v.Message)
	}
	for _, v := range res.Warnings {
		fmt.Fprintf(out, "WARNING %-24s %s\n", v.Code, v.Message)
	}
	if res.TradeSize > 0 {
		fmt.Fprintf(out, "R:R %.2f  max loss %s (%.2f%% of balance)\n", res.RRRatio, num(res.MaxLoss), res.MaxLossPercent)
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
