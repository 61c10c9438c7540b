package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"paperCoach/internal/utils"
)

func newExportCmd() *cobra.Command {
	var (
		out   string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the trade history as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			trades, err := current.service.TradeHistory(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				return utils.WriteTradesCSV(cmd.OutOrStdout(), trades)
			}
			if err := utils.WriteTradesToFile(out, trades); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d trades written to %s\n", len(trades), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().IntVar(&limit, "limit", 0, "most recent trades only (0 exports all)")
	return cmd
}
