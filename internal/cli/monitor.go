package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newMonitorCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Watch open positions for take profit, stop loss and liquidation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				interval = current.cfg.MonitorInterval
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return current.service.Run(ctx, interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "polling interval (default: MONITOR_INTERVAL_SECONDS)")
	return cmd
}
