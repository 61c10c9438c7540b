package cli

import (
	"context"

	"paperCoach/internal/liquidation"
	"paperCoach/internal/ports"
)

// logSink writes liquidation events to the application log.
type logSink struct {
	logger ports.Logger
}

func (s *logSink) Publish(ctx context.Context, e liquidation.Event) {
	fields := ports.Fields{
		"eventID":    e.ID,
		"positionID": e.PositionID,
		"symbol":     e.Symbol,
		"reason":     e.Reason,
	}
	switch e.Type {
	case liquidation.EventCompleted:
		fields["executionPrice"] = e.ExecutionPrice
		fields["pnl"] = e.PNL
		s.logger.Warn(ctx, "Position liquidated", fields)
	case liquidation.EventFailed:
		s.logger.Error(ctx, e.Err, "Liquidation failed", fields)
	default:
		s.logger.Info(ctx, "Liquidation started", fields)
	}
}
