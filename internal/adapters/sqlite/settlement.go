package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"paperCoach/internal/domain"
	"paperCoach/internal/ports"
)

// SettleClose persists a close in one transaction: the position row (which must still
// be open), the trade-history row and the balance delta of trade.PNL. Nothing is
// written if any step fails.
func (r *Repository) SettleClose(ctx context.Context, pos *domain.Position, trade *domain.Trade) error {
	if pos == nil || trade == nil {
		return fmt.Errorf("%w: settle close needs a position and a trade", ports.ErrInvalidArgument)
	}
	var balance float64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := updatePosition(ctx, tx, pos, true); err != nil {
			return err
		}
		if _, err := insertTrade(ctx, tx, trade); err != nil {
			return err
		}
		updated, err := applyDelta(ctx, tx, pos.UserID, trade.PNL)
		if err != nil {
			return err
		}
		balance = updated.InexactFloat64()
		return nil
	})
	if err != nil {
		trade.ID = 0
		return fmt.Errorf("settle close of position %d: %w", pos.ID, err)
	}
	r.logger.Info(ctx, "Position settled", ports.Fields{
		"positionID": pos.ID,
		"tradeRef":   trade.Ref,
		"pnl":        trade.PNL,
		"reason":     pos.ExitReason,
		"balance":    balance,
	})
	return nil
}
