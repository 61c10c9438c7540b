package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"paperCoach/internal/domain"
	"paperCoach/internal/ports"
)

// CreateTrade saves a new trade record and returns its assigned ID.
func (r *Repository) CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error) {
	id, err := insertTrade(ctx, r.db, trade)
	if err != nil {
		return 0, err
	}
	r.logger.Debug(ctx, "Trade history created", ports.Fields{"tradeID": id, "ref": trade.Ref, "pnl": trade.PNL})
	return id, nil
}

func insertTrade(ctx context.Context, q querier, trade *domain.Trade) (int64, error) {
	const query = `
	INSERT INTO trade_history (ref, position_id, user_id, symbol, direction, trade_type, entry_price,
		exit_price, quantity, leverage, pnl, entry_time, exit_time, close_reason)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := q.ExecContext(ctx, query,
		trade.Ref, trade.PositionID, trade.UserID, trade.Symbol, trade.Direction, trade.TradeType, trade.EntryPrice,
		trade.ExitPrice, trade.Quantity, trade.Leverage, trade.PNL, utc(trade.EntryTime), utc(trade.ExitTime), trade.CloseReason)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade history %s for position %d: %w", trade.Ref, trade.PositionID, mapError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for trade history %s: %w", trade.Ref, err)
	}
	trade.ID = id
	return id, nil
}

// FindByUser retrieves the most recent trades of a user, newest first, up to limit.
// A non-positive limit returns every trade.
func (r *Repository) FindByUser(ctx context.Context, userID string, limit int) ([]*domain.Trade, error) {
	if limit <= 0 {
		limit = -1
	}
	const query = `
	SELECT id, ref, position_id, user_id, symbol, direction, trade_type, entry_price, exit_price,
	       quantity, leverage, pnl, entry_time, exit_time, close_reason
	FROM trade_history
	WHERE user_id = ? ORDER BY exit_time DESC, id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade history for user %s: %w", userID, mapError(err))
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade history during FindByUser: %w", err)
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade history rows: %w", err)
	}
	return trades, nil
}

// RealizedLossSince returns the magnitude of losses realized at or after since.
func (r *Repository) RealizedLossSince(ctx context.Context, userID string, since time.Time) (float64, error) {
	const query = `SELECT COALESCE(SUM(pnl), 0) FROM trade_history WHERE user_id = ? AND pnl < 0 AND exit_time >= ?`
	var sum float64
	if err := r.db.QueryRowContext(ctx, query, userID, utc(since)).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum realized losses for user %s: %w", userID, mapError(err))
	}
	return -sum, nil
}

// scanTrade scans a row into a domain.Trade struct.
func scanTrade(s scanner) (*domain.Trade, error) {
	th := &domain.Trade{}
	var direction, tradeType string
	var closeReason sql.NullString
	err := s.Scan(
		&th.ID, &th.Ref, &th.PositionID, &th.UserID, &th.Symbol, &direction, &tradeType, &th.EntryPrice, &th.ExitPrice,
		&th.Quantity, &th.Leverage, &th.PNL, &th.EntryTime, &th.ExitTime, &closeReason)
	if err != nil {
		return nil, err
	}
	th.Direction = domain.Direction(direction)
	th.TradeType = domain.TradeType(tradeType)
	th.EntryTime = th.EntryTime.UTC()
	th.ExitTime = th.ExitTime.UTC()
	if closeReason.Valid {
		th.CloseReason = domain.CloseReason(closeReason.String)
	} else {
		th.CloseReason = domain.CloseReasonUnknown
	}
	return th, nil
}
