package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"paperCoach/internal/domain"
	"paperCoach/internal/ports"
)

const positionColumns = `id, user_id, symbol, quantity, entry_price, take_profit, stop_loss, leverage,
	direction, trade_type, margin_mode, risk_amount, rr_ratio, open_time, close_time,
	closed_price, pnl, status, exit_reason`

// Create saves a new position and returns its assigned ID.
func (r *Repository) Create(ctx context.Context, pos *domain.Position) (int64, error) {
	const query = `
	INSERT INTO positions (user_id, symbol, quantity, entry_price, take_profit, stop_loss, leverage,
		direction, trade_type, margin_mode, risk_amount, rr_ratio, open_time, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	status := pos.Status
	if status == "" {
		status = domain.StatusOpen
	}
	marginMode := pos.MarginMode
	if marginMode == "" {
		marginMode = domain.MarginIsolated
	}
	result, err := r.db.ExecContext(ctx, query,
		pos.UserID, pos.Symbol, pos.Quantity, pos.EntryPrice, pos.TakeProfit, pos.StopLoss, pos.Leverage,
		pos.Direction, pos.TradeType, marginMode, pos.RiskAmount, pos.RRRatio, utc(pos.OpenTime), status)
	if err != nil {
		return 0, fmt.Errorf("failed to insert position for symbol %s: %w", pos.Symbol, mapError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for position %s: %w", pos.Symbol, err)
	}
	pos.ID = id
	pos.Status = status
	pos.MarginMode = marginMode
	r.logger.Debug(ctx, "Position created", ports.Fields{"positionID": id, "userID": pos.UserID, "symbol": pos.Symbol})
	return id, nil
}

// Update modifies an existing position based on its ID.
func (r *Repository) Update(ctx context.Context, pos *domain.Position) error {
	if err := updatePosition(ctx, r.db, pos, false); err != nil {
		return err
	}
	r.logger.Debug(ctx, "Position updated", ports.Fields{"positionID": pos.ID, "status": pos.Status})
	return nil
}

// updatePosition writes every mutable column. With onlyOpen set, a row that is already
// closed is left untouched and ports.ErrPositionClosed is returned.
func updatePosition(ctx context.Context, q querier, pos *domain.Position, onlyOpen bool) error {
	query := `
	UPDATE positions
	SET quantity = ?, entry_price = ?, take_profit = ?, stop_loss = ?, leverage = ?,
	    margin_mode = ?, risk_amount = ?, rr_ratio = ?, close_time = ?, closed_price = ?,
	    pnl = ?, status = ?, exit_reason = ?
	WHERE id = ?`
	if onlyOpen {
		query += ` AND status = 'open'`
	}

	var closedPrice sql.NullFloat64
	if pos.ClosedPrice != nil {
		closedPrice = sql.NullFloat64{Float64: *pos.ClosedPrice, Valid: true}
	}
	var exitReason sql.NullString
	if pos.ExitReason != "" {
		exitReason = sql.NullString{String: string(pos.ExitReason), Valid: true}
	}

	result, err := q.ExecContext(ctx, query,
		pos.Quantity, pos.EntryPrice, pos.TakeProfit, pos.StopLoss, pos.Leverage,
		pos.MarginMode, pos.RiskAmount, pos.RRRatio, nullTime(pos.CloseTime), closedPrice,
		pos.PNL, pos.Status, exitReason, pos.ID)
	if err != nil {
		return fmt.Errorf("failed to update position ID %d: %w", pos.ID, mapError(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for update position ID %d: %w", pos.ID, err)
	}
	if rowsAffected == 0 {
		if onlyOpen {
			return fmt.Errorf("position ID %d is missing or already closed: %w", pos.ID, ports.ErrPositionClosed)
		}
		return fmt.Errorf("position ID %d not found for update: %w", pos.ID, ports.ErrNotFound)
	}
	return nil
}

// FindByID retrieves a position by its unique ID. Returns nil, nil if not found.
func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.Position, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+positionColumns+` FROM positions WHERE id = ?`, id)
	pos, err := scanPosition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "Position not found by ID", ports.Fields{"positionID": id})
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query position by ID %d: %w", id, mapError(err))
	}
	return pos, nil
}

// FindActiveByUser retrieves all open positions of a user, ordered by open time.
func (r *Repository) FindActiveByUser(ctx context.Context, userID string) ([]*domain.Position, error) {
	const query = `SELECT ` + positionColumns + ` FROM positions
	WHERE user_id = ? AND status = 'open' ORDER BY open_time, id`
	return r.queryPositions(ctx, "FindActiveByUser", query, userID)
}

// FindClosedByUser retrieves closed positions whose close time is in [from, to),
// ordered by close time. A zero bound is open.
func (r *Repository) FindClosedByUser(ctx context.Context, userID string, from, to time.Time) ([]*domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE user_id = ? AND status = 'closed'`
	args := []interface{}{userID}
	if !from.IsZero() {
		query += ` AND close_time >= ?`
		args = append(args, utc(from))
	}
	if !to.IsZero() {
		query += ` AND close_time < ?`
		args = append(args, utc(to))
	}
	query += ` ORDER BY close_time, id`
	return r.queryPositions(ctx, "FindClosedByUser", query, args...)
}

func (r *Repository) queryPositions(ctx context.Context, op, query string, args ...interface{}) ([]*domain.Position, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query positions: %w", op, mapError(err))
	}
	defer rows.Close()

	positions := make([]*domain.Position, 0)
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to scan position: %w", op, err)
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: error iterating position rows: %w", op, err)
	}
	return positions, nil
}

// scanPosition scans a row into a domain.Position struct.
func scanPosition(s scanner) (*domain.Position, error) {
	p := &domain.Position{}
	var direction, tradeType, marginMode, status string
	var closeTime sql.NullTime
	var closedPrice sql.NullFloat64
	var exitReason sql.NullString
	err := s.Scan(
		&p.ID, &p.UserID, &p.Symbol, &p.Quantity, &p.EntryPrice, &p.TakeProfit, &p.StopLoss, &p.Leverage,
		&direction, &tradeType, &marginMode, &p.RiskAmount, &p.RRRatio, &p.OpenTime, &closeTime,
		&closedPrice, &p.PNL, &status, &exitReason)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	p.Direction = domain.Direction(direction)
	p.TradeType = domain.TradeType(tradeType)
	p.MarginMode = domain.MarginMode(marginMode)
	p.Status = domain.PositionStatus(status)
	p.IsClosed = p.Status == domain.StatusClosed
	p.OpenTime = p.OpenTime.UTC()
	if closeTime.Valid {
		t := closeTime.Time.UTC()
		p.CloseTime = &t
	}
	if closedPrice.Valid {
		v := closedPrice.Float64
		p.ClosedPrice = &v
	}
	if exitReason.Valid {
		p.ExitReason = domain.CloseReason(exitReason.String)
	}
	return p, nil
}
