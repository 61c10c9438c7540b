package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"paperCoach/internal/ports"
)

// Balances are stored as decimal strings so repeated deltas do not accumulate
// floating-point drift.

// GetBalance returns the user's balance, or ports.ErrNotFound if none was set.
func (r *Repository) GetBalance(ctx context.Context, userID string) (float64, error) {
	amount, err := getBalance(ctx, r.db, userID)
	if err != nil {
		return 0, err
	}
	return amount.InexactFloat64(), nil
}

// SetBalance sets the user's balance, creating the row if needed.
func (r *Repository) SetBalance(ctx context.Context, userID string, amount float64) error {
	if err := setBalance(ctx, r.db, userID, decimal.NewFromFloat(amount)); err != nil {
		return err
	}
	r.logger.Debug(ctx, "Balance set", ports.Fields{"userID": userID, "amount": amount})
	return nil
}

// ApplyDelta adds delta to the user's balance and returns the new balance.
func (r *Repository) ApplyDelta(ctx context.Context, userID string, delta float64) (float64, error) {
	var updated decimal.Decimal
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		updated, err = applyDelta(ctx, tx, userID, delta)
		return err
	})
	if err != nil {
		return 0, err
	}
	r.logger.Debug(ctx, "Balance adjusted", ports.Fields{"userID": userID, "delta": delta, "balance": updated.String()})
	return updated.InexactFloat64(), nil
}

func getBalance(ctx context.Context, q querier, userID string) (decimal.Decimal, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT amount FROM balances WHERE user_id = ?`, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("balance for user %s: %w", userID, ports.ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("failed to query balance for user %s: %w", userID, mapError(err))
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt balance %q for user %s: %w: %w", raw, userID, ports.ErrQueryFailed, err)
	}
	return amount, nil
}

func setBalance(ctx context.Context, q querier, userID string, amount decimal.Decimal) error {
	const query = `
	INSERT INTO balances (user_id, amount, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at`
	if _, err := q.ExecContext(ctx, query, userID, amount.String(), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write balance for user %s: %w", userID, mapError(err))
	}
	return nil
}

func applyDelta(ctx context.Context, q querier, userID string, delta float64) (decimal.Decimal, error) {
	current, err := getBalance(ctx, q, userID)
	if err != nil {
		return decimal.Zero, err
	}
	updated := current.Add(decimal.NewFromFloat(delta))
	if err := setBalance(ctx, q, userID, updated); err != nil {
		return decimal.Zero, err
	}
	return updated, nil
}
