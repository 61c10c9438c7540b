package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"paperCoach/internal/domain"
	"paperCoach/internal/ports"
)

// GetSettings returns the stored settings of a user, or the defaults when none exist.
func (r *Repository) GetSettings(ctx context.Context, userID string) (domain.UserSettings, error) {
	const query = `
	SELECT risk_mode, risk_value, max_positions, max_loss_per_trade_pct, daily_loss_limit_pct,
	       default_leverage, trade_mode, margin_mode
	FROM user_settings WHERE user_id = ?`

	s := domain.UserSettings{UserID: userID}
	var riskMode, tradeMode, marginMode string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&riskMode, &s.RiskValue, &s.MaxPositions, &s.MaxLossPerTradePct, &s.DailyLossLimitPct,
		&s.DefaultLeverage, &tradeMode, &marginMode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "No stored settings, using defaults", ports.Fields{"userID": userID})
			return domain.DefaultUserSettings(userID), nil
		}
		return domain.UserSettings{}, fmt.Errorf("failed to query settings for user %s: %w", userID, mapError(err))
	}
	s.RiskMode = domain.RiskMode(riskMode)
	s.TradeMode = domain.TradeType(tradeMode)
	s.MarginMode = domain.MarginMode(marginMode)
	return s, nil
}

// SaveSettings inserts or replaces the settings of a user.
func (r *Repository) SaveSettings(ctx context.Context, s domain.UserSettings) error {
	const query = `
	INSERT INTO user_settings (user_id, risk_mode, risk_value, max_positions, max_loss_per_trade_pct,
		daily_loss_limit_pct, default_leverage, trade_mode, margin_mode)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		risk_mode = excluded.risk_mode,
		risk_value = excluded.risk_value,
		max_positions = excluded.max_positions,
		max_loss_per_trade_pct = excluded.max_loss_per_trade_pct,
		daily_loss_limit_pct = excluded.daily_loss_limit_pct,
		default_leverage = excluded.default_leverage,
		trade_mode = excluded.trade_mode,
		margin_mode = excluded.margin_mode`

	_, err := r.db.ExecContext(ctx, query,
		s.UserID, s.RiskMode, s.RiskValue, s.MaxPositions, s.MaxLossPerTradePct,
		s.DailyLossLimitPct, s.DefaultLeverage, s.TradeMode, s.MarginMode)
	if err != nil {
		return fmt.Errorf("failed to save settings for user %s: %w", s.UserID, mapError(err))
	}
	r.logger.Debug(ctx, "Settings saved", ports.Fields{"userID": s.UserID})
	return nil
}
