package ports

import (
	"context"
	"time"

	"paperCoach/internal/domain"
)

// PositionRepository defines the interface for storing and retrieving positions.
type PositionRepository interface {
	// Create saves a new position and returns its assigned ID.
	Create(ctx context.Context, pos *domain.Position) (int64, error)
	// Update modifies an existing position.
	Update(ctx context.Context, pos *domain.Position) error
	// FindByID retrieves a position by its unique ID.
	// Returns nil, nil if not found.
	FindByID(ctx context.Context, id int64) (*domain.Position, error)
	// FindActiveByUser retrieves all open positions of a user, ordered by open time.
	FindActiveByUser(ctx context.Context, userID string) ([]*domain.Position, error)
	// FindClosedByUser retrieves closed positions whose close time is in [from, to), ordered by close time.
	// A zero from or to leaves that side unbounded.
	FindClosedByUser(ctx context.Context, userID string, from, to time.Time) ([]*domain.Position, error)
}

// TradeRepository defines the interface for storing and retrieving completed trades.
type TradeRepository interface {
	// CreateTrade saves a new trade record and returns its assigned ID.
	CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error)
	// FindByUser retrieves the most recent trades of a user, up to a limit.
	FindByUser(ctx context.Context, userID string, limit int) ([]*domain.Trade, error)
	// RealizedLossSince returns the magnitude of realized losses since the given time.
	RealizedLossSince(ctx context.Context, userID string, since time.Time) (float64, error)
}

// BalanceRepository reads the account balance and applies signed deltas.
type BalanceRepository interface {
	GetBalance(ctx context.Context, userID string) (float64, error)
	SetBalance(ctx context.Context, userID string, amount float64) error
	ApplyDelta(ctx context.Context, userID string, delta float64) (float64, error)
}

// JournalRepository stores emotion-tagged notes.
type JournalRepository interface {
	CreateEntry(ctx context.Context, entry *domain.JournalEntry) (int64, error)
	// FindEntriesByUser retrieves entries with timestamps in [from, to), oldest first; zero bounds are open.
	FindEntriesByUser(ctx context.Context, userID string, from, to time.Time) ([]*domain.JournalEntry, error)
}

// SettingsRepository provides the user's risk configuration.
type SettingsRepository interface {
	// GetSettings returns stored settings or the defaults when none exist.
	GetSettings(ctx context.Context, userID string) (domain.UserSettings, error)
	SaveSettings(ctx context.Context, settings domain.UserSettings) error
}

// SettlementStore applies the three close-out writes as one transaction:
// the closed position update, the trade-history row, and the balance delta (trade.PNL).
// On error none of the writes may be visible.
type SettlementStore interface {
	SettleClose(ctx context.Context, pos *domain.Position, trade *domain.Trade) error
}
