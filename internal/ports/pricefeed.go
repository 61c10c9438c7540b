package ports

import (
	"context"

	"paperCoach/internal/domain"
)

// PriceFeed provides the current price of a symbol.
type PriceFeed interface {
	// CurrentPrice returns the live price used for margin and liquidation decisions.
	// Futures symbols are priced by mark price, spot symbols by last ticker price.
	CurrentPrice(ctx context.Context, symbol string, tradeType domain.TradeType) (float64, error)
}
