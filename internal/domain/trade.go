package domain

import "time"

// Trade represents a completed trade event appended to the trade history on every close.
type Trade struct {
	ID          int64       // Unique identifier for the trade (usually from DB)
	Ref         string      // Time-sortable external reference (ULID)
	PositionID  int64       // Identifier of the position this trade closed
	UserID      string      // Owner of the trade
	Symbol      string      // Trading symbol (e.g., "ETHUSDT")
	Direction   Direction   // LONG or SHORT
	TradeType   TradeType   // SPOT or FUTURES
	EntryPrice  float64     // Price at which the position was entered
	ExitPrice   float64     // Price at which the position was exited
	Quantity    float64     // Size of the position traded
	Leverage    int         // Leverage used for the position
	PNL         float64     // Profit and Loss for this trade
	EntryTime   time.Time   // Timestamp when the position was entered
	ExitTime    time.Time   // Timestamp when the position was exited
	CloseReason CloseReason // Reason why the position was closed (SL, TP, etc.)
}

// TradeFromPosition builds the history record for a closed position.
func TradeFromPosition(p *Position, ref string) *Trade {
	t := &Trade{
		Ref:         ref,
		PositionID:  p.ID,
		UserID:      p.UserID,
		Symbol:      p.Symbol,
		Direction:   p.Direction,
		TradeType:   p.TradeType,
		EntryPrice:  p.EntryPrice,
		Quantity:    p.Quantity,
		Leverage:    p.Leverage,
		PNL:         p.PNL,
		EntryTime:   p.OpenTime,
		CloseReason: p.ExitReason,
	}
	if p.ClosedPrice != nil {
		t.ExitPrice = *p.ClosedPrice
	}
	if p.CloseTime != nil {
		t.ExitTime = *p.CloseTime
	}
	return t
}
