package domain

import (
	"fmt"
	"time"
)

// Position is a simulated trade and, once closed, the permanent record of it.
// It is mutated exactly once at close (manual, TP/SL or liquidation) and never deleted.
type Position struct {
	ID          int64      // Unique identifier (assigned by the store)
	UserID      string     // Owner of the position
	Symbol      string     // Trading symbol (e.g., "BTCUSDT")
	Quantity    float64    // Size of the position in base units
	EntryPrice  float64    // Price at which the position was opened
	TakeProfit  float64    // Take-profit price level
	StopLoss    float64    // Stop-loss price level
	Leverage    int        // Leverage, >= 1 (spot positions always use 1)
	Direction   Direction  // LONG or SHORT
	TradeType   TradeType  // SPOT or FUTURES
	MarginMode  MarginMode // Margin mode the position was opened under
	RiskAmount  float64    // Amount the trader put at risk when sizing the trade
	RRRatio     float64    // Planned reward:risk ratio at entry
	OpenTime    time.Time  // Time the position was opened
	CloseTime   *time.Time // Time the position was closed (nil while open)
	ClosedPrice *float64   // Price the position was closed at (nil while open)
	PNL         float64    // Realized profit and loss (0 while open)
	Status      PositionStatus
	IsClosed    bool
	ExitReason  CloseReason // Set on close
}

// IsLong reports whether the position is a long.
func (p *Position) IsLong() bool {
	return p.Direction != Short
}

// IsOpen checks if the position is still open.
func (p *Position) IsOpen() bool {
	return !p.IsClosed && p.Status != StatusClosed
}

// IsFutures reports whether the position is a leveraged futures position.
func (p *Position) IsFutures() bool {
	return p.TradeType == Futures
}

// Notional returns quantity * entry price.
func (p *Position) Notional() float64 {
	return p.Quantity * p.EntryPrice
}

// EffectiveLeverage returns the leverage used for calculations: 1 for spot positions.
func (p *Position) EffectiveLeverage() int {
	if p.TradeType == Spot || p.Leverage < 1 {
		return 1
	}
	return p.Leverage
}

// EventTime returns the close time for closed positions and the open time otherwise.
func (p *Position) EventTime() time.Time {
	if p.CloseTime != nil {
		return *p.CloseTime
	}
	return p.OpenTime
}

// Validate checks the structural invariants of a position.
func (p *Position) Validate() error {
	if p.EntryPrice <= 0 {
		return fmt.Errorf("entry price must be positive, got %f", p.EntryPrice)
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %f", p.Quantity)
	}
	if p.Leverage < 1 {
		return fmt.Errorf("leverage must be >= 1, got %d", p.Leverage)
	}
	if p.IsLong() {
		if !(p.StopLoss < p.EntryPrice && p.EntryPrice < p.TakeProfit) {
			return fmt.Errorf("long position requires stopLoss < entry < takeProfit")
		}
	} else if !(p.TakeProfit < p.EntryPrice && p.EntryPrice < p.StopLoss) {
		return fmt.Errorf("short position requires takeProfit < entry < stopLoss")
	}
	return nil
}

// Close applies the one-time close mutation.
func (p *Position) Close(at time.Time, price, pnl float64, reason CloseReason) {
	p.CloseTime = &at
	p.ClosedPrice = &price
	p.PNL = pnl
	p.ExitReason = reason
	p.IsClosed = true
	p.Status = StatusClosed
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	c := *p
	if p.CloseTime != nil {
		t := *p.CloseTime
		c.CloseTime = &t
	}
	if p.ClosedPrice != nil {
		v := *p.ClosedPrice
		c.ClosedPrice = &v
	}
	return &c
}
