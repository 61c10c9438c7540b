package margin

import (
	"fmt"

	"paperCoach/internal/domain"
	"paperCoach/internal/ports"
)

// Assessment is the margin picture of one position at an evaluation price.
type Assessment struct {
	Mode             domain.MarginMode
	UsedMargin       float64 // Used margin of the evaluated position
	Pool             float64 // Margin the position can lose before liquidation
	UnrealizedPnL    float64 // Unrealized PnL of the evaluated position
	AvailableMargin  float64
	MarginRatio      float64
	Status           Status
	LiquidationPrice float64
	IsMarginCall     bool
	ShouldLiquidate  bool
}

// Calculator evaluates positions under isolated or cross margin.
type Calculator struct {
	takerFee    float64
	defaultMode domain.MarginMode
}

// NewCalculator creates a calculator. defaultMode applies to positions without a margin mode.
func NewCalculator(defaultMode domain.MarginMode, takerFee float64) *Calculator {
	if defaultMode == "" {
		defaultMode = domain.MarginIsolated
	}
	if takerFee < 0 {
		takerFee = DefaultTakerFee
	}
	return &Calculator{takerFee: takerFee, defaultMode: defaultMode}
}

// Assess evaluates target at currentPrice.
//
// Isolated: the pool is the position's own required margin.
// Cross: every other open futures position in open (each counted once, the target
// excluded) contributes its used margin and its unrealized PnL at currentPrice when it
// shares the target's symbol, else at prices[symbol], else at its entry. The pool
// for the back-solve is balance - used(all) + unrealized(others).
func (c *Calculator) Assess(target *domain.Position, currentPrice float64, open []*domain.Position, balance float64, prices map[string]float64) (Assessment, error) {
	if target == nil {
		return Assessment{}, fmt.Errorf("%w: target position is nil", ports.ErrInvalidArgument)
	}
	if currentPrice <= 0 {
		return Assessment{}, fmt.Errorf("%w: current price must be positive, got %f", ports.ErrInvalidArgument, currentPrice)
	}
	mode := target.MarginMode
	if mode == "" {
		mode = c.defaultMode
	}
	lev := target.EffectiveLeverage()
	used, err := UsedMargin(target.EntryPrice, target.Quantity, lev, c.takerFee)
	if err != nil {
		return Assessment{}, fmt.Errorf("used margin for %s: %w", target.Symbol, err)
	}
	unrealized := UnrealizedPnL(target.EntryPrice, currentPrice, target.Quantity, target.IsLong())

	a := Assessment{Mode: mode, UsedMargin: used, UnrealizedPnL: unrealized}
	ratioBase := used

	switch mode {
	case domain.MarginCross:
		usedAll, unrealizedOthers, err := c.sumOthers(target, currentPrice, open, prices)
		if err != nil {
			return Assessment{}, err
		}
		usedAll += used
		a.AvailableMargin = AvailableMargin(balance, usedAll, unrealizedOthers+unrealized)
		a.Pool = balance - usedAll + unrealizedOthers
		ratioBase = usedAll
	default:
		pool, err := RequiredMargin(target.Notional(), lev)
		if err != nil {
			return Assessment{}, err
		}
		a.Pool = pool
		a.AvailableMargin = AvailableMargin(pool, 0, unrealized)
	}

	a.LiquidationPrice, err = LiquidationPrice(target.EntryPrice, target.Quantity, lev, a.Pool, target.IsLong())
	if err != nil {
		return Assessment{}, fmt.Errorf("liquidation price for %s: %w", target.Symbol, err)
	}
	a.MarginRatio = MarginRatio(a.AvailableMargin, ratioBase)
	a.Status = StatusFor(a.MarginRatio)
	a.IsMarginCall = IsMarginCall(a.MarginRatio)
	a.ShouldLiquidate = ShouldLiquidate(a.MarginRatio)
	return a, nil
}

func (c *Calculator) sumOthers(target *domain.Position, currentPrice float64, open []*domain.Position, prices map[string]float64) (used, unrealized float64, err error) {
	seenIDs := make(map[int64]bool)
	seenPtrs := make(map[*domain.Position]bool)
	for _, o := range open {
		if o == nil || o == target || !o.IsOpen() || !o.IsFutures() {
			continue
		}
		if o.ID != 0 {
			if o.ID == target.ID || seenIDs[o.ID] {
				continue
			}
			seenIDs[o.ID] = true
		} else {
			if seenPtrs[o] {
				continue
			}
			seenPtrs[o] = true
		}
		u, err := UsedMargin(o.EntryPrice, o.Quantity, o.EffectiveLeverage(), c.takerFee)
		if err != nil {
			return 0, 0, fmt.Errorf("used margin for %s (id %d): %w", o.Symbol, o.ID, err)
		}
		used += u
		unrealized += UnrealizedPnL(o.EntryPrice, priceFor(o, target, currentPrice, prices), o.Quantity, o.IsLong())
	}
	return used, unrealized, nil
}

func priceFor(p, target *domain.Position, currentPrice float64, prices map[string]float64) float64 {
	if p.Symbol == target.Symbol {
		return currentPrice
	}
	if v, ok := prices[p.Symbol]; ok && v > 0 {
		return v
	}
	return p.EntryPrice
}

// Proposal is a futures trade that has not been placed yet.
type Proposal struct {
	Symbol     string
	EntryPrice float64
	Quantity   float64
	Leverage   int
	Direction  domain.Direction
	MarginMode domain.MarginMode
}

// EstimatedLiquidationPrice previews the liquidation price of a proposal by inserting a
// temporary position into a copy of the open set and assessing it at its entry price.
func (c *Calculator) EstimatedLiquidationPrice(p Proposal, open []*domain.Position, balance float64, prices map[string]float64) (float64, error) {
	temp := &domain.Position{
		Symbol:     p.Symbol,
		Quantity:   p.Quantity,
		EntryPrice: p.EntryPrice,
		Leverage:   p.Leverage,
		Direction:  p.Direction,
		TradeType:  domain.Futures,
		MarginMode: p.MarginMode,
		Status:     domain.StatusOpen,
	}
	set := make([]*domain.Position, 0, len(open)+1)
	set = append(set, open...)
	set = append(set, temp)

	a, err := c.Assess(temp, p.EntryPrice, set, balance, prices)
	if err != nil {
		return 0, err
	}
	return a.LiquidationPrice, nil
}
