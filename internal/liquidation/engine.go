// Package liquidation force-closes futures positions whose margin is exhausted.
//
// A liquidation moves Open -> Liquidating -> Closed on success, or Open -> Liquidating
// -> Failed when the settlement cannot be persisted. A failed liquidation leaves the
// position open and the balance untouched.
package liquidation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"paperCoach/internal/calc"
	"paperCoach/internal/domain"
	"paperCoach/internal/id"
	"paperCoach/internal/margin"
	"paperCoach/internal/ports"
)

// State is the workflow state reached by a liquidation attempt.
type State string

const (
	StateOpen        State = "OPEN"
	StateLiquidating State = "LIQUIDATING"
	StateClosed      State = "CLOSED"
	StateFailed      State = "FAILED"
)

// Request is the snapshot a liquidation is evaluated against.
type Request struct {
	Position     *domain.Position
	CurrentPrice float64
	// Open, Balance and Prices are only used for cross-margin positions.
	Open    []*domain.Position
	Balance float64
	Prices  map[string]float64
	Reason  string
}

// Outcome reports what a liquidation attempt did.
type Outcome struct {
	State            State
	Assessment       margin.Assessment
	ExecutionPrice   float64
	LiquidationPrice float64
	PNL              float64
	Trade            *domain.Trade // history row written on success
}

// Config holds the collaborators of an Engine.
type Config struct {
	Store      ports.SettlementStore
	Sink       EventSink // optional
	Logger     ports.Logger
	Calculator *margin.Calculator
	NewID      func() string    // defaults to id.New
	Now        func() time.Time // defaults to time.Now
}

// Engine runs the liquidation workflow.
type Engine struct {
	store  ports.SettlementStore
	sink   EventSink
	logger ports.Logger
	calc   *margin.Calculator
	newID  func() string
	now    func() time.Time
}

// NewEngine creates a liquidation engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: settlement store is required", ports.ErrConfigurationError)
	}
	e := &Engine{
		store:  cfg.Store,
		sink:   cfg.Sink,
		logger: cfg.Logger,
		calc:   cfg.Calculator,
		newID:  cfg.NewID,
		now:    cfg.Now,
	}
	if e.logger == nil {
		e.logger = ports.NopLogger{}
	}
	if e.calc == nil {
		e.calc = margin.NewCalculator(domain.MarginIsolated, margin.DefaultTakerFee)
	}
	if e.newID == nil {
		e.newID = id.New
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// CheckAndLiquidate assesses the position and liquidates it only when its margin
// ratio has reached zero. Otherwise the outcome state is Open and nothing is written.
func (e *Engine) CheckAndLiquidate(ctx context.Context, req Request) (Outcome, error) {
	if err := checkPosition(req.Position); err != nil {
		return Outcome{}, err
	}
	a, err := e.calc.Assess(req.Position, req.CurrentPrice, req.Open, req.Balance, req.Prices)
	if err != nil {
		return Outcome{}, fmt.Errorf("assess position %d: %w", req.Position.ID, err)
	}
	if !a.ShouldLiquidate {
		return Outcome{State: StateOpen, Assessment: a, LiquidationPrice: a.LiquidationPrice}, nil
	}
	if req.Reason == "" {
		req.Reason = fmt.Sprintf("margin ratio %.2f%% reached zero", a.MarginRatio)
	}
	return e.Liquidate(ctx, req)
}

// Liquidate force-closes the position at the worse of the current price and its
// liquidation price. The caller's position is updated only after the settlement commits.
func (e *Engine) Liquidate(ctx context.Context, req Request) (Outcome, error) {
	op := "Liquidate"
	pos := req.Position
	if err := checkPosition(pos); err != nil {
		return Outcome{}, err
	}

	fields := ports.Fields{"positionID": pos.ID, "userID": pos.UserID, "symbol": pos.Symbol, "reason": req.Reason}
	e.logger.Warn(ctx, op+": Liquidating position", fields)
	e.publish(ctx, Event{Type: EventStarted, PositionID: pos.ID, UserID: pos.UserID, Symbol: pos.Symbol, Reason: req.Reason})

	a, err := e.calc.Assess(pos, req.CurrentPrice, req.Open, req.Balance, req.Prices)
	if err != nil {
		return e.fail(ctx, req, Outcome{State: StateFailed}, fmt.Errorf("assess position: %w", err))
	}

	out := Outcome{State: StateLiquidating, Assessment: a, LiquidationPrice: a.LiquidationPrice}
	out.ExecutionPrice = ExecutionPrice(req.CurrentPrice, a.LiquidationPrice, pos.IsLong())
	out.PNL = calc.PnL(pos.Quantity, pos.EntryPrice, out.ExecutionPrice, pos.EffectiveLeverage(), pos.IsLong())

	closed := pos.Clone()
	closed.Close(e.now(), out.ExecutionPrice, out.PNL, domain.CloseReasonLiquidation)
	trade := domain.TradeFromPosition(closed, e.newID())

	if err := e.store.SettleClose(ctx, closed, trade); err != nil {
		out.State = StateFailed
		return e.fail(ctx, req, out, fmt.Errorf("settle close: %w", err))
	}

	*pos = *closed
	out.State = StateClosed
	out.Trade = trade
	e.logger.Info(ctx, op+": Position liquidated", ports.Fields{
		"positionID":       pos.ID,
		"executionPrice":   out.ExecutionPrice,
		"liquidationPrice": out.LiquidationPrice,
		"pnl":              out.PNL,
	})
	e.publish(ctx, Event{
		Type:           EventCompleted,
		PositionID:     pos.ID,
		UserID:         pos.UserID,
		Symbol:         pos.Symbol,
		Reason:         req.Reason,
		ExecutionPrice: out.ExecutionPrice,
		PNL:            out.PNL,
	})
	return out, nil
}

func (e *Engine) fail(ctx context.Context, req Request, out Outcome, cause error) (Outcome, error) {
	pos := req.Position
	err := fmt.Errorf("%w: position %d: %w", ports.ErrLiquidationFailed, pos.ID, cause)
	e.logger.Error(ctx, err, "Liquidate: Liquidation failed, position left open", ports.Fields{"positionID": pos.ID, "symbol": pos.Symbol})
	e.publish(ctx, Event{Type: EventFailed, PositionID: pos.ID, UserID: pos.UserID, Symbol: pos.Symbol, Reason: req.Reason, Err: err})
	out.State = StateFailed
	return out, err
}

func (e *Engine) publish(ctx context.Context, ev Event) {
	if e.sink == nil {
		return
	}
	ev.ID = e.newID()
	ev.Time = e.now()
	e.sink.Publish(ctx, ev)
}

func checkPosition(pos *domain.Position) error {
	if pos == nil {
		return fmt.Errorf("%w: position is nil", ports.ErrInvalidArgument)
	}
	if !pos.IsOpen() {
		return fmt.Errorf("position %d: %w", pos.ID, ports.ErrPositionClosed)
	}
	if !pos.IsFutures() {
		return fmt.Errorf("%w: position %d is spot and cannot be liquidated", ports.ErrInvalidArgument, pos.ID)
	}
	return nil
}

// ExecutionPrice returns the worse fill for the position's side: the lower price for a
// long and the higher one for a short.
func ExecutionPrice(currentPrice, liquidationPrice float64, isLong bool) float64 {
	if isLong {
		return math.Min(currentPrice, liquidationPrice)
	}
	return math.Max(currentPrice, liquidationPrice)
}

// IsFailure reports whether err came from a failed liquidation settlement.
func IsFailure(err error) bool {
	return errors.Is(err, ports.ErrLiquidationFailed)
}
