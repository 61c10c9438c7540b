package liquidation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperCoach/internal/domain"
	"paperCoach/internal/margin"
	"paperCoach/internal/ports"
)

type mockStore struct {
	err     error
	settled []*domain.Position
	trades  []*domain.Trade
}

func (m *mockStore) SettleClose(_ context.Context, pos *domain.Position, trade *domain.Trade) error {
	if m.err != nil {
		return m.err
	}
	m.settled = append(m.settled, pos)
	m.trades = append(m.trades, trade)
	return nil
}

type recordingSink struct {
	events []Event
}

func (s *recordingSink) Publish(_ context.Context, e Event) {
	s.events = append(s.events, e)
}

func (s *recordingSink) types() []EventType {
	out := make([]EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, store *mockStore, sink EventSink) *Engine {
	t.Helper()
	n := 0
	e, err := NewEngine(Config{
		Store:      store,
		Sink:       sink,
		Calculator: margin.NewCalculator(domain.MarginIsolated, margin.DefaultTakerFee),
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
		Now: func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return e
}

func futuresPosition(dir domain.Direction) *domain.Position {
	tp, sl := 120.0, 95.0
	if dir == domain.Short {
		tp, sl = 80, 105
	}
	return &domain.Position{
		ID:         7,
		UserID:     "u1",
		Symbol:     "BTCUSDT",
		Quantity:   1,
		EntryPrice: 100,
		TakeProfit: tp,
		StopLoss:   sl,
		Leverage:   10,
		Direction:  dir,
		TradeType:  domain.Futures,
		MarginMode: domain.MarginIsolated,
		OpenTime:   fixedNow.Add(-time.Hour),
		Status:     domain.StatusOpen,
	}
}

func TestNewEngine_RequiresStore(t *testing.T) {
	_, err := NewEngine(Config{})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}

func TestExecutionPrice(t *testing.T) {
	assert.Equal(t, 85.0, ExecutionPrice(85, 90, true))
	assert.Equal(t, 90.0, ExecutionPrice(95, 90, true))
	assert.Equal(t, 110.0, ExecutionPrice(105, 110, false))
	assert.Equal(t, 115.0, ExecutionPrice(115, 110, false))
}

func TestLiquidate_LongGapsThroughLiquidationPrice(t *testing.T) {
	store := &mockStore{}
	sink := &recordingSink{}
	e := newTestEngine(t, store, sink)
	pos := futuresPosition(domain.Long)

	out, err := e.Liquidate(context.Background(), Request{Position: pos, CurrentPrice: 85, Reason: "test"})
	require.NoError(t, err)

	assert.Equal(t, StateClosed, out.State)
	assert.Equal(t, 90.0, out.LiquidationPrice)
	assert.Equal(t, 85.0, out.ExecutionPrice)
	assert.Equal(t, -150.0, out.PNL)

	assert.False(t, pos.IsOpen())
	assert.Equal(t, domain.CloseReasonLiquidation, pos.ExitReason)
	require.NotNil(t, pos.ClosedPrice)
	assert.Equal(t, 85.0, *pos.ClosedPrice)
	require.NotNil(t, pos.CloseTime)
	assert.Equal(t, fixedNow, *pos.CloseTime)

	require.Len(t, store.trades, 1)
	assert.Equal(t, -150.0, store.trades[0].PNL)
	assert.Equal(t, int64(7), store.trades[0].PositionID)
	assert.Equal(t, out.Trade, store.trades[0])

	assert.Equal(t, []EventType{EventStarted, EventCompleted}, sink.types())
	assert.Equal(t, 85.0, sink.events[1].ExecutionPrice)
	assert.Equal(t, -150.0, sink.events[1].PNL)
	assert.NotEmpty(t, sink.events[0].ID)
	assert.NotEqual(t, sink.events[0].ID, sink.events[1].ID)
}

func TestLiquidate_LongUsesLiquidationPriceWhenMarketIsBetter(t *testing.T) {
	e := newTestEngine(t, &mockStore{}, nil)
	pos := futuresPosition(domain.Long)

	out, err := e.Liquidate(context.Background(), Request{Position: pos, CurrentPrice: 95})
	require.NoError(t, err)
	assert.Equal(t, 90.0, out.ExecutionPrice)
	assert.Equal(t, -100.0, out.PNL)
}

func TestLiquidate_Short(t *testing.T) {
	e := newTestEngine(t, &mockStore{}, nil)
	pos := futuresPosition(domain.Short)

	out, err := e.Liquidate(context.Background(), Request{Position: pos, CurrentPrice: 105})
	require.NoError(t, err)
	assert.Equal(t, 110.0, out.LiquidationPrice)
	assert.Equal(t, 110.0, out.ExecutionPrice)
	assert.Equal(t, -100.0, out.PNL)
}

func TestLiquidate_PersistenceFailureLeavesPositionOpen(t *testing.T) {
	dbErr := errors.New("disk full")
	store := &mockStore{err: dbErr}
	sink := &recordingSink{}
	e := newTestEngine(t, store, sink)
	pos := futuresPosition(domain.Long)
	before := *pos

	out, err := e.Liquidate(context.Background(), Request{Position: pos, CurrentPrice: 85})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrLiquidationFailed)
	assert.ErrorIs(t, err, dbErr)
	assert.True(t, IsFailure(err))

	assert.Equal(t, StateFailed, out.State)
	assert.Nil(t, out.Trade)
	assert.Equal(t, before, *pos)
	assert.True(t, pos.IsOpen())
	assert.Empty(t, store.trades)

	assert.Equal(t, []EventType{EventStarted, EventFailed}, sink.types())
	assert.ErrorIs(t, sink.events[1].Err, dbErr)
}

func TestLiquidate_RejectsClosedAndSpot(t *testing.T) {
	store := &mockStore{}
	sink := &recordingSink{}
	e := newTestEngine(t, store, sink)

	closed := futuresPosition(domain.Long)
	closed.Close(fixedNow, 110, 100, domain.CloseReasonTakeProfit)
	_, err := e.Liquidate(context.Background(), Request{Position: closed, CurrentPrice: 80})
	assert.ErrorIs(t, err, ports.ErrPositionClosed)

	spot := futuresPosition(domain.Long)
	spot.TradeType = domain.Spot
	_, err = e.Liquidate(context.Background(), Request{Position: spot, CurrentPrice: 80})
	assert.ErrorIs(t, err, ports.ErrInvalidArgument)

	_, err = e.Liquidate(context.Background(), Request{CurrentPrice: 80})
	assert.ErrorIs(t, err, ports.ErrInvalidArgument)

	assert.Empty(t, store.trades)
	assert.Empty(t, sink.events)
}

func TestCheckAndLiquidate(t *testing.T) {
	store := &mockStore{}
	sink := &recordingSink{}
	e := newTestEngine(t, store, sink)
	pos := futuresPosition(domain.Long)

	out, err := e.CheckAndLiquidate(context.Background(), Request{Position: pos, CurrentPrice: 95})
	require.NoError(t, err)
	assert.Equal(t, StateOpen, out.State)
	assert.Equal(t, margin.StatusWarning, out.Assessment.Status)
	assert.True(t, pos.IsOpen())
	assert.Empty(t, sink.events)

	out, err = e.CheckAndLiquidate(context.Background(), Request{Position: pos, CurrentPrice: 90})
	require.NoError(t, err)
	assert.Equal(t, StateClosed, out.State)
	assert.Equal(t, 90.0, out.ExecutionPrice)
	assert.False(t, pos.IsOpen())
	require.Len(t, sink.events, 2)
	assert.Contains(t, sink.events[0].Reason, "margin ratio")
}

func TestCheckAndLiquidate_CrossUsesSharedPool(t *testing.T) {
	store := &mockStore{}
	e := newTestEngine(t, store, nil)
	pos := futuresPosition(domain.Long)
	pos.MarginMode = domain.MarginCross

	// Balance 1000 covers the 10.04 used margin, so a drop to 95 is safe in cross mode.
	out, err := e.CheckAndLiquidate(context.Background(), Request{
		Position:     pos,
		CurrentPrice: 95,
		Open:         []*domain.Position{pos},
		Balance:      1000,
	})
	require.NoError(t, err)
	assert.Equal(t, StateOpen, out.State)
	assert.Equal(t, domain.MarginCross, out.Assessment.Mode)
	assert.Empty(t, store.trades)
}

func TestChanSink(t *testing.T) {
	sink := NewChanSink(1)
	sink.Publish(context.Background(), Event{Type: EventStarted})
	got := <-sink.C
	assert.Equal(t, EventStarted, got.Type)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	full := NewChanSink(0)
	full.Publish(ctx, Event{Type: EventFailed}) // returns instead of blocking
}
