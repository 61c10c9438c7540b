package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"paperCoach/config"
	"paperCoach/internal/analytics"
	"paperCoach/internal/behavior"
	"paperCoach/internal/calc"
	"paperCoach/internal/coaching"
	"paperCoach/internal/domain"
	"paperCoach/internal/id"
	"paperCoach/internal/liquidation"
	"paperCoach/internal/margin"
	"paperCoach/internal/ports"
	"paperCoach/internal/risk"
	"paperCoach/internal/simulation"
)

// Store is the persistence the service needs. The sqlite repository satisfies it.
type Store interface {
	ports.PositionRepository
	ports.TradeRepository
	ports.BalanceRepository
	ports.JournalRepository
	ports.SettingsRepository
	ports.SettlementStore
}

// TradeRequest is a paper trade to be validated, sized and opened.
type TradeRequest struct {
	Symbol     string
	Direction  domain.Direction
	TradeType  domain.TradeType // empty uses the user's trade mode
	EntryPrice float64          // 0 fills at the current price
	TakeProfit float64
	StopLoss   float64
	Leverage   int     // 0 uses the user's default leverage
	RiskAmount float64 // 0 derives it from the user's risk mode
}

// PlacedTrade is the result of PlaceTrade.
type PlacedTrade struct {
	Position         *domain.Position // nil when validation failed
	Validation       risk.ValidationResult
	LiquidationPrice float64 // futures only
	RiskScore        float64 // 0-100, 100 is safest; set once validation passes
}

// MonitorReport summarizes one monitoring pass.
type MonitorReport struct {
	Checked     int
	TakeProfits int
	StopLosses  int
	Liquidated  int
	MarginCalls int
	Failed      int
}

// SimulateRequest configures a Monte Carlo projection. Zero values are filled from the
// user's history, settings and the configured defaults.
type SimulateRequest struct {
	RRRatio        float64
	WinRate        float64 // fraction in (0, 1]
	TradeAmount    float64
	NumberOfTrades int
	Iterations     int
	Seed           *int64
}

// CoachService orchestrates the engines and the ports for a single user.
type CoachService struct {
	cfg        *config.Config
	logger     ports.Logger
	store      Store
	prices     ports.PriceFeed
	validator  *risk.Validator
	margin     *margin.Calculator
	liquidator *liquidation.Engine
	analyzer   *behavior.Analyzer
	coach      *coaching.Engine
	simulator  *simulation.Simulator
	newID      func() string
	now        func() time.Time

	mu sync.Mutex // serializes trade placement, closes and monitoring passes
}

// NewCoachService creates a new application service instance. sink may be nil.
func NewCoachService(
	cfg *config.Config,
	logger ports.Logger,
	store Store,
	prices ports.PriceFeed,
	sink liquidation.EventSink,
) (*CoachService, error) {
	if cfg == nil || logger == nil || store == nil || prices == nil {
		return nil, fmt.Errorf("%w: missing required dependencies for CoachService", ports.ErrConfigurationError)
	}
	if cfg.UserID == "" {
		return nil, fmt.Errorf("%w: user id must be set", ports.ErrConfigurationError)
	}
	if cfg.InitialBalance <= 0 {
		return nil, fmt.Errorf("%w: initial balance must be positive", ports.ErrConfigurationError)
	}

	s := &CoachService{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		prices:    prices,
		validator: risk.NewValidator(),
		margin:    margin.NewCalculator(cfg.DefaultSettings.MarginMode, cfg.TakerFee),
		analyzer:  behavior.NewAnalyzer(time.Hour),
		simulator: simulation.NewSimulator(cfg.MCWorkers),
		newID:     id.New,
		now:       time.Now,
	}
	s.coach = coaching.NewEngine(s.analyzer)

	liq, err := liquidation.NewEngine(liquidation.Config{
		Store:      store,
		Sink:       sink,
		Logger:     logger,
		Calculator: s.margin,
		NewID:      func() string { return s.newID() },
		Now:        func() time.Time { return s.now() },
	})
	if err != nil {
		return nil, err
	}
	s.liquidator = liq
	return s, nil
}

// EnsureAccount seeds the balance ledger and default settings for a new user.
func (s *CoachService) EnsureAccount(ctx context.Context) (float64, error) {
	op := "EnsureAccount"
	balance, err := s.store.GetBalance(ctx, s.cfg.UserID)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}

	if err := s.store.SetBalance(ctx, s.cfg.UserID, s.cfg.InitialBalance); err != nil {
		return 0, fmt.Errorf("failed to seed balance: %w", err)
	}
	settings := s.cfg.DefaultSettings
	settings.UserID = s.cfg.UserID
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return 0, fmt.Errorf("failed to seed settings: %w", err)
	}
	s.logger.Info(ctx, op+": New paper account created", ports.Fields{
		"userID":  s.cfg.UserID,
		"balance": s.cfg.InitialBalance,
	})
	return s.cfg.InitialBalance, nil
}

// PlaceTrade validates a trade against the user's settings and account state, sizes it
// and opens the position. A rejected trade returns the validation result together with
// an error wrapping ports.ErrValidationFailed.
func (s *CoachService) PlaceTrade(ctx context.Context, req TradeRequest) (*PlacedTrade, error) {
	op := "PlaceTrade"
	if req.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ports.ErrInvalidArgument)
	}
	if req.Direction != domain.Long && req.Direction != domain.Short {
		return nil, fmt.Errorf("%w: direction must be LONG or SHORT, got %q", ports.ErrInvalidArgument, req.Direction)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.store.GetSettings(ctx, s.cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	balance, err := s.EnsureAccount(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.store.FindActiveByUser(ctx, s.cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active positions: %w", err)
	}
	now := s.now()
	todayLoss, err := s.store.RealizedLossSince(ctx, s.cfg.UserID, startOfDay(now))
	if err != nil {
		return nil, fmt.Errorf("failed to load today's realized loss: %w", err)
	}

	tradeType := req.TradeType
	if tradeType == "" {
		tradeType = settings.TradeMode
	}
	entry := req.EntryPrice
	if entry <= 0 {
		entry, err = s.prices.CurrentPrice(ctx, req.Symbol, tradeType)
		if err != nil {
			return nil, fmt.Errorf("failed to get entry price for %s: %w", req.Symbol, err)
		}
	}

	res := s.validator.Validate(risk.ValidationRequest{
		Symbol:            req.Symbol,
		EntryPrice:        entry,
		TakeProfit:        req.TakeProfit,
		StopLoss:          req.StopLoss,
		Leverage:          req.Leverage,
		Direction:         req.Direction,
		TradeType:         tradeType,
		RiskAmount:        req.RiskAmount,
		ActivePositions:   len(active),
		Balance:           balance,
		TodayRealizedLoss: todayLoss,
	}, settings)
	placed := &PlacedTrade{Validation: res}
	if !res.IsValid {
		s.logger.Warn(ctx, op+": Trade rejected", ports.Fields{
			"symbol": req.Symbol,
			"errors": len(res.Errors),
		})
		return placed, res.Err()
	}
	for _, w := range res.Warnings {
		s.logger.Warn(ctx, op+": "+w.Message, ports.Fields{"symbol": req.Symbol, "code": w.Code})
	}
	placed.RiskScore = risk.PositionRiskScore(res.RiskAmount, balance, res.RRRatio)

	pos := &domain.Position{
		UserID:     s.cfg.UserID,
		Symbol:     req.Symbol,
		Quantity:   res.TradeSize,
		EntryPrice: entry,
		TakeProfit: req.TakeProfit,
		StopLoss:   req.StopLoss,
		Leverage:   1,
		Direction:  req.Direction,
		TradeType:  res.TradeType,
		RiskAmount: res.RiskAmount,
		RRRatio:    res.RRRatio,
		OpenTime:   now,
		Status:     domain.StatusOpen,
	}
	if pos.IsFutures() {
		pos.Leverage = res.Leverage
		pos.MarginMode = settings.MarginMode
	}
	if err := pos.Validate(); err != nil {
		return placed, fmt.Errorf("%w: %w", ports.ErrInvalidArgument, err)
	}

	if pos.IsFutures() {
		placed.LiquidationPrice, err = s.margin.EstimatedLiquidationPrice(margin.Proposal{
			Symbol:     pos.Symbol,
			EntryPrice: pos.EntryPrice,
			Quantity:   pos.Quantity,
			Leverage:   pos.Leverage,
			Direction:  pos.Direction,
			MarginMode: pos.MarginMode,
		}, active, balance, nil)
		if err != nil {
			return placed, fmt.Errorf("failed to estimate liquidation price: %w", err)
		}
	}

	pos.ID, err = s.store.Create(ctx, pos)
	if err != nil {
		return placed, fmt.Errorf("failed to save position: %w", err)
	}
	placed.Position = pos

	s.logger.Info(ctx, op+": Position opened", ports.Fields{
		"positionID":       pos.ID,
		"symbol":           pos.Symbol,
		"direction":        pos.Direction,
		"tradeType":        pos.TradeType,
		"quantity":         pos.Quantity,
		"entryPrice":       pos.EntryPrice,
		"leverage":         pos.Leverage,
		"liquidationPrice": placed.LiquidationPrice,
		"riskScore":        placed.RiskScore,
	})
	return placed, nil
}

// ClosePosition closes an open position manually at the current price.
func (s *CoachService) ClosePosition(ctx context.Context, positionID int64) (*domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, err := s.store.FindByID(ctx, positionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load position %d: %w", positionID, err)
	}
	if pos == nil || pos.UserID != s.cfg.UserID {
		return nil, fmt.Errorf("%w: position %d", ports.ErrNotFound, positionID)
	}
	if !pos.IsOpen() {
		return nil, fmt.Errorf("%w: position %d", ports.ErrPositionClosed, positionID)
	}
	price, err := s.prices.CurrentPrice(ctx, pos.Symbol, pos.TradeType)
	if err != nil {
		return nil, fmt.Errorf("failed to get price for %s: %w", pos.Symbol, err)
	}
	if err := s.settle(ctx, pos, price, domain.CloseReasonManual); err != nil {
		return nil, err
	}
	return pos, nil
}

// settle closes a copy of pos at price and persists it with its trade-history row and
// balance delta. pos is only updated once the settlement has committed.
func (s *CoachService) settle(ctx context.Context, pos *domain.Position, price float64, reason domain.CloseReason) error {
	op := "settle"
	pnl := calc.PnL(pos.Quantity, pos.EntryPrice, price, pos.EffectiveLeverage(), pos.IsLong())
	closed := pos.Clone()
	closed.Close(s.now(), price, pnl, reason)
	trade := domain.TradeFromPosition(closed, s.newID())

	if err := s.store.SettleClose(ctx, closed, trade); err != nil {
		s.logger.Error(ctx, err, op+": Failed to settle position", ports.Fields{
			"positionID": pos.ID,
			"reason":     reason,
		})
		return fmt.Errorf("failed to settle position %d: %w", pos.ID, err)
	}
	*pos = *closed
	s.logger.Info(ctx, op+": Position closed", ports.Fields{
		"positionID": pos.ID,
		"symbol":     pos.Symbol,
		"reason":     reason,
		"exitPrice":  price,
		"pnl":        pnl,
	})
	return nil
}

// MonitorOnce runs one pass over the open positions: futures positions whose margin is
// exhausted are liquidated, and positions that reached their take profit or stop loss
// are closed at that level. Positions without a price are skipped.
func (s *CoachService) MonitorOnce(ctx context.Context) (MonitorReport, error) {
	op := "MonitorOnce"
	var report MonitorReport

	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.store.FindActiveByUser(ctx, s.cfg.UserID)
	if err != nil {
		return report, fmt.Errorf("failed to load active positions: %w", err)
	}
	if len(active) == 0 {
		return report, nil
	}
	balance, err := s.store.GetBalance(ctx, s.cfg.UserID)
	if err != nil {
		return report, fmt.Errorf("failed to read balance: %w", err)
	}

	prices := make(map[string]float64)
	for _, pos := range active {
		if _, ok := prices[pos.Symbol]; ok {
			continue
		}
		price, err := s.prices.CurrentPrice(ctx, pos.Symbol, pos.TradeType)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			s.logger.Warn(ctx, op+": Price unavailable, skipping symbol", ports.Fields{
				"symbol": pos.Symbol,
				"error":  err.Error(),
			})
			continue
		}
		prices[pos.Symbol] = price
	}

	for _, pos := range active {
		price, ok := prices[pos.Symbol]
		if !ok || !pos.IsOpen() {
			continue
		}
		report.Checked++

		if pos.IsFutures() {
			out, err := s.liquidator.CheckAndLiquidate(ctx, liquidation.Request{
				Position:     pos,
				CurrentPrice: price,
				Open:         active,
				Balance:      balance,
				Prices:       prices,
			})
			if err != nil {
				report.Failed++
				s.logger.Error(ctx, err, op+": Liquidation check failed", ports.Fields{"positionID": pos.ID})
				continue
			}
			if out.State == liquidation.StateClosed {
				report.Liquidated++
				balance += out.PNL
				continue
			}
			if out.Assessment.IsMarginCall {
				report.MarginCalls++
				s.logger.Warn(ctx, op+": Margin call", ports.Fields{
					"positionID":       pos.ID,
					"symbol":           pos.Symbol,
					"marginRatio":      out.Assessment.MarginRatio,
					"liquidationPrice": out.LiquidationPrice,
				})
			}
		}

		level, reason, hit := exitTrigger(pos, price)
		if !hit {
			continue
		}
		if err := s.settle(ctx, pos, level, reason); err != nil {
			report.Failed++
			continue
		}
		balance += pos.PNL
		if reason == domain.CloseReasonTakeProfit {
			report.TakeProfits++
		} else {
			report.StopLosses++
		}
	}

	if report.Liquidated+report.TakeProfits+report.StopLosses > 0 {
		s.logger.Info(ctx, op+": Monitoring pass closed positions", ports.Fields{
			"takeProfits": report.TakeProfits,
			"stopLosses":  report.StopLosses,
			"liquidated":  report.Liquidated,
		})
	}
	return report, nil
}

// exitTrigger reports whether price has crossed the position's take profit or stop loss.
// The stop loss wins when both are crossed.
func exitTrigger(pos *domain.Position, price float64) (float64, domain.CloseReason, bool) {
	if pos.IsLong() {
		switch {
		case pos.StopLoss > 0 && price <= pos.StopLoss:
			return pos.StopLoss, domain.CloseReasonStopLoss, true
		case pos.TakeProfit > 0 && price >= pos.TakeProfit:
			return pos.TakeProfit, domain.CloseReasonTakeProfit, true
		}
		return 0, "", false
	}
	switch {
	case pos.StopLoss > 0 && price >= pos.StopLoss:
		return pos.StopLoss, domain.CloseReasonStopLoss, true
	case pos.TakeProfit > 0 && price <= pos.TakeProfit:
		return pos.TakeProfit, domain.CloseReasonTakeProfit, true
	}
	return 0, "", false
}

// Run monitors the open positions every interval until ctx is cancelled.
func (s *CoachService) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: monitor interval must be positive", ports.ErrInvalidArgument)
	}
	s.logger.Info(ctx, "Starting position monitor", ports.Fields{"interval": interval.String(), "userID": s.cfg.UserID})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.MonitorOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error(ctx, err, "Monitoring pass failed")
		}
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Position monitor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// history loads every position and the journal entries of the user.
func (s *CoachService) history(ctx context.Context, from, to time.Time) ([]*domain.Position, []*domain.JournalEntry, error) {
	closed, err := s.store.FindClosedByUser(ctx, s.cfg.UserID, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load closed positions: %w", err)
	}
	journals, err := s.store.FindEntriesByUser(ctx, s.cfg.UserID, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load journal entries: %w", err)
	}
	return closed, journals, nil
}

// SessionFeedback runs the coaching engine over the user's whole history.
func (s *CoachService) SessionFeedback(ctx context.Context) ([]coaching.Message, error) {
	closed, journals, err := s.history(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	active, err := s.store.FindActiveByUser(ctx, s.cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active positions: %w", err)
	}
	positions := append(closed, active...)
	return s.coach.AnalyzeTradingSession(positions, journals, s.cfg.InitialBalance), nil
}

// WeeklyReport builds the report for the seven days starting at weekStart.
func (s *CoachService) WeeklyReport(ctx context.Context, weekStart time.Time) (coaching.WeeklyReport, error) {
	closed, journals, err := s.history(ctx, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return coaching.WeeklyReport{}, err
	}
	return s.coach.GenerateWeeklyReport(closed, journals, weekStart, s.cfg.InitialBalance), nil
}

// RecommendChallenge picks a challenge from the patterns in the user's history.
func (s *CoachService) RecommendChallenge(ctx context.Context) (coaching.Challenge, error) {
	closed, journals, err := s.history(ctx, time.Time{}, time.Time{})
	if err != nil {
		return coaching.Challenge{}, err
	}
	return s.coach.RecommendChallenge(s.analyzer.AnalyzeAllPatterns(closed, journals)), nil
}

// AddJournalEntry records an emotion-tagged note. positionID may be 0 for a note that
// is not tied to a position.
func (s *CoachService) AddJournalEntry(ctx context.Context, positionID int64, emotion, note string) (*domain.JournalEntry, error) {
	e, err := domain.ParseEmotion(emotion)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidArgument, err)
	}
	if positionID != 0 {
		pos, err := s.store.FindByID(ctx, positionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load position %d: %w", positionID, err)
		}
		if pos == nil || pos.UserID != s.cfg.UserID {
			return nil, fmt.Errorf("%w: position %d", ports.ErrNotFound, positionID)
		}
	}
	entry := &domain.JournalEntry{
		UserID:     s.cfg.UserID,
		PositionID: positionID,
		Emotion:    e,
		Note:       note,
		Timestamp:  s.now(),
	}
	entry.ID, err = s.store.CreateEntry(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to save journal entry: %w", err)
	}
	return entry, nil
}

// TradeHistory returns the most recent trade-history rows, newest first.
func (s *CoachService) TradeHistory(ctx context.Context, limit int) ([]*domain.Trade, error) {
	trades, err := s.store.FindByUser(ctx, s.cfg.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade history: %w", err)
	}
	return trades, nil
}

// Simulate projects the user's plan with Monte Carlo runs. Missing reward:risk and win
// rate come from the closed positions, the trade amount from the risk settings.
func (s *CoachService) Simulate(ctx context.Context, req SimulateRequest) (*simulation.Result, error) {
	op := "Simulate"
	balance, err := s.EnsureAccount(ctx)
	if err != nil {
		return nil, err
	}

	if req.RRRatio <= 0 || req.WinRate <= 0 {
		closed, err := s.store.FindClosedByUser(ctx, s.cfg.UserID, time.Time{}, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("failed to load closed positions: %w", err)
		}
		if len(closed) == 0 {
			return nil, fmt.Errorf("%w: no closed trades to derive reward:risk and win rate from", ports.ErrInvalidArgument)
		}
		if req.RRRatio <= 0 {
			req.RRRatio = averagePlannedRR(closed)
		}
		if req.WinRate <= 0 {
			req.WinRate = analytics.AnalyzePerformance(closed, s.cfg.InitialBalance).WinRate
		}
	}
	if req.TradeAmount <= 0 {
		settings, err := s.store.GetSettings(ctx, s.cfg.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		req.TradeAmount = settings.ResolveRiskAmount(balance)
	}
	if req.NumberOfTrades <= 0 {
		req.NumberOfTrades = s.cfg.MCTrades
	}
	if req.Iterations <= 0 {
		req.Iterations = s.cfg.MCIterations
	}

	params := simulation.Params{
		RRRatio:        req.RRRatio,
		WinRate:        req.WinRate,
		TradeAmount:    req.TradeAmount,
		NumberOfTrades: req.NumberOfTrades,
		Iterations:     req.Iterations,
		InitialBalance: balance,
		Seed:           req.Seed,
		Workers:        s.cfg.MCWorkers,
	}
	res, err := s.simulator.Simulate(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("simulation failed: %w", err)
	}
	s.logger.Info(ctx, op+": Simulation complete", ports.Fields{
		"seed":           res.Seed,
		"iterations":     params.Iterations,
		"expectedReturn": res.ExpectedReturn,
		"ruinedRuns":     res.RuinedRuns,
	})
	return res, nil
}

func averagePlannedRR(positions []*domain.Position) float64 {
	var sum float64
	var n int
	for _, p := range positions {
		if p.RRRatio > 0 {
			sum += p.RRRatio
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
