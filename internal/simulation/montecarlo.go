// Package simulation runs Monte Carlo projections of a fixed-size trading plan.
package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"paperCoach/internal/analytics"
	"paperCoach/internal/ports"
)

// Params describes one simulation.
type Params struct {
	RRRatio        float64 // reward multiple paid on a win
	WinRate        float64 // probability of a win, in [0, 1]
	TradeAmount    float64 // amount lost on a loss
	NumberOfTrades int
	Iterations     int
	InitialBalance float64
	Seed           *int64 // nil draws a seed from the clock
	Workers        int    // <= 0 means runtime.NumCPU()
}

// Result aggregates every run of a simulation. Returns are absolute currency amounts
// (final balance - initial balance); curve points are cumulative return percent.
type Result struct {
	Seed           int64
	FinalReturns   []float64 // per run, in iteration order
	SortedReturns  []float64 // FinalReturns ascending; percentiles are read from it
	ExpectedReturn float64
	MaxProfit      float64
	MaxLoss        float64
	WinRate        float64 // percent of runs that ended with a positive return
	SharpeRatio    float64
	Percentile25   float64
	Percentile50   float64
	Percentile75   float64
	AverageCurve   []float64
	RuinedRuns     int
}

type run struct {
	final  float64
	curve  []float64
	ruined bool
}

// Simulator runs Monte Carlo simulations.
type Simulator struct {
	workers int
}

// NewSimulator creates a simulator whose default parallelism is workers.
func NewSimulator(workers int) *Simulator {
	return &Simulator{workers: workers}
}

// Validate checks the parameters.
func (p Params) Validate() error {
	switch {
	case p.Iterations <= 0:
		return fmt.Errorf("%w: iterations must be positive, got %d", ports.ErrInvalidArgument, p.Iterations)
	case p.NumberOfTrades <= 0:
		return fmt.Errorf("%w: number of trades must be positive, got %d", ports.ErrInvalidArgument, p.NumberOfTrades)
	case p.WinRate < 0 || p.WinRate > 1 || math.IsNaN(p.WinRate):
		return fmt.Errorf("%w: win rate must be in [0, 1], got %f", ports.ErrInvalidArgument, p.WinRate)
	case p.TradeAmount <= 0 || !finite(p.TradeAmount):
		return fmt.Errorf("%w: trade amount must be positive and finite, got %f", ports.ErrInvalidArgument, p.TradeAmount)
	case p.RRRatio < 0 || !finite(p.RRRatio):
		return fmt.Errorf("%w: reward:risk must be finite and not negative, got %f", ports.ErrInvalidArgument, p.RRRatio)
	case p.InitialBalance <= 0 || !finite(p.InitialBalance):
		return fmt.Errorf("%w: initial balance must be positive and finite, got %f", ports.ErrInvalidArgument, p.InitialBalance)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Simulate runs p.Iterations independent runs. Run i draws from its own source seeded
// with seed+i, so the result does not depend on the number of workers.
func (s *Simulator) Simulate(ctx context.Context, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	seed := time.Now().UnixNano()
	if p.Seed != nil {
		seed = *p.Seed
	}
	workers := p.Workers
	if workers <= 0 {
		workers = s.workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	runs := make([]run, p.Iterations)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < p.Iterations; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seed + int64(i)))
			runs[i] = simulateRun(rng, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("monte carlo simulation: %w", err)
	}
	return aggregate(seed, runs), nil
}

func simulateRun(rng *rand.Rand, p Params) run {
	balance := p.InitialBalance
	curve := make([]float64, 0, p.NumberOfTrades)
	for t := 0; t < p.NumberOfTrades; t++ {
		if rng.Float64() < p.WinRate {
			balance += p.TradeAmount * p.RRRatio
		} else {
			balance -= p.TradeAmount
		}
		curve = append(curve, (balance-p.InitialBalance)/p.InitialBalance*100)
		if balance <= 0 {
			return run{final: balance - p.InitialBalance, curve: curve, ruined: true}
		}
	}
	return run{final: balance - p.InitialBalance, curve: curve}
}

func aggregate(seed int64, runs []run) *Result {
	res := &Result{Seed: seed, FinalReturns: make([]float64, len(runs))}
	curves := make([][]float64, len(runs))
	var positive int
	for i, r := range runs {
		res.FinalReturns[i] = r.final
		curves[i] = r.curve
		if i == 0 || r.final > res.MaxProfit {
			res.MaxProfit = r.final
		}
		if i == 0 || r.final < res.MaxLoss {
			res.MaxLoss = r.final
		}
		if r.final > 0 {
			positive++
		}
		if r.ruined {
			res.RuinedRuns++
		}
	}

	res.ExpectedReturn = analytics.Mean(res.FinalReturns)
	res.WinRate = float64(positive) / float64(len(runs)) * 100
	if sd := analytics.StdDev(res.FinalReturns); sd > 0 {
		res.SharpeRatio = res.ExpectedReturn / sd
	}

	sorted := append([]float64(nil), res.FinalReturns...)
	sort.Float64s(sorted)
	res.SortedReturns = sorted
	res.Percentile25 = percentile(sorted, 0.25)
	res.Percentile50 = percentile(sorted, 0.50)
	res.Percentile75 = percentile(sorted, 0.75)
	res.AverageCurve = averageCurve(curves)
	return res
}

// percentile reads the p-th percentile from an ascending slice using the ceiling index.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// averageCurve averages the curves index-wise. A curve that ended early stops
// contributing, so later indexes divide by fewer runs.
func averageCurve(curves [][]float64) []float64 {
	var longest int
	for _, c := range curves {
		if len(c) > longest {
			longest = len(c)
		}
	}
	avg := make([]float64, longest)
	for i := range avg {
		var sum float64
		var n int
		for _, c := range curves {
			if i < len(c) {
				sum += c[i]
				n++
			}
		}
		avg[i] = sum / float64(n)
	}
	return avg
}

// BreakEvenWinRate is the win probability at which a plan paying rr per unit risked
// has zero expectancy.
func BreakEvenWinRate(rr float64) float64 {
	if rr <= 0 {
		return 1
	}
	return 1 / (1 + rr)
}
