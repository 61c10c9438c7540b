// Package margin implements margin, margin-ratio and liquidation-price math for
// isolated and cross margin modes.
package margin

import (
	"fmt"

	"paperCoach/internal/ports"
)

// DefaultTakerFee is the taker fee rate charged on the notional when computing used margin.
const DefaultTakerFee = 0.0004

// Status is the margin health tier derived from the margin ratio.
type Status string

const (
	StatusNormal     Status = "NORMAL"
	StatusCaution    Status = "CAUTION"
	StatusWarning    Status = "WARNING"
	StatusCritical   Status = "CRITICAL"
	StatusLiquidated Status = "LIQUIDATED"
)

// RequiredMargin returns the initial margin for a notional position size.
func RequiredMargin(positionSize float64, leverage int) (float64, error) {
	if leverage <= 0 {
		return 0, fmt.Errorf("%w: leverage must be positive, got %d", ports.ErrInvalidArgument, leverage)
	}
	if positionSize < 0 {
		return 0, fmt.Errorf("%w: position size must not be negative, got %f", ports.ErrInvalidArgument, positionSize)
	}
	return positionSize / float64(leverage), nil
}

// UsedMargin returns required margin plus the taker fee on the notional (entry * size).
func UsedMargin(entry, size float64, leverage int, takerFee float64) (float64, error) {
	if entry <= 0 {
		return 0, fmt.Errorf("%w: entry price must be positive, got %f", ports.ErrInvalidArgument, entry)
	}
	notional := entry * size
	required, err := RequiredMargin(notional, leverage)
	if err != nil {
		return 0, err
	}
	return required + notional*takerFee, nil
}

// AvailableMargin returns total + unrealizedPnL - used.
func AvailableMargin(total, used, unrealizedPnL float64) float64 {
	return total + unrealizedPnL - used
}

// MarginRatio returns available/used as a percentage, or 100 when nothing is used.
func MarginRatio(available, used float64) float64 {
	if used <= 0 {
		return 100
	}
	return available / used * 100
}

// LiquidationPrice returns the price at which a loss of totalMargin is realized on size units.
// A long's liquidation price never goes below zero.
func LiquidationPrice(entry, size float64, leverage int, totalMargin float64, isLong bool) (float64, error) {
	if entry <= 0 {
		return 0, fmt.Errorf("%w: entry price must be positive, got %f", ports.ErrInvalidArgument, entry)
	}
	if size <= 0 {
		return 0, fmt.Errorf("%w: size must be positive, got %f", ports.ErrInvalidArgument, size)
	}
	if leverage <= 0 {
		return 0, fmt.Errorf("%w: leverage must be positive, got %d", ports.ErrInvalidArgument, leverage)
	}
	pnlPerUnit := totalMargin / size
	if !isLong {
		return entry + pnlPerUnit, nil
	}
	price := entry - pnlPerUnit
	if price < 0 {
		return 0, nil
	}
	return price, nil
}

// StatusFor maps a margin ratio to its tier.
func StatusFor(ratio float64) Status {
	switch {
	case ratio > 100:
		return StatusNormal
	case ratio > 50:
		return StatusCaution
	case ratio > 20:
		return StatusWarning
	case ratio > 0:
		return StatusCritical
	default:
		return StatusLiquidated
	}
}

// IsMarginCall reports whether the ratio has fallen to the margin-call level.
func IsMarginCall(ratio float64) bool {
	return ratio <= 50
}

// ShouldLiquidate reports whether the ratio has exhausted the margin.
func ShouldLiquidate(ratio float64) bool {
	return ratio <= 0
}

// UnrealizedPnL is the raw price exposure of size units between entry and price.
// No leverage multiplier is applied: size is already the leveraged quantity, which makes
// the zero-ratio point coincide with LiquidationPrice.
func UnrealizedPnL(entry, price, size float64, isLong bool) float64 {
	if isLong {
		return (price - entry) * size
	}
	return (entry - price) * size
}

// RiskBasedPositionSize sizes a position so that hitting the stop loses riskPct of balance.
// This is a stop-distance model, unrelated to leverage-based sizing in package calc.
func RiskBasedPositionSize(balance, riskPct, entry, stopLoss float64) float64 {
	distance := entry - stopLoss
	if distance < 0 {
		distance = -distance
	}
	if distance == 0 || balance <= 0 || riskPct <= 0 {
		return 0
	}
	return (balance * riskPct / 100) / distance
}
