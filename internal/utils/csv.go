package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"paperCoach/internal/domain"
)

var tradeHeader = []string{
	"ref", "position_id", "symbol", "direction", "trade_type", "entry_price", "exit_price",
	"quantity", "leverage", "pnl", "entry_time", "exit_time", "close_reason",
}

// WriteTradesCSV writes trade-history rows as CSV.
func WriteTradesCSV(w io.Writer, trades []*domain.Trade) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(tradeHeader); err != nil {
		return err
	}
	for _, t := range trades {
		if t == nil {
			continue
		}
		err := writer.Write([]string{
			t.Ref,
			strconv.FormatInt(t.PositionID, 10),
			t.Symbol,
			string(t.Direction),
			string(t.TradeType),
			f(t.EntryPrice),
			f(t.ExitPrice),
			f(t.Quantity),
			strconv.Itoa(t.Leverage),
			f(t.PNL),
			t.EntryTime.UTC().Format(time.RFC3339),
			t.ExitTime.UTC().Format(time.RFC3339),
			string(t.CloseReason),
		})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCurveCSV writes a Monte Carlo average curve as (trade, return_pct) rows.
// Trade numbers start at 1.
func WriteCurveCSV(w io.Writer, curve []float64) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"trade", "return_pct"}); err != nil {
		return err
	}
	for i, v := range curve {
		if err := writer.Write([]string{strconv.Itoa(i + 1), f(v)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTradesToFile creates filename and writes the trades into it.
func WriteTradesToFile(filename string, trades []*domain.Trade) error {
	return writeFile(filename, func(w io.Writer) error { return WriteTradesCSV(w, trades) })
}

// WriteCurveToFile creates filename and writes the curve into it.
func WriteCurveToFile(filename string, curve []float64) error {
	return writeFile(filename, func(w io.Writer) error { return WriteCurveCSV(w, curve) })
}

func writeFile(filename string, write func(io.Writer) error) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return file.Close()
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
