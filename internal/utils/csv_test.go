package utils

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperCoach/internal/domain"
)

func TestWriteTradesCSV(t *testing.T) {
	entry := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	trades := []*domain.Trade{
		{
			Ref: "01HS", PositionID: 7, Symbol: "BTCUSDT", Direction: domain.Long, TradeType: domain.Futures,
			EntryPrice: 100, ExitPrice: 85, Quantity: 1, Leverage: 10, PNL: -150,
			EntryTime: entry, ExitTime: entry.Add(time.Hour), CloseReason: domain.CloseReasonLiquidation,
		},
		nil,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTradesCSV(&buf, trades))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, tradeHeader, rows[0])
	assert.Equal(t, []string{
		"01HS", "7", "BTCUSDT", "LONG", "FUTURES", "100", "85", "1", "10", "-150",
		"2024-03-04T09:30:00Z", "2024-03-04T10:30:00Z", "LIQUIDATION",
	}, rows[1])
}

func TestWriteCurveCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCurveCSV(&buf, []float64{1.5, -0.25}))
	assert.Equal(t, "trade,return_pct\n1,1.5\n2,-0.25\n", buf.String())
}

func TestWriteToFile(t *testing.T) {
	dir := t.TempDir()

	curvePath := filepath.Join(dir, "curve.csv")
	require.NoError(t, WriteCurveToFile(curvePath, []float64{2}))
	data, err := os.ReadFile(curvePath)
	require.NoError(t, err)
	assert.Equal(t, "trade,return_pct\n1,2\n", string(data))

	tradesPath := filepath.Join(dir, "trades.csv")
	require.NoError(t, WriteTradesToFile(tradesPath, nil))
	data, err = os.ReadFile(tradesPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ref,position_id")

	assert.Error(t, WriteCurveToFile(filepath.Join(dir, "missing", "x.csv"), nil))
}
