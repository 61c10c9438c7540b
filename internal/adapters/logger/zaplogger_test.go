package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"paperCoach/internal/ports"
)

var _ ports.Logger = (*ZapLogger)(nil)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("INFO"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestZapLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json", Output: &buf})
	ctx := context.Background()

	l.Debug(ctx, "hidden")
	l.Info(ctx, "position settled", ports.Fields{"positionID": 7, "pnl": -12.5})
	l.Error(ctx, errors.New("disk full"), "settle failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2, "debug is below the configured level")

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &info))
	assert.Equal(t, "info", info["level"])
	assert.Equal(t, "position settled", info["msg"])
	assert.Equal(t, 7.0, info["positionID"])
	assert.Equal(t, -12.5, info["pnl"])

	var errLine map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &errLine))
	assert.Equal(t, "error", errLine["level"])
	assert.Equal(t, "disk full", errLine["error"])
}

func TestZapLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Output: &buf})
	l.Warn(context.Background(), "margin call", ports.Fields{"symbol": "BTCUSDT"})

	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "margin call")
	assert.Contains(t, out, "BTCUSDT")
}
