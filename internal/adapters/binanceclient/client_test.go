package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adshao/go-binance/v2/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperCoach/internal/domain"
	"paperCoach/internal/ports"
)

type mockLogger struct {
	errors int
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errors++
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *mockLogger) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := &mockLogger{}
	c, err := New(Config{Logger: logger, FuturesBaseURL: srv.URL, SpotBaseURL: srv.URL})
	require.NoError(t, err)
	return c, logger
}

func TestNew_RequiresLogger(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}

func TestCurrentPrice(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		symbol := r.URL.Query().Get("symbol")
		if strings.Contains(r.URL.Path, "premiumIndex") {
			fmt.Fprintf(w, `{"symbol":%q,"markPrice":"65000.50","indexPrice":"65001.00","lastFundingRate":"0.0001","nextFundingTime":0,"time":0}`, symbol)
			return
		}
		fmt.Fprintf(w, `{"symbol":%q,"price":"64000.25"}`, symbol)
	})

	p, err := c.CurrentPrice(context.Background(), "BTCUSDT", domain.Futures)
	require.NoError(t, err)
	assert.Equal(t, 65000.50, p)

	p, err = c.CurrentPrice(context.Background(), "BTCUSDT", domain.Spot)
	require.NoError(t, err)
	assert.Equal(t, 64000.25, p)
}

func TestCurrentPrice_APIError(t *testing.T) {
	c, logger := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code":-1121,"msg":"Invalid symbol."}`)
	})

	_, err := c.CurrentPrice(context.Background(), "NOPE", domain.Spot)
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
	assert.Equal(t, 1, logger.errors)
}

func TestCurrentPrice_BadPayload(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"symbol":"BTCUSDT","price":"abc"}`)
	})

	_, err := c.CurrentPrice(context.Background(), "BTCUSDT", domain.Spot)
	assert.ErrorIs(t, err, ports.ErrPriceUnavailable)
}

func TestPing(t *testing.T) {
	var path string
	c, logger := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	})

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, "/fapi/v1/ping", path)
	assert.Zero(t, logger.errors)
}

func TestPing_APIError(t *testing.T) {
	c, logger := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"code":-1003,"msg":"Too many requests."}`)
	})

	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, ports.ErrRateLimited)
	assert.Equal(t, 1, logger.errors)
}

func TestHandleError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"rate limited", &common.APIError{Code: -1003, Message: "too many"}, ports.ErrRateLimited},
		{"recv window", &common.APIError{Code: -1021}, ports.ErrTimeout},
		{"bad signature", &common.APIError{Code: -1022}, ports.ErrAuthenticationFailed},
		{"bad key", &common.APIError{Code: -2015}, ports.ErrAuthenticationFailed},
		{"invalid symbol", &common.APIError{Code: -1121}, ports.ErrInvalidRequest},
		{"unmapped code", &common.APIError{Code: -9999}, ports.ErrUnknown},
		{"deadline", context.DeadlineExceeded, ports.ErrTimeout},
		{"canceled", fmt.Errorf("wrapped: %w", context.Canceled), ports.ErrContextCanceled},
		{"refused", errors.New("dial tcp: connection refused"), ports.ErrConnectionFailed},
		{"no price", fmt.Errorf("empty: %w", ports.ErrPriceUnavailable), ports.ErrPriceUnavailable},
		{"other", errors.New("boom"), ports.ErrUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.handleError(ctx, tt.err, "op")
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}
	assert.NoError(t, c.handleError(ctx, nil, "op"))
}
