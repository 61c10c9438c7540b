package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"

	"paperCoach/internal/domain"
	"paperCoach/internal/ports"
)

const (
	// Base URLs
	futuresURLProduction = "https://fapi.binance.com"
	futuresURLTestnet    = "https://testnet.binancefuture.com"
	spotURLProduction    = "https://api.binance.com"
	spotURLTestnet       = "https://testnet.binance.vision"
)

// Client implements ports.PriceFeed on the public Binance market-data endpoints:
// the futures mark price for futures positions and the spot ticker for spot positions.
type Client struct {
	futuresClient *futures.Client
	spotClient    *binance.Client
	logger        ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
	// FuturesBaseURL and SpotBaseURL override the endpoints selected by UseTestnet.
	FuturesBaseURL string
	SpotBaseURL    string
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: logger is required for Binance client", ports.ErrConfigurationError)
	}
	ctx := context.Background()
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Debug(ctx, "Binance API keys not set, using public market-data endpoints only")
	}

	futuresClient := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	spotClient := binance.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.UseTestnet {
		futuresClient.BaseURL = futuresURLTestnet
		spotClient.BaseURL = spotURLTestnet
	} else {
		futuresClient.BaseURL = futuresURLProduction
		spotClient.BaseURL = spotURLProduction
	}
	if cfg.FuturesBaseURL != "" {
		futuresClient.BaseURL = cfg.FuturesBaseURL
	}
	if cfg.SpotBaseURL != "" {
		spotClient.BaseURL = cfg.SpotBaseURL
	}
	cfg.Logger.Info(ctx, "Binance price feed configured", ports.Fields{
		"futuresBaseURL": futuresClient.BaseURL,
		"spotBaseURL":    spotClient.BaseURL,
		"testnet":        cfg.UseTestnet,
	})

	return &Client{
		futuresClient: futuresClient,
		spotClient:    spotClient,
		logger:        cfg.Logger,
	}, nil
}

// CurrentPrice implements ports.PriceFeed.
func (c *Client) CurrentPrice(ctx context.Context, symbol string, tradeType domain.TradeType) (float64, error) {
	if tradeType == domain.Futures {
		return c.GetMarkPrice(ctx, symbol)
	}
	return c.GetSpotPrice(ctx, symbol)
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := ports.Fields{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp for this request is outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022, -2014, -2015: // Bad signature, malformed or unauthorized API key
			mappedErr = ports.ErrAuthenticationFailed
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1121: // Parameter errors, invalid symbol
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrUnknown
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	// Handle non-API errors (network, context cancellation, empty or bad payloads)
	var finalErr error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	case errors.Is(err, ports.ErrPriceUnavailable):
		finalErr = fmt.Errorf("%s failed: %w", operation, err)
	case strings.Contains(err.Error(), "use of closed network connection"),
		strings.Contains(err.Error(), "connection refused"),
		strings.Contains(err.Error(), "connection reset by peer"),
		strings.Contains(err.Error(), "no such host"):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// GetMarkPrice retrieves the current futures mark price for a given symbol.
func (c *Client) GetMarkPrice(ctx context.Context, symbol string) (float64, error) {
	op := "GetMarkPrice"
	tickers, err := c.futuresClient.NewPremiumIndexService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}
	if len(tickers) == 0 {
		err := fmt.Errorf("no mark price returned for symbol %s: %w", symbol, ports.ErrPriceUnavailable)
		return 0, c.handleError(ctx, err, op)
	}
	return c.parsePrice(ctx, op, symbol, tickers[0].MarkPrice)
}

// GetSpotPrice retrieves the latest spot price for a given symbol.
func (c *Client) GetSpotPrice(ctx context.Context, symbol string) (float64, error) {
	op := "GetSpotPrice"
	prices, err := c.spotClient.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}
	if len(prices) == 0 {
		err := fmt.Errorf("no spot price returned for symbol %s: %w", symbol, ports.ErrPriceUnavailable)
		return 0, c.handleError(ctx, err, op)
	}
	return c.parsePrice(ctx, op, symbol, prices[0].Price)
}

func (c *Client) parsePrice(ctx context.Context, op, symbol, raw string) (float64, error) {
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		parseErr := fmt.Errorf("could not parse price '%s' for %s: %w: %w", raw, symbol, ports.ErrPriceUnavailable, err)
		return 0, c.handleError(ctx, parseErr, op)
	}
	if price <= 0 {
		err := fmt.Errorf("non-positive price %f for %s: %w", price, symbol, ports.ErrPriceUnavailable)
		return 0, c.handleError(ctx, err, op)
	}
	return price, nil
}

// Ping checks the connectivity to the futures API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	if err := c.futuresClient.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, fmt.Errorf("ping failed: %w", err), op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}
