package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"paperCoach/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// Binance API (read-only price access)
	APIKey    string
	SecretKey string
	IsTestnet bool
	// Optional endpoint overrides, e.g. a local mock
	FuturesURL string
	SpotURL    string

	// Database
	DBPath string

	// Logging
	LogLevel  string // DEBUG, INFO, WARN or ERROR
	LogFormat string // console or json

	// Account
	UserID         string
	InitialBalance float64 // Balance seeded for a user without a ledger row
	TakerFee       float64 // Fee rate added to used margin in every margin assessment, e.g. 0.0004

	// Monitoring
	MonitorInterval time.Duration

	// Monte Carlo defaults
	MCIterations int
	MCTrades     int
	MCWorkers    int

	// Settings used when the user has none stored
	DefaultSettings domain.UserSettings
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Binance API. Keys are optional: public price endpoints need none.
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)
	cfg.FuturesURL = getEnv("BINANCE_FUTURES_URL", "")
	cfg.SpotURL = getEnv("BINANCE_SPOT_URL", "")
	if (cfg.APIKey == "") != (cfg.SecretKey == "") {
		errs = append(errs, "BINANCE_API_KEY and BINANCE_API_SECRET must be set together")
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/paper_coach.db")

	// Logging
	cfg.LogLevel = strings.ToUpper(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "console"))
	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		errs = append(errs, "LOG_FORMAT must be console or json")
	}

	// Account
	cfg.UserID = getEnv("USER_ID", "default")

	cfg.InitialBalance, err = getEnvAsFloatRequired("INITIAL_BALANCE", 10000)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid INITIAL_BALANCE: %v", err))
	} else if cfg.InitialBalance <= 0 {
		errs = append(errs, "INITIAL_BALANCE must be positive")
	}

	cfg.TakerFee, err = getEnvAsFloatRequired("TAKER_FEE", 0.0004)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TAKER_FEE: %v", err))
	} else if cfg.TakerFee < 0 || cfg.TakerFee >= 1 {
		errs = append(errs, "TAKER_FEE must be in [0, 1)")
	}

	// Monitoring
	monitorSeconds, err := getEnvAsIntRequired("MONITOR_INTERVAL_SECONDS", 5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MONITOR_INTERVAL_SECONDS: %v", err))
	} else if monitorSeconds <= 0 {
		errs = append(errs, "MONITOR_INTERVAL_SECONDS must be positive")
	}
	cfg.MonitorInterval = time.Duration(monitorSeconds) * time.Second

	// Monte Carlo
	cfg.MCIterations, err = getEnvAsIntRequired("MC_ITERATIONS", 1000)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MC_ITERATIONS: %v", err))
	} else if cfg.MCIterations <= 0 {
		errs = append(errs, "MC_ITERATIONS must be positive")
	}

	cfg.MCTrades, err = getEnvAsIntRequired("MC_TRADES", 100)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MC_TRADES: %v", err))
	} else if cfg.MCTrades <= 0 {
		errs = append(errs, "MC_TRADES must be positive")
	}

	cfg.MCWorkers = getEnvAsInt("MC_WORKERS", runtime.NumCPU())
	if cfg.MCWorkers <= 0 {
		errs = append(errs, "MC_WORKERS must be positive")
	}

	// Default user settings
	s := domain.DefaultUserSettings(cfg.UserID)

	s.RiskMode = domain.RiskMode(strings.ToUpper(getEnv("RISK_MODE", string(s.RiskMode))))
	if s.RiskMode != domain.RiskModeFixed && s.RiskMode != domain.RiskModePercentage {
		errs = append(errs, "RISK_MODE must be FIXED or PERCENTAGE")
	}

	s.RiskValue, err = getEnvAsFloatRequired("RISK_VALUE", s.RiskValue)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RISK_VALUE: %v", err))
	} else if s.RiskValue <= 0 {
		errs = append(errs, "RISK_VALUE must be positive")
	}

	s.MaxPositions, err = getEnvAsIntRequired("MAX_POSITIONS", s.MaxPositions)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_POSITIONS: %v", err))
	} else if s.MaxPositions <= 0 {
		errs = append(errs, "MAX_POSITIONS must be positive")
	}

	s.MaxLossPerTradePct, err = getEnvAsFloatRequired("MAX_LOSS_PER_TRADE_PCT", s.MaxLossPerTradePct)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_LOSS_PER_TRADE_PCT: %v", err))
	} else if s.MaxLossPerTradePct <= 0 || s.MaxLossPerTradePct > 100 {
		errs = append(errs, "MAX_LOSS_PER_TRADE_PCT must be in (0, 100]")
	}

	s.DailyLossLimitPct, err = getEnvAsFloatRequired("DAILY_LOSS_LIMIT_PCT", s.DailyLossLimitPct)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DAILY_LOSS_LIMIT_PCT: %v", err))
	} else if s.DailyLossLimitPct <= 0 || s.DailyLossLimitPct > 100 {
		errs = append(errs, "DAILY_LOSS_LIMIT_PCT must be in (0, 100]")
	}

	s.DefaultLeverage, err = getEnvAsIntRequired("DEFAULT_LEVERAGE", s.DefaultLeverage)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DEFAULT_LEVERAGE: %v", err))
	} else if s.DefaultLeverage <= 0 {
		errs = append(errs, "DEFAULT_LEVERAGE must be positive")
	}

	s.TradeMode = domain.TradeType(strings.ToUpper(getEnv("TRADE_MODE", string(s.TradeMode))))
	if s.TradeMode != domain.Spot && s.TradeMode != domain.Futures {
		errs = append(errs, "TRADE_MODE must be SPOT or FUTURES")
	}

	s.MarginMode = domain.MarginMode(strings.ToUpper(getEnv("MARGIN_MODE", string(s.MarginMode))))
	if s.MarginMode != domain.MarginIsolated && s.MarginMode != domain.MarginCross {
		errs = append(errs, "MARGIN_MODE must be ISOLATED or CROSS")
	}
	cfg.DefaultSettings = s

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
