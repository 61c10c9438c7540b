// Package cli wires configuration, adapters and the coach service into a cobra command tree.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"paperCoach/config"
	"paperCoach/internal/adapters/binanceclient"
	"paperCoach/internal/adapters/logger"
	"paperCoach/internal/adapters/sqlite"
	"paperCoach/internal/app"
	"paperCoach/internal/ports"
)

// env is what every subcommand runs against.
type env struct {
	cfg     *config.Config
	logger  *logger.ZapLogger
	repo    *sqlite.Repository
	service *app.CoachService
}

// pingTimeout bounds the start-up connectivity check.
const pingTimeout = 5 * time.Second

var (
	userFlag string
	dbFlag   string
	current  *env
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "papercoach",
		Short:         "Paper-trading coach: risk checks, margin monitoring, simulations and feedback",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			current = e
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "user id (overrides USER_ID)")
	root.PersistentFlags().StringVar(&dbFlag, "db", "", "database path (overrides DB_PATH)")

	root.AddCommand(
		newTradeCmd(),
		newMonitorCmd(),
		newSimulateCmd(),
		newReportCmd(),
		newJournalCmd(),
		newExportCmd(),
	)
	return root
}

// Execute runs the command tree.
func Execute(ctx context.Context) error {
	return run(ctx, NewRootCmd())
}

// run executes root and releases the environment even when the command failed.
func run(ctx context.Context, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)
	if tErr := teardown(ctx); err == nil {
		err = tErr
	}
	return err
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if userFlag != "" {
		cfg.UserID = userFlag
		cfg.DefaultSettings.UserID = userFlag
	}
	if dbFlag != "" {
		cfg.DBPath = dbFlag
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	appLogger.Debug(ctx, "Logger initialized", ports.Fields{"level": cfg.LogLevel, "format": cfg.LogFormat})

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database repository: %w", err)
	}

	feed, err := binanceclient.New(binanceclient.Config{
		APIKey:         cfg.APIKey,
		SecretKey:      cfg.SecretKey,
		UseTestnet:     cfg.IsTestnet,
		Logger:         appLogger,
		FuturesBaseURL: cfg.FuturesURL,
		SpotBaseURL:    cfg.SpotURL,
	})
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to initialize Binance client: %w", err)
	}
	checkConnectivity(ctx, feed, appLogger)

	service, err := app.NewCoachService(cfg, appLogger, repo, feed, &logSink{logger: appLogger})
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to initialize coach service: %w", err)
	}
	if _, err := service.EnsureAccount(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	return &env{cfg: cfg, logger: appLogger, repo: repo, service: service}, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// checkConnectivity pings the price API once. Commands with explicit prices still
// work offline, so a failure is only logged.
func checkConnectivity(ctx context.Context, p pinger, log ports.Logger) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		log.Warn(ctx, "Price API unreachable, live prices will be unavailable", ports.Fields{"error": err.Error()})
		return false
	}
	return true
}

func teardown(ctx context.Context) error {
	if current == nil {
		return nil
	}
	e := current
	current = nil
	if err := e.repo.Close(); err != nil {
		e.logger.Error(ctx, err, "Error closing database repository")
		return err
	}
	_ = e.logger.Sync()
	return nil
}
