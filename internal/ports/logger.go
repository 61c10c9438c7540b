package ports

import "context"

// Fields carries structured key/value context for a log line.
type Fields = map[string]interface{}

// Logger is the logging port used by engines that perform I/O and by adapters.
// Implementations live in internal/adapters/logger.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Fields)
	Info(ctx context.Context, msg string, fields ...Fields)
	Warn(ctx context.Context, msg string, fields ...Fields)
	// Error logs err together with msg at Error level.
	Error(ctx context.Context, err error, msg string, fields ...Fields)
}

// NopLogger discards everything. Used when a component is built without a logger.
type NopLogger struct{}

func (NopLogger) Debug(context.Context, string, ...Fields)        {}
func (NopLogger) Info(context.Context, string, ...Fields)         {}
func (NopLogger) Warn(context.Context, string, ...Fields)         {}
func (NopLogger) Error(context.Context, error, string, ...Fields) {}
