package commands

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-folio/pkg/interfaces"
)

// TelemetryStatus captures the result category for command execution.
type TelemetryStatus string

const (
	TelemetryStatusSuccess      TelemetryStatus = "success"
	TelemetryStatusFailed       TelemetryStatus = "failed"
	TelemetryStatusContextError TelemetryStatus = "context_error"
)

// TelemetryInfo describes a command execution outcome provided to telemetry callbacks.
type TelemetryInfo struct {
	Command   string
	Operation string
	Fields    map[string]any
	Duration  time.Duration
	Error     error
	Status    TelemetryStatus
	// Logger already carries Fields.
	Logger interfaces.Logger
}

// Telemetry is an optional callback invoked after command execution.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// DefaultTelemetry logs command outcomes and then calls next, if any.
func DefaultTelemetry[T command.Message](next func(info TelemetryInfo)) Telemetry[T] {
	return func(_ context.Context, _ T, info TelemetryInfo) {
		logTelemetry(info.Logger, info)
		if next != nil {
			next(info)
		}
	}
}

func logTelemetry(logger interfaces.Logger, info TelemetryInfo) {
	logger = EnsureLogger(logger)
	args := []any{"duration_ms", info.Duration.Milliseconds()}
	switch info.Status {
	case TelemetryStatusSuccess:
		logger.Info("command.execute.success", args...)
	case TelemetryStatusContextError:
		logger.Error("command.execute.context_error", append(args, "error", info.Error)...)
	default:
		logger.Error("command.execute.failed", append(args, "error", info.Error)...)
	}
}
