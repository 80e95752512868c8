package errors

import (
	"context"

	"github.com/julianstephens/daystreak/internal/logger"
)

// Reporter forwards unexpected failures to an error-tracking collaborator.
// Implementations must never panic.
type Reporter interface {
	Report(ctx context.Context, err error, keyvals ...interface{})
}

// LogReporter reports errors through the application logger.
type LogReporter struct{}

func NewLogReporter() *LogReporter {
	return &LogReporter{}
}

func (r *LogReporter) Report(_ context.Context, err error, keyvals ...interface{}) {
	if err == nil {
		return
	}
	kv := append([]interface{}{"error", err}, keyvals...)
	logger.Error("Unexpected failure", kv...)
}

// NopReporter discards reports.
type NopReporter struct{}

func (NopReporter) Report(context.Context, error, ...interface{}) {}
