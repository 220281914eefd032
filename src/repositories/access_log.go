package repositories

import (
	"context"
	"log/slog"
	"time"
)

// AccessLog logs every store call when enabled. It is
// diagnostic only and never changes the outcome of a call.
type AccessLog struct {
	logger  *slog.Logger
	enabled bool
}

func NewAccessLog(logger *slog.Logger, enabled bool) *AccessLog {
	return &AccessLog{logger: logger, enabled: enabled}
}

func (a *AccessLog) Enabled() bool {
	return a != nil && a.enabled
}

// Record logs one call. Start is when the call was issued.
func (a *AccessLog) Record(ctx context.Context, op string, table string, id string, start time.Time, err error) {
	if !a.Enabled() {
		return
	}

	attrs := []slog.Attr{
		slog.String("op", op),
		slog.String("table", table),
		slog.Duration("elapsed", time.Since(start)),
	}
	if id != "" {
		attrs = append(attrs, slog.String("id", id))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	a.logger.LogAttrs(ctx, slog.LevelInfo, "Database access", attrs...)
}
