// Package trace tags units of work with an operation ID and logs their
// outcome and duration.
package trace

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// OperationIDKey is the context key for the operation ID
	OperationIDKey ContextKey = "operation_id"
)

// Metrics tracks operation counts and timing.
type Metrics struct {
	TotalOperations int64
	Failures        int64
	LastDuration    int64 // in microseconds
}

type Tracer struct {
	logger *log.Logger

	total        atomic.Int64
	failures     atomic.Int64
	lastDuration atomic.Int64
}

func New(logger *log.Logger) *Tracer {
	if logger == nil {
		logger = log.Default()
	}
	return &Tracer{logger: logger}
}

// Run executes fn under a fresh operation ID. The context passed to fn
// carries the ID and a logger tagged with it.
func (t *Tracer) Run(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()

	id := OperationID(ctx)
	if id == "" {
		id = NewOperationID()
		ctx = WithOperationID(ctx, id)
	}
	logger := t.logger.With(log.FieldOperationID, id, log.FieldOperation, name)
	ctx = log.NewContext(ctx, logger)

	logger.DebugContext(ctx, "Operation started")
	t.total.Add(1)

	err := fn(ctx)

	duration := time.Since(start)
	t.lastDuration.Store(duration.Microseconds())

	if err != nil {
		t.failures.Add(1)
		logger.Log(ctx, levelFor(err), "Operation failed",
			log.FieldError, err,
			log.FieldErrorType, string(core.KindOf(err)),
			log.FieldDuration, duration.Milliseconds())
		return err
	}
	logger.Log(ctx, slog.LevelInfo, "Operation completed", log.FieldDuration, duration.Milliseconds())
	return nil
}

// levelFor logs caller mistakes at warn and everything else at error.
func levelFor(err error) slog.Level {
	switch core.KindOf(err) {
	case core.KindValidation, core.KindNotFound, core.KindForbidden, core.KindConflict:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func (t *Tracer) Metrics() Metrics {
	return Metrics{
		TotalOperations: t.total.Load(),
		Failures:        t.failures.Load(),
		LastDuration:    t.lastDuration.Load(),
	}
}

// NewOperationID creates a unique operation ID.
func NewOperationID() string {
	return "op_" + uuid.NewString()
}

func WithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, OperationIDKey, id)
}

// OperationID extracts the operation ID from ctx.
func OperationID(ctx context.Context) string {
	if id, ok := ctx.Value(OperationIDKey).(string); ok {
		return id
	}
	return ""
}
