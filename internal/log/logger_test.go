package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"fintrack/internal/core"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentLedger, Output: &buf})
	l.Info("Transaction recorded", FieldTransactionID, "tx-1")

	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "transaction_id=tx-1") {
		t.Errorf("unexpected output: %s", out)
	}

	buf.Reset()
	l.WithComponent(ComponentWorker).Warn("Sweep failed")
	out = buf.String()
	if !strings.Contains(out, "component=worker") || strings.Contains(out, "component=ledger") {
		t.Errorf("component not replaced: %s", out)
	}

	buf.Reset()
	l.WithComponent(ComponentWorker).WithComponent(ComponentSheets).With(FieldCount, 2).Info("Exported")
	out = buf.String()
	if n := strings.Count(out, "component="); n != 1 {
		t.Errorf("want exactly one component field, got %d: %s", n, out)
	}
	if !strings.Contains(out, "component=sheets") || !strings.Contains(out, "count=2") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithOperation(OpCreate).
		WithError(core.ErrGoalNotFound).
		WithOwner("u1")

	if f[FieldErrorType] != "not_found_error" {
		t.Errorf("error_type = %v", f[FieldErrorType])
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Errorf("ToSlice length mismatch")
	}

	f = NewFields().WithError(errors.New("boom"))
	if f[FieldErrorType] != "internal_error" {
		t.Errorf("plain errors should classify as internal, got %v", f[FieldErrorType])
	}
	if NewFields().WithError(nil)[FieldError] != nil {
		t.Error("nil error should add nothing")
	}
}

func TestContext(t *testing.T) {
	l := New(Config{Component: ComponentCLI, Output: &bytes.Buffer{}})
	ctx := NewContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Error("FromContext should return the stored logger")
	}
	if FromContext(context.Background()).Component() != ComponentApp {
		t.Error("missing logger should fall back to the app default")
	}
}
