package services

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestSteppers(t *testing.T) {
	tests := []struct {
		name    string
		pattern core.RecurrencePattern
		from    time.Time
		want    time.Time
	}{
		{
			name:    "daily",
			pattern: core.Daily,
			from:    time.Date(2024, 2, 28, 9, 30, 0, 0, time.UTC),
			want:    time.Date(2024, 2, 29, 9, 30, 0, 0, time.UTC),
		},
		{
			name:    "weekly",
			pattern: core.Weekly,
			from:    time.Date(2024, 12, 28, 0, 0, 0, 0, time.UTC),
			want:    time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "monthly mid month",
			pattern: core.Monthly,
			from:    time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC),
			want:    time.Date(2024, 4, 15, 8, 0, 0, 0, time.UTC),
		},
		{
			name:    "monthly clamps to leap february",
			pattern: core.Monthly,
			from:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			want:    time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "monthly clamps to short month",
			pattern: core.Monthly,
			from:    time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC),
			want:    time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "monthly crosses year",
			pattern: core.Monthly,
			from:    time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			want:    time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := GetStepper(tt.pattern)
			if err != nil {
				t.Fatalf("GetStepper() error = %v", err)
			}
			if got := s.Next(tt.from); !got.Equal(tt.want) {
				t.Errorf("Next(%v) = %v, want %v", tt.from, got, tt.want)
			}
		})
	}
}

func TestGetStepper_Unknown(t *testing.T) {
	if _, err := GetStepper("Yearly"); err == nil {
		t.Error("expected an error for an unregistered pattern")
	}
}

type fixedStepper struct{ d time.Duration }

func (f fixedStepper) Next(from time.Time) time.Time { return from.Add(f.d) }

func TestRegisterStepper(t *testing.T) {
	RegisterStepper("Fortnightly", fixedStepper{d: 14 * 24 * time.Hour})
	s, err := GetStepper("Fortnightly")
	if err != nil {
		t.Fatalf("GetStepper() error = %v", err)
	}
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := s.Next(from); !got.Equal(from.AddDate(0, 0, 14)) {
		t.Errorf("Next() = %v", got)
	}
}

func TestNextOccurrence(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := func(days int) *time.Time {
		t := start.AddDate(0, 0, days)
		return &t
	}

	tests := []struct {
		name   string
		tx     core.Transaction
		wantOK bool
	}{
		{name: "not recurring", tx: core.Transaction{Date: start}, wantOK: false},
		{name: "open ended", tx: core.Transaction{Date: start, Recurring: true, Pattern: core.Weekly}, wantOK: true},
		{name: "end on next date", tx: core.Transaction{Date: start, Recurring: true, Pattern: core.Weekly, RecurrenceEnd: end(7)}, wantOK: true},
		{name: "end before next date", tx: core.Transaction{Date: start, Recurring: true, Pattern: core.Weekly, RecurrenceEnd: end(6)}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok, err := NextOccurrence(tt.tx)
			if err != nil {
				t.Fatalf("NextOccurrence() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !next.Equal(start.AddDate(0, 0, 7)) {
				t.Errorf("next = %v", next)
			}
		})
	}
}
