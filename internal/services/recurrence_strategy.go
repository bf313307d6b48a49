// Package services orchestrates the domain packages over the storage ports.
//
// This file holds the recurrence strategies. Each pattern has a Stepper that
// projects one occurrence forward; entries never project more than one step
// per write.
package services

import (
	"fmt"
	"sync"
	"time"

	"fintrack/internal/core"
)

// Stepper computes the occurrence after from.
type Stepper interface {
	Next(from time.Time) time.Time
}

// DailyStepper advances one day.
type DailyStepper struct{}

func (DailyStepper) Next(from time.Time) time.Time {
	return from.AddDate(0, 0, 1)
}

// WeeklyStepper advances seven days.
type WeeklyStepper struct{}

func (WeeklyStepper) Next(from time.Time) time.Time {
	return from.AddDate(0, 0, 7)
}

// MonthlyStepper advances one calendar month. A day that does not exist in
// the target month is clamped to its last day, so Jan 31 steps to Feb 28/29.
type MonthlyStepper struct{}

func (MonthlyStepper) Next(from time.Time) time.Time {
	y, m, d := from.Date()
	lastDay := time.Date(y, m+2, 0, 0, 0, 0, 0, from.Location()).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(y, m+1, d, from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
}

var (
	stepperMu  sync.RWMutex
	recurrence = map[core.RecurrencePattern]Stepper{
		core.Daily:   DailyStepper{},
		core.Weekly:  WeeklyStepper{},
		core.Monthly: MonthlyStepper{},
	}
)

// GetStepper returns the stepper registered for pattern.
func GetStepper(pattern core.RecurrencePattern) (Stepper, error) {
	stepperMu.RLock()
	defer stepperMu.RUnlock()
	s, ok := recurrence[pattern]
	if !ok {
		return nil, fmt.Errorf("unknown recurrence pattern: %s", pattern)
	}
	return s, nil
}

// RegisterStepper adds or replaces the stepper for pattern.
func RegisterStepper(pattern core.RecurrencePattern, s Stepper) {
	stepperMu.Lock()
	defer stepperMu.Unlock()
	recurrence[pattern] = s
}

// NextOccurrence returns the next due date of a recurring entry, or ok=false
// when the entry is not recurring or the next date falls after its end date.
func NextOccurrence(tx core.Transaction) (time.Time, bool, error) {
	if !tx.Recurring {
		return time.Time{}, false, nil
	}
	s, err := GetStepper(tx.Pattern)
	if err != nil {
		return time.Time{}, false, err
	}
	next := s.Next(tx.Date)
	if tx.RecurrenceEnd != nil && next.After(*tx.RecurrenceEnd) {
		return time.Time{}, false, nil
	}
	return next, true, nil
}
