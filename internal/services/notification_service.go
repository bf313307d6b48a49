package services

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/storage"
)

// NotificationService lists notifications and runs the reminder sweeps.
type NotificationService struct {
	store       storage.Store
	window      int
	concurrency int
	now         func() time.Time
	logger      *log.Logger
}

func NewNotificationService(store storage.Store, window, concurrency int, now func() time.Time, logger *log.Logger) *NotificationService {
	return &NotificationService{
		store:       store,
		window:      window,
		concurrency: concurrency,
		now:         now,
		logger:      logger.WithComponent(log.ComponentNotification),
	}
}

// List returns the owner's notifications newest-first. An empty ownerID
// means the actor.
func (s *NotificationService) List(ctx context.Context, actor core.Actor, ownerID string) ([]core.Notification, error) {
	owner, err := resolveOwner(actor, ownerID)
	if err != nil {
		return nil, err
	}
	ns, err := s.store.ListNotifications(ctx, owner)
	if err != nil {
		return nil, storeErr("list notifications", err)
	}
	return ns, nil
}

// SweepGoals stores a reminder for each of the owner's goals due within the
// reminder window. It returns the number created.
func (s *NotificationService) SweepGoals(ctx context.Context, ownerID string, now time.Time) (int, error) {
	goals, err := s.store.ListGoals(ctx, ownerID)
	if err != nil {
		return 0, storeErr("list goals", err)
	}
	return s.save(ctx, notify.GoalReminders(goals, now, s.window))
}

// SweepRecurring stores a reminder for each recurring entry of the owner
// whose next due date falls within the reminder window.
func (s *NotificationService) SweepRecurring(ctx context.Context, ownerID string, now time.Time) (int, error) {
	txs, err := s.store.ListTransactions(ctx, storage.TransactionFilter{
		OwnerID:       ownerID,
		RecurringOnly: true,
	})
	if err != nil {
		return 0, storeErr("list recurring transactions", err)
	}
	return s.save(ctx, notify.RecurringReminders(txs, now, s.window))
}

// SweepAll runs both sweeps for every owner with goals or recurring entries.
func (s *NotificationService) SweepAll(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()
	owners, err := s.owners(ctx)
	if err != nil {
		return 0, err
	}

	var created atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, owner := range owners {
		g.Go(func() error {
			n, err := s.SweepGoals(gctx, owner, now)
			if err != nil {
				return err
			}
			m, err := s.SweepRecurring(gctx, owner, now)
			if err != nil {
				return err
			}
			created.Add(int64(n + m))
			return nil
		})
	}
	err = g.Wait()

	fields := log.NewFields().WithOperation(log.OpSweep).WithDuration(time.Since(start))
	if err != nil {
		s.logger.WithFields(fields.WithError(err)).ErrorContext(ctx, "Reminder sweep failed",
			log.FieldCount, created.Load())
		return int(created.Load()), err
	}
	s.logger.WithFields(fields).InfoContext(ctx, "Reminder sweep completed",
		"owners", len(owners),
		log.FieldCount, created.Load())
	return int(created.Load()), nil
}

func (s *NotificationService) owners(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})

	goals, err := s.store.ListGoals(ctx, "")
	if err != nil {
		return nil, storeErr("list goals", err)
	}
	for _, g := range goals {
		seen[g.OwnerID] = struct{}{}
	}

	txs, err := s.store.ListTransactions(ctx, storage.TransactionFilter{RecurringOnly: true})
	if err != nil {
		return nil, storeErr("list recurring transactions", err)
	}
	for _, tx := range txs {
		seen[tx.OwnerID] = struct{}{}
	}

	owners := make([]string, 0, len(seen))
	for o := range seen {
		owners = append(owners, o)
	}
	sort.Strings(owners)
	return owners, nil
}

func (s *NotificationService) save(ctx context.Context, ns []core.Notification) (int, error) {
	for i, n := range ns {
		if err := s.store.CreateNotification(ctx, n); err != nil {
			return i, storeErr("create notification", err)
		}
	}
	return len(ns), nil
}
