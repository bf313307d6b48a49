// Package memory is an in-process storage backend used by tests and by the
// memory DATA_BACKEND.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type Store struct {
	mu            sync.RWMutex
	plans         map[string]core.BudgetPlan
	txs           map[string]core.Transaction
	notifications []core.Notification
	goals         map[string]core.Goal
	settings      *core.Settings
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		plans: make(map[string]core.BudgetPlan),
		txs:   make(map[string]core.Transaction),
		goals: make(map[string]core.Goal),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) GetPlan(_ context.Context, ownerID string) (core.BudgetPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[ownerID]
	if !ok {
		return core.BudgetPlan{}, core.ErrPlanNotFound
	}
	return p.Clone(), nil
}

func (s *Store) CreatePlan(_ context.Context, plan core.BudgetPlan) (core.BudgetPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[plan.OwnerID]; ok {
		return core.BudgetPlan{}, core.ErrPlanExists
	}
	plan.Version = 1
	plan.Recompute()
	s.plans[plan.OwnerID] = plan.Clone()
	return plan, nil
}

func (s *Store) SavePlan(_ context.Context, plan core.BudgetPlan) (core.BudgetPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.plans[plan.OwnerID]
	if !ok {
		return core.BudgetPlan{}, core.ErrPlanNotFound
	}
	if cur.Version != plan.Version {
		return core.BudgetPlan{}, fmt.Errorf("save plan %s at version %d: %w", plan.OwnerID, plan.Version, core.ErrStaleWrite)
	}
	plan.Version++
	plan.Recompute()
	s.plans[plan.OwnerID] = plan.Clone()
	return plan, nil
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[tx.ID]; ok {
		return fmt.Errorf("create transaction %s: duplicate id", tx.ID)
	}
	s.txs[tx.ID] = copyTx(tx)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	return copyTx(tx), nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[tx.ID]; !ok {
		return core.ErrTransactionNotFound
	}
	s.txs[tx.ID] = copyTx(tx)
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txs[id]; !ok {
		return core.ErrTransactionNotFound
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, f storage.TransactionFilter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matching(f), nil
}

func (s *Store) SumByDirection(_ context.Context, f storage.TransactionFilter) (map[core.Direction]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byDir, _ := storage.SumTransactions(s.matching(f))
	return byDir, nil
}

func (s *Store) SumByCategory(_ context.Context, f storage.TransactionFilter) ([]core.CategoryTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, totals := storage.SumTransactions(s.matching(f))
	return totals, nil
}

func (s *Store) matching(f storage.TransactionFilter) []core.Transaction {
	var out []core.Transaction
	for _, tx := range s.txs {
		if f.Matches(tx) {
			out = append(out, copyTx(tx))
		}
	}
	storage.SortTransactions(out, f.Ascending)
	return out
}

func (s *Store) CreateNotification(_ context.Context, n core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *Store) ListNotifications(_ context.Context, ownerID string) ([]core.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Notification
	// Walk backwards so equal timestamps keep newest-inserted first.
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].OwnerID == ownerID {
			out = append(out, s.notifications[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.ID] = g
	return nil
}

func (s *Store) GetGoal(_ context.Context, id string) (core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[id]
	if !ok {
		return core.Goal{}, core.ErrGoalNotFound
	}
	return g, nil
}

func (s *Store) ListGoals(_ context.Context, ownerID string) ([]core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Goal
	for _, g := range s.goals {
		if ownerID == "" || g.OwnerID == ownerID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Deadline.Equal(out[j].Deadline) {
			return out[i].Deadline.Before(out[j].Deadline)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[g.ID]; !ok {
		return core.ErrGoalNotFound
	}
	s.goals[g.ID] = g
	return nil
}

func (s *Store) DeleteGoal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[id]; !ok {
		return core.ErrGoalNotFound
	}
	delete(s.goals, id)
	return nil
}

func (s *Store) GetSettings(_ context.Context) (core.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return core.Settings{}, core.ErrSettingsNotFound
	}
	out := *s.settings
	out.Categories = slices.Clone(out.Categories)
	return out, nil
}

func (s *Store) CreateSettings(_ context.Context, st core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings != nil {
		return core.ErrSettingsExist
	}
	st.Categories = slices.Clone(st.Categories)
	s.settings = &st
	return nil
}

func (s *Store) SaveSettings(_ context.Context, st core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.Categories = slices.Clone(st.Categories)
	s.settings = &st
	return nil
}

func copyTx(tx core.Transaction) core.Transaction {
	tx.Tags = slices.Clone(tx.Tags)
	return tx
}
