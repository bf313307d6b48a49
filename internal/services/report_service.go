package services

import (
	"context"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/storage"
)

// ReportService builds read-only views over the ledger. Scheduled copies
// that have not come due are left out of every view.
type ReportService struct {
	store  storage.LedgerStore
	logger *log.Logger
}

func NewReportService(store storage.LedgerStore, logger *log.Logger) *ReportService {
	return &ReportService{store: store, logger: logger.WithComponent(log.ComponentReport)}
}

// Query narrows a report. An empty OwnerID means the actor.
type Query struct {
	OwnerID  string
	From     *time.Time
	To       *time.Time
	Category string
	Tags     []string
}

func (s *ReportService) UserSummary(ctx context.Context, actor core.Actor, ownerID string) (report.Summary, error) {
	txs, err := s.list(ctx, actor, Query{OwnerID: ownerID})
	if err != nil {
		return report.Summary{}, err
	}
	return report.Summarize(txs), nil
}

func (s *ReportService) Trends(ctx context.Context, actor core.Actor, ownerID string) ([]report.DayTrend, error) {
	txs, err := s.list(ctx, actor, Query{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}
	return report.DailyTrends(txs), nil
}

// IncomeVsExpense totals converted amounts per direction within [from, to].
func (s *ReportService) IncomeVsExpense(ctx context.Context, actor core.Actor, ownerID string, from, to *time.Time) (report.IncomeExpense, error) {
	owner, err := resolveOwner(actor, ownerID)
	if err != nil {
		return report.IncomeExpense{}, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return report.IncomeExpense{}, core.Validationf("end date must not be before start date")
	}
	byDir, err := s.store.SumByDirection(ctx, storage.TransactionFilter{
		OwnerID: owner,
		From:    from,
		To:      to,
		Settled: true,
	})
	if err != nil {
		return report.IncomeExpense{}, storeErr("sum transactions", err)
	}
	return report.NewIncomeExpense(byDir, from, to), nil
}

func (s *ReportService) Filter(ctx context.Context, actor core.Actor, q Query) ([]core.Transaction, error) {
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return nil, core.Validationf("end date must not be before start date")
	}
	return s.list(ctx, actor, q)
}

// ByTags returns entries carrying any of tags, or all of them when anyOf is
// false.
func (s *ReportService) ByTags(ctx context.Context, actor core.Actor, ownerID string, tags []string, anyOf bool) ([]core.Transaction, error) {
	tags = core.NormalizeTags(tags)
	if len(tags) == 0 {
		return nil, core.Validationf("at least one tag is required")
	}
	txs, err := s.list(ctx, actor, Query{OwnerID: ownerID, Tags: tags})
	if err != nil || anyOf {
		return txs, err
	}

	out := txs[:0]
	for _, tx := range txs {
		if hasAllTags(tx, tags) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *ReportService) SortedByTag(ctx context.Context, actor core.Actor, ownerID, tag string) ([]core.Transaction, error) {
	tags := core.NormalizeTags([]string{tag})
	if len(tags) == 0 {
		return nil, core.Validationf("tag is required")
	}
	txs, err := s.list(ctx, actor, Query{OwnerID: ownerID, Tags: tags})
	if err != nil {
		return nil, err
	}
	return report.SortByTag(txs, tags[0]), nil
}

// SystemReport aggregates every user's ledger. Administrators only.
func (s *ReportService) SystemReport(ctx context.Context, actor core.Actor) (report.System, error) {
	if err := actor.RequireAdmin(); err != nil {
		return report.System{}, err
	}
	byDir, err := s.store.SumByDirection(ctx, storage.TransactionFilter{Settled: true})
	if err != nil {
		return report.System{}, storeErr("sum transactions", err)
	}
	cats, err := s.store.SumByCategory(ctx, storage.TransactionFilter{Direction: core.Expense, Settled: true})
	if err != nil {
		return report.System{}, storeErr("sum categories", err)
	}

	s.logger.InfoContext(ctx, "System report generated",
		log.FieldActorID, actor.UserID,
		log.FieldCount, len(cats))
	return report.NewSystem(byDir, cats), nil
}

func (s *ReportService) list(ctx context.Context, actor core.Actor, q Query) ([]core.Transaction, error) {
	owner, err := resolveOwner(actor, q.OwnerID)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.ListTransactions(ctx, storage.TransactionFilter{
		OwnerID:  owner,
		Category: q.Category,
		Tags:     core.NormalizeTags(q.Tags),
		From:     q.From,
		To:       q.To,
		Settled:  true,
	})
	if err != nil {
		return nil, storeErr("list transactions", err)
	}
	return txs, nil
}

func hasAllTags(tx core.Transaction, tags []string) bool {
	for _, tag := range tags {
		if !tx.HasTag(tag) {
			return false
		}
	}
	return true
}
