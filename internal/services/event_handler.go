package services

import (
	"context"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// EventHandler consumes events after the write that produced them has been
// persisted. The inline dispatcher and the queue worker both route here.
type EventHandler struct {
	store    storage.Store
	ledger   *LedgerService
	exporter sheets.LedgerExporter
	now      func() time.Time
	logger   *log.Logger
}

func NewEventHandler(store storage.Store, ledger *LedgerService, exporter sheets.LedgerExporter, now func() time.Time, logger *log.Logger) *EventHandler {
	return &EventHandler{
		store:    store,
		ledger:   ledger,
		exporter: exporter,
		now:      now,
		logger:   logger.WithComponent(log.ComponentEvents),
	}
}

func (h *EventHandler) Handle(ctx context.Context, ev core.Event) error {
	h.logger.DebugContext(ctx, "Handling event", log.NewFields().WithEvent(ev).ToSlice()...)

	switch ev.Kind {
	case core.EventBudgetWarning, core.EventBudgetExceeded, core.EventMonthlyLimitExceeded:
		return h.notify(ctx, ev)
	case core.EventRecurrenceScheduled:
		return h.ledger.ExpandRecurrence(ctx, ev)
	case core.EventTransactionRecorded:
		return h.export(ctx, ev)
	default:
		return core.Validationf("unknown event kind %q", ev.Kind)
	}
}

func (h *EventHandler) notify(ctx context.Context, ev core.Event) error {
	n, ok := notify.FromEvent(ev, h.now())
	if !ok {
		return nil
	}
	if err := h.store.CreateNotification(ctx, n); err != nil {
		return storeErr("create notification", err)
	}
	h.logger.InfoContext(ctx, "Notification created",
		log.FieldOwnerID, n.OwnerID,
		log.FieldCategory, n.Category,
		"type", string(n.Type))
	return nil
}

// export mirrors a recorded entry to the external ledger when one is configured.
func (h *EventHandler) export(ctx context.Context, ev core.Event) error {
	if h.exporter == nil {
		return nil
	}
	tx, err := h.store.GetTransaction(ctx, ev.TransactionID)
	if err != nil {
		return storeErr("get transaction", err)
	}
	start := time.Now()
	ref, err := h.exporter.ExportTransaction(ctx, tx)
	if err != nil {
		return core.Internal("export transaction", err)
	}
	h.logger.With(log.NewFields().WithOperation(log.OpExport).WithDuration(time.Since(start)).ToSlice()...).
		InfoContext(ctx, "Transaction exported", log.FieldTransactionID, tx.ID, "ref", ref)
	return nil
}
