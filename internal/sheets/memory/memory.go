// Package memory keeps mirrored ledger rows in process.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows [][]any
	ids  map[string]int
}

var _ sheets.LedgerExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{ids: make(map[string]int)}
}

// ExportTransaction appends tx once; a repeated export returns the first row.
func (e *Exporter) ExportTransaction(_ context.Context, tx core.Transaction) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i, ok := e.ids[tx.ID]; ok {
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	e.rows = append(e.rows, sheets.Row(tx))
	e.ids[tx.ID] = len(e.rows) - 1
	return fmt.Sprintf("mem:%d", len(e.rows)), nil
}

// Rows returns a copy of the mirrored rows.
func (e *Exporter) Rows() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]any, len(e.rows))
	copy(out, e.rows)
	return out
}
