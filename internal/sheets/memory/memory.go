// Package memory keeps the spreadsheet mirror in process, for local runs
// without Google credentials and for tests.
package memory

import (
	"context"
	"sync"

	"financepro/internal/sheets"
)

type Writer struct {
	mu     sync.Mutex
	tabs   map[string][][]string
	writes int
}

var _ sheets.ReportWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{tabs: make(map[string][][]string)}
}

func (w *Writer) ReplaceSheet(_ context.Context, title string, table [][]string) error {
	rows := make([][]string, len(table))
	for i, r := range table {
		rows[i] = append([]string(nil), r...)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tabs[title] = rows
	w.writes++
	return nil
}

// Sheet returns a copy of the tab and whether it exists.
func (w *Writer) Sheet(title string) ([][]string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, ok := w.tabs[title]
	if !ok {
		return nil, false
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out, true
}

// Writes counts ReplaceSheet calls.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
