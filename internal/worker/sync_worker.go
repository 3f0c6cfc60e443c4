package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"financepro/internal/amqp"
	"financepro/internal/export"
	"financepro/internal/sheets"
)

// RowSource produces a user's report rows.
type RowSource interface {
	ReportRows(ctx context.Context, userID string) ([]export.Row, error)
}

// SyncWorker keeps each user's spreadsheet tab equal to their export report.
// Every change event triggers a full rebuild of the user's tab.
type SyncWorker struct {
	rows   RowSource
	sheets sheets.ReportWriter
	now    func() time.Time

	mu         sync.Mutex
	lastSynced map[string]time.Time
}

func NewSyncWorker(rows RowSource, writer sheets.ReportWriter) *SyncWorker {
	return &SyncWorker{
		rows:       rows,
		sheets:     writer,
		now:        time.Now,
		lastSynced: make(map[string]time.Time),
	}
}

// HandleRecordChange processes one change event from AMQP. Events older than
// the user's last completed sync are skipped, since that sync already read
// the state they describe.
func (w *SyncWorker) HandleRecordChange(ctx context.Context, msg *amqp.RecordChangeMessage) error {
	slog.InfoContext(ctx, "Processing record change",
		"user_id", msg.UserID,
		"kind", msg.Kind,
		"id", msg.ID,
		"op", msg.Op)

	w.mu.Lock()
	last, ok := w.lastSynced[msg.UserID]
	w.mu.Unlock()
	if ok && !msg.Timestamp.IsZero() && msg.Timestamp.Before(last) {
		slog.DebugContext(ctx, "Skipping stale change event",
			"user_id", msg.UserID,
			"event_at", msg.Timestamp,
			"synced_at", last)
		return nil
	}

	if err := w.SyncUser(ctx, msg.UserID); err != nil {
		return fmt.Errorf("sync user sheet: %w", err)
	}
	return nil
}

// SyncUser rebuilds the user's tab from the store.
func (w *SyncWorker) SyncUser(ctx context.Context, userID string) error {
	started := w.now()

	rows, err := w.rows.ReportRows(ctx, userID)
	if err != nil {
		return fmt.Errorf("load report rows: %w", err)
	}

	title := sheets.SheetTitle(userID)
	if err := w.sheets.ReplaceSheet(ctx, title, export.Table(rows)); err != nil {
		return fmt.Errorf("replace sheet: %w", err)
	}

	w.mu.Lock()
	if started.After(w.lastSynced[userID]) {
		w.lastSynced[userID] = started
	}
	w.mu.Unlock()

	slog.InfoContext(ctx, "Successfully synced report sheet",
		"user_id", userID,
		"sheet", title,
		"rows", len(rows))
	return nil
}
