package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financepro/internal/aggregate"
	"financepro/internal/amqp"
	"financepro/internal/core"
	"financepro/internal/export"
	"financepro/internal/services"
	"financepro/internal/sheets"
	sheetsmem "financepro/internal/sheets/memory"
	"financepro/internal/store/memory"
)

type failingRows struct{}

func (failingRows) ReportRows(context.Context, string) ([]export.Row, error) {
	return nil, errors.New("store unavailable")
}

func newFinance(t *testing.T) *services.FinanceService {
	t.Helper()
	return services.NewFinanceService(memory.New(), services.Options{
		Capabilities: aggregate.AllCapabilities(),
		Location:     time.UTC,
	})
}

func TestSyncWorker_HandleRecordChange(t *testing.T) {
	ctx := context.Background()
	svc := newFinance(t)
	writer := sheetsmem.New()
	w := NewSyncWorker(svc, writer)

	tx, err := svc.CreateTransaction(ctx, "google:1", core.TransactionForm{
		Description: "Mercado", Amount: "50,5", Type: "expense",
		Category: string(core.CategoryFood), Date: "2024-05-10",
	})
	require.NoError(t, err)

	msg := amqp.NewRecordChangeMessage("google:1", services.KindTransaction, tx.ID, amqp.OpCreated)
	require.NoError(t, w.HandleRecordChange(ctx, msg))

	rows, ok := writer.Sheet(sheets.SheetTitle("google:1"))
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, export.Header, rows[0])
	assert.Equal(t, []string{"10/05/2024", "Despesa", "Alimentação", "Mercado", "50,50", "Caixa"}, rows[1])
}

func TestSyncWorker_SkipsStaleEvents(t *testing.T) {
	ctx := context.Background()
	writer := sheetsmem.New()
	w := NewSyncWorker(newFinance(t), writer)
	w.now = func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, w.SyncUser(ctx, "google:1"))

	stale := &amqp.RecordChangeMessage{
		UserID:    "google:1",
		Op:        amqp.OpUpdated,
		Timestamp: time.Date(2024, 5, 10, 11, 0, 0, 0, time.UTC),
	}
	require.NoError(t, w.HandleRecordChange(ctx, stale))
	assert.Equal(t, 1, writer.Writes())

	fresh := *stale
	fresh.Timestamp = time.Date(2024, 5, 10, 13, 0, 0, 0, time.UTC)
	require.NoError(t, w.HandleRecordChange(ctx, &fresh))
	assert.Equal(t, 2, writer.Writes())
}

func TestSyncWorker_ErrorsAreReturned(t *testing.T) {
	writer := sheetsmem.New()
	w := NewSyncWorker(failingRows{}, writer)

	err := w.HandleRecordChange(context.Background(), amqp.NewRecordChangeMessage("google:1", "goal", "g", amqp.OpDeleted))
	assert.Error(t, err)
	assert.Equal(t, 0, writer.Writes())
}
