package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financepro/internal/aggregate"
	"financepro/internal/amqp"
	"financepro/internal/cache"
	"financepro/internal/core"
	"financepro/internal/store"
	"financepro/internal/store/memory"
)

const user = "google:1"

var fixedNow = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

var pngHeader = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.RecordChangeMessage
	err  error
}

func (p *fakePublisher) PublishRecordChange(_ context.Context, msg *amqp.RecordChangeMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

type fakeRecognizer struct {
	text  string
	err   error
	calls int
}

func (r *fakeRecognizer) Recognize(_ context.Context, _ []byte, _ string) (string, error) {
	r.calls++
	return r.text, r.err
}

// failingStore rejects every write.
type failingStore struct {
	*memory.Store
}

var errStoreDown = errors.New("store unavailable")

func (failingStore) CreateTransaction(context.Context, core.Transaction) (core.Transaction, error) {
	return core.Transaction{}, errStoreDown
}

func (failingStore) DeleteTransaction(context.Context, string, string) error {
	return errStoreDown
}

// downStore rejects reads too.
type downStore struct {
	failingStore
}

func (downStore) ListTransactions(context.Context, string) ([]core.Transaction, error) {
	return nil, errStoreDown
}

// pausingStore holds the first transaction listing after it has read, until
// release is closed.
type pausingStore struct {
	*memory.Store
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (p *pausingStore) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	txs, err := p.Store.ListTransactions(ctx, userID)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return txs, err
}

func newService(t *testing.T, st store.Store, opts Options) *FinanceService {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Capabilities == (aggregate.Capabilities{}) {
		opts.Capabilities = aggregate.AllCapabilities()
	}
	return NewFinanceService(st, opts)
}

func txForm(amount, typ, date string) core.TransactionForm {
	return core.TransactionForm{
		Description: "item",
		Amount:      amount,
		Type:        typ,
		Category:    string(core.CategoryFood),
		Date:        date,
	}
}

func TestFinanceService_CreateTransactionValidatesBeforeStore(t *testing.T) {
	pub := &fakePublisher{}
	svc := newService(t, memory.New(), Options{Publisher: pub})
	ctx := context.Background()

	_, err := svc.CreateTransaction(ctx, user, txForm("abc", "expense", "2024-05-10"))
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))

	_, err = svc.CreateTransaction(ctx, user, txForm("-5", "expense", "2024-05-10"))
	assert.ErrorIs(t, err, core.ErrNegativeAmount)

	c, err := svc.Load(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, c.Transactions)
	assert.Empty(t, pub.msgs)
}

func TestFinanceService_DashboardMemoizedAndInvalidated(t *testing.T) {
	dashboards := cache.NewLRUCache[aggregate.Dashboard](10, time.Minute)
	pub := &fakePublisher{}
	svc := newService(t, memory.New(), Options{Dashboards: dashboards, Publisher: pub})
	ctx := context.Background()
	period := aggregate.CurrentPeriod(fixedNow)

	_, err := svc.CreateTransaction(ctx, user, txForm("100", "income", "2024-05-01"))
	require.NoError(t, err)

	d, err := svc.Dashboard(ctx, user, period)
	require.NoError(t, err)
	assert.True(t, d.Summary.Income.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, 1, dashboards.Size())

	created, err := svc.CreateTransaction(ctx, user, txForm("40", "expense", "2024-05-10"))
	require.NoError(t, err)
	assert.Equal(t, 0, dashboards.Size(), "mutation must drop memoized dashboards")

	d, err = svc.Dashboard(ctx, user, period)
	require.NoError(t, err)
	assert.True(t, d.Summary.Net.Equal(decimal.RequireFromString("60")))

	require.Len(t, pub.msgs, 2)
	assert.Equal(t, created.ID, pub.msgs[1].ID)
	assert.Equal(t, KindTransaction, pub.msgs[1].Kind)
	assert.Equal(t, amqp.OpCreated, pub.msgs[1].Op)
}

func TestFinanceService_DashboardBuiltBeforeMutationIsNotMemoized(t *testing.T) {
	dashboards := cache.NewLRUCache[aggregate.Dashboard](10, time.Minute)
	st := &pausingStore{Store: memory.New(), read: make(chan struct{}), release: make(chan struct{})}
	svc := newService(t, st, Options{Dashboards: dashboards})
	ctx := context.Background()
	period := aggregate.CurrentPeriod(fixedNow)

	built := make(chan error, 1)
	go func() {
		_, err := svc.Dashboard(ctx, user, period)
		built <- err
	}()

	<-st.read
	_, err := svc.CreateTransaction(ctx, user, txForm("100", "income", "2024-05-10"))
	require.NoError(t, err)
	close(st.release)
	require.NoError(t, <-built)

	assert.Equal(t, 0, dashboards.Size())
	d, err := svc.Dashboard(ctx, user, period)
	require.NoError(t, err)
	assert.True(t, d.Summary.Income.Equal(decimal.RequireFromString("100")), d.Summary.Income.String())
}

func TestFinanceService_DashboardMemoRollsOverAtUTCMidnight(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2024, 5, 15, 20, 0, 0, 0, brt)
	dashboards := cache.NewLRUCache[aggregate.Dashboard](10, time.Hour)
	svc := newService(t, memory.New(), Options{
		Dashboards: dashboards,
		Location:   brt,
		Now:        func() time.Time { return now },
	})
	ctx := context.Background()
	period := aggregate.CurrentPeriod(now)

	_, err := svc.CreateGoal(ctx, user, core.GoalForm{Title: "Viagem", TargetAmount: "1000", Deadline: "2024-05-20"})
	require.NoError(t, err)

	d, err := svc.Dashboard(ctx, user, period)
	require.NoError(t, err)
	require.Len(t, d.Goals, 1)
	require.NotNil(t, d.Goals[0].Progress.DaysRemaining)
	assert.Equal(t, 5, *d.Goals[0].Progress.DaysRemaining)

	// Same local day, but past UTC midnight.
	now = time.Date(2024, 5, 15, 22, 0, 0, 0, brt)
	d, err = svc.Dashboard(ctx, user, period)
	require.NoError(t, err)
	require.Len(t, d.Goals, 1)
	require.NotNil(t, d.Goals[0].Progress.DaysRemaining)
	assert.Equal(t, 4, *d.Goals[0].Progress.DaysRemaining)
}

func TestFinanceService_DeleteRequiresConfirmation(t *testing.T) {
	svc := newService(t, memory.New(), Options{})
	ctx := context.Background()

	tx, err := svc.CreateTransaction(ctx, user, txForm("10", "expense", "2024-05-10"))
	require.NoError(t, err)

	err = svc.DeleteTransaction(ctx, user, tx.ID, false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)

	c, err := svc.Load(ctx, user)
	require.NoError(t, err)
	assert.Len(t, c.Transactions, 1)

	require.NoError(t, svc.DeleteTransaction(ctx, user, tx.ID, true))
	err = svc.DeleteTransaction(ctx, user, tx.ID, true)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFinanceService_FailedWriteKeepsState(t *testing.T) {
	dashboards := cache.NewLRUCache[aggregate.Dashboard](10, time.Minute)
	pub := &fakePublisher{}
	svc := newService(t, failingStore{memory.New()}, Options{Dashboards: dashboards, Publisher: pub})
	ctx := context.Background()

	_, err := svc.Dashboard(ctx, user, aggregate.CurrentPeriod(fixedNow))
	require.NoError(t, err)

	_, err = svc.CreateTransaction(ctx, user, txForm("10", "expense", "2024-05-10"))
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 1, dashboards.Size())
	assert.Empty(t, pub.msgs)
}

func TestFinanceService_PublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newService(t, memory.New(), Options{Publisher: pub})

	_, err := svc.CreateTransaction(context.Background(), user, txForm("10", "expense", "2024-05-10"))
	assert.NoError(t, err)
	assert.Len(t, pub.msgs, 1)
}

func TestFinanceService_DisabledCapabilities(t *testing.T) {
	svc := newService(t, memory.New(), Options{
		Capabilities: aggregate.Capabilities{Export: true},
	})
	ctx := context.Background()

	_, err := svc.CreateInvestment(ctx, user, core.InvestmentForm{Name: "x", Type: string(core.AssetCrypto), InvestedAmount: "1", CurrentValue: "1"})
	assert.ErrorIs(t, err, ErrFeatureDisabled)
	_, err = svc.CreateGoal(ctx, user, core.GoalForm{Title: "x", TargetAmount: "1"})
	assert.ErrorIs(t, err, ErrFeatureDisabled)
	err = svc.DeleteGoal(ctx, user, "g", true)
	assert.ErrorIs(t, err, ErrFeatureDisabled)
	_, err = svc.ScanReceipt(ctx, pngHeader, core.NewTransactionForm(svc.Today()))
	assert.ErrorIs(t, err, ErrFeatureDisabled)

	d, err := svc.Dashboard(ctx, user, aggregate.CurrentPeriod(fixedNow))
	require.NoError(t, err)
	assert.Nil(t, d.Investments)
	assert.Nil(t, d.Goals)
}

func TestFinanceService_InvestmentAndGoalLifecycle(t *testing.T) {
	svc := newService(t, memory.New(), Options{})
	ctx := context.Background()

	inv, err := svc.CreateInvestment(ctx, user, core.InvestmentForm{
		Name: "Tesouro", Type: string(core.AssetFixedIncome), InvestedAmount: "1000", CurrentValue: "1000",
	})
	require.NoError(t, err)
	_, err = svc.UpdateInvestment(ctx, user, inv.ID, core.InvestmentForm{CurrentValue: "1200"})
	require.NoError(t, err)

	goal, err := svc.CreateGoal(ctx, user, core.GoalForm{
		Title: "Viagem", TargetAmount: "1000", CurrentAmount: "400", Deadline: "2024-05-14",
	})
	require.NoError(t, err)
	_, err = svc.UpdateGoal(ctx, user, goal.ID, core.GoalForm{TargetAmount: "0"})
	assert.ErrorIs(t, err, core.ErrNonPositiveTarget)

	d, err := svc.Dashboard(ctx, user, aggregate.CurrentPeriod(fixedNow))
	require.NoError(t, err)
	require.NotNil(t, d.Investments)
	assert.True(t, d.Investments.Summary.YieldPercent.Equal(decimal.RequireFromString("20")))
	require.Len(t, d.Goals, 1)
	assert.True(t, d.Goals[0].Overdue)

	require.NoError(t, svc.DeleteInvestment(ctx, user, inv.ID, true))
	require.NoError(t, svc.DeleteGoal(ctx, user, goal.ID, true))
}

func TestFinanceService_UpdateGoalDeadline(t *testing.T) {
	svc := newService(t, memory.New(), Options{})
	ctx := context.Background()

	goal, err := svc.CreateGoal(ctx, user, core.GoalForm{
		Title: "Carro", TargetAmount: "50000", Deadline: "2024-12-31",
	})
	require.NoError(t, err)

	kept, err := svc.UpdateGoal(ctx, user, goal.ID, core.GoalForm{CurrentAmount: "100"})
	require.NoError(t, err)
	assert.Equal(t, "2024-12-31", kept.Deadline.String())

	cleared, err := svc.UpdateGoal(ctx, user, goal.ID, core.GoalForm{ClearDeadline: true})
	require.NoError(t, err)
	assert.True(t, cleared.Deadline.IsEmpty())
	assert.Equal(t, "100", cleared.CurrentAmount.String())

	d, err := svc.Dashboard(ctx, user, aggregate.CurrentPeriod(fixedNow))
	require.NoError(t, err)
	require.Len(t, d.Goals, 1)
	assert.Nil(t, d.Goals[0].Progress.DaysRemaining)
	assert.False(t, d.Goals[0].Overdue)
}

func TestFinanceService_ScanReceipt(t *testing.T) {
	rec := &fakeRecognizer{text: "Total R$ 1.234,56\nitem 12,00\n25/12/23"}
	svc := newService(t, memory.New(), Options{Recognizer: rec})
	ctx := context.Background()
	blank := core.NewTransactionForm(svc.Today())

	form, err := svc.ScanReceipt(ctx, pngHeader, blank)
	require.NoError(t, err)
	assert.Equal(t, "1234.56", form.Amount)
	assert.Equal(t, "2023-12-25", form.Date)

	_, err = svc.ScanReceipt(ctx, []byte("plain text"), blank)
	assert.Error(t, err)
	assert.Equal(t, 1, rec.calls, "invalid uploads never reach the recognizer")

	rec.err = errors.New("network down")
	prior := txForm("7", "expense", "2024-05-01")
	form, err = svc.ScanReceipt(ctx, pngHeader, prior)
	assert.Error(t, err)
	assert.Equal(t, prior, form)
}

func TestFinanceService_Export(t *testing.T) {
	svc := newService(t, memory.New(), Options{})
	ctx := context.Background()

	_, err := svc.CreateTransaction(ctx, user, txForm("1234.5", "expense", "2024-05-10"))
	require.NoError(t, err)
	_, err = svc.CreateInvestment(ctx, user, core.InvestmentForm{
		Name: "BTC", Type: string(core.AssetCrypto), InvestedAmount: "10", CurrentValue: "12",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	name, err := svc.Export(ctx, user, &buf)
	require.NoError(t, err)
	assert.Equal(t, "financepro_2024-05-15.csv", name)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "10/05/2024;Despesa;Alimentação;item;1234,50;Caixa", lines[1])
	assert.Contains(t, lines[2], ";Investimento;Cripto;BTC;12,00;Carteira")
}

func TestFinanceService_UserIsolation(t *testing.T) {
	svc := newService(t, memory.New(), Options{})
	ctx := context.Background()

	tx, err := svc.CreateTransaction(ctx, user, txForm("10", "expense", "2024-05-10"))
	require.NoError(t, err)

	err = svc.DeleteTransaction(ctx, "google:2", tx.ID, true)
	assert.ErrorIs(t, err, store.ErrNotFound)

	c, err := svc.Load(ctx, "google:2")
	require.NoError(t, err)
	assert.Empty(t, c.Transactions)
}

func TestFinanceService_Ping(t *testing.T) {
	assert.NoError(t, newService(t, memory.New(), Options{}).Ping(context.Background()))

	err := newService(t, downStore{failingStore{memory.New()}}, Options{}).Ping(context.Background())
	assert.ErrorIs(t, err, errStoreDown)
}
