package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"financepro/internal/aggregate"
	"financepro/internal/amqp"
	"financepro/internal/cache"
	"financepro/internal/core"
	"financepro/internal/export"
	applog "financepro/internal/log"
	"financepro/internal/ocr"
	"financepro/internal/receipt"
	"financepro/internal/store"
)

// Record kinds used in change events and logs.
const (
	KindTransaction = "transaction"
	KindInvestment  = "investment"
	KindGoal        = "goal"
)

var (
	// ErrFeatureDisabled is returned for operations on a capability that is
	// switched off.
	ErrFeatureDisabled = errors.New("feature disabled")
	// ErrConfirmationRequired is returned by deletes that were not confirmed.
	ErrConfirmationRequired = errors.New("delete requires confirmation")
)

// Publisher announces confirmed record changes.
type Publisher interface {
	PublishRecordChange(ctx context.Context, msg *amqp.RecordChangeMessage) error
}

// Collections is everything a user owns, in store order.
type Collections struct {
	Transactions []core.Transaction
	Investments  []core.Investment
	Goals        []core.Goal
}

type Options struct {
	Capabilities aggregate.Capabilities
	Recognizer   ocr.Recognizer // nil disables receipt scanning
	Publisher    Publisher      // nil disables change events
	OCRLanguage  string
	// Dashboards memoizes built dashboards; nil disables memoization.
	Dashboards cache.Cache[aggregate.Dashboard]
	Location   *time.Location
	Now        func() time.Time
}

// FinanceService orchestrates the record store, the aggregation engine,
// receipt recognition and change events for one process.
type FinanceService struct {
	store      store.Store
	recognizer ocr.Recognizer
	publisher  Publisher
	dashboards cache.Cache[aggregate.Dashboard]
	caps       aggregate.Capabilities
	language   string
	loc        *time.Location
	now        func() time.Time

	// generations counts confirmed mutations per user. A dashboard is only
	// memoized when no mutation landed while it was being built.
	genMu       sync.Mutex
	generations map[string]uint64
}

func NewFinanceService(st store.Store, opts Options) *FinanceService {
	s := &FinanceService{
		store:      st,
		recognizer: opts.Recognizer,
		publisher:  opts.Publisher,
		dashboards: opts.Dashboards,
		caps:       opts.Capabilities,
		language:   opts.OCRLanguage,
		loc:        opts.Location,
		now:        opts.Now,

		generations: make(map[string]uint64),
	}
	if s.language == "" {
		s.language = "pt"
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.recognizer == nil {
		s.caps.OCR = false
	}
	return s
}

func (s *FinanceService) Capabilities() aggregate.Capabilities {
	return s.caps
}

// Today is the current calendar day in the service location.
func (s *FinanceService) Today() core.Date {
	return core.Today(s.now().In(s.loc))
}

// CurrentPeriod is the month containing today in the service location.
func (s *FinanceService) CurrentPeriod() aggregate.Period {
	return aggregate.CurrentPeriod(s.now().In(s.loc))
}

// Load fetches the user's collections in parallel. Collections behind a
// disabled capability are left empty.
func (s *FinanceService) Load(ctx context.Context, userID string) (Collections, error) {
	var c Collections
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		txs, err := s.store.ListTransactions(gctx, userID)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		c.Transactions = txs
		return nil
	})
	if s.caps.Investments {
		g.Go(func() error {
			invs, err := s.store.ListInvestments(gctx, userID)
			if err != nil {
				return fmt.Errorf("list investments: %w", err)
			}
			c.Investments = invs
			return nil
		})
	}
	if s.caps.Goals {
		g.Go(func() error {
			goals, err := s.store.ListGoals(gctx, userID)
			if err != nil {
				return fmt.Errorf("list goals: %w", err)
			}
			c.Goals = goals
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Collections{}, err
	}
	return c, nil
}

// Ping reports whether the record store answers a read.
func (s *FinanceService) Ping(ctx context.Context) error {
	if _, err := s.store.ListTransactions(ctx, ""); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}
	return nil
}

// Dashboard builds the user's dashboard for period. Results are memoized per
// user, period and UTC day until the user's next confirmed mutation.
func (s *FinanceService) Dashboard(ctx context.Context, userID string, period aggregate.Period) (aggregate.Dashboard, error) {
	now := s.now().In(s.loc)
	// Goal day counts roll over at UTC midnight.
	key := dashboardKey(userID, period, core.Today(now.UTC()))

	var gen uint64
	if s.dashboards != nil {
		if d, ok := s.dashboards.Get(key); ok {
			slog.DebugContext(ctx, "Dashboard cache hit", "user_id", userID, "period", period.String())
			return d, nil
		}
		gen = s.generation(userID)
	}

	c, err := s.Load(ctx, userID)
	if err != nil {
		return aggregate.Dashboard{}, fmt.Errorf("load collections: %w", err)
	}

	d := aggregate.Build(aggregate.State{
		Transactions: c.Transactions,
		Investments:  c.Investments,
		Goals:        c.Goals,
		Period:       period,
		Capabilities: s.caps,
	}, now)

	if s.dashboards != nil {
		s.memoize(userID, gen, key, d)
	}
	return d, nil
}

func dashboardKey(userID string, period aggregate.Period, day core.Date) string {
	return userID + "|" + period.String() + "|" + day.String()
}

func (s *FinanceService) generation(userID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[userID]
}

// memoize stores d unless the user's records changed after gen was read.
func (s *FinanceService) memoize(userID string, gen uint64, key string, d aggregate.Dashboard) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.generations[userID] != gen {
		return
	}
	s.dashboards.Set(key, d)
}

func (s *FinanceService) CreateTransaction(ctx context.Context, userID string, form core.TransactionForm) (core.Transaction, error) {
	t, err := form.ToTransaction(userID)
	if err != nil {
		return core.Transaction{}, err
	}
	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.changed(ctx, userID, KindTransaction, created.ID, amqp.OpCreated)
	return created, nil
}

func (s *FinanceService) UpdateTransaction(ctx context.Context, userID, id string, form core.TransactionForm) (core.Transaction, error) {
	p, err := form.ToPatch()
	if err != nil {
		return core.Transaction{}, err
	}
	updated, err := s.store.UpdateTransaction(ctx, userID, id, p)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.changed(ctx, userID, KindTransaction, id, amqp.OpUpdated)
	return updated, nil
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, userID, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.changed(ctx, userID, KindTransaction, id, amqp.OpDeleted)
	return nil
}

func (s *FinanceService) CreateInvestment(ctx context.Context, userID string, form core.InvestmentForm) (core.Investment, error) {
	if !s.caps.Investments {
		return core.Investment{}, ErrFeatureDisabled
	}
	i, err := form.ToInvestment(userID)
	if err != nil {
		return core.Investment{}, err
	}
	created, err := s.store.CreateInvestment(ctx, i)
	if err != nil {
		return core.Investment{}, fmt.Errorf("create investment: %w", err)
	}
	s.changed(ctx, userID, KindInvestment, created.ID, amqp.OpCreated)
	return created, nil
}

func (s *FinanceService) UpdateInvestment(ctx context.Context, userID, id string, form core.InvestmentForm) (core.Investment, error) {
	if !s.caps.Investments {
		return core.Investment{}, ErrFeatureDisabled
	}
	p, err := form.ToPatch()
	if err != nil {
		return core.Investment{}, err
	}
	updated, err := s.store.UpdateInvestment(ctx, userID, id, p)
	if err != nil {
		return core.Investment{}, fmt.Errorf("update investment: %w", err)
	}
	s.changed(ctx, userID, KindInvestment, id, amqp.OpUpdated)
	return updated, nil
}

func (s *FinanceService) DeleteInvestment(ctx context.Context, userID, id string, confirmed bool) error {
	if !s.caps.Investments {
		return ErrFeatureDisabled
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := s.store.DeleteInvestment(ctx, userID, id); err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	s.changed(ctx, userID, KindInvestment, id, amqp.OpDeleted)
	return nil
}

func (s *FinanceService) CreateGoal(ctx context.Context, userID string, form core.GoalForm) (core.Goal, error) {
	if !s.caps.Goals {
		return core.Goal{}, ErrFeatureDisabled
	}
	g, err := form.ToGoal(userID)
	if err != nil {
		return core.Goal{}, err
	}
	created, err := s.store.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	s.changed(ctx, userID, KindGoal, created.ID, amqp.OpCreated)
	return created, nil
}

func (s *FinanceService) UpdateGoal(ctx context.Context, userID, id string, form core.GoalForm) (core.Goal, error) {
	if !s.caps.Goals {
		return core.Goal{}, ErrFeatureDisabled
	}
	p, err := form.ToPatch()
	if err != nil {
		return core.Goal{}, err
	}
	updated, err := s.store.UpdateGoal(ctx, userID, id, p)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	s.changed(ctx, userID, KindGoal, id, amqp.OpUpdated)
	return updated, nil
}

func (s *FinanceService) DeleteGoal(ctx context.Context, userID, id string, confirmed bool) error {
	if !s.caps.Goals {
		return ErrFeatureDisabled
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := s.store.DeleteGoal(ctx, userID, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	s.changed(ctx, userID, KindGoal, id, amqp.OpDeleted)
	return nil
}

// ScanReceipt recognizes the receipt photo and prefills form from it. On a
// recognition failure the form is returned unchanged together with the error.
func (s *FinanceService) ScanReceipt(ctx context.Context, image []byte, form core.TransactionForm) (core.TransactionForm, error) {
	if !s.caps.OCR {
		return form, ErrFeatureDisabled
	}
	if err := ocr.CheckImage(image); err != nil {
		return form, err
	}

	text, err := s.recognizer.Recognize(ctx, image, s.language)
	if err != nil {
		slog.WarnContext(ctx, "Receipt recognition failed", "error", err)
		return form, fmt.Errorf("recognize receipt: %w", err)
	}

	e := receipt.Extract(text)
	slog.DebugContext(ctx, "Receipt extracted",
		"amount_found", e.Amount.Valid,
		"date_found", !e.Date.IsEmpty())
	return receipt.Prefill(form, e, s.Today()), nil
}

// ReportRows returns the export rows for the user: every transaction and,
// when investments are enabled, every investment.
func (s *FinanceService) ReportRows(ctx context.Context, userID string) ([]export.Row, error) {
	c, err := s.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}
	return export.Rows(c.Transactions, c.Investments, s.loc), nil
}

// Export writes the user's CSV report to w and returns its file name.
func (s *FinanceService) Export(ctx context.Context, userID string, w io.Writer) (string, error) {
	if !s.caps.Export {
		return "", ErrFeatureDisabled
	}
	rows, err := s.ReportRows(ctx, userID)
	if err != nil {
		return "", err
	}
	if err := export.WriteCSV(w, rows); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	return export.FileName(s.Today()), nil
}

// changed runs after the store confirmed a mutation: it drops the user's
// memoized dashboards and announces the change. Publish failures are logged only.
func (s *FinanceService) changed(ctx context.Context, userID, kind, id string, op amqp.Operation) {
	s.ForgetUser(userID)

	applog.NewStructuredLogger(applog.FromContext(ctx)).LogRecordChanged(ctx, string(op), userID, kind, id)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordChange(ctx, amqp.NewRecordChangeMessage(userID, kind, id, op)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record change",
			"user_id", userID, "id", id, "error", err)
	}
}

// ForgetUser drops everything memoized for the user. It runs on every
// confirmed mutation and on sign-out.
func (s *FinanceService) ForgetUser(userID string) {
	if s.dashboards == nil {
		return
	}
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.generations[userID]++
	s.dashboards.DeletePrefix(userID + "|")
}

// Close closes the store.
func (s *FinanceService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
