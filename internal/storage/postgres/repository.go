// Package postgres stores records in PostgreSQL, the hosted backend shared by
// every client of a user's account.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"financepro/internal/core"
	"financepro/internal/store"
)

type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ store.Store = (*Repository)(nil)

// NewRepository migrates the schema and opens a connection pool.
func NewRepository(ctx context.Context, url string) (*Repository, error) {
	if err := RunMigrations(url); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repository{pool: pool, now: time.Now}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// Amounts travel as text in both directions so NUMERIC values never pass
// through a float.
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse stored amount %q: %w", s, err)
	}
	return d, nil
}

func toDate(t time.Time) core.Date {
	return core.NewDate(t.Year(), int(t.Month()), t.Day())
}

const transactionColumns = `id::text, user_id, description, amount::text, type, category, date, created_at`

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		t      core.Transaction
		amount string
		date   time.Time
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Description, &amount, &t.Type, &t.Category, &date, &t.CreatedAt); err != nil {
		return core.Transaction{}, err
	}
	var err error
	if t.Amount, err = parseAmount(amount); err != nil {
		return core.Transaction{}, err
	}
	t.Date = toDate(date)
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t, err := store.PrepareTransaction(t, r.now())
	if err != nil {
		return core.Transaction{}, err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO transactions (id, user_id, description, amount, type, category, date, created_at)
		 VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`,
		t.ID, t.UserID, t.Description, t.Amount.String(), string(t.Type), string(t.Category), t.Date.Time, t.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to Postgres", "id", t.ID, "user_id", t.UserID)
	return t, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, userID, id string, p core.TransactionPatch) (core.Transaction, error) {
	var updated core.Transaction
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanTransaction(tx.QueryRow(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 AND id::text = $2 FOR UPDATE`, userID, id))
		if err != nil {
			return notFound(err)
		}
		updated = p.Apply(current)
		if err := updated.Validate(); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE transactions SET description = $3, amount = $4::numeric, type = $5, category = $6, date = $7
			 WHERE user_id = $1 AND id::text = $2`,
			userID, id, updated.Description, updated.Amount.String(), string(updated.Type), string(updated.Category), updated.Date.Time)
		return err
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	return updated, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	return r.delete(ctx, "transactions", userID, id)
}

const investmentColumns = `id::text, user_id, name, type, invested_amount::text, current_value::text, created_at`

func scanInvestment(row pgx.Row) (core.Investment, error) {
	var (
		i                 core.Investment
		invested, current string
	)
	if err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.Type, &invested, &current, &i.CreatedAt); err != nil {
		return core.Investment{}, err
	}
	var err error
	if i.InvestedAmount, err = parseAmount(invested); err != nil {
		return core.Investment{}, err
	}
	if i.CurrentValue, err = parseAmount(current); err != nil {
		return core.Investment{}, err
	}
	i.CreatedAt = i.CreatedAt.UTC()
	return i, nil
}

func (r *Repository) ListInvestments(ctx context.Context, userID string) ([]core.Investment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+investmentColumns+` FROM investments WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	defer rows.Close()

	out := []core.Investment{}
	for rows.Next() {
		i, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan investment: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *Repository) CreateInvestment(ctx context.Context, i core.Investment) (core.Investment, error) {
	i, err := store.PrepareInvestment(i, r.now())
	if err != nil {
		return core.Investment{}, err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO investments (id, user_id, name, type, invested_amount, current_value, created_at)
		 VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7)`,
		i.ID, i.UserID, i.Name, string(i.Type), i.InvestedAmount.String(), i.CurrentValue.String(), i.CreatedAt)
	if err != nil {
		return core.Investment{}, fmt.Errorf("insert investment: %w", err)
	}

	slog.DebugContext(ctx, "Investment saved to Postgres", "id", i.ID, "user_id", i.UserID)
	return i, nil
}

func (r *Repository) UpdateInvestment(ctx context.Context, userID, id string, p core.InvestmentPatch) (core.Investment, error) {
	var updated core.Investment
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanInvestment(tx.QueryRow(ctx,
			`SELECT `+investmentColumns+` FROM investments WHERE user_id = $1 AND id::text = $2 FOR UPDATE`, userID, id))
		if err != nil {
			return notFound(err)
		}
		updated = p.Apply(current)
		if err := updated.Validate(); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE investments SET name = $3, type = $4, invested_amount = $5::numeric, current_value = $6::numeric
			 WHERE user_id = $1 AND id::text = $2`,
			userID, id, updated.Name, string(updated.Type), updated.InvestedAmount.String(), updated.CurrentValue.String())
		return err
	})
	if err != nil {
		return core.Investment{}, fmt.Errorf("update investment %s: %w", id, err)
	}
	return updated, nil
}

func (r *Repository) DeleteInvestment(ctx context.Context, userID, id string) error {
	return r.delete(ctx, "investments", userID, id)
}

const goalColumns = `id::text, user_id, title, target_amount::text, current_amount::text, deadline, created_at`

func scanGoal(row pgx.Row) (core.Goal, error) {
	var (
		g               core.Goal
		target, current string
		deadline        *time.Time
	)
	if err := row.Scan(&g.ID, &g.UserID, &g.Title, &target, &current, &deadline, &g.CreatedAt); err != nil {
		return core.Goal{}, err
	}
	var err error
	if g.TargetAmount, err = parseAmount(target); err != nil {
		return core.Goal{}, err
	}
	if g.CurrentAmount, err = parseAmount(current); err != nil {
		return core.Goal{}, err
	}
	if deadline != nil {
		g.Deadline = toDate(*deadline)
	}
	g.CreatedAt = g.CreatedAt.UTC()
	return g, nil
}

func nullableDate(d core.Date) *time.Time {
	if d.IsEmpty() {
		return nil
	}
	return &d.Time
}

func (r *Repository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = $1 ORDER BY deadline ASC NULLS LAST, created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := []core.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g, err := store.PrepareGoal(g, r.now())
	if err != nil {
		return core.Goal{}, err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO goals (id, user_id, title, target_amount, current_amount, deadline, created_at)
		 VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7)`,
		g.ID, g.UserID, g.Title, g.TargetAmount.String(), g.CurrentAmount.String(), nullableDate(g.Deadline), g.CreatedAt)
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}

	slog.DebugContext(ctx, "Goal saved to Postgres", "id", g.ID, "user_id", g.UserID)
	return g, nil
}

func (r *Repository) UpdateGoal(ctx context.Context, userID, id string, p core.GoalPatch) (core.Goal, error) {
	var updated core.Goal
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanGoal(tx.QueryRow(ctx,
			`SELECT `+goalColumns+` FROM goals WHERE user_id = $1 AND id::text = $2 FOR UPDATE`, userID, id))
		if err != nil {
			return notFound(err)
		}
		updated = p.Apply(current)
		if err := updated.Validate(); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE goals SET title = $3, target_amount = $4::numeric, current_amount = $5::numeric, deadline = $6
			 WHERE user_id = $1 AND id::text = $2`,
			userID, id, updated.Title, updated.TargetAmount.String(), updated.CurrentAmount.String(), nullableDate(updated.Deadline))
		return err
	})
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal %s: %w", id, err)
	}
	return updated, nil
}

func (r *Repository) DeleteGoal(ctx context.Context, userID, id string) error {
	return r.delete(ctx, "goals", userID, id)
}

// delete removes one row from table. table is always a constant from this file.
func (r *Repository) delete(ctx context.Context, table, userID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE user_id = $1 AND id::text = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	slog.DebugContext(ctx, "Record deleted from Postgres", "table", table, "id", id, "user_id", userID)
	return nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
