// Package sqlite stores records in a local SQLite database. Amounts are kept
// as decimal strings so no precision is lost in storage.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"financepro/internal/core"
	"financepro/internal/store"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, now: time.Now}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

const transactionColumns = `id, user_id, description, amount, type, category, date, created_at`

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		date      string
		createdAt int64
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Description, &t.Amount, &t.Type, &t.Category, &date, &createdAt); err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	t.Date = d
	t.CreatedAt = time.UnixMicro(createdAt).UTC()
	return t, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY date DESC, created_at DESC`, userID)
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
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Description, t.Amount.String(), string(t.Type), string(t.Category), t.Date.String(), t.CreatedAt.UnixMicro())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite", "id", t.ID, "user_id", t.UserID)
	return t, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, userID, id string, p core.TransactionPatch) (core.Transaction, error) {
	var updated core.Transaction
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanTransaction(tx.QueryRowContext(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND id = ?`, userID, id))
		if err != nil {
			return notFound(err)
		}
		updated = p.Apply(current)
		if err := updated.Validate(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE transactions SET description = ?, amount = ?, type = ?, category = ?, date = ? WHERE user_id = ? AND id = ?`,
			updated.Description, updated.Amount.String(), string(updated.Type), string(updated.Category), updated.Date.String(), userID, id)
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

const investmentColumns = `id, user_id, name, type, invested_amount, current_value, created_at`

func scanInvestment(row rowScanner) (core.Investment, error) {
	var (
		i         core.Investment
		createdAt int64
	)
	if err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.Type, &i.InvestedAmount, &i.CurrentValue, &createdAt); err != nil {
		return core.Investment{}, err
	}
	i.CreatedAt = time.UnixMicro(createdAt).UTC()
	return i, nil
}

func (r *Repository) ListInvestments(ctx context.Context, userID string) ([]core.Investment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+investmentColumns+` FROM investments WHERE user_id = ? ORDER BY created_at DESC`, userID)
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
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO investments (`+investmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.UserID, i.Name, string(i.Type), i.InvestedAmount.String(), i.CurrentValue.String(), i.CreatedAt.UnixMicro())
	if err != nil {
		return core.Investment{}, fmt.Errorf("insert investment: %w", err)
	}

	slog.DebugContext(ctx, "Investment saved to SQLite", "id", i.ID, "user_id", i.UserID)
	return i, nil
}

func (r *Repository) UpdateInvestment(ctx context.Context, userID, id string, p core.InvestmentPatch) (core.Investment, error) {
	var updated core.Investment
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanInvestment(tx.QueryRowContext(ctx,
			`SELECT `+investmentColumns+` FROM investments WHERE user_id = ? AND id = ?`, userID, id))
		if err != nil {
			return notFound(err)
		}
		updated = p.Apply(current)
		if err := updated.Validate(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE investments SET name = ?, type = ?, invested_amount = ?, current_value = ? WHERE user_id = ? AND id = ?`,
			updated.Name, string(updated.Type), updated.InvestedAmount.String(), updated.CurrentValue.String(), userID, id)
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

const goalColumns = `id, user_id, title, target_amount, current_amount, deadline, created_at`

func scanGoal(row rowScanner) (core.Goal, error) {
	var (
		g         core.Goal
		deadline  sql.NullString
		createdAt int64
	)
	if err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.TargetAmount, &g.CurrentAmount, &deadline, &createdAt); err != nil {
		return core.Goal{}, err
	}
	if deadline.Valid && deadline.String != "" {
		d, err := core.ParseDate(deadline.String)
		if err != nil {
			return core.Goal{}, fmt.Errorf("parse stored deadline %q: %w", deadline.String, err)
		}
		g.Deadline = d
	}
	g.CreatedAt = time.UnixMicro(createdAt).UTC()
	return g, nil
}

func nullableDate(d core.Date) sql.NullString {
	if d.IsEmpty() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func (r *Repository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY deadline IS NULL, deadline ASC, created_at ASC`, userID)
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
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Title, g.TargetAmount.String(), g.CurrentAmount.String(), nullableDate(g.Deadline), g.CreatedAt.UnixMicro())
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}

	slog.DebugContext(ctx, "Goal saved to SQLite", "id", g.ID, "user_id", g.UserID)
	return g, nil
}

func (r *Repository) UpdateGoal(ctx context.Context, userID, id string, p core.GoalPatch) (core.Goal, error) {
	var updated core.Goal
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanGoal(tx.QueryRowContext(ctx,
			`SELECT `+goalColumns+` FROM goals WHERE user_id = ? AND id = ?`, userID, id))
		if err != nil {
			return notFound(err)
		}
		updated = p.Apply(current)
		if err := updated.Validate(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE goals SET title = ?, target_amount = ?, current_amount = ?, deadline = ? WHERE user_id = ? AND id = ?`,
			updated.Title, updated.TargetAmount.String(), updated.CurrentAmount.String(), nullableDate(updated.Deadline), userID, id)
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	slog.DebugContext(ctx, "Record deleted from SQLite", "table", table, "id", id, "user_id", userID)
	return nil
}

func (r *Repository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
