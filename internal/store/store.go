// Package store defines the per-user record store used by the service layer.
// Every operation is scoped to a user id; no operation reads or writes
// another user's records.
package store

import (
	"context"
	"errors"

	"financepro/internal/core"
)

// ErrNotFound is returned by updates and deletes when no record with the id
// exists for the user.
var ErrNotFound = errors.New("record not found")

type (
	// TransactionStore lists transactions by date, newest first.
	TransactionStore interface {
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, userID, id string, p core.TransactionPatch) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	// InvestmentStore lists investments by creation time, newest first.
	InvestmentStore interface {
		ListInvestments(ctx context.Context, userID string) ([]core.Investment, error)
		CreateInvestment(ctx context.Context, i core.Investment) (core.Investment, error)
		UpdateInvestment(ctx context.Context, userID, id string, p core.InvestmentPatch) (core.Investment, error)
		DeleteInvestment(ctx context.Context, userID, id string) error
	}

	// GoalStore lists goals by deadline, earliest first, with goals that have
	// no deadline last.
	GoalStore interface {
		ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
		CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		UpdateGoal(ctx context.Context, userID, id string, p core.GoalPatch) (core.Goal, error)
		DeleteGoal(ctx context.Context, userID, id string) error
	}

	Store interface {
		TransactionStore
		InvestmentStore
		GoalStore
		Close() error
	}
)
