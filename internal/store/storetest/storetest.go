// Package storetest holds the behaviour every store.Store implementation
// must share. Implementation packages call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financepro/internal/core"
	"financepro/internal/store"
)

// Factory returns an empty store. Run closes it when the subtest ends.
type Factory func(t *testing.T) store.Store

func Run(t *testing.T, newStore Factory) {
	t.Helper()
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"TransactionLifecycle", testTransactionLifecycle},
		{"TransactionOrdering", testTransactionOrdering},
		{"TransactionValidation", testTransactionValidation},
		{"UserIsolation", testUserIsolation},
		{"InvestmentLifecycle", testInvestmentLifecycle},
		{"GoalLifecycle", testGoalLifecycle},
		{"GoalOrdering", testGoalOrdering},
		{"NotFound", testNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func newTransaction(user, desc, amount string, date core.Date) core.Transaction {
	return core.Transaction{
		UserID:      user,
		Description: desc,
		Amount:      dec(amount),
		Type:        core.Expense,
		Category:    core.CategoryFood,
		Date:        date,
	}
}

func testTransactionLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()

	created, err := s.CreateTransaction(ctx, newTransaction("u1", "Mercado", "1234.56", core.NewDate(2024, 5, 10)))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	list, err := s.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.True(t, list[0].Amount.Equal(dec("1234.56")), "amount = %s", list[0].Amount)
	assert.Equal(t, "2024-05-10", list[0].Date.String())
	assert.Equal(t, core.CategoryFood, list[0].Category)

	updated, err := s.UpdateTransaction(ctx, "u1", created.ID, core.TransactionPatch{
		Amount: ptr(dec("99.90")),
		Type:   ptr(core.Income),
	})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(dec("99.9")))
	assert.Equal(t, core.Income, updated.Type)
	assert.Equal(t, "Mercado", updated.Description)

	list, err = s.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, core.Income, list[0].Type)

	require.NoError(t, s.DeleteTransaction(ctx, "u1", created.ID))
	list, err = s.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testTransactionOrdering(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, d := range []core.Date{core.NewDate(2024, 5, 1), core.NewDate(2024, 6, 1), core.NewDate(2024, 4, 1)} {
		_, err := s.CreateTransaction(ctx, newTransaction("u1", d.String(), "1", d))
		require.NoError(t, err)
	}
	list, err := s.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2024-06-01", list[0].Date.String())
	assert.Equal(t, "2024-05-01", list[1].Date.String())
	assert.Equal(t, "2024-04-01", list[2].Date.String())
}

func testTransactionValidation(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.CreateTransaction(ctx, newTransaction("u1", "", "1", core.NewDate(2024, 5, 1)))
	assert.ErrorIs(t, err, core.ErrEmptyDescription)

	created, err := s.CreateTransaction(ctx, newTransaction("u1", "ok", "1", core.NewDate(2024, 5, 1)))
	require.NoError(t, err)

	_, err = s.UpdateTransaction(ctx, "u1", created.ID, core.TransactionPatch{Amount: ptr(dec("-5"))})
	assert.ErrorIs(t, err, core.ErrNegativeAmount)

	list, err := s.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Amount.Equal(dec("1")), "a rejected update must not change the record")
}

func testUserIsolation(t *testing.T, s store.Store) {
	ctx := context.Background()
	created, err := s.CreateTransaction(ctx, newTransaction("alice", "a", "1", core.NewDate(2024, 5, 1)))
	require.NoError(t, err)

	list, err := s.ListTransactions(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.UpdateTransaction(ctx, "bob", created.ID, core.TransactionPatch{Description: ptr("x")})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, "bob", created.ID), store.ErrNotFound)

	list, err = s.ListTransactions(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testInvestmentLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()

	first, err := s.CreateInvestment(ctx, core.Investment{
		UserID: "u1", Name: "Tesouro Selic", Type: core.AssetFixedIncome,
		InvestedAmount: dec("1000"), CurrentValue: dec("1000"),
	})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := s.CreateInvestment(ctx, core.Investment{
		UserID: "u1", Name: "BTC", Type: core.AssetCrypto,
		InvestedAmount: dec("500"), CurrentValue: dec("650.25"),
	})
	require.NoError(t, err)

	list, err := s.ListInvestments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.True(t, list[0].CurrentValue.Equal(dec("650.25")))

	updated, err := s.UpdateInvestment(ctx, "u1", first.ID, core.InvestmentPatch{CurrentValue: ptr(dec("1100"))})
	require.NoError(t, err)
	assert.True(t, updated.CurrentValue.Equal(dec("1100")))
	assert.True(t, updated.InvestedAmount.Equal(dec("1000")))

	require.NoError(t, s.DeleteInvestment(ctx, "u1", first.ID))
	list, err = s.ListInvestments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
}

func testGoalLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()

	g, err := s.CreateGoal(ctx, core.Goal{
		UserID: "u1", Title: "Viagem", TargetAmount: dec("5000"), CurrentAmount: dec("250"),
		Deadline: core.NewDate(2025, 12, 1),
	})
	require.NoError(t, err)

	_, err = s.UpdateGoal(ctx, "u1", g.ID, core.GoalPatch{TargetAmount: ptr(decimal.Zero)})
	assert.ErrorIs(t, err, core.ErrNonPositiveTarget)

	updated, err := s.UpdateGoal(ctx, "u1", g.ID, core.GoalPatch{CurrentAmount: ptr(dec("6000")), ClearDeadline: true})
	require.NoError(t, err)
	assert.True(t, updated.CurrentAmount.Equal(dec("6000")))
	assert.True(t, updated.Deadline.IsEmpty())

	list, err := s.ListGoals(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Deadline.IsEmpty())

	require.NoError(t, s.DeleteGoal(ctx, "u1", g.ID))
	list, err = s.ListGoals(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testGoalOrdering(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, g := range []core.Goal{
		{Title: "sem prazo", TargetAmount: dec("1")},
		{Title: "2026", TargetAmount: dec("1"), Deadline: core.NewDate(2026, 1, 1)},
		{Title: "2025", TargetAmount: dec("1"), Deadline: core.NewDate(2025, 1, 1)},
	} {
		g.UserID = "u1"
		_, err := s.CreateGoal(ctx, g)
		require.NoError(t, err)
	}

	list, err := s.ListGoals(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2025", list[0].Title)
	assert.Equal(t, "2026", list[1].Title)
	assert.Equal(t, "sem prazo", list[2].Title)
}

func testNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()
	const missing = "00000000-0000-0000-0000-000000000000"

	_, err := s.UpdateTransaction(ctx, "u1", missing, core.TransactionPatch{})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, "u1", missing), store.ErrNotFound)

	_, err = s.UpdateInvestment(ctx, "u1", missing, core.InvestmentPatch{})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteInvestment(ctx, "u1", missing), store.ErrNotFound)

	_, err = s.UpdateGoal(ctx, "u1", missing, core.GoalPatch{})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteGoal(ctx, "u1", missing), store.ErrNotFound)
}
