package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financepro/internal/core"
)

func TestPrepareTransaction(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	in := core.Transaction{
		UserID:      "u1",
		Description: "Mercado",
		Amount:      decimal.NewFromInt(10),
		Type:        core.Expense,
		Category:    core.CategoryFood,
		Date:        core.NewDate(2024, 5, 1),
	}

	got, err := PrepareTransaction(in, now)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
	assert.True(t, got.CreatedAt.Equal(now))

	in.Amount = decimal.NewFromInt(-1)
	_, err = PrepareTransaction(in, now)
	assert.ErrorIs(t, err, core.ErrNegativeAmount)
}

func TestSortGoalsNoDeadlineLast(t *testing.T) {
	gs := []core.Goal{
		{Title: "none"},
		{Title: "late", Deadline: core.NewDate(2025, 1, 1)},
		{Title: "none2"},
		{Title: "soon", Deadline: core.NewDate(2024, 6, 1)},
	}
	SortGoals(gs)

	var titles []string
	for _, g := range gs {
		titles = append(titles, g.Title)
	}
	assert.Equal(t, []string{"soon", "late", "none", "none2"}, titles)
}

func TestSortTransactions(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	ts := []core.Transaction{
		{ID: "a", Date: core.NewDate(2024, 5, 1), CreatedAt: base},
		{ID: "b", Date: core.NewDate(2024, 5, 3), CreatedAt: base},
		{ID: "c", Date: core.NewDate(2024, 5, 1), CreatedAt: base.Add(time.Hour)},
	}
	SortTransactions(ts)
	assert.Equal(t, "b", ts[0].ID)
	assert.Equal(t, "c", ts[1].ID)
	assert.Equal(t, "a", ts[2].ID)
}

func TestSortInvestments(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	is := []core.Investment{
		{ID: "old", CreatedAt: base},
		{ID: "new", CreatedAt: base.Add(time.Minute)},
	}
	SortInvestments(is)
	assert.Equal(t, "new", is[0].ID)
}
