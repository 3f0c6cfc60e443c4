package store

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"financepro/internal/core"
)

// PrepareTransaction assigns an id and creation time to a new record and
// validates it. Stores call it before persisting.
func PrepareTransaction(t core.Transaction, now time.Time) (core.Transaction, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = now.UTC()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func PrepareInvestment(i core.Investment, now time.Time) (core.Investment, error) {
	i.ID = uuid.NewString()
	i.CreatedAt = now.UTC()
	if err := i.Validate(); err != nil {
		return core.Investment{}, err
	}
	return i, nil
}

func PrepareGoal(g core.Goal, now time.Time) (core.Goal, error) {
	g.ID = uuid.NewString()
	g.CreatedAt = now.UTC()
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

// SortTransactions orders by date descending, then by creation time
// descending for records on the same day.
func SortTransactions(ts []core.Transaction) {
	sort.SliceStable(ts, func(i, j int) bool {
		if !ts[i].Date.Equal(ts[j].Date.Time) {
			return ts[i].Date.After(ts[j].Date.Time)
		}
		return ts[i].CreatedAt.After(ts[j].CreatedAt)
	})
}

func SortInvestments(is []core.Investment) {
	sort.SliceStable(is, func(i, j int) bool {
		return is[i].CreatedAt.After(is[j].CreatedAt)
	})
}

// SortGoals orders by deadline ascending; goals without a deadline go last.
func SortGoals(gs []core.Goal) {
	sort.SliceStable(gs, func(i, j int) bool {
		a, b := gs[i].Deadline, gs[j].Deadline
		switch {
		case a.IsEmpty() != b.IsEmpty():
			return b.IsEmpty()
		case a.IsEmpty():
			return false
		default:
			return a.Before(b.Time)
		}
	})
}
