// Package memory is an in-process record store. Data is lost on restart.
package memory

import (
	"context"
	"sync"
	"time"

	"financepro/internal/core"
	"financepro/internal/store"
)

type Store struct {
	mu           sync.Mutex
	now          func() time.Time
	transactions map[string][]core.Transaction
	investments  map[string][]core.Investment
	goals        map[string][]core.Goal
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:          time.Now,
		transactions: make(map[string][]core.Transaction),
		investments:  make(map[string][]core.Investment),
		goals:        make(map[string][]core.Goal),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	out := append([]core.Transaction(nil), s.transactions[userID]...)
	s.mu.Unlock()
	store.SortTransactions(out)
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	t, err := store.PrepareTransaction(t, s.now())
	if err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.UserID] = append(s.transactions[t.UserID], t)
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, userID, id string, p core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.transactions[userID]
	for i := range items {
		if items[i].ID != id {
			continue
		}
		updated := p.Apply(items[i])
		if err := updated.Validate(); err != nil {
			return core.Transaction{}, err
		}
		items[i] = updated
		return updated, nil
	}
	return core.Transaction{}, store.ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.transactions[userID]
	for i := range items {
		if items[i].ID == id {
			s.transactions[userID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListInvestments(_ context.Context, userID string) ([]core.Investment, error) {
	s.mu.Lock()
	out := append([]core.Investment(nil), s.investments[userID]...)
	s.mu.Unlock()
	store.SortInvestments(out)
	return out, nil
}

func (s *Store) CreateInvestment(_ context.Context, inv core.Investment) (core.Investment, error) {
	inv, err := store.PrepareInvestment(inv, s.now())
	if err != nil {
		return core.Investment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.investments[inv.UserID] = append(s.investments[inv.UserID], inv)
	return inv, nil
}

func (s *Store) UpdateInvestment(_ context.Context, userID, id string, p core.InvestmentPatch) (core.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.investments[userID]
	for i := range items {
		if items[i].ID != id {
			continue
		}
		updated := p.Apply(items[i])
		if err := updated.Validate(); err != nil {
			return core.Investment{}, err
		}
		items[i] = updated
		return updated, nil
	}
	return core.Investment{}, store.ErrNotFound
}

func (s *Store) DeleteInvestment(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.investments[userID]
	for i := range items {
		if items[i].ID == id {
			s.investments[userID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	s.mu.Lock()
	out := append([]core.Goal(nil), s.goals[userID]...)
	s.mu.Unlock()
	store.SortGoals(out)
	return out, nil
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	g, err := store.PrepareGoal(g, s.now())
	if err != nil {
		return core.Goal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.UserID] = append(s.goals[g.UserID], g)
	return g, nil
}

func (s *Store) UpdateGoal(_ context.Context, userID, id string, p core.GoalPatch) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.goals[userID]
	for i := range items {
		if items[i].ID != id {
			continue
		}
		updated := p.Apply(items[i])
		if err := updated.Validate(); err != nil {
			return core.Goal{}, err
		}
		items[i] = updated
		return updated, nil
	}
	return core.Goal{}, store.ErrNotFound
}

func (s *Store) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.goals[userID]
	for i := range items {
		if items[i].ID == id {
			s.goals[userID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}
