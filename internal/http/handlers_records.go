package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"financepro/internal/core"
	applog "financepro/internal/log"
	"financepro/internal/services"
)

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.finance.Capabilities())
}

func (s *Server) handleBlankTransactionForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.NewTransactionForm(s.finance.Today()))
}

// loadCollections is shared by the list handlers.
func (s *Server) loadCollections(w http.ResponseWriter, r *http.Request) (services.Collections, bool) {
	userID, err := s.userID(r)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return services.Collections{}, false
	}
	c, err := s.finance.Load(r.Context(), userID)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return services.Collections{}, false
	}
	return c, true
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCollections(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, nonNil(c.Transactions))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	form, err := decodeTransactionForm(w, r)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	tx, err := s.finance.CreateTransaction(r.Context(), userID, form)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	form, err := decodeTransactionForm(w, r)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	tx, err := s.finance.UpdateTransaction(r.Context(), userID, chi.URLParam(r, "id"), form)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.finance.DeleteTransaction(r.Context(), userID, chi.URLParam(r, "id"), confirmed(r)); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	if !s.finance.Capabilities().Investments {
		writeError(w, r, applog.OpList, services.ErrFeatureDisabled)
		return
	}
	c, ok := s.loadCollections(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, nonNil(c.Investments))
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	form, err := decodeInvestmentForm(w, r)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	inv, err := s.finance.CreateInvestment(r.Context(), userID, form)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	form, err := decodeInvestmentForm(w, r)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	inv, err := s.finance.UpdateInvestment(r.Context(), userID, chi.URLParam(r, "id"), form)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.finance.DeleteInvestment(r.Context(), userID, chi.URLParam(r, "id"), confirmed(r)); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	if !s.finance.Capabilities().Goals {
		writeError(w, r, applog.OpList, services.ErrFeatureDisabled)
		return
	}
	c, ok := s.loadCollections(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, nonNil(c.Goals))
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	form, err := decodeGoalForm(w, r)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	g, err := s.finance.CreateGoal(r.Context(), userID, form)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	form, err := decodeGoalForm(w, r)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	g, err := s.finance.UpdateGoal(r.Context(), userID, chi.URLParam(r, "id"), form)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.finance.DeleteGoal(r.Context(), userID, chi.URLParam(r, "id"), confirmed(r)); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// nonNil makes empty collections encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
