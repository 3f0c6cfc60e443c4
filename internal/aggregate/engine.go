// Package aggregate derives summaries and chart groupings from the raw record
// collections. Every function is pure: the result depends only on the
// arguments, and the inputs are never modified.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"financepro/internal/core"
)

var hundred = decimal.NewFromInt(100)

type (
	// TransactionSummary holds the period totals. Net is always Income - Expense.
	TransactionSummary struct {
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
		Net     decimal.Decimal `json:"net"`
	}

	CategoryAmount struct {
		Category core.Category   `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
	}

	InvestmentSummary struct {
		TotalInvested decimal.Decimal `json:"total_invested"`
		TotalCurrent  decimal.Decimal `json:"total_current"`
		Profit        decimal.Decimal `json:"profit"`
		YieldPercent  decimal.Decimal `json:"yield_percent"`
	}

	Return struct {
		Profit       decimal.Decimal `json:"profit"`
		YieldPercent decimal.Decimal `json:"yield_percent"`
	}

	// Progress of a savings goal. DaysRemaining is nil when the goal has no
	// deadline and negative once the deadline has passed.
	Progress struct {
		Percent       decimal.Decimal `json:"percent"`
		DaysRemaining *int            `json:"days_remaining"`
	}
)

// FilterByPeriod keeps the transactions dated within p, preserving order.
func FilterByPeriod(txs []core.Transaction, p Period) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if p.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// SummarizeTransactions totals income and expense. The sign of each
// contribution comes from the transaction type only.
func SummarizeTransactions(txs []core.Transaction) TransactionSummary {
	s := TransactionSummary{Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			s.Income = s.Income.Add(t.Amount)
		case core.Expense:
			s.Expense = s.Expense.Add(t.Amount)
		}
	}
	s.Net = s.Income.Sub(s.Expense)
	return s
}

// GroupExpensesByCategory sums expense amounts per category. Categories with
// no expense in txs are absent from the result.
func GroupExpensesByCategory(txs []core.Transaction) map[core.Category]decimal.Decimal {
	out := make(map[core.Category]decimal.Decimal)
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		out[t.Category] = out[t.Category].Add(t.Amount)
	}
	return out
}

// SortCategories orders a category grouping by amount, largest first, with
// ties broken by category name.
func SortCategories(groups map[core.Category]decimal.Decimal) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(groups))
	for c, amount := range groups {
		out = append(out, CategoryAmount{Category: c, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Amount.Cmp(out[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// SummarizeInvestments totals cost basis and market value over all holdings.
func SummarizeInvestments(invs []core.Investment) InvestmentSummary {
	s := InvestmentSummary{TotalInvested: decimal.Zero, TotalCurrent: decimal.Zero}
	for _, i := range invs {
		s.TotalInvested = s.TotalInvested.Add(i.InvestedAmount)
		s.TotalCurrent = s.TotalCurrent.Add(i.CurrentValue)
	}
	s.Profit = s.TotalCurrent.Sub(s.TotalInvested)
	s.YieldPercent = yieldPercent(s.Profit, s.TotalInvested)
	return s
}

// PerInvestmentReturn computes profit and yield of a single holding.
func PerInvestmentReturn(inv core.Investment) Return {
	profit := inv.CurrentValue.Sub(inv.InvestedAmount)
	return Return{Profit: profit, YieldPercent: yieldPercent(profit, inv.InvestedAmount)}
}

// yieldPercent is 0 when nothing was invested.
func yieldPercent(profit, invested decimal.Decimal) decimal.Decimal {
	if !invested.IsPositive() {
		return decimal.Zero
	}
	return profit.Div(invested).Mul(hundred)
}

// GoalProgress computes the clamped completion percentage and the whole days
// left until the deadline, rounded up, relative to now.
func GoalProgress(g core.Goal, now time.Time) Progress {
	p := Progress{Percent: decimal.Zero}
	if g.TargetAmount.IsPositive() {
		p.Percent = decimal.Min(g.CurrentAmount.Div(g.TargetAmount).Mul(hundred), hundred)
	}
	if !g.Deadline.IsEmpty() {
		days := int(math.Ceil(float64(g.Deadline.Sub(now)) / float64(24*time.Hour)))
		p.DaysRemaining = &days
	}
	return p
}

// Overdue reports whether the goal's deadline has passed.
func (p Progress) Overdue() bool {
	return p.DaysRemaining != nil && *p.DaysRemaining < 0
}
