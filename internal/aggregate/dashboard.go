package aggregate

import (
	"time"

	"financepro/internal/core"
)

// Capabilities switch optional dashboard sections on or off.
type Capabilities struct {
	Investments bool `json:"investments"`
	Goals       bool `json:"goals"`
	OCR         bool `json:"ocr"`
	Export      bool `json:"export"`
}

// AllCapabilities enables every optional section.
func AllCapabilities() Capabilities {
	return Capabilities{Investments: true, Goals: true, OCR: true, Export: true}
}

// State is the application state handed to Build on each recomputation.
// Build never retains or mutates it.
type State struct {
	Transactions []core.Transaction
	Investments  []core.Investment
	Goals        []core.Goal
	Period       Period
	Capabilities Capabilities
}

type Holding struct {
	core.Investment
	Return Return `json:"return"`
}

type InvestmentsSection struct {
	Summary  InvestmentSummary `json:"summary"`
	Holdings []Holding         `json:"holdings"`
}

type GoalStatus struct {
	core.Goal
	Progress Progress `json:"progress"`
	Overdue  bool     `json:"overdue"`
}

// Dashboard is everything the presentation layer renders for one period.
// Investments and Goals are nil when their capability is disabled.
type Dashboard struct {
	Period       Period              `json:"period"`
	Summary      TransactionSummary  `json:"summary"`
	ByCategory   []CategoryAmount    `json:"by_category"`
	Transactions []core.Transaction  `json:"transactions"`
	Investments  *InvestmentsSection `json:"investments,omitempty"`
	Goals        []GoalStatus        `json:"goals,omitempty"`
	Capabilities Capabilities        `json:"capabilities"`
}

// Build derives the dashboard from s as of now.
func Build(s State, now time.Time) Dashboard {
	filtered := FilterByPeriod(s.Transactions, s.Period)
	d := Dashboard{
		Period:       s.Period,
		Summary:      SummarizeTransactions(filtered),
		ByCategory:   SortCategories(GroupExpensesByCategory(filtered)),
		Transactions: filtered,
		Capabilities: s.Capabilities,
	}

	if s.Capabilities.Investments {
		section := &InvestmentsSection{
			Summary:  SummarizeInvestments(s.Investments),
			Holdings: make([]Holding, 0, len(s.Investments)),
		}
		for _, inv := range s.Investments {
			section.Holdings = append(section.Holdings, Holding{Investment: inv, Return: PerInvestmentReturn(inv)})
		}
		d.Investments = section
	}

	if s.Capabilities.Goals {
		d.Goals = make([]GoalStatus, 0, len(s.Goals))
		for _, g := range s.Goals {
			p := GoalProgress(g, now)
			d.Goals = append(d.Goals, GoalStatus{Goal: g, Progress: p, Overdue: p.Overdue()})
		}
	}

	return d
}
