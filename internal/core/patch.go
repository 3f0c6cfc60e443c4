package core

import "github.com/shopspring/decimal"

// Patches carry the fields of a partial update. Nil fields are left unchanged.
type (
	TransactionPatch struct {
		Description *string          `json:"description,omitempty"`
		Amount      *decimal.Decimal `json:"amount,omitempty"`
		Type        *TransactionType `json:"type,omitempty"`
		Category    *Category        `json:"category,omitempty"`
		Date        *Date            `json:"date,omitempty"`
	}

	InvestmentPatch struct {
		Name           *string          `json:"name,omitempty"`
		Type           *AssetClass      `json:"type,omitempty"`
		InvestedAmount *decimal.Decimal `json:"invested_amount,omitempty"`
		CurrentValue   *decimal.Decimal `json:"current_value,omitempty"`
	}

	GoalPatch struct {
		Title         *string          `json:"title,omitempty"`
		TargetAmount  *decimal.Decimal `json:"target_amount,omitempty"`
		CurrentAmount *decimal.Decimal `json:"current_amount,omitempty"`
		Deadline      *Date            `json:"deadline,omitempty"`
		// ClearDeadline removes the deadline; it wins over Deadline.
		ClearDeadline bool `json:"clear_deadline,omitempty"`
	}
)

func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	return t
}

func (p InvestmentPatch) Apply(i Investment) Investment {
	if p.Name != nil {
		i.Name = *p.Name
	}
	if p.Type != nil {
		i.Type = *p.Type
	}
	if p.InvestedAmount != nil {
		i.InvestedAmount = *p.InvestedAmount
	}
	if p.CurrentValue != nil {
		i.CurrentValue = *p.CurrentValue
	}
	return i
}

func (p GoalPatch) Apply(g Goal) Goal {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.CurrentAmount != nil {
		g.CurrentAmount = *p.CurrentAmount
	}
	if p.Deadline != nil {
		g.Deadline = *p.Deadline
	}
	if p.ClearDeadline {
		g.Deadline = Date{}
	}
	return g
}
