package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Forms hold field values exactly as typed by the user. They are converted to
// records (create, full update) or patches (partial update) at the input
// boundary so that unparsed input never reaches the aggregation code.
type (
	TransactionForm struct {
		Description string `json:"description"`
		Amount      string `json:"amount"`
		Type        string `json:"type"`
		Category    string `json:"category"`
		Date        string `json:"date"`
	}

	InvestmentForm struct {
		Name           string `json:"name"`
		Type           string `json:"type"`
		InvestedAmount string `json:"invested_amount"`
		CurrentValue   string `json:"current_value"`
	}

	GoalForm struct {
		Title         string `json:"title"`
		TargetAmount  string `json:"target_amount"`
		CurrentAmount string `json:"current_amount"`
		Deadline      string `json:"deadline"`
		// ClearDeadline removes the deadline on update. A blank Deadline
		// alone leaves it unchanged.
		ClearDeadline bool `json:"clear_deadline,omitempty"`
	}
)

// NewTransactionForm returns the blank transaction form: an expense in the
// "Outros" category dated today.
func NewTransactionForm(today Date) TransactionForm {
	return TransactionForm{
		Type:     string(Expense),
		Category: string(CategoryOther),
		Date:     today.String(),
	}
}

// NewInvestmentForm returns the blank investment form.
func NewInvestmentForm() InvestmentForm {
	return InvestmentForm{Type: string(AssetFixedIncome)}
}

func (f TransactionForm) ToTransaction(userID string) (Transaction, error) {
	amount, err := ParseDecimalInput(f.Amount)
	if err != nil {
		return Transaction{}, err
	}
	date, err := ParseDate(strings.TrimSpace(f.Date))
	if err != nil {
		return Transaction{}, err
	}
	t := Transaction{
		UserID:      userID,
		Description: f.Description,
		Amount:      amount,
		Type:        TransactionType(strings.TrimSpace(f.Type)),
		Category:    Category(strings.TrimSpace(f.Category)),
		Date:        date,
	}
	return t, t.Validate()
}

// ToPatch converts the non-blank fields of the form into a patch.
func (f TransactionForm) ToPatch() (TransactionPatch, error) {
	var p TransactionPatch
	if strings.TrimSpace(f.Description) != "" {
		p.Description = &f.Description
	}
	if strings.TrimSpace(f.Amount) != "" {
		amount, err := ParseDecimalInput(f.Amount)
		if err != nil {
			return p, err
		}
		if amount.IsNegative() {
			return p, ErrNegativeAmount
		}
		p.Amount = &amount
	}
	if v := strings.TrimSpace(f.Type); v != "" {
		tt := TransactionType(v)
		if !tt.Valid() {
			return p, ErrInvalidType
		}
		p.Type = &tt
	}
	if v := strings.TrimSpace(f.Category); v != "" {
		c := Category(v)
		if !c.Valid() {
			return p, ErrInvalidCategory
		}
		p.Category = &c
	}
	if v := strings.TrimSpace(f.Date); v != "" {
		d, err := ParseDate(v)
		if err != nil {
			return p, err
		}
		p.Date = &d
	}
	return p, nil
}

func (f InvestmentForm) ToInvestment(userID string) (Investment, error) {
	invested, err := ParseDecimalInput(f.InvestedAmount)
	if err != nil {
		return Investment{}, err
	}
	current, err := ParseDecimalInput(f.CurrentValue)
	if err != nil {
		return Investment{}, err
	}
	i := Investment{
		UserID:         userID,
		Name:           f.Name,
		Type:           AssetClass(strings.TrimSpace(f.Type)),
		InvestedAmount: invested,
		CurrentValue:   current,
	}
	return i, i.Validate()
}

func (f InvestmentForm) ToPatch() (InvestmentPatch, error) {
	var p InvestmentPatch
	if strings.TrimSpace(f.Name) != "" {
		p.Name = &f.Name
	}
	if v := strings.TrimSpace(f.Type); v != "" {
		a := AssetClass(v)
		if !a.Valid() {
			return p, ErrInvalidAssetClass
		}
		p.Type = &a
	}
	var err error
	if p.InvestedAmount, err = optionalAmount(f.InvestedAmount); err != nil {
		return p, err
	}
	if p.CurrentValue, err = optionalAmount(f.CurrentValue); err != nil {
		return p, err
	}
	return p, nil
}

func (f GoalForm) ToGoal(userID string) (Goal, error) {
	target, err := ParseDecimalInput(f.TargetAmount)
	if err != nil {
		return Goal{}, err
	}
	current := decimal.Zero
	if strings.TrimSpace(f.CurrentAmount) != "" {
		if current, err = ParseDecimalInput(f.CurrentAmount); err != nil {
			return Goal{}, err
		}
	}
	var deadline Date
	if v := strings.TrimSpace(f.Deadline); v != "" {
		if deadline, err = ParseDate(v); err != nil {
			return Goal{}, err
		}
	}
	g := Goal{
		UserID:        userID,
		Title:         f.Title,
		TargetAmount:  target,
		CurrentAmount: current,
		Deadline:      deadline,
	}
	return g, g.Validate()
}

func (f GoalForm) ToPatch() (GoalPatch, error) {
	var p GoalPatch
	if strings.TrimSpace(f.Title) != "" {
		p.Title = &f.Title
	}
	var err error
	if p.TargetAmount, err = optionalAmount(f.TargetAmount); err != nil {
		return p, err
	}
	if p.TargetAmount != nil && !p.TargetAmount.IsPositive() {
		return p, ErrNonPositiveTarget
	}
	if p.CurrentAmount, err = optionalAmount(f.CurrentAmount); err != nil {
		return p, err
	}
	if v := strings.TrimSpace(f.Deadline); v != "" {
		d, err := ParseDate(v)
		if err != nil {
			return p, err
		}
		p.Deadline = &d
	}
	p.ClearDeadline = f.ClearDeadline
	return p, nil
}

func optionalAmount(raw string) (*decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := ParseDecimalInput(raw)
	if err != nil {
		return nil, err
	}
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}
	return &d, nil
}
