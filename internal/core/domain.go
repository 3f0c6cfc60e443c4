package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const maxTextLength = 200

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	CategoryFood      Category = "Alimentação"
	CategoryHousing   Category = "Moradia"
	CategoryTransport Category = "Transporte"
	CategoryHealth    Category = "Saúde"
	CategoryLeisure   Category = "Lazer"
	CategorySalary    Category = "Salário"
	CategoryOther     Category = "Outros"
)

const (
	AssetFixedIncome    AssetClass = "Renda Fixa"
	AssetStocksBR       AssetClass = "Ações (BR)"
	AssetStocksUS       AssetClass = "Stocks (US)"
	AssetRealEstateFund AssetClass = "FIIs"
	AssetCrypto         AssetClass = "Cripto"
	AssetEmergencyFund  AssetClass = "Reserva de Emergência"
)

type (
	TransactionType string

	// Category is one of the fixed transaction categories, stored by display name.
	Category string

	// AssetClass is one of the fixed investment types.
	AssetClass string

	Transaction struct {
		ID          string          `json:"id"`
		UserID      string          `json:"user_id"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    Category        `json:"category"`
		Date        Date            `json:"date"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	Investment struct {
		ID             string          `json:"id"`
		UserID         string          `json:"user_id"`
		Name           string          `json:"name"`
		Type           AssetClass      `json:"type"`
		InvestedAmount decimal.Decimal `json:"invested_amount"` // cumulative cost basis
		CurrentValue   decimal.Decimal `json:"current_value"`
		CreatedAt      time.Time       `json:"created_at"`
	}

	Goal struct {
		ID            string          `json:"id"`
		UserID        string          `json:"user_id"`
		Title         string          `json:"title"`
		TargetAmount  decimal.Decimal `json:"target_amount"`
		CurrentAmount decimal.Decimal `json:"current_amount"` // may exceed the target
		Deadline      Date            `json:"deadline"`       // zero when the goal has none
		CreatedAt     time.Time       `json:"created_at"`
	}
)

var (
	ErrMissingOwner         = errors.New("missing owner")
	ErrEmptyDescription     = errors.New("empty description")
	ErrEmptyName            = errors.New("empty name")
	ErrEmptyTitle           = errors.New("empty title")
	ErrTextTooLong          = errors.New("text too long (max 200 characters)")
	ErrNegativeAmount       = errors.New("amount cannot be negative")
	ErrNonPositiveTarget    = errors.New("target amount must be positive")
	ErrInvalidType          = errors.New("invalid transaction type")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrInvalidAssetClass    = errors.New("invalid investment type")
	ErrUnknownRecordVariant = errors.New("unknown record variant")
)

// Categories returns the fixed category set in display order.
func Categories() []Category {
	return []Category{
		CategoryFood, CategoryHousing, CategoryTransport, CategoryHealth,
		CategoryLeisure, CategorySalary, CategoryOther,
	}
}

// AssetClasses returns the fixed investment types in display order.
func AssetClasses() []AssetClass {
	return []AssetClass{
		AssetFixedIncome, AssetStocksBR, AssetStocksUS,
		AssetRealEstateFund, AssetCrypto, AssetEmergencyFund,
	}
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Label returns the pt-BR name of the type (Receita / Despesa).
func (t TransactionType) Label() string {
	switch t {
	case Income:
		return "Receita"
	case Expense:
		return "Despesa"
	default:
		return string(t)
	}
}

func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

func (a AssetClass) Valid() bool {
	for _, known := range AssetClasses() {
		if a == known {
			return true
		}
	}
	return false
}

func validateText(s string, empty error) error {
	if strings.TrimSpace(s) == "" {
		return empty
	}
	if len([]rune(s)) > maxTextLength {
		return ErrTextTooLong
	}
	return nil
}

func validateAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrMissingOwner
	}
	if err := validateText(t.Description, ErrEmptyDescription); err != nil {
		return err
	}
	if err := validateAmount(t.Amount); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Category.Valid() {
		return ErrInvalidCategory
	}
	return t.Date.Validate()
}

func (i Investment) Validate() error {
	if strings.TrimSpace(i.UserID) == "" {
		return ErrMissingOwner
	}
	if err := validateText(i.Name, ErrEmptyName); err != nil {
		return err
	}
	if !i.Type.Valid() {
		return ErrInvalidAssetClass
	}
	if err := validateAmount(i.InvestedAmount); err != nil {
		return err
	}
	return validateAmount(i.CurrentValue)
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.UserID) == "" {
		return ErrMissingOwner
	}
	if err := validateText(g.Title, ErrEmptyTitle); err != nil {
		return err
	}
	if !g.TargetAmount.IsPositive() {
		return ErrNonPositiveTarget
	}
	return validateAmount(g.CurrentAmount)
}

// IsValidationError reports whether err was produced by record or input
// validation, as opposed to a storage or transport failure.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrInvalidDate, ErrMissingOwner, ErrEmptyDescription,
		ErrEmptyName, ErrEmptyTitle, ErrTextTooLong, ErrNegativeAmount,
		ErrNonPositiveTarget, ErrInvalidType, ErrInvalidCategory, ErrInvalidAssetClass,
		ErrUnknownRecordVariant,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
