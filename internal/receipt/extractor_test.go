package receipt

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financepro/internal/core"
)

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"maximum not first", "Total R$ 1.234,56\nitem 12,00", "1234.56"},
		{"dot decimals", "ITEM 3.50\nTOTAL 15.75\n", "15.75"},
		{"mixed marks", "cafe 4,50\nsubtotal 9.00\nTOTAL R$ 13,50", "13.5"},
		{"dollar prefix", "US$ 19.99", "19.99"},
		{"millions", "R$1.000.000,00 e 999,99", "1000000"},
		{"no space after symbol", "R$12,34", "12.34"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			require.True(t, got.Amount.Valid)
			assert.True(t, got.Amount.Decimal.Equal(decimal.RequireFromString(tt.want)), "amount = %s", got.Amount.Decimal)
		})
	}
}

func TestExtractNoAmount(t *testing.T) {
	for _, text := range []string{"", "OBRIGADO PELA PREFERENCIA", "qtd 3 un", "12,5"} {
		got := Extract(text)
		assert.False(t, got.Amount.Valid, "text %q", text)
	}
}

func TestExtractDate(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"25/12/23", "2023-12-25"},
		{"Emissao: 01-02-2024 10:22", "2024-02-01"},
		{"data 5.6.2024", "2024-06-05"},
		{"31/02/2024 e depois 28/02/2024", "2024-02-28"},
		{"sem data", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Extract(tt.text)
			assert.Equal(t, tt.want, got.Date.String())
		})
	}
}

func TestExtractTwoDigitYear(t *testing.T) {
	got := Extract("CUPOM FISCAL 25/12/23")
	assert.Equal(t, 2023, got.Date.Year())
}

func TestPrefill(t *testing.T) {
	today := core.NewDate(2024, 5, 10)
	form := core.TransactionForm{Description: "old", Amount: "7,00", Type: "expense", Category: "Lazer"}

	t.Run("all fields found", func(t *testing.T) {
		got := Prefill(form, Extract("TOTAL 1.234,50\n03/05/2024"), today)
		assert.Equal(t, PlaceholderDescription, got.Description)
		assert.Equal(t, "1234.50", got.Amount)
		assert.Equal(t, "2024-05-03", got.Date)
		assert.Equal(t, "Lazer", got.Category)
	})

	t.Run("nothing found keeps amount", func(t *testing.T) {
		got := Prefill(form, Extract("ilegivel"), today)
		assert.Equal(t, PlaceholderDescription, got.Description)
		assert.Equal(t, "7,00", got.Amount)
		assert.Equal(t, "2024-05-10", got.Date)
	})
}
