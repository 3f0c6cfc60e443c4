// Package export renders a user's records as a semicolon-separated report
// with pt-BR dates and decimal-comma amounts.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"financepro/internal/core"
)

const (
	KindInvestment = "Investimento"
	OriginCash     = "Caixa"
	OriginWallet   = "Carteira"
)

// Header is the first line of every report.
var Header = []string{"Data", "Tipo", "Categoria", "Descrição", "Valor", "Origem"}

// Row is one report line, shared by the CSV file and the sheets mirror.
type Row struct {
	Date        core.Date
	Kind        string
	Category    string
	Description string
	Amount      decimal.Decimal
	Origin      string
}

// Fields renders the row as report cells. Free-text cells that a spreadsheet
// would evaluate as a formula are prefixed with a quote.
func (r Row) Fields() []string {
	return []string{
		r.Date.Display(),
		r.Kind,
		escapeFormula(r.Category),
		escapeFormula(r.Description),
		core.FormatDecimalComma(r.Amount),
		r.Origin,
	}
}

// Rows lists every transaction, then every investment valued at its current
// value and dated by its creation day in loc.
func Rows(txs []core.Transaction, invs []core.Investment, loc *time.Location) []Row {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([]Row, 0, len(txs)+len(invs))
	for _, t := range txs {
		rows = append(rows, Row{
			Date:        t.Date,
			Kind:        t.Type.Label(),
			Category:    string(t.Category),
			Description: t.Description,
			Amount:      t.Amount,
			Origin:      OriginCash,
		})
	}
	for _, i := range invs {
		rows = append(rows, Row{
			Date:        core.Today(i.CreatedAt.In(loc)),
			Kind:        KindInvestment,
			Category:    string(i.Type),
			Description: i.Name,
			Amount:      i.CurrentValue,
			Origin:      OriginWallet,
		})
	}
	return rows
}

// Table returns the header followed by every row, as plain strings.
func Table(rows []Row) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, Header)
	for _, r := range rows {
		out = append(out, r.Fields())
	}
	return out
}

func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	for i, rec := range Table(rows) {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName is the download name of a report produced on day.
func FileName(day core.Date) string {
	return "financepro_" + day.String() + ".csv"
}

func escapeFormula(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}
