package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"

	"financepro/internal/aggregate"
	"financepro/internal/core"
)

const maxJSONBody = 64 << 10

var strictPolicy = bluemonday.StrictPolicy()

var errBadRequest = errors.New("malformed request")

// sanitizeText strips markup and control characters from free text. Entities
// produced by the policy are decoded so "Arroz & Feijão" survives intact.
func sanitizeText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errBadRequest)
	}
	return nil
}

func decodeTransactionForm(w http.ResponseWriter, r *http.Request) (core.TransactionForm, error) {
	var f core.TransactionForm
	if err := decodeJSON(w, r, &f); err != nil {
		return f, err
	}
	f.Description = sanitizeText(f.Description)
	return f, nil
}

func decodeInvestmentForm(w http.ResponseWriter, r *http.Request) (core.InvestmentForm, error) {
	var f core.InvestmentForm
	if err := decodeJSON(w, r, &f); err != nil {
		return f, err
	}
	f.Name = sanitizeText(f.Name)
	return f, nil
}

func decodeGoalForm(w http.ResponseWriter, r *http.Request) (core.GoalForm, error) {
	var f core.GoalForm
	if err := decodeJSON(w, r, &f); err != nil {
		return f, err
	}
	f.Title = sanitizeText(f.Title)
	return f, nil
}

// transactionFormFromValues reads the form fields sent alongside a receipt
// upload. Missing fields keep the values of base.
func transactionFormFromValues(get func(string) string, base core.TransactionForm) core.TransactionForm {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(get(key)); v != "" {
			*dst = v
		}
	}
	set(&base.Description, "description")
	set(&base.Amount, "amount")
	set(&base.Type, "type")
	set(&base.Category, "category")
	set(&base.Date, "date")
	base.Description = sanitizeText(base.Description)
	return base
}

// parsePeriod reads ?period=YYYY-MM, defaulting to current.
func parsePeriod(r *http.Request, current aggregate.Period) (aggregate.Period, error) {
	v := strings.TrimSpace(r.URL.Query().Get("period"))
	if v == "" {
		return current, nil
	}
	p, err := aggregate.ParsePeriod(v)
	if err != nil {
		return aggregate.Period{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return p, nil
}

// confirmed reports whether the delete request carries confirm=true.
func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

// readLimited reads at most limit bytes and reports whether more were available.
func readLimited(rd io.Reader, limit int64) ([]byte, bool, error) {
	b, err := io.ReadAll(io.LimitReader(rd, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(b)) > limit {
		return b[:limit], true, nil
	}
	return b, false, nil
}
