package aggregate

import (
	"errors"
	"fmt"
	"time"

	"financepro/internal/core"
)

const periodLayout = "2006-01"

var ErrInvalidPeriod = errors.New("invalid period")

// Period is the year-month selector restricting which transactions
// contribute to the displayed summaries.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a period in YYYY-MM format.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse(periodLayout, s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// CurrentPeriod returns the period containing now.
func CurrentPeriod(now time.Time) Period {
	return Period{Year: now.Year(), Month: now.Month()}
}

// Contains reports whether d falls within the period.
func (p Period) Contains(d core.Date) bool {
	return d.Year() == p.Year && d.Month() == p.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Period) UnmarshalText(b []byte) error {
	parsed, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
