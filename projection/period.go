/*
Package projection walks the monthly financial accrual schedule.

PURPOSE:
  Given a start/end period and a base remuneration, fetches the annualized
  benchmark-rate series, reindexes it by one period (rates are published
  with a lag, so period p settles at the rate observed in p−1) and produces
  one accrual row per month plus a totals row.

KEY CONCEPTS IN THIS FILE (period.go):
  - Period: a year-month value, the granularity of the whole schedule
  - Parsing accepts the "2006-01" intake form; Label renders the
    "01/2006" display form

SEE ALSO:
  - projector.go: the monthly walk
  - rates/client.go: the benchmark-rate source
*/
package projection

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - year-month value type
// =============================================================================

type Period struct {
	Year  int
	Month time.Month
}

func NewPeriod(year int, month time.Month) Period {
	return Period{Year: year, Month: month}
}

// ParsePeriod parses the "2006-01" intake form.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q (want YYYY-MM): %w", s, err)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// Arithmetic
func (p Period) Next() Period { return p.add(1) }
func (p Period) Prev() Period { return p.add(-1) }

func (p Period) add(months int) Period {
	t := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	return Period{Year: t.Year(), Month: t.Month()}
}

// Comparison
func (p Period) Equal(o Period) bool { return p.Year == o.Year && p.Month == o.Month }
func (p Period) Before(o Period) bool {
	return p.Year < o.Year || (p.Year == o.Year && p.Month < o.Month)
}
func (p Period) After(o Period) bool { return o.Before(p) }

// Calendar bounds, used to build the rate-service date range.
func (p Period) FirstDay() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}
func (p Period) LastDay() time.Time {
	return p.FirstDay().AddDate(0, 1, -1)
}

// String renders the intake form, Label the display form.
func (p Period) String() string { return p.FirstDay().Format("2006-01") }
func (p Period) Label() string  { return p.FirstDay().Format("01/2006") }
