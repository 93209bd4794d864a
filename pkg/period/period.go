// Package period models inclusive calendar date ranges and the calendar
// buckets (day, month, quarter, year) a report is broken down into.
//
// A Period holds dates, not instants: both bounds are normalized to
// midnight UTC and only their year, month and day are meaningful. Records
// are assigned to buckets by their own calendar date, so a report never
// depends on the zone the caller happens to run in.
package period

import (
	"fmt"
	"strings"
	"time"
)

// Key layouts for calendar buckets.
const (
	DayLayout   = "2006-01-02"
	MonthLayout = "2006-01"
	YearLayout  = "2006"
)

// Period is an inclusive range of calendar dates.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// New builds a Period from two dates, validating order.
func New(from, to time.Time) (Period, error) {
	p := Period{From: Date(from), To: Date(to)}
	if p.From.After(p.To) {
		return Period{}, fmt.Errorf("%w: %s > %s", ErrInvertedRange, p.From.Format(DayLayout), p.To.Format(DayLayout))
	}
	return p, nil
}

// Parse parses ISO calendar dates (YYYY-MM-DD) into a Period.
//
// Returns ErrInvalidDate if either string does not parse and
// ErrInvertedRange if from is after to. The range is never swapped.
func Parse(from, to string) (Period, error) {
	f, err := time.Parse(DayLayout, strings.TrimSpace(from))
	if err != nil {
		return Period{}, fmt.Errorf("%w: from=%q", ErrInvalidDate, from)
	}

	t, err := time.Parse(DayLayout, strings.TrimSpace(to))
	if err != nil {
		return Period{}, fmt.Errorf("%w: to=%q", ErrInvalidDate, to)
	}

	return New(f, t)
}

// Date truncates t to its calendar date at midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey returns the day bucket key of t.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// MonthKey returns the month bucket key of t.
func MonthKey(t time.Time) string {
	return t.Format(MonthLayout)
}

// QuarterKey returns the quarter bucket key of t, e.g. "2024-Q3".
func QuarterKey(t time.Time) string {
	return fmt.Sprintf("%04d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
}

// YearKey returns the year bucket key of t.
func YearKey(t time.Time) string {
	return t.Format(YearLayout)
}

// Contains reports whether the calendar date of t lies inside the period.
func (p Period) Contains(t time.Time) bool {
	d := Date(t)
	return !d.Before(p.From) && !d.After(p.To)
}

// Len returns the number of calendar days in the period.
func (p Period) Len() int {
	return int(p.To.Sub(p.From).Hours()/24) + 1
}

// String returns "from..to".
func (p Period) String() string {
	return p.From.Format(DayLayout) + ".." + p.To.Format(DayLayout)
}

// Days returns every day key in the period, in order.
func (p Period) Days() []string {
	keys := make([]string, 0, p.Len())
	for d := p.From; !d.After(p.To); d = d.AddDate(0, 0, 1) {
		keys = append(keys, DayKey(d))
	}
	return keys
}

// Months returns every month key the period touches, in order.
func (p Period) Months() []string {
	var keys []string
	first := time.Date(p.From.Year(), p.From.Month(), 1, 0, 0, 0, 0, time.UTC)
	for m := first; !m.After(p.To); m = m.AddDate(0, 1, 0) {
		keys = append(keys, MonthKey(m))
	}
	return keys
}

// Quarters returns every quarter key the period touches, in order.
func (p Period) Quarters() []string {
	var keys []string
	qMonth := time.Month((int(p.From.Month())-1)/3*3 + 1)
	first := time.Date(p.From.Year(), qMonth, 1, 0, 0, 0, 0, time.UTC)
	for q := first; !q.After(p.To); q = q.AddDate(0, 3, 0) {
		keys = append(keys, QuarterKey(q))
	}
	return keys
}

// Years returns every year key the period touches, in order.
func (p Period) Years() []string {
	keys := make([]string, 0, p.To.Year()-p.From.Year()+1)
	for y := p.From.Year(); y <= p.To.Year(); y++ {
		keys = append(keys, fmt.Sprintf("%04d", y))
	}
	return keys
}

// Previous returns the window of equal length that ends the day before p starts.
func Previous(p Period) Period {
	n := p.Len()
	to := p.From.AddDate(0, 0, -1)
	return Period{From: to.AddDate(0, 0, -(n - 1)), To: to}
}

// YearAgo returns the same calendar window one year earlier.
func YearAgo(p Period) Period {
	return Period{From: p.From.AddDate(-1, 0, 0), To: p.To.AddDate(-1, 0, 0)}
}
