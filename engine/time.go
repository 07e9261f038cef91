package engine

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Day-granularity time abstraction (everything here is date math)
// =============================================================================

// Date is a calendar day in UTC. Assignments, availability windows, and
// forecast periods are all day-granular; wall-clock time never matters.
type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO-8601 date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return Date{Time: t.UTC()}, nil
}

func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// MondayOf returns the Monday of the week containing d.
func (d Date) MondayOf() Date {
	wd := int(d.normalize().Weekday()) // Sunday = 0
	offset := (wd + 6) % 7             // days since Monday
	return d.AddDays(-offset)
}

// DaysBetween returns the signed number of days from `from` to `to`.
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// =============================================================================
// MONTH - Calendar month key for monthly allocations and timelines
// =============================================================================

// Month identifies a calendar month. Wire format is "YYYY-MM".
type Month struct {
	Year int
	Mon  time.Month
}

func NewMonth(year int, month time.Month) Month { return Month{Year: year, Mon: month} }

func MonthOf(d Date) Month { return Month{Year: d.Year(), Mon: d.Month()} }

// ParseMonth parses a "YYYY-MM" key.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q (use YYYY-MM): %w", s, err)
	}
	return Month{Year: t.Year(), Mon: t.Month()}, nil
}

func (m Month) Key() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Mon)) }

func (m Month) Start() Date { return NewDate(m.Year, m.Mon, 1) }

func (m Month) End() Date {
	return Date{Time: time.Date(m.Year, m.Mon+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)}
}

func (m Month) Days() int { return m.End().Day() }

func (m Month) Next() Month {
	d := m.Start().AddMonths(1)
	return MonthOf(d)
}

func (m Month) Before(other Month) bool {
	return m.Year < other.Year || (m.Year == other.Year && m.Mon < other.Mon)
}

func (m Month) Equal(other Month) bool { return m.Year == other.Year && m.Mon == other.Mon }

// MonthsInRange returns every calendar month touched by [start, end], in order.
// Returns nil when end precedes start.
func MonthsInRange(start, end Date) []Month {
	if end.Before(start) {
		return nil
	}
	var months []Month
	cur := MonthOf(start)
	last := MonthOf(end)
	for {
		months = append(months, cur)
		if cur.Equal(last) {
			return months
		}
		cur = cur.Next()
	}
}
