package planning

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar date in a single fixed frame (no timezone conversion)
// =============================================================================

// Date is a day-granularity calendar date. All dates are normalized to
// UTC midnight so Date values are comparable and usable as map keys.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

// NewDate constructs a normalized date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// Today returns the current date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// Comparison
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date {
	t := d.t.AddDate(0, 0, n)
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }

// IsBusinessDay reports whether the date is a Monday through Friday.
func (d Date) IsBusinessDay() bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// WeekStart returns the Monday of the date's calendar week.
func (d Date) WeekStart() Date {
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDays(-offset)
}

func (d Date) String() string { return d.t.Format(dateLayout) }

// MarshalJSON/UnmarshalJSON keep the ISO wire format.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s (use YYYY-MM-DD)", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// BusinessDaysBetween returns all business days in [from, to] inclusive,
// chronologically ordered. Empty when to < from or the range holds only
// weekend days.
func BusinessDaysBetween(from, to Date) []Date {
	var days []Date
	for d := from; d.BeforeOrEqual(to); d = d.AddDays(1) {
		if d.IsBusinessDay() {
			days = append(days, d)
		}
	}
	return days
}

// =============================================================================
// PERIOD - Billing month
// =============================================================================

// Period is a billing month. Revenue targets and role configs are stored
// per period, and scheduled recalculations run against the current one.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodFor returns the billing period containing the given date.
func PeriodFor(d Date) Period {
	return Period{Year: d.Year(), Month: d.Month()}
}

// ParsePeriod parses a YYYY-MM string.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q (use YYYY-MM): %w", s, err)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// Start returns the first day of the period.
func (p Period) Start() Date { return NewDate(p.Year, p.Month, 1) }

// End returns the last day of the period.
func (p Period) End() Date {
	return NewDate(p.Year, p.Month+1, 1).AddDays(-1)
}

// Contains reports whether the date falls inside the period.
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start()) && d.BeforeOrEqual(p.End())
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
