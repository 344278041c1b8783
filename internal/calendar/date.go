// Package calendar builds month and year keyboards for the calendar picker
// and encodes the navigation state carried on their buttons.
//
// Everything in this package is a pure function of its inputs. Values are
// built fresh on every call, so the package is safe for concurrent use.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

const (
	MinYear = 1
	MaxYear = 9999
)

// ErrInvalidDate is returned when year, month and day do not name a real date.
var ErrInvalidDate = errors.New("invalid calendar date")

// Date is a calendar date without time of day or timezone.
//
// The zero Date is not a valid date; use NewDate, MustDate or DateOf.
type Date struct {
	t time.Time
}

// NewDate returns the date for year, month and day, rejecting combinations
// such as February 30.
func NewDate(year int, month time.Month, day int) (Date, error) {
	if year < MinYear || year > MaxYear {
		return Date{}, fmt.Errorf("%w: year %d out of range", ErrInvalidDate, year)
	}
	if month < time.January || month > time.December {
		return Date{}, fmt.Errorf("%w: month %d out of range", ErrInvalidDate, month)
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	return Date{t: t}, nil
}

// MustDate is like NewDate but panics on an invalid date.
func MustDate(year int, month time.Month, day int) Date {
	d, err := NewDate(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Year() int          { return d.t.Year() }
func (d Date) Month() time.Month  { return d.t.Month() }
func (d Date) Day() int           { return d.t.Day() }
func (d Date) IsZero() bool       { return d.t.IsZero() }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }

// Weekday returns the day of the week with Monday = 0 and Sunday = 6.
func (d Date) Weekday() int {
	return (int(d.t.Weekday()) + 6) % 7
}

// AddDays returns the date n days after d (before d when n is negative).
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// AddMonths returns the date n months after d. The day is clamped to the
// last day of the target month, so January 31 plus one month is the last
// day of February.
func (d Date) AddMonths(n int) Date {
	first := d.FirstOfMonth()
	target := Date{t: first.t.AddDate(0, n, 0)}
	if last := target.DaysInMonth(); d.Day() > last {
		return Date{t: target.t.AddDate(0, 0, last-1)}
	}
	return Date{t: target.t.AddDate(0, 0, d.Day()-1)}
}

// AddYears returns the date n years after d, clamping February 29 to
// February 28 in common years.
func (d Date) AddYears(n int) Date {
	return d.AddMonths(12 * n)
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return d.AddDays(1 - d.Day())
}

// LastOfMonth returns the last day of d's month.
func (d Date) LastOfMonth() Date {
	next := Date{t: d.FirstOfMonth().t.AddDate(0, 1, 0)}
	return next.AddDays(-1)
}

// DaysInMonth returns the number of days in d's month.
func (d Date) DaysInMonth() int {
	return d.LastOfMonth().Day()
}

// SameMonth reports whether d and o fall in the same month of the same year.
func (d Date) SameMonth(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month()
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return d.t
}

func (d Date) String() string {
	return d.t.Format("2006-01-02")
}
