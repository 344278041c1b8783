package calendar

import (
	"fmt"
	"time"
)

// Kind identifies a navigation intent.
type Kind uint8

const (
	KindNoOp Kind = iota
	KindGoToMonth
	KindGoToYear
	KindDrillIntoYear
)

func (k Kind) String() string {
	switch k {
	case KindGoToMonth:
		return "go_to_month"
	case KindGoToYear:
		return "go_to_year"
	case KindDrillIntoYear:
		return "drill_into_year"
	default:
		return "noop"
	}
}

// Intent is what pressing a button asks for. Only the fields meaningful for
// Kind are set, so intents compare with ==.
type Intent struct {
	Kind  Kind
	Year  int
	Month time.Month
}

// NoOp leaves the rendered view untouched.
var NoOp = Intent{}

// GoToMonth switches to the month view of month in year.
func GoToMonth(month time.Month, year int) Intent {
	return Intent{Kind: KindGoToMonth, Year: year, Month: month}
}

// GoToYear moves the year view to year.
func GoToYear(year int) Intent {
	return Intent{Kind: KindGoToYear, Year: year}
}

// DrillIntoYear switches from the month view to the year view of year.
func DrillIntoYear(year int) Intent {
	return Intent{Kind: KindDrillIntoYear, Year: year}
}

// IsNoOp reports whether i leaves the view untouched.
func (i Intent) IsNoOp() bool {
	return i.Kind == KindNoOp
}

// Date returns the first day of the month a GoToMonth intent targets.
func (i Intent) Date() (Date, bool) {
	if i.Kind != KindGoToMonth {
		return Date{}, false
	}
	d, err := NewDate(i.Year, i.Month, 1)
	if err != nil {
		return Date{}, false
	}
	return d, true
}

func (i Intent) String() string {
	switch i.Kind {
	case KindGoToMonth:
		return fmt.Sprintf("%s(%d, %d)", i.Kind, i.Month, i.Year)
	case KindGoToYear, KindDrillIntoYear:
		return fmt.Sprintf("%s(%d)", i.Kind, i.Year)
	default:
		return i.Kind.String()
	}
}
