package calendar

import (
	"fmt"
	"time"
)

const DaysPerWeek = 7

// WeekdayLabels are the column headers of a month grid, Monday first.
var WeekdayLabels = [DaysPerWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Cell is one day position of a month grid. Padding cells carry the dates of
// the adjacent months.
type Cell struct {
	Date  Date
	Label string
	Token string
}

// WeekRow is one week of a month grid, Monday first.
type WeekRow [DaysPerWeek]Cell

// MonthGrid holds the weeks covering one month, padded with days of the
// previous and next month to complete the first and last week.
type MonthGrid struct {
	Year  int
	Month time.Month
	Rows  []WeekRow
}

// BuildMonthGrid returns the grid for the month containing d. Only d's year
// and month matter.
func BuildMonthGrid(d Date) MonthGrid {
	monthStart := d.FirstOfMonth()
	monthEnd := d.LastOfMonth()

	beforeOffset := monthStart.Weekday()
	afterOffset := DaysPerWeek - 1 - monthEnd.Weekday()
	total := beforeOffset + monthEnd.Day() + afterOffset

	g := MonthGrid{
		Year:  d.Year(),
		Month: d.Month(),
		Rows:  make([]WeekRow, 0, total/DaysPerWeek),
	}

	cur := monthStart.AddDays(-beforeOffset)
	for i := 0; i < total; i += DaysPerWeek {
		var row WeekRow
		for col := range row {
			row[col] = Cell{
				Date:  cur,
				Label: fmt.Sprintf("%02d", cur.Day()),
				Token: NoOpToken,
			}
			cur = cur.AddDays(1)
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}

// Title returns the header label, e.g. "February 2024".
func (g MonthGrid) Title() string {
	return fmt.Sprintf("%s %d", g.Month, g.Year)
}

// InMonth reports whether c is a day of the displayed month rather than padding.
func (g MonthGrid) InMonth(c Cell) bool {
	return c.Date.Year() == g.Year && c.Date.Month() == g.Month
}

// Cells returns the grid's cells in date order.
func (g MonthGrid) Cells() []Cell {
	cells := make([]Cell, 0, len(g.Rows)*DaysPerWeek)
	for _, row := range g.Rows {
		cells = append(cells, row[:]...)
	}
	return cells
}

// Prev returns the intent for the previous month.
func (g MonthGrid) Prev() Intent {
	p := g.first().AddMonths(-1)
	return GoToMonth(p.Month(), p.Year())
}

// Next returns the intent for the next month.
func (g MonthGrid) Next() Intent {
	n := g.first().AddMonths(1)
	return GoToMonth(n.Month(), n.Year())
}

// Drill returns the intent for the year view of the displayed year.
func (g MonthGrid) Drill() Intent {
	return DrillIntoYear(g.Year)
}

func (g MonthGrid) first() Date {
	return Date{t: time.Date(g.Year, g.Month, 1, 0, 0, 0, 0, time.UTC)}
}
