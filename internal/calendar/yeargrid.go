package calendar

import (
	"strconv"
	"time"
)

const (
	YearGridRows = 3
	YearGridCols = 4
)

// MonthCell is one month of a year grid.
type MonthCell struct {
	Month time.Month
	Label string
	Token string
}

// YearGrid lays out the twelve months of a year as 3 rows of 4.
type YearGrid struct {
	Year int
	Rows [YearGridRows][YearGridCols]MonthCell
}

// BuildYearGrid returns the grid for year, January through December.
func BuildYearGrid(year int) YearGrid {
	g := YearGrid{Year: year}
	for r := 0; r < YearGridRows; r++ {
		for c := 0; c < YearGridCols; c++ {
			m := time.Month(r*YearGridCols + c + 1)
			g.Rows[r][c] = MonthCell{
				Month: m,
				Label: m.String()[:3],
				Token: Encode(GoToMonth(m, year)),
			}
		}
	}
	return g
}

// Title returns the header label, e.g. "2024".
func (g YearGrid) Title() string {
	return strconv.Itoa(g.Year)
}

// Cells returns the month cells in calendar order.
func (g YearGrid) Cells() []MonthCell {
	cells := make([]MonthCell, 0, YearGridRows*YearGridCols)
	for _, row := range g.Rows {
		cells = append(cells, row[:]...)
	}
	return cells
}

func (g YearGrid) Prev() Intent { return GoToYear(g.Year - 1) }
func (g YearGrid) Next() Intent { return GoToYear(g.Year + 1) }
