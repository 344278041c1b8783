// Package keyboard turns calendar grids into rows of labeled buttons and
// decides how a trigger changes the message that shows them.
package keyboard

import (
	"time"

	"github.com/jw6ventures/calbot/internal/calendar"
)

const (
	prevLabel = "<"
	nextLabel = ">"
)

// Button is one keyboard key: the text shown and the payload sent back when
// it is pressed.
type Button struct {
	Label   string
	Payload string
}

// View identifies which grid a keyboard shows.
type View string

const (
	ViewMonth View = "month"
	ViewYear  View = "year"
)

// Keyboard is a rendered grid, row by row.
type Keyboard struct {
	View View
	Rows [][]Button
}

// Action tells the transport what to do with an Outcome.
type Action string

const (
	// ActionSend posts a new message with the keyboard.
	ActionSend Action = "send"
	// ActionEdit replaces the keyboard of the message whose button was pressed.
	ActionEdit Action = "edit"
	// ActionAcknowledge leaves the message untouched.
	ActionAcknowledge Action = "acknowledge"
)

// Outcome is the result of handling one trigger.
type Outcome struct {
	Action   Action
	Intent   calendar.Intent
	Keyboard Keyboard
}

// Renderer builds keyboards for triggers. It keeps no state between calls.
type Renderer struct {
	now func() time.Time
}

// NewRenderer returns a Renderer reading "today" from now. A nil now uses
// time.Now.
func NewRenderer(now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{now: now}
}

// Initial renders the month view for a new message. A nil ref means today.
func (r *Renderer) Initial(ref *calendar.Date) Outcome {
	d := calendar.DateOf(r.now())
	if ref != nil {
		d = *ref
	}
	return Outcome{
		Action:   ActionSend,
		Intent:   calendar.GoToMonth(d.Month(), d.Year()),
		Keyboard: Month(d),
	}
}

// FromPayload renders the view requested by a pressed button's payload.
// Unrecognized payloads acknowledge the press without changing the view.
func (r *Renderer) FromPayload(payload string) Outcome {
	return r.FromIntent(calendar.Decode(payload))
}

// FromIntent renders the view for an already decoded intent.
func (r *Renderer) FromIntent(i calendar.Intent) Outcome {
	switch i.Kind {
	case calendar.KindGoToMonth:
		d, ok := i.Date()
		if !ok {
			break
		}
		return Outcome{Action: ActionEdit, Intent: i, Keyboard: Month(d)}
	case calendar.KindGoToYear, calendar.KindDrillIntoYear:
		if i.Year < calendar.MinYear || i.Year > calendar.MaxYear {
			break
		}
		return Outcome{Action: ActionEdit, Intent: i, Keyboard: Year(i.Year)}
	}
	return Outcome{Action: ActionAcknowledge, Intent: calendar.NoOp}
}

// Month renders the month view: navigation header, weekday labels, then the
// weeks of the month containing d.
func Month(d calendar.Date) Keyboard {
	g := calendar.BuildMonthGrid(d)

	rows := make([][]Button, 0, len(g.Rows)+2)
	rows = append(rows, []Button{
		{Label: prevLabel, Payload: calendar.Encode(g.Prev())},
		{Label: g.Title(), Payload: calendar.Encode(g.Drill())},
		{Label: nextLabel, Payload: calendar.Encode(g.Next())},
	})

	weekdays := make([]Button, 0, calendar.DaysPerWeek)
	for _, l := range calendar.WeekdayLabels {
		weekdays = append(weekdays, Button{Label: l, Payload: calendar.NoOpToken})
	}
	rows = append(rows, weekdays)

	for _, week := range g.Rows {
		row := make([]Button, 0, calendar.DaysPerWeek)
		for _, c := range week {
			row = append(row, Button{Label: c.Label, Payload: c.Token})
		}
		rows = append(rows, row)
	}
	return Keyboard{View: ViewMonth, Rows: rows}
}

// Year renders the year view: navigation header then 3 rows of 4 months.
func Year(year int) Keyboard {
	g := calendar.BuildYearGrid(year)

	rows := make([][]Button, 0, calendar.YearGridRows+1)
	rows = append(rows, []Button{
		{Label: prevLabel, Payload: calendar.Encode(g.Prev())},
		{Label: g.Title(), Payload: calendar.NoOpToken},
		{Label: nextLabel, Payload: calendar.Encode(g.Next())},
	})
	for _, months := range g.Rows {
		row := make([]Button, 0, calendar.YearGridCols)
		for _, m := range months {
			row = append(row, Button{Label: m.Label, Payload: m.Token})
		}
		rows = append(rows, row)
	}
	return Keyboard{View: ViewYear, Rows: rows}
}
