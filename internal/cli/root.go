// Package cli implements calpreview, which prints the bot's calendar
// keyboards in a terminal.
package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jw6ventures/calbot/internal/calendar"
	"github.com/jw6ventures/calbot/internal/keyboard"
)

// App holds what the commands share.
type App struct {
	Renderer *keyboard.Renderer
	Now      func() time.Time
}

// NewApp returns an App whose "today" comes from now.
func NewApp(now func() time.Time) *App {
	if now == nil {
		now = time.Now
	}
	return &App{Renderer: keyboard.NewRenderer(now), Now: now}
}

// NewRootCmd creates the top-level "calpreview" command.
func NewRootCmd(app *App) *cobra.Command {
	var payloads bool

	root := &cobra.Command{
		Use:           "calpreview",
		Short:         "Preview the calendar keyboards the bot sends",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&payloads, "payloads", "p", false, "Show the callback payload under each label")

	root.AddCommand(
		newMonthCmd(app, &payloads),
		newYearCmd(app, &payloads),
		newDecodeCmd(app, &payloads),
	)
	return root
}

func newMonthCmd(app *App, payloads *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Print the month view (default: the current month)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ref *calendar.Date
			if len(args) == 1 {
				d, err := parseMonth(args[0])
				if err != nil {
					return err
				}
				ref = &d
			}
			out := app.Renderer.Initial(ref)
			fmt.Fprintln(cmd.OutOrStdout(), RenderKeyboard(out.Keyboard, *payloads))
			return nil
		},
	}
}

func newYearCmd(app *App, payloads *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "year [YYYY]",
		Short: "Print the year view (default: the current year)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year := app.Now().Year()
			if len(args) == 1 {
				y, err := strconv.Atoi(args[0])
				if err != nil || y < calendar.MinYear || y > calendar.MaxYear {
					return fmt.Errorf("invalid year %q: want %d-%d", args[0], calendar.MinYear, calendar.MaxYear)
				}
				year = y
			}
			fmt.Fprintln(cmd.OutOrStdout(), RenderKeyboard(keyboard.Year(year), *payloads))
			return nil
		},
	}
}

func newDecodeCmd(app *App, payloads *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <token>",
		Short: "Decode a callback payload and print the view it leads to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			intent, err := calendar.DecodeStrict(args[0])
			if err != nil {
				fmt.Fprintf(w, "%s (%v)\n", Title(intent.String()), err)
			} else {
				fmt.Fprintln(w, Title(intent.String()))
			}

			out := app.Renderer.FromIntent(intent)
			if out.Action != keyboard.ActionEdit {
				fmt.Fprintln(w, "acknowledged without changes")
				return nil
			}
			fmt.Fprintln(w, RenderKeyboard(out.Keyboard, *payloads))
			return nil
		},
	}
}

func parseMonth(s string) (calendar.Date, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	d, err := calendar.NewDate(t.Year(), t.Month(), 1)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return d, nil
}
