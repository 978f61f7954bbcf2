// Package termcal prints calendar renders to a terminal.
package termcal

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"churchcal/internal/calendar"
)

var (
	titleStyle   = color.New(color.Bold, color.Underline)
	labelStyle   = color.New(color.Bold)
	todayStyle   = color.New(color.Bold, color.FgHiGreen)
	outsideStyle = color.New(color.Faint)
	busyStyle    = color.New(color.FgHiYellow)
	timeStyle    = color.New(color.FgCyan)
)

// Options tweaks the output.
type Options struct {
	// Agenda lists each event under the grid.
	Agenda bool
}

// Print writes r as a grid (month and week view) or an event list (day
// view) followed by an optional agenda.
func Print(w io.Writer, r calendar.Render, opts Options) error {
	if _, err := fmt.Fprintln(w, titleStyle.Sprint(r.Title)); err != nil {
		return err
	}

	if r.State.View == calendar.ViewDay {
		return printDay(w, r)
	}

	tbl := uitable.New()
	tbl.Separator = "  "

	header := make([]any, 0, 7)
	for _, l := range r.Labels {
		header = append(header, labelStyle.Sprint(l))
	}
	tbl.AddRow(header...)

	for _, week := range r.Weeks() {
		row := make([]any, 0, len(week))
		for _, c := range week {
			row = append(row, cellText(c))
		}
		tbl.AddRow(row...)
	}

	if _, err := fmt.Fprintln(w, tbl); err != nil {
		return err
	}
	if opts.Agenda {
		return printAgenda(w, r)
	}
	return nil
}

// cellText is the day number, a "+N" event count and today/outside styling.
func cellText(c calendar.DayCell) string {
	text := fmt.Sprintf("%2d", c.Date.Day())
	if n := len(c.Events); n > 0 {
		text += busyStyle.Sprintf("+%d", n)
	} else {
		text += "  "
	}
	switch {
	case c.IsToday:
		return todayStyle.Sprint(text)
	case !c.InCurrentMonth:
		return outsideStyle.Sprint(text)
	default:
		return text
	}
}

func printDay(w io.Writer, r calendar.Render) error {
	if len(r.Cells) == 0 || len(r.Cells[0].Events) == 0 {
		_, err := fmt.Fprintln(w, outsideStyle.Sprint("No events."))
		return err
	}
	return printAgenda(w, r)
}

func printAgenda(w io.Writer, r calendar.Render) error {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true

	for _, c := range r.Cells {
		for _, ev := range c.Events {
			title := ev.Title()
			if title == "" {
				title = "(untitled)"
			}
			start := ev.StartDate
			if start == nil || *start == "" {
				start = ev.Date
			}
			tbl.AddRow(c.Date.Format("Mon Jan 2"), timeStyle.Sprint(eventTime(start)), title)
		}
	}
	if len(tbl.Rows) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w, tbl)
	return err
}

// eventTime extracts HH:MM from a date-time value; date-only values are
// shown as all-day.
func eventTime(v *string) string {
	if v == nil {
		return "all day"
	}
	i := strings.IndexAny(*v, "T ")
	if i == -1 || len(*v) < i+6 {
		return "all day"
	}
	return (*v)[i+1 : i+6]
}
