// Package printer renders calendars and streak tables for terminals.
package printer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

var intensityGlyphs = [...]string{"·", "░", "▒", "▓", "█"}

var schemeColors = map[domain.ColorScheme]color.Attribute{
	domain.ColorGreen:  color.FgGreen,
	domain.ColorBlue:   color.FgBlue,
	domain.ColorPurple: color.FgMagenta,
	domain.ColorOrange: color.FgYellow,
}

type Printer struct {
	Out io.Writer
}

func New(out io.Writer) *Printer {
	if out == nil {
		out = color.Output
	}
	return &Printer{Out: out}
}

// Heatmap draws the calendar grid, one row per week, one glyph per day.
func (p *Printer) Heatmap(title string, data *domain.CalendarData) {
	header := color.New(color.Bold, color.Underline)
	_, _ = header.Fprintf(p.Out, "%s - %s %d\n", title, data.Month, data.Year)

	_, _ = fmt.Fprintln(p.Out, weekdayHeader(data.Config.StartWeekOn))

	attr, ok := schemeColors[data.Config.ColorScheme]
	if !ok {
		attr = color.FgGreen
	}
	faint := color.New(color.Faint)

	for i, day := range data.Days {
		cell := color.New(attr)
		switch {
		case !day.InMonth:
			cell = faint
		case day.IsToday:
			cell = color.New(attr, color.Bold, color.Underline)
		}
		glyph := intensityGlyphs[clamp(day.Intensity, 0, len(intensityGlyphs)-1)]
		_, _ = cell.Fprintf(p.Out, " %s ", glyph)

		if (i+1)%7 == 0 {
			_, _ = fmt.Fprintln(p.Out)
		}
	}
	_, _ = fmt.Fprintln(p.Out)
}

func weekdayHeader(start domain.WeekStart) string {
	days := []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}
	if start == domain.WeekStartSunday {
		days = []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}
	}
	return strings.Join(days, " ")
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// MonthStats prints the month summary as a two-column table.
func (p *Printer) MonthStats(stats domain.MonthStats) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold("Days in month"), stats.TotalDays)
	tbl.AddRow(bold("Active days"), stats.ActiveDays)
	tbl.AddRow(bold("Completed days"), stats.CompletedDays)
	tbl.AddRow(bold("Average completion"), fmt.Sprintf("%d%%", stats.AverageCompletion))
	tbl.AddRow(bold("Current streak"), stats.CurrentStreak)
	tbl.AddRow(bold("Longest streak"), stats.LongestStreakInMonth)
	_, _ = fmt.Fprintln(p.Out, tbl)
}

// Streaks lists habits with their cached counters.
func (p *Printer) Streaks(habits []*domain.Habit) {
	if len(habits) == 0 {
		_, _ = color.New(color.Faint, color.Italic).Fprintln(p.Out, " none")
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 40
	tbl.AddRow(bold("Habit"), bold("Frequency"), bold("Current"), bold("Longest"), bold("Entries"))
	for _, h := range habits {
		tbl.AddRow(h.Title, h.Frequency, h.CurrentStreak, h.LongestStreak, h.TotalEntries)
	}
	_, _ = fmt.Fprintln(p.Out, tbl)
}

// Summary prints the dashboard card of a habit.
func (p *Printer) Summary(s *domain.HabitSummary) {
	_, _ = color.New(color.Bold).Fprintln(p.Out, s.Habit.Title)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("Streak", fmt.Sprintf("%d (%s)", s.Habit.CurrentStreak, s.StreakState))
	tbl.AddRow("Motivation", s.Motivation)
	tbl.AddRow("Done today", yesNo(s.CompletedToday))
	if s.LastEntry != nil {
		tbl.AddRow("Last entry", s.LastEntry.Date.String())
	}
	tbl.AddRow("Generated", s.GeneratedAt.Format(time.RFC3339))
	_, _ = fmt.Fprintln(p.Out, tbl)
}

func bold(s string) string {
	return color.New(color.Bold).Sprint(s)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
