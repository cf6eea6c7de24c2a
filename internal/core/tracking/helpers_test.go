package tracking_test

import (
	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/tracking"
)

func ptr(v float64) *float64 { return &v }

// logEntry builds a stored entry the way the write path does, with its
// progress already derived from target.
func logEntry(date string, value float64, target *float64) *domain.HabitEntry {
	e := domain.NewHabitEntry("h-1", "u-1", datekey.MustParse(date), value)
	e.ID = "e-" + date
	tracking.ApplyProgress(e, target)
	return e
}

func onDays(today datekey.Date, value float64, daysAgo ...int) []*domain.HabitEntry {
	entries := make([]*domain.HabitEntry, 0, len(daysAgo))
	for _, n := range daysAgo {
		entries = append(entries, logEntry(today.AddDays(-n).String(), value, nil))
	}
	return entries
}
