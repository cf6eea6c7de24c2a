package tracking

import (
	"math"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

// ComputeMonthStats reduces a grid to the days of month. Lead and trail
// days of the neighbouring months are left out, so in-month streaks stop at
// the month boundary.
func ComputeMonthStats(days []domain.CalendarDay, month time.Month) domain.MonthStats {
	var inMonth []domain.CalendarDay
	for _, d := range days {
		if d.Date.Month == month {
			inMonth = append(inMonth, d)
		}
	}

	stats := domain.MonthStats{TotalDays: len(inMonth)}
	if len(inMonth) == 0 {
		return stats
	}

	rateSum := 0
	for _, d := range inMonth {
		if d.HasEntries() {
			stats.ActiveDays++
		}
		if d.IsCompleted {
			stats.CompletedDays++
		}
		rateSum += d.CompletionRate
	}
	stats.AverageCompletion = int(math.Round(float64(rateSum) / float64(len(inMonth))))

	for i := len(inMonth) - 1; i >= 0 && inMonth[i].CompletionRate > 0; i-- {
		stats.CurrentStreak++
	}

	run := 0
	for _, d := range inMonth {
		if d.CompletionRate > 0 {
			run++
		} else {
			run = 0
		}
		if run > stats.LongestStreakInMonth {
			stats.LongestStreakInMonth = run
		}
	}

	return stats
}

// BuildCalendarData generates the grid of a month and its statistics.
func BuildCalendarData(habitID string, year int, month time.Month, entries []*domain.HabitEntry, cfg domain.CalendarConfig, today datekey.Date) (*domain.CalendarData, error) {
	if cfg.Layout == "" {
		cfg.Layout = domain.GridFixed
	}

	days, err := GenerateCalendarAt(year, month, entries, cfg, today)
	if err != nil {
		return nil, err
	}

	return &domain.CalendarData{
		HabitID: habitID,
		Year:    year,
		Month:   month,
		Days:    days,
		Stats:   ComputeMonthStats(days, month),
		Config:  cfg,
	}, nil
}
