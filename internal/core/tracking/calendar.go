package tracking

import (
	"fmt"
	"math"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

const (
	FixedGridDays = 35
	maxYear       = 9999
)

// GenerateCalendar builds the heat-map grid of a month, marking today with
// the current UTC day.
func GenerateCalendar(year int, month time.Month, entries []*domain.HabitEntry, cfg domain.CalendarConfig) ([]domain.CalendarDay, error) {
	return GenerateCalendarAt(year, month, entries, cfg, datekey.Today())
}

// GenerateCalendarAt builds the grid starting on the week boundary chosen
// by cfg.StartWeekOn. The fixed layout always returns 35 days and drops
// the tail of months that need a sixth row.
func GenerateCalendarAt(year int, month time.Month, entries []*domain.HabitEntry, cfg domain.CalendarConfig, today datekey.Date) ([]domain.CalendarDay, error) {
	start, size, err := gridBounds(year, month, cfg)
	if err != nil {
		return nil, err
	}

	grouped, err := GroupEntriesByDate(entries)
	if err != nil {
		return nil, err
	}

	days := make([]domain.CalendarDay, size)
	for i := range days {
		date := start.AddDays(i)
		days[i] = aggregateDay(date, grouped[date], cfg)
		days[i].InMonth = date.Year == year && date.Month == month
		days[i].IsToday = date == today
	}

	if cfg.ShowStreaks {
		markStreaks(days)
	}

	return days, nil
}

// CalendarWindow returns the first and last day the grid of a month shows,
// so callers can load only the entries they need.
func CalendarWindow(year int, month time.Month, cfg domain.CalendarConfig) (datekey.Date, datekey.Date, error) {
	start, size, err := gridBounds(year, month, cfg)
	if err != nil {
		return datekey.Date{}, datekey.Date{}, err
	}
	return start, start.AddDays(size - 1), nil
}

func gridBounds(year int, month time.Month, cfg domain.CalendarConfig) (datekey.Date, int, error) {
	if year < 1 || year > maxYear || month < time.January || month > time.December {
		return datekey.Date{}, 0, fmt.Errorf("%w: %d-%02d", domain.ErrInvalidCalendarRange, year, int(month))
	}
	if err := cfg.Validate(); err != nil {
		return datekey.Date{}, 0, err
	}

	first := datekey.New(year, month, 1)
	offset := leadingDays(first.Weekday(), cfg.StartWeekOn)
	return first.AddDays(-offset), gridSize(cfg.Layout, offset, daysIn(year, month)), nil
}

// GroupEntriesByDate keys entries by their calendar day. Several entries on
// one day are kept together.
func GroupEntriesByDate(entries []*domain.HabitEntry) (map[datekey.Date][]*domain.HabitEntry, error) {
	grouped := make(map[datekey.Date][]*domain.HabitEntry, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		if e.Date.IsZero() {
			return nil, fmt.Errorf("entry %s: %w", e.ID, domain.ErrInvalidDate)
		}
		grouped[e.Date] = append(grouped[e.Date], e)
	}
	return grouped, nil
}

// CalculateIntensity buckets a completion rate into the 0..4 heat-map
// scale. Only a full 100 reaches the top bucket.
func CalculateIntensity(rate float64) int {
	switch {
	case rate <= 0:
		return 0
	case rate < 25:
		return 1
	case rate < 50:
		return 2
	case rate < 100:
		return 3
	default:
		return 4
	}
}

func aggregateDay(date datekey.Date, entries []*domain.HabitEntry, cfg domain.CalendarConfig) domain.CalendarDay {
	day := domain.CalendarDay{
		Date:    date,
		Entries: entries,
	}
	if len(entries) == 0 {
		day.Entries = []*domain.HabitEntry{}
		return day
	}

	var progressSum float64
	allCompleted := true
	for _, e := range entries {
		day.TotalValue += e.Value
		progressSum += e.ProgressPercentage
		if !e.IsCompleted {
			allCompleted = false
		}
	}

	mean := progressSum / float64(len(entries))
	day.CompletionRate = int(math.Round(mean))
	// Completion is a per-entry AND and intensity a rate bucket; at the
	// boundary they can disagree.
	day.IsCompleted = allCompleted
	day.Intensity = CalculateIntensity(mean)

	if cfg.ShowMood {
		day.Mood = dayMood(entries)
	}

	return day
}

// dayMood is set only when the logged moods of the day agree.
func dayMood(entries []*domain.HabitEntry) domain.Mood {
	var mood domain.Mood
	for _, e := range entries {
		if e.Mood == "" {
			continue
		}
		if mood != "" && mood != e.Mood {
			return ""
		}
		mood = e.Mood
	}
	return mood
}

// markStreaks flags every day whose completion rate is positive, walking
// the grid in order.
func markStreaks(days []domain.CalendarDay) {
	run := 0
	for i := range days {
		if days[i].CompletionRate > 0 {
			run++
		} else {
			run = 0
		}
		days[i].Streak = run > 0
	}
}

func leadingDays(first time.Weekday, start domain.WeekStart) int {
	if start == domain.WeekStartSunday {
		return int(first)
	}
	return mondayOffset(first)
}

func gridSize(layout domain.GridLayout, offset, monthDays int) int {
	if layout != domain.GridDynamic {
		return FixedGridDays
	}
	weeks := (offset + monthDays + 6) / 7
	return weeks * 7
}

func daysIn(year int, month time.Month) int {
	return datekey.New(year, month+1, 0).Day
}
