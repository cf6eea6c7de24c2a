package tracking

import (
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

// LatestEntry returns the entry with the most recent date.
func LatestEntry(entries []*domain.HabitEntry) *domain.HabitEntry {
	var latest *domain.HabitEntry
	for _, e := range entries {
		if e == nil {
			continue
		}
		if latest == nil || e.Date.After(latest.Date) {
			latest = e
		}
	}
	return latest
}

func StreakStateFor(currentStreak int, last *domain.HabitEntry, now time.Time) domain.StreakState {
	if currentStreak == 0 {
		return domain.StreakNone
	}

	active := last != nil && last.HasActivity()
	switch {
	case active && datekey.IsToday(last.Date, now):
		return domain.StreakActiveToday
	case active && datekey.IsYesterday(last.Date, now):
		return domain.StreakContinueToday
	default:
		return domain.StreakBroken
	}
}

func MotivationFor(currentStreak int) domain.MotivationTier {
	switch {
	case currentStreak <= 0:
		return domain.TierStart
	case currentStreak == 1:
		return domain.TierSeedling
	case currentStreak < 7:
		return domain.TierMomentum
	case currentStreak < 14:
		return domain.TierFirstWeek
	case currentStreak < 21:
		return domain.TierForming
	case currentStreak < 30:
		return domain.TierAlmost
	case currentStreak < 100:
		return domain.TierMaster
	default:
		return domain.TierLegend
	}
}

// Summarize builds the dashboard card of a habit from its entries.
func Summarize(h *domain.Habit, entries []*domain.HabitEntry, now time.Time) *domain.HabitSummary {
	today := datekey.FromTime(now)
	summary := &domain.HabitSummary{
		Habit:       h,
		LastEntry:   LatestEntry(entries),
		StreakState: domain.StreakNone,
		Motivation:  MotivationFor(h.CurrentStreak),
		GeneratedAt: now.UTC(),
	}

	for _, e := range entries {
		if e == nil || e.Date != today {
			continue
		}
		if e.HasActivity() {
			summary.CompletedToday = true
		}
		if e.IsCompleted {
			summary.FullyCompletedToday = true
		}
	}

	summary.StreakState = StreakStateFor(h.CurrentStreak, summary.LastEntry, now)
	return summary
}
