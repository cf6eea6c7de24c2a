package services

import (
	"context"
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/tracking"
)

type StatsService struct {
	habitRepo domain.HabitRepository
	entryRepo domain.HabitEntryRepository
	now       func() time.Time
}

func NewStatsService(habitRepo domain.HabitRepository, entryRepo domain.HabitEntryRepository) *StatsService {
	return &StatsService{
		habitRepo: habitRepo,
		entryRepo: entryRepo,
		now:       time.Now,
	}
}

// GetWeeklyStats summarizes every active habit of the user over the range.
// A missing end defaults to today and a missing start to six days before
// the end. A day counts as completed when its entry met the target.
func (s *StatsService) GetWeeklyStats(ctx context.Context, input domain.StatsInput) (*domain.WeeklyStats, error) {
	endDate := input.EndDate
	if endDate.IsZero() {
		endDate = datekey.FromTime(s.now())
	}
	startDate := input.StartDate
	if startDate.IsZero() {
		startDate = endDate.AddDays(-6)
	}

	if startDate.After(endDate) || datekey.DaysBetween(startDate, endDate) >= domain.MaxStatsDays {
		return nil, fmt.Errorf("%w: %s..%s", domain.ErrInvalidStatsRange, startDate, endDate)
	}

	habits, err := s.habitRepo.ListByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	entries, err := s.entryRepo.ListByUserIDAndDateRange(ctx, input.UserID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	entriesMap := make(map[string]map[datekey.Date]*domain.HabitEntry)
	for _, e := range entries {
		if _, exists := entriesMap[e.HabitID]; !exists {
			entriesMap[e.HabitID] = make(map[datekey.Date]*domain.HabitEntry)
		}
		entriesMap[e.HabitID][e.Date] = e
	}

	stats := &domain.WeeklyStats{
		StartDate:  startDate.String(),
		EndDate:    endDate.String(),
		HabitStats: make([]domain.HabitStat, 0, len(habits)),
	}

	totalDaysPossible := 0
	totalDaysCompleted := 0

	for _, h := range habits {
		if h.IsArchived {
			continue
		}

		hStat := domain.HabitStat{
			HabitID:       h.ID,
			HabitTitle:    h.Title,
			Color:         h.Color,
			Icon:          h.Icon,
			TargetValue:   h.TargetValue,
			Unit:          h.Unit,
			DailyProgress: make([]float64, 0),
			CurrentStreak: h.CurrentStreak,
			LongestStreak: h.LongestStreak,
		}

		daysInPeriod := 0
		for day := startDate; !day.After(endDate); day = day.AddDays(1) {
			val := 0.0
			if e, ok := entriesMap[h.ID][day]; ok {
				val = e.Value
			}

			hStat.TotalValue += val
			hStat.DailyProgress = append(hStat.DailyProgress, val)

			if val > 0 {
				hStat.DaysActive++
			}
			if tracking.ComputeEntryProgress(val, h.TargetValue).IsCompleted {
				hStat.DaysCompleted++
			}

			daysInPeriod++
		}

		if daysInPeriod > 0 {
			hStat.CompletionRate = float64(hStat.DaysCompleted) / float64(daysInPeriod) * 100
		}

		totalDaysPossible += daysInPeriod
		totalDaysCompleted += hStat.DaysCompleted
		stats.HabitStats = append(stats.HabitStats, hStat)
	}

	stats.TotalHabits = len(stats.HabitStats)
	if totalDaysPossible > 0 {
		stats.OverallRate = float64(totalDaysCompleted) / float64(totalDaysPossible) * 100
	}

	return stats, nil
}
