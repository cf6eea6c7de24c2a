package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

func TestStatsService_GetWeeklyStats(t *testing.T) {
	start := datekey.MustParse("2025-06-09")
	end := datekey.MustParse("2025-06-15")

	water := &domain.Habit{ID: "water", UserID: "u-1", Title: "Water", TargetValue: ptr(2000.0), CurrentStreak: 2}
	journal := &domain.Habit{ID: "journal", UserID: "u-1", Title: "Journal"}
	archived := &domain.Habit{ID: "old", UserID: "u-1", Title: "Old", IsArchived: true}

	entry := func(habitID, date string, value float64) *domain.HabitEntry {
		return domain.NewHabitEntry(habitID, "u-1", datekey.MustParse(date), value)
	}

	habitRepo := new(MockHabitRepo)
	entryRepo := new(MockHabitEntryRepo)
	service := services.NewStatsService(habitRepo, entryRepo)

	habitRepo.On("ListByUserID", mock.Anything, "u-1").Return([]*domain.Habit{water, journal, archived}, nil)
	entryRepo.On("ListByUserIDAndDateRange", mock.Anything, "u-1", start, end).Return([]*domain.HabitEntry{
		entry("water", "2025-06-09", 2000),
		entry("water", "2025-06-10", 1500),
		entry("water", "2025-06-15", 2500),
		entry("journal", "2025-06-12", 1),
	}, nil)

	stats, err := service.GetWeeklyStats(context.Background(), domain.StatsInput{UserID: "u-1", StartDate: start, EndDate: end})
	require.NoError(t, err)

	assert.Equal(t, "2025-06-09", stats.StartDate)
	assert.Equal(t, "2025-06-15", stats.EndDate)
	assert.Equal(t, 2, stats.TotalHabits, "archived habits are left out")
	require.Len(t, stats.HabitStats, 2)

	w := stats.HabitStats[0]
	assert.Equal(t, "water", w.HabitID)
	assert.Equal(t, 6000.0, w.TotalValue)
	assert.Equal(t, 2, w.DaysCompleted)
	assert.Equal(t, 3, w.DaysActive)
	assert.Len(t, w.DailyProgress, 7)
	assert.Equal(t, 1500.0, w.DailyProgress[1])
	assert.InDelta(t, 200.0/7, w.CompletionRate, 1e-9)
	assert.Equal(t, 2, w.CurrentStreak)

	j := stats.HabitStats[1]
	assert.Equal(t, 1, j.DaysActive)
	assert.Zero(t, j.DaysCompleted, "no target means nothing completes")

	assert.InDelta(t, 200.0/14, stats.OverallRate, 1e-9)
}

func TestStatsService_Range(t *testing.T) {
	habitRepo := new(MockHabitRepo)
	entryRepo := new(MockHabitEntryRepo)
	service := services.NewStatsService(habitRepo, entryRepo)

	t.Run("Defaults to the last seven days", func(t *testing.T) {
		today := datekey.Today()
		habitRepo.On("ListByUserID", mock.Anything, "u-1").Return([]*domain.Habit{}, nil)
		entryRepo.On("ListByUserIDAndDateRange", mock.Anything, "u-1", today.AddDays(-6), today).Return([]*domain.HabitEntry{}, nil)

		stats, err := service.GetWeeklyStats(context.Background(), domain.StatsInput{UserID: "u-1"})
		require.NoError(t, err)
		assert.Equal(t, today.String(), stats.EndDate)
		assert.Zero(t, stats.OverallRate)
	})

	t.Run("Inverted range", func(t *testing.T) {
		_, err := service.GetWeeklyStats(context.Background(), domain.StatsInput{
			UserID:    "u-1",
			StartDate: datekey.MustParse("2025-06-15"),
			EndDate:   datekey.MustParse("2025-06-01"),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidStatsRange)
	})

	t.Run("Too long", func(t *testing.T) {
		_, err := service.GetWeeklyStats(context.Background(), domain.StatsInput{
			UserID:    "u-1",
			StartDate: datekey.MustParse("2024-01-01"),
			EndDate:   datekey.MustParse("2025-06-01"),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidStatsRange)
	})
}
