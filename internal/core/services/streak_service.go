package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/tracking"
)

// StreakService keeps the cached streak counters of habits in line with
// their entries. Counters are always recomputed from the full history.
type StreakService struct {
	habitRepo domain.HabitRepository
	entryRepo domain.HabitEntryRepository
	now       func() time.Time
}

func NewStreakService(habitRepo domain.HabitRepository, entryRepo domain.HabitEntryRepository) *StreakService {
	return &StreakService{
		habitRepo: habitRepo,
		entryRepo: entryRepo,
		now:       time.Now,
	}
}

// Recalculate recomputes the counters of habit and writes them back when
// they changed. The habit is updated in place.
func (s *StreakService) Recalculate(ctx context.Context, habit *domain.Habit) (bool, error) {
	entries, err := s.entryRepo.ListByHabitID(ctx, habit.ID)
	if err != nil {
		return false, fmt.Errorf("streak service: failed to load entries of %s: %w", habit.ID, err)
	}

	streaks, err := tracking.ComputeStreaks(entries, tracking.ScheduleOf(habit), datekey.FromTime(s.now()))
	if err != nil {
		return false, fmt.Errorf("streak service: habit %s: %w", habit.ID, err)
	}

	if habit.CurrentStreak == streaks.Current && habit.LongestStreak == streaks.Longest {
		return false, nil
	}

	if err := s.habitRepo.UpdateStreaks(ctx, habit.ID, streaks.Current, streaks.Longest); err != nil {
		return false, err
	}
	habit.UpdateStreak(streaks.Current, streaks.Longest)

	return true, nil
}

func (s *StreakService) RecalculateHabit(ctx context.Context, habitID, userID string) (*domain.Habit, error) {
	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrHabitNotFound
	}

	if _, err := s.Recalculate(ctx, habit); err != nil {
		return nil, err
	}
	return habit, nil
}

// RecalculateUser refreshes every habit of a user and returns how many
// counters changed.
func (s *StreakService) RecalculateUser(ctx context.Context, userID string) (int, error) {
	habits, err := s.habitRepo.ListByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.recalculateMany(ctx, habits)
}

func (s *StreakService) RecalculateAll(ctx context.Context) (int, error) {
	habits, err := s.habitRepo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	return s.recalculateMany(ctx, habits)
}

func (s *StreakService) recalculateMany(ctx context.Context, habits []*domain.Habit) (int, error) {
	updated := 0
	for _, h := range habits {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		changed, err := s.Recalculate(ctx, h)
		if err != nil {
			log.Printf("[STREAK] skipping habit %s: %v", h.ID, err)
			continue
		}
		if changed {
			log.Printf("[STREAK] %s: current=%d longest=%d", h.ID, h.CurrentStreak, h.LongestStreak)
			updated++
		}
	}
	return updated, nil
}
