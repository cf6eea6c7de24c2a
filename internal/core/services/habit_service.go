package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/tracking"
)

type HabitService struct {
	repo      domain.HabitRepository
	entryRepo domain.HabitEntryRepository
	tx        domain.Transactor
	streaks   *StreakService
	now       func() time.Time
}

func NewHabitService(repo domain.HabitRepository, entryRepo domain.HabitEntryRepository, tx domain.Transactor, streaks *StreakService) *HabitService {
	return &HabitService{
		repo:      repo,
		entryRepo: entryRepo,
		tx:        tx,
		streaks:   streaks,
		now:       time.Now,
	}
}

type CreateHabitInput struct {
	UserID       string
	Title        string
	Description  string
	Color        string
	Icon         string
	Frequency    string
	Weekdays     []int
	TargetValue  *float64
	Unit         string
	ReminderTime string
	StartDate    *time.Time
	EndDate      *time.Time
}

// UpdateHabitInput follows merge semantics: empty strings and nil values
// keep what is stored. ClearTarget and ClearReminder remove those fields.
type UpdateHabitInput struct {
	ID            string
	UserID        string
	Title         string
	Description   string
	Color         string
	Icon          string
	Frequency     string
	Weekdays      []int
	TargetValue   *float64
	ClearTarget   bool
	Unit          string
	ReminderTime  string
	ClearReminder bool
	StartDate     *time.Time
	EndDate       *time.Time
	SortOrder     *int
	Version       int
}

func mergeString(newVal, oldVal string) string {
	if newVal == "" {
		return oldVal
	}
	return newVal
}

func (s *HabitService) Create(ctx context.Context, input CreateHabitInput) (*domain.Habit, error) {
	habit, err := domain.NewHabit(input.UserID, domain.HabitParams{
		Title:        input.Title,
		Description:  input.Description,
		Icon:         input.Icon,
		Color:        input.Color,
		Frequency:    domain.Frequency(input.Frequency),
		Weekdays:     input.Weekdays,
		TargetValue:  input.TargetValue,
		Unit:         input.Unit,
		ReminderTime: input.ReminderTime,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, habit); err != nil {
		return nil, err
	}

	return habit, nil
}

func (s *HabitService) GetByID(ctx context.Context, id string, userID string) (*domain.Habit, error) {
	habit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrHabitNotFound
	}
	return habit, nil
}

func (s *HabitService) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *HabitService) GetDelta(ctx context.Context, userID string, lastSync time.Time) ([]*domain.Habit, error) {
	return s.repo.GetChanges(ctx, userID, lastSync)
}

// Update applies the changes. When the target changes every entry's
// progress is derived again; when the schedule changes the streak counters
// are recomputed. Both happen in the habit's write transaction.
func (s *HabitService) Update(ctx context.Context, input UpdateHabitInput) (*domain.Habit, error) {
	var updated *domain.Habit

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		habit, err := s.GetByID(ctx, input.ID, input.UserID)
		if err != nil {
			return err
		}

		if input.Version > 0 && habit.Version != input.Version {
			return fmt.Errorf("%w: client v%d vs server v%d", domain.ErrHabitConflict, input.Version, habit.Version)
		}

		params := s.mergeParams(habit, input)
		targetChanged := !habit.SameTarget(params.TargetValue)
		before := tracking.ScheduleOf(habit)

		if err := habit.Update(params); err != nil {
			return err
		}
		after := tracking.ScheduleOf(habit)
		scheduleChanged := before.Frequency != after.Frequency || !slices.Equal(before.Weekdays, after.Weekdays)
		if input.SortOrder != nil {
			if err := habit.ChangePosition(*input.SortOrder); err != nil {
				return err
			}
		}

		if err := s.repo.Update(ctx, habit); err != nil {
			return err
		}

		if targetChanged {
			if err := s.refreshProgress(ctx, habit); err != nil {
				return err
			}
		}
		if scheduleChanged {
			if _, err := s.streaks.Recalculate(ctx, habit); err != nil {
				return err
			}
		}

		updated = habit
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *HabitService) mergeParams(habit *domain.Habit, input UpdateHabitInput) domain.HabitParams {
	target := habit.TargetValue
	if input.TargetValue != nil {
		target = input.TargetValue
	}
	if input.ClearTarget {
		target = nil
	}

	reminder := input.ReminderTime
	if reminder == "" && habit.ReminderTime != nil {
		reminder = *habit.ReminderTime
	}
	if input.ClearReminder {
		reminder = ""
	}

	weekdays := habit.Weekdays
	if input.Weekdays != nil {
		weekdays = input.Weekdays
	}

	endDate := habit.EndDate
	if input.EndDate != nil {
		endDate = input.EndDate
	}

	return domain.HabitParams{
		Title:        mergeString(input.Title, habit.Title),
		Description:  mergeString(input.Description, habit.Description),
		Icon:         mergeString(input.Icon, habit.Icon),
		Color:        mergeString(input.Color, habit.Color),
		Frequency:    domain.Frequency(mergeString(input.Frequency, string(habit.Frequency))),
		Weekdays:     weekdays,
		TargetValue:  target,
		Unit:         mergeString(input.Unit, habit.Unit),
		ReminderTime: reminder,
		StartDate:    input.StartDate,
		EndDate:      endDate,
	}
}

func (s *HabitService) refreshProgress(ctx context.Context, habit *domain.Habit) error {
	entries, err := s.entryRepo.ListByHabitID(ctx, habit.ID)
	if err != nil {
		return err
	}

	for _, e := range entries {
		tracking.ApplyProgress(e, habit.TargetValue)
		if err := s.entryRepo.UpdateProgress(ctx, e); err != nil {
			return fmt.Errorf("habit service: failed to refresh progress of entry %s: %w", e.ID, err)
		}
	}
	return nil
}

func (s *HabitService) Archive(ctx context.Context, id string, userID string) (*domain.Habit, error) {
	return s.toggleArchive(ctx, id, userID, true)
}

func (s *HabitService) Restore(ctx context.Context, id string, userID string) (*domain.Habit, error) {
	return s.toggleArchive(ctx, id, userID, false)
}

func (s *HabitService) toggleArchive(ctx context.Context, id string, userID string, archive bool) (*domain.Habit, error) {
	habit, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if habit.IsArchived == archive {
		return habit, nil
	}

	if archive {
		habit.Archive()
	} else {
		habit.Restore()
	}

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}
	return habit, nil
}

func (s *HabitService) Delete(ctx context.Context, id string, userID string) error {
	if _, err := s.GetByID(ctx, id, userID); err != nil {
		return err
	}

	return s.repo.Delete(ctx, id)
}

// Summary builds the dashboard card of a habit.
func (s *HabitService) Summary(ctx context.Context, id string, userID string) (*domain.HabitSummary, error) {
	habit, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	entries, err := s.entryRepo.ListByHabitID(ctx, habit.ID)
	if err != nil {
		return nil, err
	}

	return tracking.Summarize(habit, entries, s.now()), nil
}
