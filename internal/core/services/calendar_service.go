package services

import (
	"context"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/tracking"
)

type CalendarService struct {
	habitRepo domain.HabitRepository
	entryRepo domain.HabitEntryRepository
	now       func() time.Time
}

func NewCalendarService(habitRepo domain.HabitRepository, entryRepo domain.HabitEntryRepository) *CalendarService {
	return &CalendarService{
		habitRepo: habitRepo,
		entryRepo: entryRepo,
		now:       time.Now,
	}
}

type CalendarInput struct {
	HabitID string
	UserID  string
	Year    int
	Month   time.Month
	Config  domain.CalendarConfig
}

// Get loads the entries visible in the month's grid and builds the heat map
// with its month statistics.
func (s *CalendarService) Get(ctx context.Context, input CalendarInput) (*domain.CalendarData, error) {
	cfg := input.Config
	if cfg.Layout == "" {
		cfg.Layout = domain.GridFixed
	}

	from, to, err := tracking.CalendarWindow(input.Year, input.Month, cfg)
	if err != nil {
		return nil, err
	}

	habit, err := s.habitRepo.GetByID(ctx, input.HabitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != input.UserID {
		return nil, domain.ErrHabitNotFound
	}

	entries, err := s.entryRepo.ListByHabitIDWithRange(ctx, habit.ID, from, to)
	if err != nil {
		return nil, err
	}

	return tracking.BuildCalendarData(habit.ID, input.Year, input.Month, entries, cfg, datekey.FromTime(s.now()))
}
