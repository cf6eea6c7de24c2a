package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/tracking"
)

type EntryService struct {
	repo      domain.HabitEntryRepository
	habitRepo domain.HabitRepository
	tx        domain.Transactor
	streaks   *StreakService
}

func NewEntryService(repo domain.HabitEntryRepository, habitRepo domain.HabitRepository, tx domain.Transactor, streaks *StreakService) *EntryService {
	return &EntryService{
		repo:      repo,
		habitRepo: habitRepo,
		tx:        tx,
		streaks:   streaks,
	}
}

type CreateEntryInput struct {
	HabitID string
	UserID  string
	Date    datekey.Date
	Value   float64
	Note    string
	Mood    domain.Mood
}

// UpdateEntryInput leaves nil fields untouched.
type UpdateEntryInput struct {
	ID      string
	UserID  string
	Date    *datekey.Date
	Value   *float64
	Note    *string
	Mood    *domain.Mood
	Version int
}

type ListEntriesInput struct {
	HabitID string
	UserID  string
	From    datekey.Date
	To      datekey.Date
	Limit   int
	Offset  int
}

// Create stores the entry with its progress and refreshes the habit's
// counters in the same transaction.
func (s *EntryService) Create(ctx context.Context, input CreateEntryInput) (*domain.HabitEntry, error) {
	entry := domain.NewHabitEntry(input.HabitID, input.UserID, input.Date, input.Value)
	entry.Note = strings.TrimSpace(input.Note)
	entry.Mood = input.Mood

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		habit, err := s.ownedHabit(ctx, entry.HabitID, entry.UserID)
		if err != nil {
			return err
		}
		if habit.IsArchived {
			return domain.ErrHabitArchived
		}

		if err := s.ensureDateFree(ctx, habit.ID, entry.Date, ""); err != nil {
			return err
		}

		tracking.ApplyProgress(entry, habit.TargetValue)

		if err := s.repo.Create(ctx, entry); err != nil {
			return err
		}
		if err := s.habitRepo.AdjustTotalEntries(ctx, habit.ID, 1); err != nil {
			return err
		}

		_, err = s.streaks.Recalculate(ctx, habit)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *EntryService) Update(ctx context.Context, input UpdateEntryInput) (*domain.HabitEntry, error) {
	var updated *domain.HabitEntry

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.GetByID(ctx, input.ID, input.UserID)
		if err != nil {
			return err
		}

		if input.Version > 0 && existing.Version != input.Version {
			return fmt.Errorf("%w: client v%d vs server v%d", domain.ErrEntryConflict, input.Version, existing.Version)
		}

		habit, err := s.habitRepo.GetByID(ctx, existing.HabitID)
		if err != nil {
			return err
		}

		if input.Date != nil && *input.Date != existing.Date {
			if err := s.ensureDateFree(ctx, habit.ID, *input.Date, existing.ID); err != nil {
				return err
			}
			existing.Date = *input.Date
		}
		if input.Value != nil {
			existing.Value = *input.Value
		}
		if input.Note != nil {
			existing.Note = strings.TrimSpace(*input.Note)
		}
		if input.Mood != nil {
			existing.Mood = *input.Mood
		}

		if err := existing.Validate(); err != nil {
			return err
		}

		tracking.ApplyProgress(existing, habit.TargetValue)

		if err := s.repo.Update(ctx, existing); err != nil {
			return err
		}

		if _, err := s.streaks.Recalculate(ctx, habit); err != nil {
			return err
		}

		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *EntryService) Delete(ctx context.Context, id string, userID string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		entry, err := s.GetByID(ctx, id, userID)
		if err != nil {
			return err
		}

		if err := s.repo.Delete(ctx, id, userID); err != nil {
			return err
		}
		if err := s.habitRepo.AdjustTotalEntries(ctx, entry.HabitID, -1); err != nil {
			return err
		}

		habit, err := s.habitRepo.GetByID(ctx, entry.HabitID)
		if err != nil {
			return err
		}

		_, err = s.streaks.Recalculate(ctx, habit)
		return err
	})
}

func (s *EntryService) GetByID(ctx context.Context, id string, userID string) (*domain.HabitEntry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return entry, nil
}

// List returns one page of a habit's entries, newest first.
func (s *EntryService) List(ctx context.Context, input ListEntriesInput) (*domain.EntryPage, error) {
	if _, err := s.ownedHabit(ctx, input.HabitID, input.UserID); err != nil {
		return nil, err
	}

	if !input.From.IsZero() && !input.To.IsZero() && input.From.After(input.To) {
		return nil, fmt.Errorf("%w: start date after end date", domain.ErrInvalidDate)
	}

	limit := input.Limit
	switch {
	case limit <= 0:
		limit = domain.DefaultEntryPageSize
	case limit > domain.MaxEntryPageSize:
		limit = domain.MaxEntryPageSize
	}
	offset := max(input.Offset, 0)

	entries, total, err := s.repo.ListPage(ctx, domain.EntryFilter{
		HabitID: input.HabitID,
		From:    input.From,
		To:      input.To,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, err
	}

	return &domain.EntryPage{
		Entries: entries,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+len(entries) < total,
	}, nil
}

func (s *EntryService) GetDelta(ctx context.Context, userID string, since time.Time) ([]*domain.HabitEntry, error) {
	return s.repo.GetChanges(ctx, userID, since)
}

func (s *EntryService) ownedHabit(ctx context.Context, habitID, userID string) (*domain.Habit, error) {
	habit, err := s.habitRepo.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return habit, nil
}

// ensureDateFree fails with ErrEntryDateTaken when another live entry of
// the habit sits on date. exceptID is the entry being moved, if any.
func (s *EntryService) ensureDateFree(ctx context.Context, habitID string, date datekey.Date, exceptID string) error {
	other, err := s.repo.GetByHabitAndDate(ctx, habitID, date)
	switch {
	case errors.Is(err, domain.ErrEntryNotFound):
		return nil
	case err != nil:
		return err
	case other.ID == exceptID:
		return nil
	default:
		return fmt.Errorf("%w: %s", domain.ErrEntryDateTaken, date)
	}
}
