package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrHabitConflict = errors.New("habit version conflict")
	ErrUnauthorized  = errors.New("unauthorized")
)

type HabitRepository interface {
	// Create persists a new habit definition in the storage.
	Create(ctx context.Context, habit *Habit) error

	// GetByID retrieves a habit by its unique identifier.
	GetByID(ctx context.Context, id string) (*Habit, error)

	// ListByUserID retrieves all habits associated with a specific user.
	ListByUserID(ctx context.Context, userID string) ([]*Habit, error)

	// ListAll retrieves every live habit. Used by background sweeps.
	ListAll(ctx context.Context) ([]*Habit, error)

	// Update modifies the state of an existing habit.
	// The stored version must match habit.Version; on success it is incremented.
	Update(ctx context.Context, habit *Habit) error

	// Delete soft-deletes a habit so the deletion reaches syncing clients.
	Delete(ctx context.Context, id string) error

	// GetChanges [SYNC] Returns only the deltas (changes) occurring after a specific date.
	GetChanges(ctx context.Context, userID string, since time.Time) ([]*Habit, error)

	// UpdateStreaks overwrites the cached streak counters without touching the version.
	UpdateStreaks(ctx context.Context, id string, current, longest int) error

	// AdjustTotalEntries adds delta (usually +1 or -1) to the entry counter.
	AdjustTotalEntries(ctx context.Context, id string, delta int) error
}

// Transactor runs fn inside a single storage transaction. Repositories called
// with the ctx handed to fn take part in that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
