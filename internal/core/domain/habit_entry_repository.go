package domain

import (
	"context"
	"errors"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
)

var (
	ErrEntryNotFound  = errors.New("habit entry not found")
	ErrEntryConflict  = errors.New("habit entry version conflict")
	ErrEntryDateTaken = errors.New("an entry for this date already exists")
)

const (
	DefaultEntryPageSize = 30
	MaxEntryPageSize     = 100
)

// EntryFilter selects a page of a habit's entries, newest first.
// Zero From/To leave that side of the range open.
type EntryFilter struct {
	HabitID string
	From    datekey.Date
	To      datekey.Date
	Limit   int
	Offset  int
}

type EntryPage struct {
	Entries []*HabitEntry `json:"entries"`
	Total   int           `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
	HasMore bool          `json:"has_more"`
}

type HabitEntryRepository interface {
	// Create persists a new entry to the storage.
	// A second live entry for the same habit and date fails with ErrEntryDateTaken.
	Create(ctx context.Context, entry *HabitEntry) error

	// Update modifies an existing entry.
	// Implementations must handle Optimistic Locking (version check) to prevent data races.
	Update(ctx context.Context, entry *HabitEntry) error

	// UpdateProgress rewrites only the derived progress fields of an entry.
	UpdateProgress(ctx context.Context, entry *HabitEntry) error

	// Delete performs a Soft Delete on the entry.
	// It requires userID to ensure the user actually owns the entry being deleted.
	Delete(ctx context.Context, id string, userID string) error

	// GetByID retrieves a single active (non-deleted) entry by its ID.
	GetByID(ctx context.Context, id string) (*HabitEntry, error)

	// GetByHabitAndDate retrieves the live entry of a habit on a given day.
	GetByHabitAndDate(ctx context.Context, habitID string, date datekey.Date) (*HabitEntry, error)

	// ListByHabitID retrieves every live entry of a habit, newest first.
	// Streak recomputation needs the full history.
	ListByHabitID(ctx context.Context, habitID string) ([]*HabitEntry, error)

	// ListByHabitIDWithRange retrieves entries for a specific habit within a given date range.
	// This is optimized for UI views like calendars or charts.
	ListByHabitIDWithRange(ctx context.Context, habitID string, from, to datekey.Date) ([]*HabitEntry, error)

	// ListPage returns one page of entries plus the total count for the filter.
	ListPage(ctx context.Context, filter EntryFilter) ([]*HabitEntry, int, error)

	// ListByUserIDAndDateRange retrieves all of a user's entries in a date range.
	ListByUserIDAndDateRange(ctx context.Context, userID string, from, to datekey.Date) ([]*HabitEntry, error)

	// GetChanges [SYNC ENGINE] Returns all changes (creations, updates, soft-deletes)
	// that occurred after the 'since' timestamp. Crucial for offline-first synchronization.
	GetChanges(ctx context.Context, userID string, since time.Time) ([]*HabitEntry, error)
}
