package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
)

var (
	ErrInvalidEntry     = errors.New("invalid habit entry data")
	ErrEntryNoteTooLong = errors.New("entry note is too long (max 500 chars)")
	ErrNegativeValue    = errors.New("value cannot be negative")
	ErrInvalidMood      = errors.New("invalid mood (must be TERRIBLE, BAD, NEUTRAL, GOOD or EXCELLENT)")
)

const MaxNoteLen = 500

type Mood string

const (
	MoodTerrible  Mood = "TERRIBLE"
	MoodBad       Mood = "BAD"
	MoodNeutral   Mood = "NEUTRAL"
	MoodGood      Mood = "GOOD"
	MoodExcellent Mood = "EXCELLENT"
)

func (m Mood) Valid() bool {
	switch m {
	case MoodTerrible, MoodBad, MoodNeutral, MoodGood, MoodExcellent:
		return true
	}
	return false
}

type HabitEntry struct {
	ID      string `json:"id" db:"id"`
	HabitID string `json:"habit_id" db:"habit_id"`
	UserID  string `json:"user_id" db:"user_id"`

	Date  datekey.Date `json:"date" db:"entry_date"`
	Value float64      `json:"value" db:"value"`
	Note  string       `json:"note,omitempty" db:"note"`
	Mood  Mood         `json:"mood,omitempty" db:"mood"`

	ProgressPercentage float64 `json:"progress_percentage" db:"progress_percentage"`
	IsCompleted        bool    `json:"is_completed" db:"is_completed"`

	Version   int        `json:"version" db:"version"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

func NewHabitEntry(habitID, userID string, date datekey.Date, value float64) *HabitEntry {
	now := time.Now().UTC()

	return &HabitEntry{
		ID:      uuid.New().String(),
		HabitID: habitID,
		UserID:  userID,
		Date:    date,
		Value:   value,

		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (e *HabitEntry) Validate() error {
	if strings.TrimSpace(e.HabitID) == "" {
		return fmt.Errorf("%w: habit_id is required", ErrInvalidEntry)
	}
	if strings.TrimSpace(e.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidEntry)
	}
	if e.Value < 0 {
		return ErrNegativeValue
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidEntry)
	}
	if utf8.RuneCountInString(e.Note) > MaxNoteLen {
		return ErrEntryNoteTooLong
	}
	if e.Mood != "" && !e.Mood.Valid() {
		return ErrInvalidMood
	}
	return nil
}

// MoodOrDefault is the mood shown when one is required but none was logged.
func (e *HabitEntry) MoodOrDefault() Mood {
	if e.Mood == "" {
		return MoodNeutral
	}
	return e.Mood
}

// HasActivity reports whether any amount was logged. Streaks are built on
// activity, not on reaching the target.
func (e *HabitEntry) HasActivity() bool {
	return e.Value > 0
}

type CompletionStatus string

const (
	StatusCompleted  CompletionStatus = "completed"
	StatusInProgress CompletionStatus = "in_progress"
	StatusNotStarted CompletionStatus = "not_started"
)

func (e *HabitEntry) CompletionStatus() CompletionStatus {
	switch {
	case e.IsCompleted:
		return StatusCompleted
	case e.ProgressPercentage == 0:
		return StatusNotStarted
	default:
		return StatusInProgress
	}
}
