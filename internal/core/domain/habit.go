package domain

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrHabitTitleEmpty    = errors.New("habit title cannot be empty")
	ErrHabitTitleTooLong  = errors.New("habit title is too long (max 100 chars)")
	ErrHabitDescTooLong   = errors.New("habit description is too long (max 500 chars)")
	ErrHabitInvalidUserID = errors.New("invalid user id")
	ErrInvalidColor       = errors.New("invalid color format (must be #RRGGBB)")
	ErrInvalidWeekdays    = errors.New("invalid weekdays (must be 0-6)")
	ErrInvalidTarget      = errors.New("target value must be positive")
	ErrHabitArchived      = errors.New("cannot update an archived habit")
	ErrInvalidFrequency   = errors.New("invalid frequency (must be DAILY, WEEKLY, MONTHLY or CUSTOM)")
	ErrInvalidUnit        = errors.New("invalid unit")
	ErrInvalidReminder    = errors.New("invalid reminder format (must be HH:MM 24h)")
	ErrInvalidPeriod      = errors.New("end date cannot be before start date")
)

var colorRegex = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
var reminderRegex = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyCustom  Frequency = "CUSTOM"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyCustom:
		return true
	}
	return false
}

const (
	UnitCount      = "count"
	UnitMinutes    = "minutes"
	UnitHours      = "hours"
	UnitDays       = "days"
	UnitMonths     = "months"
	UnitMeters     = "meters"
	UnitKilometers = "kilometers"
	UnitItems      = "items"
	UnitPercent    = "percent"
	UnitOther      = "other"
)

var validUnits = map[string]bool{
	UnitCount: true, UnitMinutes: true, UnitHours: true, UnitDays: true, UnitMonths: true,
	UnitMeters: true, UnitKilometers: true, UnitItems: true, UnitPercent: true, UnitOther: true,
}

const (
	DefaultIcon = "default_icon"
	MaxTitleLen = 100
	MaxDescLen  = 500
)

type Habit struct {
	ID           string     `json:"id" db:"id"`
	UserID       string     `json:"user_id" db:"user_id"`
	Title        string     `json:"title" db:"title"`
	Description  string     `json:"description,omitempty" db:"description"`
	Icon         string     `json:"icon" db:"icon"`
	Color        string     `json:"color" db:"color"`
	SortOrder    int        `json:"sort_order" db:"sort_order"`
	Frequency    Frequency  `json:"frequency" db:"frequency"`
	Weekdays     []int      `json:"weekdays,omitempty" db:"-"`
	TargetValue  *float64   `json:"target_value,omitempty" db:"target_value"`
	Unit         string     `json:"unit,omitempty" db:"unit"`
	ReminderTime *string    `json:"reminder_time,omitempty" db:"reminder_time"`
	StartDate    time.Time  `json:"start_date" db:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty" db:"end_date"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	IsArchived   bool       `json:"is_archived" db:"is_archived"`

	CurrentStreak int `json:"current_streak" db:"current_streak"`
	LongestStreak int `json:"longest_streak" db:"longest_streak"`
	TotalEntries  int `json:"total_entries" db:"total_entries"`

	Version   int        `json:"version" db:"version"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// HabitParams carries the user-editable part of a habit.
type HabitParams struct {
	Title        string
	Description  string
	Icon         string
	Color        string
	Frequency    Frequency
	Weekdays     []int
	TargetValue  *float64
	Unit         string
	ReminderTime string
	StartDate    *time.Time
	EndDate      *time.Time
}

func normalizeWeekdays(days []int) []int {
	if len(days) == 0 {
		return nil
	}

	uniqueMap := make(map[int]bool)
	var uniqueDays []int
	for _, d := range days {
		if !uniqueMap[d] {
			uniqueMap[d] = true
			uniqueDays = append(uniqueDays, d)
		}
	}

	sort.Ints(uniqueDays)
	return uniqueDays
}

func (p *HabitParams) validateAndNormalize() error {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)

	if p.Title == "" {
		return ErrHabitTitleEmpty
	}
	if len(p.Title) > MaxTitleLen {
		return ErrHabitTitleTooLong
	}
	if len(p.Description) > MaxDescLen {
		return ErrHabitDescTooLong
	}

	if p.Frequency == "" {
		p.Frequency = FrequencyDaily
	}
	if !p.Frequency.Valid() {
		return ErrInvalidFrequency
	}

	if p.TargetValue != nil && *p.TargetValue <= 0 {
		return ErrInvalidTarget
	}

	if p.Unit != "" && !validUnits[p.Unit] {
		return ErrInvalidUnit
	}

	if p.ReminderTime != "" && !reminderRegex.MatchString(p.ReminderTime) {
		return ErrInvalidReminder
	}

	for _, day := range p.Weekdays {
		if day < 0 || day > 6 {
			return ErrInvalidWeekdays
		}
	}
	if p.Frequency != FrequencyCustom {
		p.Weekdays = nil
	}
	p.Weekdays = normalizeWeekdays(p.Weekdays)

	if p.Color != "" && !colorRegex.MatchString(p.Color) {
		return ErrInvalidColor
	}

	if p.Icon == "" {
		p.Icon = DefaultIcon
	}

	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return ErrInvalidPeriod
	}

	return nil
}

func NewHabit(userID string, params HabitParams) (*Habit, error) {
	if userID == "" {
		return nil, ErrHabitInvalidUserID
	}

	if err := params.validateAndNormalize(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	h := &Habit{
		ID:        uuid.New().String(),
		UserID:    userID,
		IsActive:  true,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		StartDate: now,
	}
	h.apply(params)

	return h, nil
}

func (h *Habit) Update(params HabitParams) error {
	if h.IsArchived {
		return ErrHabitArchived
	}

	if params.StartDate == nil {
		start := h.StartDate
		params.StartDate = &start
	}

	if err := params.validateAndNormalize(); err != nil {
		return err
	}

	h.apply(params)
	h.UpdatedAt = time.Now().UTC()

	return nil
}

func (h *Habit) apply(p HabitParams) {
	h.Title = p.Title
	h.Description = p.Description
	h.Icon = p.Icon
	h.Color = p.Color
	h.Frequency = p.Frequency
	h.Weekdays = p.Weekdays
	h.TargetValue = p.TargetValue
	h.Unit = p.Unit

	if p.ReminderTime != "" {
		rem := p.ReminderTime
		h.ReminderTime = &rem
	} else {
		h.ReminderTime = nil
	}

	if p.StartDate != nil {
		h.StartDate = p.StartDate.UTC()
	}
	h.EndDate = p.EndDate
}

// SameTarget reports whether the numeric goal is unchanged.
func (h *Habit) SameTarget(target *float64) bool {
	switch {
	case h.TargetValue == nil && target == nil:
		return true
	case h.TargetValue == nil || target == nil:
		return false
	default:
		return *h.TargetValue == *target
	}
}

func (h *Habit) ChangePosition(newOrder int) error {
	if h.IsArchived {
		return ErrHabitArchived
	}

	h.SortOrder = newOrder
	h.UpdatedAt = time.Now().UTC()
	return nil
}

func (h *Habit) Archive() {
	if h.IsArchived {
		return
	}

	h.IsArchived = true
	h.IsActive = false
	h.UpdatedAt = time.Now().UTC()
}

func (h *Habit) Restore() {
	if !h.IsArchived {
		return
	}

	h.IsArchived = false
	h.IsActive = true
	h.UpdatedAt = time.Now().UTC()
}

// UpdateStreak replaces the cached counters with freshly computed values.
func (h *Habit) UpdateStreak(current, longest int) {
	h.CurrentStreak = current
	h.LongestStreak = longest
}
