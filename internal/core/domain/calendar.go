package domain

import (
	"errors"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
)

var (
	ErrInvalidDate           = datekey.ErrInvalidDate
	ErrInvalidCalendarRange  = errors.New("invalid calendar range")
	ErrInvalidCalendarConfig = errors.New("invalid calendar config")
	ErrDuplicateEntryDate    = errors.New("more than one entry on the same date")
	ErrUnknownFrequency      = errors.New("unknown habit frequency")
)

type WeekStart string

const (
	WeekStartMonday WeekStart = "monday"
	WeekStartSunday WeekStart = "sunday"
)

type ColorScheme string

const (
	ColorGreen  ColorScheme = "green"
	ColorBlue   ColorScheme = "blue"
	ColorPurple ColorScheme = "purple"
	ColorOrange ColorScheme = "orange"
)

// GridLayout selects how many days the calendar grid holds.
type GridLayout string

const (
	// GridFixed always returns 35 days; the tail of a month needing a sixth
	// row is cut off.
	GridFixed GridLayout = "fixed"
	// GridDynamic returns 28, 35 or 42 days so every day of the month fits.
	GridDynamic GridLayout = "dynamic"
)

type CalendarConfig struct {
	ShowMood    bool        `json:"show_mood"`
	ColorScheme ColorScheme `json:"color_scheme"`
	ShowStreaks bool        `json:"show_streaks"`
	StartWeekOn WeekStart   `json:"start_week_on"`
	Layout      GridLayout  `json:"layout"`
}

func DefaultCalendarConfig() CalendarConfig {
	return CalendarConfig{
		ShowMood:    false,
		ColorScheme: ColorGreen,
		ShowStreaks: true,
		StartWeekOn: WeekStartMonday,
		Layout:      GridFixed,
	}
}

func (c CalendarConfig) Validate() error {
	switch c.StartWeekOn {
	case WeekStartMonday, WeekStartSunday:
	default:
		return ErrInvalidCalendarConfig
	}

	switch c.ColorScheme {
	case ColorGreen, ColorBlue, ColorPurple, ColorOrange:
	default:
		return ErrInvalidCalendarConfig
	}

	switch c.Layout {
	case GridFixed, GridDynamic, "":
	default:
		return ErrInvalidCalendarConfig
	}

	return nil
}

type CalendarDay struct {
	Date           datekey.Date  `json:"date"`
	Entries        []*HabitEntry `json:"entries"`
	CompletionRate int           `json:"completion_rate"`
	TotalValue     float64       `json:"total_value"`
	IsCompleted    bool          `json:"is_completed"`
	Intensity      int           `json:"intensity"`
	Streak         bool          `json:"streak"`
	InMonth        bool          `json:"in_month"`
	IsToday        bool          `json:"is_today"`
	Mood           Mood          `json:"mood,omitempty"`
}

func (d CalendarDay) HasEntries() bool {
	return len(d.Entries) > 0
}

type MonthStats struct {
	TotalDays            int `json:"total_days"`
	ActiveDays           int `json:"active_days"`
	CompletedDays        int `json:"completed_days"`
	AverageCompletion    int `json:"average_completion"`
	CurrentStreak        int `json:"current_streak"`
	LongestStreakInMonth int `json:"longest_streak_in_month"`
}

type CalendarData struct {
	HabitID string         `json:"habit_id"`
	Year    int            `json:"year"`
	Month   time.Month     `json:"month"`
	Days    []CalendarDay  `json:"days"`
	Stats   MonthStats     `json:"stats"`
	Config  CalendarConfig `json:"config"`
}
