package domain

import (
	"errors"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
)

type WeeklyStats struct {
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	TotalHabits int         `json:"total_habits"`
	OverallRate float64     `json:"overall_completion_rate"`
	HabitStats  []HabitStat `json:"habits"`
}

type HabitStat struct {
	HabitID        string    `json:"habit_id"`
	HabitTitle     string    `json:"habit_title"`
	Color          string    `json:"color"`
	Icon           string    `json:"icon"`
	TargetValue    *float64  `json:"target_value,omitempty"`
	Unit           string    `json:"unit"`
	TotalValue     float64   `json:"total_value"`
	CompletionRate float64   `json:"completion_rate"`
	DaysCompleted  int       `json:"days_completed"`
	DaysActive     int       `json:"days_active"`
	DailyProgress  []float64 `json:"daily_progress"`
	CurrentStreak  int       `json:"current_streak"`
	LongestStreak  int       `json:"longest_streak"`
}

var ErrInvalidStatsRange = errors.New("invalid stats range (start must not be after end, max 366 days)")

const MaxStatsDays = 366

type StatsInput struct {
	UserID    string
	StartDate datekey.Date
	EndDate   datekey.Date
}

type StreakState string

const (
	StreakNone          StreakState = "none"
	StreakActiveToday   StreakState = "active_today"
	StreakContinueToday StreakState = "continue_today"
	StreakBroken        StreakState = "broken"
)

type MotivationTier string

const (
	TierStart     MotivationTier = "start"
	TierSeedling  MotivationTier = "seedling"
	TierMomentum  MotivationTier = "momentum"
	TierFirstWeek MotivationTier = "first_week"
	TierForming   MotivationTier = "forming"
	TierAlmost    MotivationTier = "almost_formed"
	TierMaster    MotivationTier = "master"
	TierLegend    MotivationTier = "legend"
)

// HabitSummary is the dashboard card of a habit.
type HabitSummary struct {
	Habit               *Habit         `json:"habit"`
	LastEntry           *HabitEntry    `json:"last_entry,omitempty"`
	CompletedToday      bool           `json:"completed_today"`
	FullyCompletedToday bool           `json:"fully_completed_today"`
	StreakState         StreakState    `json:"streak_state"`
	Motivation          MotivationTier `json:"motivation"`
	GeneratedAt         time.Time      `json:"generated_at"`
}
