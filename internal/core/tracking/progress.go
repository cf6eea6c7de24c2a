package tracking

import (
	"math"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

type Progress struct {
	Percentage  float64
	IsCompleted bool
}

// ComputeEntryProgress returns {0, false} when the habit has no positive
// target. The percentage is capped at 100.
func ComputeEntryProgress(value float64, target *float64) Progress {
	if target == nil || *target <= 0 {
		return Progress{}
	}

	return Progress{
		Percentage:  math.Min(value / *target * 100, 100),
		IsCompleted: value >= *target,
	}
}

// ApplyProgress stores the derived progress fields on the entry.
func ApplyProgress(entry *domain.HabitEntry, target *float64) {
	p := ComputeEntryProgress(entry.Value, target)
	entry.ProgressPercentage = p.Percentage
	entry.IsCompleted = p.IsCompleted
}
