package tracking

import (
	"fmt"
	"sort"

	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

type Streaks struct {
	Current int
	Longest int
}

// ComputeStreaks recomputes both counters from scratch.
func ComputeStreaks(entries []*domain.HabitEntry, s Schedule, today datekey.Date) (Streaks, error) {
	current, err := ComputeCurrentStreak(entries, s, today)
	if err != nil {
		return Streaks{}, err
	}

	longest, err := ComputeLongestStreak(entries, s)
	if err != nil {
		return Streaks{}, err
	}

	return Streaks{Current: current, Longest: longest}, nil
}

// ComputeCurrentStreak counts consecutive qualifying periods ending at the
// period of today. While nothing has been counted yet, the period right
// before today also starts the run, so yesterday's streak stays visible
// until the user logs today. Entries dated after today are ignored.
func ComputeCurrentStreak(entries []*domain.HabitEntry, s Schedule, today datekey.Date) (int, error) {
	policy, err := periodPolicyFor(s)
	if err != nil {
		return 0, err
	}

	periods, err := qualifyingPeriods(entries, policy, func(d datekey.Date) bool {
		return !d.After(today)
	})
	if err != nil {
		return 0, err
	}
	if len(periods) == 0 {
		return 0, nil
	}

	expected, ok := policy.latest(today)
	if !ok {
		return 0, nil
	}

	streak := 0
	for i := len(periods) - 1; i >= 0; i-- {
		p := periods[i]
		switch {
		case p == expected:
		case streak == 0 && p == expected-1:
		default:
			return streak, nil
		}
		streak++
		expected = p - 1
	}

	return streak, nil
}

// ComputeLongestStreak returns the best run of consecutive qualifying
// periods in the whole history.
func ComputeLongestStreak(entries []*domain.HabitEntry, s Schedule) (int, error) {
	policy, err := periodPolicyFor(s)
	if err != nil {
		return 0, err
	}

	periods, err := qualifyingPeriods(entries, policy, nil)
	if err != nil {
		return 0, err
	}

	longest, run := 0, 0
	for i, p := range periods {
		if i > 0 && p == periods[i-1]+1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	return longest, nil
}

// qualifyingPeriods returns the sorted, distinct ordinals of the periods
// holding at least one entry with activity. Zero dates and two entries on
// the same day fail fast.
func qualifyingPeriods(entries []*domain.HabitEntry, policy periodPolicy, keep func(datekey.Date) bool) ([]int, error) {
	seenDays := make(map[datekey.Date]struct{}, len(entries))
	seenPeriods := make(map[int]struct{})
	var periods []int

	for _, e := range entries {
		if e == nil {
			continue
		}
		if e.Date.IsZero() {
			return nil, fmt.Errorf("entry %s: %w", e.ID, domain.ErrInvalidDate)
		}
		if _, dup := seenDays[e.Date]; dup {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateEntryDate, e.Date)
		}
		seenDays[e.Date] = struct{}{}

		if !e.HasActivity() || (keep != nil && !keep(e.Date)) {
			continue
		}

		ord, ok := policy.period(e.Date)
		if !ok {
			continue
		}
		if _, dup := seenPeriods[ord]; dup {
			continue
		}
		seenPeriods[ord] = struct{}{}
		periods = append(periods, ord)
	}

	sort.Ints(periods)
	return periods, nil
}
