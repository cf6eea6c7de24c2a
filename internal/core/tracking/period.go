package tracking

import (
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-habits/internal/core/datekey"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

// Schedule is the part of a habit that decides what a streak period is.
type Schedule struct {
	Frequency domain.Frequency
	Weekdays  []int
}

func ScheduleOf(h *domain.Habit) Schedule {
	return Schedule{Frequency: h.Frequency, Weekdays: h.Weekdays}
}

// periodPolicy maps calendar days onto consecutive period ordinals. Two
// periods are adjacent when their ordinals differ by one.
type periodPolicy interface {
	// period returns the ordinal of the period holding d, false when d is
	// not a scheduled day.
	period(d datekey.Date) (int, bool)
	// latest returns the ordinal of the last scheduled period at or before d.
	latest(d datekey.Date) (int, bool)
}

func periodPolicyFor(s Schedule) (periodPolicy, error) {
	switch s.Frequency {
	case domain.FrequencyDaily, "":
		return dailyPolicy{}, nil
	case domain.FrequencyWeekly:
		return weeklyPolicy{}, nil
	case domain.FrequencyMonthly:
		return monthlyPolicy{}, nil
	case domain.FrequencyCustom:
		return newWeekdayPolicy(s.Weekdays), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFrequency, s.Frequency)
	}
}

type dailyPolicy struct{}

func (dailyPolicy) period(d datekey.Date) (int, bool) { return d.DayNumber(), true }
func (p dailyPolicy) latest(d datekey.Date) (int, bool) { return p.period(d) }

// weeklyPolicy uses ISO weeks, Monday to Sunday.
type weeklyPolicy struct{}

func (weeklyPolicy) period(d datekey.Date) (int, bool) {
	monday := d.AddDays(-mondayOffset(d.Weekday()))
	return floorDiv(monday.DayNumber(), 7), true
}

func (p weeklyPolicy) latest(d datekey.Date) (int, bool) { return p.period(d) }

type monthlyPolicy struct{}

func (monthlyPolicy) period(d datekey.Date) (int, bool) {
	return d.Year*12 + int(d.Month) - 1, true
}

func (p monthlyPolicy) latest(d datekey.Date) (int, bool) { return p.period(d) }

// weekdayPolicy numbers every occurrence of a scheduled weekday, so Monday
// and Thursday of a Mon/Thu habit are adjacent periods.
type weekdayPolicy struct {
	position map[time.Weekday]int
}

func newWeekdayPolicy(weekdays []int) weekdayPolicy {
	p := weekdayPolicy{position: make(map[time.Weekday]int)}
	for _, wd := range weekdays {
		if wd < 0 || wd > 6 {
			continue
		}
		p.position[time.Weekday(wd)] = 0
	}

	i := 0
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if _, ok := p.position[wd]; ok {
			p.position[wd] = i
			i++
		}
	}
	return p
}

func (p weekdayPolicy) period(d datekey.Date) (int, bool) {
	pos, ok := p.position[d.Weekday()]
	if !ok {
		return 0, false
	}

	sunday := d.AddDays(-int(d.Weekday()))
	week := floorDiv(sunday.DayNumber(), 7)
	return week*len(p.position) + pos, true
}

func (p weekdayPolicy) latest(d datekey.Date) (int, bool) {
	for i := 0; i < 7; i++ {
		if ord, ok := p.period(d.AddDays(-i)); ok {
			return ord, true
		}
	}
	return 0, false
}

func mondayOffset(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
