// Package tracking derives streaks, entry progress, calendar grids and
// month statistics from a habit's entries.
//
// Every function here is pure: callers hand in a consistent snapshot of
// entries and get plain values back. Two notions of "streak" coexist:
//
//   - ComputeCurrentStreak and ComputeLongestStreak count periods holding at
//     least one entry with Value > 0, whether or not the target was met.
//   - The per-day Streak flag of GenerateCalendar and the in-month counters
//     of ComputeMonthStats use CompletionRate > 0 instead.
//
// An entry with a positive value but no target qualifies for the first and
// not for the second. Both are kept as they are.
package tracking
