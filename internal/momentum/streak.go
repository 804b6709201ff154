package momentum

import (
	"slices"
	"time"
)

// dayOf truncates t to midnight UTC. Every day comparison in the engine goes
// through here.
func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StreakFromDates returns the number of consecutive days with activity,
// counting back from the most recent one. The streak is 0 unless that day is
// today or yesterday relative to now. Days after today are ignored.
func StreakFromDates(dates []time.Time, now time.Time) int {
	today := dayOf(now)
	seen := make(map[time.Time]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := dayOf(d)
		if day.After(today) {
			continue
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	if len(days) == 0 {
		return 0
	}
	slices.SortFunc(days, func(a, b time.Time) int { return b.Compare(a) })

	yesterday := today.AddDate(0, 0, -1)
	if !days[0].Equal(today) && !days[0].Equal(yesterday) {
		return 0
	}

	streak := 0
	check := days[0]
	for _, day := range days {
		if !day.Equal(check) {
			break
		}
		streak++
		check = check.AddDate(0, 0, -1)
	}
	return streak
}
