// Package frequency counts distinct active calendar days per athlete
// within a period, for "12/20 days" participation displays.
package frequency

import (
	"sort"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/activity"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

// Entry is one athlete's participation count.
type Entry struct {
	AthleteID shared.AthleteID

	// DistinctDays is the number of local calendar days with at least
	// one activity.
	DistinctDays int

	// PeriodDays is the caller-supplied number of elapsed days in the
	// period, carried through for "4/10" style display.
	PeriodDays int
}

// Compute counts, per athlete, the distinct local calendar days with at
// least one activity. Raw activities are used; no inclusion filter
// applies. Athletes with zero active days are omitted. The result is
// sorted by DistinctDays descending; order among ties is unspecified.
func Compute(activities []activity.Activity, periodDaysElapsed int) []Entry {
	type daySet map[int64]bool
	activeDays := map[shared.AthleteID]daySet{}
	for i := range activities {
		act := &activities[i]
		days, ok := activeDays[act.AthleteID]
		if !ok {
			days = daySet{}
			activeDays[act.AthleteID] = days
		}
		days[act.LocalDay().Unix()] = true
	}

	result := make([]Entry, 0, len(activeDays))
	for athleteID, days := range activeDays {
		if len(days) == 0 {
			continue
		}
		result = append(result, Entry{
			AthleteID:    athleteID,
			DistinctDays: len(days),
			PeriodDays:   periodDaysElapsed,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DistinctDays > result[j].DistinctDays
	})
	return result
}
