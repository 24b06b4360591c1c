// Package streak counts consecutive active calendar days per athlete.
package streak

import (
	"sort"
	"time"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/activity"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

// Entry is one athlete's current streak length in days.
type Entry struct {
	AthleteID shared.AthleteID
	Length    int
}

// Compute builds, per athlete, the set of distinct local calendar days
// with at least one activity start, then walks backward from
// referenceDate one day at a time until the first missing day.
//
// Raw activities are used deliberately: no inclusion filter applies,
// because even a short check-in activity keeps a streak alive. Athletes
// with a zero-length streak are omitted. The result is sorted by length
// descending; the relative order of equal lengths is unspecified.
func Compute(activities []activity.Activity, referenceDate time.Time) []Entry {
	const dayKey = "2006-01-02"

	activeDays := map[shared.AthleteID]map[string]bool{}
	for i := range activities {
		act := &activities[i]
		days, ok := activeDays[act.AthleteID]
		if !ok {
			days = map[string]bool{}
			activeDays[act.AthleteID] = days
		}
		days[act.LocalDay().Format(dayKey)] = true
	}

	ref := time.Date(referenceDate.Year(), referenceDate.Month(), referenceDate.Day(),
		0, 0, 0, 0, referenceDate.Location())

	var result []Entry
	for athleteID, days := range activeDays {
		length := 0
		for day := ref; days[day.Format(dayKey)]; day = day.AddDate(0, 0, -1) {
			length++
		}
		if length == 0 {
			continue
		}
		result = append(result, Entry{AthleteID: athleteID, Length: length})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Length > result[j].Length
	})
	return result
}
