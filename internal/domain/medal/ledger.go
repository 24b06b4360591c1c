// Package medal keeps the multi-period medal ledger: per-period podium
// promotion and the rolled-up overall standing.
package medal

import (
	"sort"
	"time"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

// ErrPeriodRecorded is returned when a (period, sport) pair already has
// recorded medals. The history is append-only: a past period is never
// silently recomputed.
var ErrPeriodRecorded = shared.NewDomainError("medal", "Record", shared.ErrAlreadyExists,
	"medals for this period and sport are already recorded")

// Counts are an athlete's podium counts, either within one sport or
// across the whole ledger.
type Counts struct {
	Gold   int
	Silver int
	Bronze int
}

// IsZero reports whether there are no medals at all.
func (c Counts) IsZero() bool {
	return c.Gold == 0 && c.Silver == 0 && c.Bronze == 0
}

// add increments the slot for a position.
func (c *Counts) add(pos shared.MedalPosition) {
	switch pos {
	case shared.PositionGold:
		c.Gold++
	case shared.PositionSilver:
		c.Silver++
	case shared.PositionBronze:
		c.Bronze++
	}
}

// History is the persisted medal bookkeeping:
// period label → sport → athlete → position. One entry per
// (period, sport, athlete); entries for past periods are never
// overwritten.
type History map[string]map[shared.SportType]map[shared.AthleteID]shared.MedalPosition

// Recorded reports whether medals exist for the period and sport.
func (h History) Recorded(periodLabel string, sport shared.SportType) bool {
	return len(h[periodLabel][sport]) > 0
}

// Record appends one period's awards for a sport.
func (h History) Record(periodLabel string, sport shared.SportType, awards map[shared.AthleteID]shared.MedalPosition) error {
	if h.Recorded(periodLabel, sport) {
		return ErrPeriodRecorded
	}
	if len(awards) == 0 {
		return nil
	}
	bySport, ok := h[periodLabel]
	if !ok {
		bySport = map[shared.SportType]map[shared.AthleteID]shared.MedalPosition{}
		h[periodLabel] = bySport
	}
	byAthlete := map[shared.AthleteID]shared.MedalPosition{}
	for athleteID, pos := range awards {
		byAthlete[athleteID] = pos
	}
	bySport[sport] = byAthlete
	return nil
}

// CountsForSport rolls up every period's placements in one sport,
// used for medal annotations on ranking rows.
func (h History) CountsForSport(sport shared.SportType) map[shared.AthleteID]Counts {
	result := map[shared.AthleteID]Counts{}
	for _, bySport := range h {
		for athleteID, pos := range bySport[sport] {
			c := result[athleteID]
			c.add(pos)
			result[athleteID] = c
		}
	}
	return result
}

// RemoveAthlete purges every placement of one athlete across all periods
// and sports, keeping the standing consistent with group membership.
func (h History) RemoveAthlete(athleteID shared.AthleteID) {
	for label, bySport := range h {
		for sport, byAthlete := range bySport {
			delete(byAthlete, athleteID)
			if len(byAthlete) == 0 {
				delete(bySport, sport)
			}
		}
		if len(bySport) == 0 {
			delete(h, label)
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Promotion
// ═══════════════════════════════════════════════════════════════════════════

// Candidate is one athlete's final metric for a closing period.
type Candidate struct {
	AthleteID   shared.AthleteID
	MetricValue float64

	// JoinedAt gates eligibility: athletes who joined after the period's
	// end did not compete in it.
	JoinedAt time.Time
}

// Promote selects the podium for one sport and period.
//
// Athletes who joined after periodEnd are excluded. The remainder is
// sorted by metric descending. The participation-size rule then applies:
// a single eligible athlete earns nothing, two athletes award gold only,
// three or more award the full podium. Ties at a cutoff are not specially
// resolved; whichever tied athlete sorts first keeps the slot.
func Promote(candidates []Candidate, periodEnd time.Time) map[shared.AthleteID]shared.MedalPosition {
	eligible := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.JoinedAt.After(periodEnd) {
			continue
		}
		eligible = append(eligible, c)
	}

	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].MetricValue > eligible[j].MetricValue
	})

	awards := map[shared.AthleteID]shared.MedalPosition{}
	switch {
	case len(eligible) <= 1:
		// A one-athlete podium is no contest.
	case len(eligible) == 2:
		awards[eligible[0].AthleteID] = shared.PositionGold
	default:
		awards[eligible[0].AthleteID] = shared.PositionGold
		awards[eligible[1].AthleteID] = shared.PositionSilver
		awards[eligible[2].AthleteID] = shared.PositionBronze
	}
	return awards
}

// ═══════════════════════════════════════════════════════════════════════════
// Overall standing
// ═══════════════════════════════════════════════════════════════════════════

// StandingRow is one athlete's line in the overall medal standing.
type StandingRow struct {
	AthleteID shared.AthleteID
	Counts    Counts

	// Points is the weighted total: 3 per gold, 2 per silver, 1 per bronze.
	Points int
}

// Standing rolls the whole history into the overall medal table, sorted
// by points descending with gold, then silver, then bronze as
// tie-breakers.
func Standing(h History) []StandingRow {
	byAthlete := map[shared.AthleteID]Counts{}
	for _, bySport := range h {
		for _, byID := range bySport {
			for athleteID, pos := range byID {
				c := byAthlete[athleteID]
				c.add(pos)
				byAthlete[athleteID] = c
			}
		}
	}

	rows := make([]StandingRow, 0, len(byAthlete))
	for athleteID, counts := range byAthlete {
		rows = append(rows, StandingRow{
			AthleteID: athleteID,
			Counts:    counts,
			Points:    counts.Gold*3 + counts.Silver*2 + counts.Bronze,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Counts.Gold != b.Counts.Gold {
			return a.Counts.Gold > b.Counts.Gold
		}
		if a.Counts.Silver != b.Counts.Silver {
			return a.Counts.Silver > b.Counts.Silver
		}
		return a.Counts.Bronze > b.Counts.Bronze
	})
	return rows
}
