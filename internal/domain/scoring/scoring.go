// Package scoring implements the per-activity point contribution rules.
// Scoring is deterministic and monotonic: points only ever increase as
// activities are folded in.
package scoring

import (
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

// Distance and elevation thresholds for point awards.
const (
	swimMinKm        = 1.0
	footMinKm        = 2.0
	rideTier1Km      = 10.0
	rideTier2Km      = 50.0
	rideTier3Km      = 100.0
	rideElevationMin = 350.0
)

// footSports are awarded the flat foot-sport point.
var footSports = map[shared.SportType]bool{
	shared.SportRun:  true,
	shared.SportWalk: true,
	shared.SportHike: true,
}

// Score returns the new point total after applying one activity's
// contribution to current.
//
// Swim at or above 1 km and foot sports (Run, Walk, Hike) above 2 km earn
// a single point and return immediately: the early-return paths never
// combine with the distance tiers below. Every other sport (typically
// Ride) earns one point per satisfied condition: distance above 10 km,
// above 50 km, above 100 km, and elevation gain above 350 m. The four
// conditions are independent, so one activity can add up to 4 points.
func Score(current float64, elevationGainM, distanceKm float64, sport shared.SportType) float64 {
	if sport == shared.SportSwim && distanceKm >= swimMinKm {
		return current + 1
	}

	if footSports[sport] && distanceKm > footMinKm {
		return current + 1
	}

	if distanceKm > rideTier1Km {
		current++
	}
	if distanceKm > rideTier2Km {
		current++
	}
	if distanceKm > rideTier3Km {
		current++
	}
	if elevationGainM > rideElevationMin {
		current++
	}
	return current
}
