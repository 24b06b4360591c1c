package activity

// Inclusion thresholds. An activity outside these bounds is noise
// (accidental starts, GPS glitches, imported bulk data) and contributes
// to no total, point, or maximum.
const (
	// MinMovingTimeSeconds is the minimum moving time for an activity
	// to count at all.
	MinMovingTimeSeconds = 300

	// MaxDistanceKm is the maximum plausible single-activity distance.
	MaxDistanceKm = 400
)

// Filter decides whether a raw activity counts toward aggregation.
//
// Exclusion here is total: the activity is as if absent. This is distinct
// from the group's ignore-list, which only suppresses an activity's effect
// on maximum tracking while it still counts toward totals and points.
type Filter struct {
	// MinDistanceMeters, when positive, additionally excludes activities
	// shorter than this distance. Zero disables the override.
	MinDistanceMeters float64
}

// Include reports whether the activity survives filtering.
// Malformed records are excluded the same way as out-of-bounds ones.
func (f Filter) Include(a *Activity) bool {
	if err := a.Validate(); err != nil {
		return false
	}
	if a.MovingTimeSeconds < MinMovingTimeSeconds {
		return false
	}
	if a.DistanceKm() > MaxDistanceKm {
		return false
	}
	if a.DistanceMeters == 0 && a.MovingTimeSeconds == 0 {
		return false
	}
	if f.MinDistanceMeters > 0 && a.DistanceMeters < f.MinDistanceMeters {
		return false
	}
	return true
}
