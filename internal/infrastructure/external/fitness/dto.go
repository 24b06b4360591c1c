// Package fitness implements the fitness provider API client. It fetches
// the activity feed of a group's athletes and maps the provider's wire
// format into domain activity records.
package fitness

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY DTOs
// ══════════════════════════════════════════════════════════════════════════════

// AthleteDTO is the athlete summary embedded in activity records.
type AthleteDTO struct {
	// ID is the athlete's identifier on the fitness platform.
	ID int64 `json:"id"`

	FirstName string `json:"firstname,omitempty"`
	LastName  string `json:"lastname,omitempty"`
}

// DisplayName returns the athlete's name as the provider reports it.
func (a *AthleteDTO) DisplayName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	default:
		return a.FirstName + " " + a.LastName
	}
}

// ActivityDTO is one activity record as returned by the provider API.
// Metric fields use the provider's units: distance and elevation in
// meters, speeds in meters per second, moving time in seconds.
type ActivityDTO struct {
	// ID is the activity's identifier, unique within the provider.
	ID int64 `json:"id"`

	// Athlete identifies who recorded the activity.
	Athlete AthleteDTO `json:"athlete"`

	// SportType is the provider's sport label, e.g. "Ride" or
	// "WeightTraining".
	SportType string `json:"sport_type"`

	// Name is the athlete-chosen activity title.
	Name string `json:"name,omitempty"`

	Distance           float64 `json:"distance"`
	MovingTime         int     `json:"moving_time"`
	ElapsedTime        int     `json:"elapsed_time,omitempty"`
	TotalElevationGain float64 `json:"total_elevation_gain"`
	MaxSpeed           float64 `json:"max_speed"`
	AverageSpeed       float64 `json:"average_speed"`

	// StartDateLocal is the activity start in the athlete's local
	// wall-clock time. The provider formats it with a Z suffix even
	// though the value is not UTC.
	StartDateLocal string `json:"start_date_local"`

	// Manual marks activities entered by hand rather than recorded.
	Manual bool `json:"manual"`

	// Flagged marks activities the provider's community flagged as
	// suspect.
	Flagged bool `json:"flagged"`
}
