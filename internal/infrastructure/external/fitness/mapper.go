package fitness

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/activity"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
	"github.com/pedal-hub/pedal-community-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - DTO to Domain Entity transformations
// ══════════════════════════════════════════════════════════════════════════════

// Mapper errors.
var (
	ErrNilDTO = errors.New("fitness: nil DTO")
)

// Mapper converts provider DTOs into domain activity records. It is the
// anti-corruption layer between the provider's wire format and the core:
// unit quirks and the local-stamp timezone convention stop here.
type Mapper struct {
	location *time.Location
}

// NewMapper creates a mapper that interprets local stamps in the given
// location. A nil location falls back to UTC.
func NewMapper(location *time.Location) *Mapper {
	if location == nil {
		location = time.UTC
	}
	return &Mapper{location: location}
}

// ActivityFromDTO converts an ActivityDTO to a domain activity record.
// The record is validated before it is returned, so callers can trust a
// non-error result to be well-formed.
func (m *Mapper) ActivityFromDTO(dto *ActivityDTO) (activity.Activity, error) {
	if dto == nil {
		return activity.Activity{}, ErrNilDTO
	}

	startLocal, err := timeutil.ParseLocalStamp(dto.StartDateLocal, m.location)
	if err != nil {
		return activity.Activity{}, fmt.Errorf("parse start date %q: %w", dto.StartDateLocal, err)
	}

	act := activity.Activity{
		ID:                  shared.ActivityID(dto.ID),
		AthleteID:           shared.AthleteID(dto.Athlete.ID),
		SportType:           shared.SportType(strings.TrimSpace(dto.SportType)),
		DistanceMeters:      dto.Distance,
		MovingTimeSeconds:   dto.MovingTime,
		ElevationGainMeters: dto.TotalElevationGain,
		MaxSpeedMps:         dto.MaxSpeed,
		AvgSpeedMps:         dto.AverageSpeed,
		StartLocal:          startLocal,
		Manual:              dto.Manual,
		Flagged:             dto.Flagged,
	}

	if err := act.Validate(); err != nil {
		return activity.Activity{}, fmt.Errorf("activity %d: %w", dto.ID, err)
	}

	return act, nil
}

// ActivitiesFromDTOs converts a page of DTOs, skipping malformed records.
// One broken record in the feed must not sink the whole sync pass; the
// number of skipped records is returned for logging.
func (m *Mapper) ActivitiesFromDTOs(dtos []ActivityDTO) ([]activity.Activity, int) {
	activities := make([]activity.Activity, 0, len(dtos))
	skipped := 0
	for i := range dtos {
		act, err := m.ActivityFromDTO(&dtos[i])
		if err != nil {
			skipped++
			continue
		}
		activities = append(activities, act)
	}
	return activities, skipped
}
