package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/activity"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

// ActivityRepository implements activity.Repository on the activities
// archive table.
type ActivityRepository struct {
	conn *Connection
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(conn *Connection) *ActivityRepository {
	return &ActivityRepository{conn: conn}
}

const activityColumns = `
	id, athlete_id, sport_type,
	distance_m, moving_time_s, elevation_gain_m,
	max_speed_mps, avg_speed_mps,
	start_local, is_manual, is_flagged
`

// ListByPeriod returns every stored activity of the group whose local
// start time falls inside the half-open period.
func (r *ActivityRepository) ListByPeriod(ctx context.Context, groupID shared.GroupID, period shared.Period) ([]activity.Activity, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE group_id = $1
		  AND start_local >= $2
		  AND start_local < $3
		ORDER BY start_local
	`, groupID.Int64(), period.FirstDay, period.LastDay)
	if err != nil {
		return nil, fmt.Errorf("postgres: list activities for group %s: %w", groupID, err)
	}
	defer rows.Close()

	var result []activity.Activity
	for rows.Next() {
		var act activity.Activity
		var id, athleteID int64
		var sport string
		if err := rows.Scan(
			&id, &athleteID, &sport,
			&act.DistanceMeters, &act.MovingTimeSeconds, &act.ElevationGainMeters,
			&act.MaxSpeedMps, &act.AvgSpeedMps,
			&act.StartLocal, &act.Manual, &act.Flagged,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan activity row: %w", err)
		}
		act.ID = shared.ActivityID(id)
		act.AthleteID = shared.AthleteID(athleteID)
		act.SportType = shared.SportType(sport)
		result = append(result, act)
	}
	return result, rows.Err()
}

// activityInsertArgs maps one activity onto the insert column order.
// The sport label is stored verbatim: scoring and bucket rules are
// case-sensitive, so the mirror must hand back exactly the label the
// provider reported.
func activityInsertArgs(groupID shared.GroupID, act *activity.Activity) []interface{} {
	return []interface{}{
		act.ID.Int64(), groupID.Int64(), act.AthleteID.Int64(), act.SportType.String(),
		act.DistanceMeters, act.MovingTimeSeconds, act.ElevationGainMeters,
		act.MaxSpeedMps, act.AvgSpeedMps,
		act.StartLocal, act.Manual, act.Flagged,
	}
}

// SaveAll upserts a batch of activities in one transaction. Re-synced
// activities overwrite their previous row, so a provider-side edit
// (e.g. a corrected distance) lands on the next sync.
func (r *ActivityRepository) SaveAll(ctx context.Context, groupID shared.GroupID, activities []activity.Activity) error {
	if len(activities) == 0 {
		return nil
	}
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i := range activities {
			batch.Queue(`
				INSERT INTO activities (
					id, group_id, athlete_id, sport_type,
					distance_m, moving_time_s, elevation_gain_m,
					max_speed_mps, avg_speed_mps,
					start_local, is_manual, is_flagged
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
				ON CONFLICT (id) DO UPDATE SET
					athlete_id = EXCLUDED.athlete_id,
					sport_type = EXCLUDED.sport_type,
					distance_m = EXCLUDED.distance_m,
					moving_time_s = EXCLUDED.moving_time_s,
					elevation_gain_m = EXCLUDED.elevation_gain_m,
					max_speed_mps = EXCLUDED.max_speed_mps,
					avg_speed_mps = EXCLUDED.avg_speed_mps,
					start_local = EXCLUDED.start_local,
					is_manual = EXCLUDED.is_manual,
					is_flagged = EXCLUDED.is_flagged
			`, activityInsertArgs(groupID, &activities[i])...)
		}
		results := tx.SendBatch(ctx, batch)
		defer results.Close()
		for range activities {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("postgres: upsert activity: %w", err)
			}
		}
		return nil
	})
}

// DeleteByAthlete removes every stored activity of one athlete in the
// group, used when an athlete leaves.
func (r *ActivityRepository) DeleteByAthlete(ctx context.Context, groupID shared.GroupID, athleteID shared.AthleteID) error {
	_, err := r.conn.Exec(ctx, `
		DELETE FROM activities
		WHERE group_id = $1 AND athlete_id = $2
	`, groupID.Int64(), athleteID.Int64())
	if err != nil {
		return fmt.Errorf("postgres: delete activities of athlete %s: %w", athleteID, err)
	}
	return nil
}

var _ activity.Repository = (*ActivityRepository)(nil)
