package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pedal-hub/pedal-community-hub/internal/application"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

// MedalAwardRepository journals promoted placements. The group document
// stays the source of truth for standings; this table is the audit
// trail of when each award was written.
type MedalAwardRepository struct {
	conn *Connection
}

// NewMedalAwardRepository creates a new MedalAwardRepository.
func NewMedalAwardRepository(conn *Connection) *MedalAwardRepository {
	return &MedalAwardRepository{conn: conn}
}

// RecordAwards appends one promotion run's awards. Duplicate award rows
// (same group, period, sport, athlete) are skipped rather than failed,
// matching the append-only history semantics.
func (r *MedalAwardRepository) RecordAwards(ctx context.Context, groupID shared.GroupID, awards []application.PromotedAward) error {
	if len(awards) == 0 {
		return nil
	}
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, a := range awards {
			batch.Queue(`
				INSERT INTO medal_awards (
					id, group_id, period_label, sport_type, athlete_id, position
				) VALUES ($1,$2,$3,$4,$5,$6)
				ON CONFLICT (group_id, period_label, sport_type, athlete_id) DO NOTHING
			`,
				uuid.New().String(), groupID.Int64(), a.PeriodLabel,
				a.Sport.Key(), a.AthleteID.Int64(), a.Position.Int(),
			)
		}
		results := tx.SendBatch(ctx, batch)
		defer results.Close()
		for range awards {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("postgres: record medal award: %w", err)
			}
		}
		return nil
	})
}
