package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/pedal-hub/pedal-community-hub/internal/domain/group"
	"github.com/pedal-hub/pedal-community-hub/internal/domain/shared"
)

// GroupRepository implements group.Repository on a JSONB document per
// group.
type GroupRepository struct {
	conn *Connection
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(conn *Connection) *GroupRepository {
	return &GroupRepository{conn: conn}
}

// ══════════════════════════════════════════════════════════════════════════════
// DOCUMENT MAPPING
// ══════════════════════════════════════════════════════════════════════════════

type athleteDoc struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
}

// groupDoc is the JSONB shape of a group. Medal history is keyed by
// period label, then the verbatim sport label, then athlete ID rendered
// as a string (JSON object keys must be strings). The sport label keeps
// the ledger's casing: Recorded and CountsForSport match it exactly, so
// a reload must restore the keys it was saved with.
type groupDoc struct {
	Athletes           []athleteDoc                         `json:"athletes"`
	Goals              map[string]float64                   `json:"goals"`
	IgnoredActivityIDs []int64                              `json:"ignored_activity_ids"`
	MedalHistory       map[string]map[string]map[string]int `json:"medal_history"`
}

func docFromGroup(g *group.Group) groupDoc {
	doc := groupDoc{
		Athletes:           make([]athleteDoc, 0, len(g.Athletes)),
		Goals:              map[string]float64{},
		IgnoredActivityIDs: make([]int64, 0, len(g.IgnoredActivityIDs)),
		MedalHistory:       map[string]map[string]map[string]int{},
	}
	for _, a := range g.Athletes {
		doc.Athletes = append(doc.Athletes, athleteDoc{
			ID:          a.ID.Int64(),
			DisplayName: a.DisplayName,
			JoinedAt:    a.JoinedAt,
		})
	}
	for key, km := range g.Goals {
		doc.Goals[key] = km
	}
	for id := range g.IgnoredActivityIDs {
		doc.IgnoredActivityIDs = append(doc.IgnoredActivityIDs, id.Int64())
	}
	for label, bySport := range g.MedalHistory {
		sports := map[string]map[string]int{}
		for sport, byAthlete := range bySport {
			athletes := map[string]int{}
			for athleteID, pos := range byAthlete {
				athletes[athleteID.String()] = pos.Int()
			}
			sports[sport.String()] = athletes
		}
		doc.MedalHistory[label] = sports
	}
	return doc
}

func (doc groupDoc) toGroup(id shared.GroupID) (*group.Group, error) {
	g := group.New(id)
	for _, a := range doc.Athletes {
		athleteID, err := shared.NewAthleteID(a.ID)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", id, err)
		}
		g.Athletes[athleteID] = &group.Athlete{
			ID:          athleteID,
			DisplayName: a.DisplayName,
			JoinedAt:    a.JoinedAt,
		}
	}
	for key, km := range doc.Goals {
		g.Goals[key] = km
	}
	for _, raw := range doc.IgnoredActivityIDs {
		g.IgnoredActivityIDs[shared.ActivityID(raw)] = true
	}
	for label, sports := range doc.MedalHistory {
		bySport := map[shared.SportType]map[shared.AthleteID]shared.MedalPosition{}
		for sportLabel, athletes := range sports {
			byAthlete := map[shared.AthleteID]shared.MedalPosition{}
			for rawID, pos := range athletes {
				parsed, err := strconv.ParseInt(rawID, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("group %s: bad athlete key %q: %w", id, rawID, err)
				}
				byAthlete[shared.AthleteID(parsed)] = shared.MedalPosition(pos)
			}
			bySport[shared.SportType(sportLabel)] = byAthlete
		}
		g.MedalHistory[label] = bySport
	}
	return g, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// Load fetches the group document, returning a fresh empty group on
// first contact.
func (r *GroupRepository) Load(ctx context.Context, groupID shared.GroupID) (*group.Group, error) {
	var raw []byte
	err := r.conn.QueryRow(ctx,
		`SELECT state FROM groups WHERE id = $1`,
		groupID.Int64(),
	).Scan(&raw)
	if IsNoRows(err) {
		return group.New(groupID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: load group %s: %w", groupID, err)
	}

	var doc groupDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("postgres: decode group %s: %w", groupID, err)
	}
	return doc.toGroup(groupID)
}

// Save upserts the whole group document.
func (r *GroupRepository) Save(ctx context.Context, g *group.Group) error {
	raw, err := json.Marshal(docFromGroup(g))
	if err != nil {
		return fmt.Errorf("postgres: encode group %s: %w", g.ID, err)
	}

	_, err = r.conn.Exec(ctx, `
		INSERT INTO groups (id, state, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET state = EXCLUDED.state, updated_at = NOW()
	`, g.ID.Int64(), raw)
	if err != nil {
		return fmt.Errorf("postgres: save group %s: %w", g.ID, err)
	}
	return nil
}

// ListGroupIDs returns the IDs of all stored groups. The worker seeds
// its per-group engines from this at startup.
func (r *GroupRepository) ListGroupIDs(ctx context.Context) ([]shared.GroupID, error) {
	rows, err := r.conn.Query(ctx, `SELECT id FROM groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list groups: %w", err)
	}
	defer rows.Close()

	var ids []shared.GroupID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan group id: %w", err)
		}
		ids = append(ids, shared.GroupID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list groups: %w", err)
	}
	return ids, nil
}

var _ group.Repository = (*GroupRepository)(nil)
