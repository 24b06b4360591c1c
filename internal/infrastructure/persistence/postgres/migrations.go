package postgres

// GetMigrations returns all embedded migrations, in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_groups",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_activities",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_medal_awards",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// Group state is one JSONB document per chat group. The document is
// small (members, goals, ignore-list, medal history) and always read
// and written whole.
const migration001Up = `
CREATE TABLE IF NOT EXISTS groups (
	id BIGINT PRIMARY KEY,
	state JSONB NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration001Down = `DROP TABLE IF EXISTS groups;`

// Activities keep the provider's numeric ID as primary key so repeated
// syncs upsert instead of duplicating. start_local holds the athlete's
// wall-clock start time; day grouping happens on it directly.
const migration002Up = `
CREATE TABLE IF NOT EXISTS activities (
	id BIGINT PRIMARY KEY,
	group_id BIGINT NOT NULL,
	athlete_id BIGINT NOT NULL,
	sport_type TEXT NOT NULL,
	distance_m DOUBLE PRECISION NOT NULL DEFAULT 0,
	moving_time_s INTEGER NOT NULL DEFAULT 0,
	elevation_gain_m DOUBLE PRECISION NOT NULL DEFAULT 0,
	max_speed_mps DOUBLE PRECISION NOT NULL DEFAULT 0,
	avg_speed_mps DOUBLE PRECISION NOT NULL DEFAULT 0,
	start_local TIMESTAMP NOT NULL,
	is_manual BOOLEAN NOT NULL DEFAULT FALSE,
	is_flagged BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_activities_group_period
	ON activities (group_id, start_local);

CREATE INDEX IF NOT EXISTS idx_activities_athlete
	ON activities (athlete_id);
`

const migration002Down = `DROP TABLE IF EXISTS activities;`

// medal_awards is an append-only journal of promoted placements, kept
// alongside the history embedded in the group document for auditing.
const migration003Up = `
CREATE TABLE IF NOT EXISTS medal_awards (
	id UUID PRIMARY KEY,
	group_id BIGINT NOT NULL,
	period_label TEXT NOT NULL,
	sport_type TEXT NOT NULL,
	athlete_id BIGINT NOT NULL,
	position SMALLINT NOT NULL,
	recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	UNIQUE (group_id, period_label, sport_type, athlete_id)
);
`

const migration003Down = `DROP TABLE IF EXISTS medal_awards;`
