package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is additive-only: new columns/tables may appear in later versions,
// but stored readings are never re-ingested.
const schema = `
-- Sensor groupings for dashboard display
CREATE TABLE IF NOT EXISTS projects (
    id          BIGSERIAL PRIMARY KEY,
    name        TEXT UNIQUE NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- Registered sensors; soft-disable only, never deleted while referenced
CREATE TABLE IF NOT EXISTS sensors (
    id         BIGSERIAL PRIMARY KEY,
    name       TEXT NOT NULL,
    type       TEXT NOT NULL,
    unit       TEXT NOT NULL DEFAULT '',
    enabled    BOOLEAN NOT NULL DEFAULT TRUE,
    min_value  DOUBLE PRECISION,
    max_value  DOUBLE PRECISION,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- Many-to-many: a sensor may feed several projects
CREATE TABLE IF NOT EXISTS project_sensors (
    project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    sensor_id  BIGINT NOT NULL REFERENCES sensors(id) ON DELETE CASCADE,
    PRIMARY KEY (project_id, sensor_id)
);

-- Append-only reading log
CREATE TABLE IF NOT EXISTS readings (
    id        BIGSERIAL PRIMARY KEY,
    sensor_id BIGINT NOT NULL REFERENCES sensors(id),
    ts        TIMESTAMPTZ NOT NULL,
    value     DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_readings_sensor_ts ON readings(sensor_id, ts);
`

// EnsureSchema creates the tables on first boot.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
