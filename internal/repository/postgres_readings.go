package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rickhiram/Sensor-Dashboard/internal/domain"
)

type PostgresReadingsRepo struct {
	db *sql.DB
}

func NewPostgresReadingsRepo(db *sql.DB) *PostgresReadingsRepo {
	return &PostgresReadingsRepo{db: db}
}

// InsertReading appends one reading to the durable log. lib/pq runs each
// statement in its own implicit transaction, so the reading is committed
// when this returns.
func (r *PostgresReadingsRepo) InsertReading(ctx context.Context, reading domain.Reading) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO readings (sensor_id, ts, value) VALUES ($1, $2, $3)`,
		reading.SensorID, reading.Timestamp, reading.Value)
	return err
}

func (r *PostgresReadingsRepo) History(ctx context.Context, sensorID int64, from, to time.Time, limit int) ([]domain.Reading, error) {
	if limit <= 0 {
		limit = 10000
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT sensor_id, ts, value
		 FROM readings
		 WHERE sensor_id = $1 AND ts >= $2 AND ts <= $3
		 ORDER BY ts ASC
		 LIMIT $4`,
		sensorID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Reading{}
	for rows.Next() {
		var rd domain.Reading
		var ts sql.NullTime
		if err := rows.Scan(&rd.SensorID, &ts, &rd.Value); err != nil {
			return nil, err
		}
		rd.Timestamp = ts.Time
		out = append(out, rd)
	}
	return out, rows.Err()
}
