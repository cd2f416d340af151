package repository

import (
	"context"
	"database/sql"

	"github.com/rickhiram/Sensor-Dashboard/internal/domain"
)

type PostgresSensorsRepo struct {
	db *sql.DB
}

func NewPostgresSensorsRepo(db *sql.DB) *PostgresSensorsRepo {
	return &PostgresSensorsRepo{db: db}
}

const sensorColumns = `id, name, type, unit, enabled, min_value, max_value, created_at`

func scanSensor(row interface{ Scan(...any) error }) (*domain.Sensor, error) {
	var s domain.Sensor
	var min, max sql.NullFloat64
	if err := row.Scan(&s.ID, &s.Name, &s.Type, &s.Unit, &s.Enabled, &min, &max, &s.CreatedAt); err != nil {
		return nil, err
	}
	if min.Valid {
		s.Min = &min.Float64
	}
	if max.Valid {
		s.Max = &max.Float64
	}
	return &s, nil
}

func (r *PostgresSensorsRepo) ListSensors(ctx context.Context) ([]domain.Sensor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sensorColumns+` FROM sensors ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Sensor{}
	for rows.Next() {
		s, err := scanSensor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *PostgresSensorsRepo) GetSensor(ctx context.Context, id int64) (*domain.Sensor, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sensorColumns+` FROM sensors WHERE id = $1`, id)
	s, err := scanSensor(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return s, err
}

func (r *PostgresSensorsRepo) CreateSensor(ctx context.Context, s domain.Sensor) (*domain.Sensor, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO sensors (name, type, unit, enabled, min_value, max_value)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+sensorColumns,
		s.Name, s.Type, s.Unit, s.Enabled, nullFloat(s.Min), nullFloat(s.Max))
	return scanSensor(row)
}

func (r *PostgresSensorsRepo) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sensors SET enabled = $1 WHERE id = $2`, enabled, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PostgresSensorsRepo) SetRange(ctx context.Context, id int64, min, max *float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sensors SET min_value = $1, max_value = $2 WHERE id = $3`,
		nullFloat(min), nullFloat(max), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
