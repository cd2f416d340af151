package repository

import (
	"context"
	"database/sql"

	"github.com/rickhiram/Sensor-Dashboard/internal/domain"
)

type PostgresProjectsRepo struct {
	db *sql.DB
}

func NewPostgresProjectsRepo(db *sql.DB) *PostgresProjectsRepo {
	return &PostgresProjectsRepo{db: db}
}

func (r *PostgresProjectsRepo) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM projects ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Project{}
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresProjectsRepo) CreateProject(ctx context.Context, p domain.Project) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO projects (name, description)
		 VALUES ($1, $2)
		 RETURNING id, name, description, created_at`,
		p.Name, p.Description)

	var out domain.Project
	if err := row.Scan(&out.ID, &out.Name, &out.Description, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PostgresProjectsRepo) AddSensorToProject(ctx context.Context, projectID, sensorID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO project_sensors (project_id, sensor_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		projectID, sensorID)
	return err
}

func (r *PostgresProjectsRepo) ListProjectSensorIDs(ctx context.Context, projectID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sensor_id FROM project_sensors WHERE project_id = $1 ORDER BY sensor_id`,
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
