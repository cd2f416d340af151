package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rickhiram/Sensor-Dashboard/internal/domain"
)

var ErrNotFound = errors.New("not found")

// SensorsRepo stores sensor metadata. Sensors are soft-disabled, never
// physically deleted while readings reference them.
type SensorsRepo interface {
	ListSensors(ctx context.Context) ([]domain.Sensor, error)
	GetSensor(ctx context.Context, id int64) (*domain.Sensor, error)
	CreateSensor(ctx context.Context, s domain.Sensor) (*domain.Sensor, error)
	SetEnabled(ctx context.Context, id int64, enabled bool) error
	SetRange(ctx context.Context, id int64, min, max *float64) error
}

// ProjectsRepo stores projects and the project↔sensor membership relation.
type ProjectsRepo interface {
	ListProjects(ctx context.Context) ([]domain.Project, error)
	CreateProject(ctx context.Context, p domain.Project) (*domain.Project, error)
	AddSensorToProject(ctx context.Context, projectID, sensorID int64) error
	ListProjectSensorIDs(ctx context.Context, projectID int64) ([]int64, error)
}

// ReadingsRepo is the durable append-only reading log.
type ReadingsRepo interface {
	InsertReading(ctx context.Context, r domain.Reading) error
	History(ctx context.Context, sensorID int64, from, to time.Time, limit int) ([]domain.Reading, error)
}
