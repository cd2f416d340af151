package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rickhiram/Sensor-Dashboard/internal/domain"
	"github.com/rickhiram/Sensor-Dashboard/internal/repository"
	"go.uber.org/zap"
)

var ErrUnknownSensorType = errors.New("unknown sensor type")

// AdminService carries the mutation operations: sensor registration and
// lifecycle, projects, membership. Every mutation goes to the repo first and
// then to the registry snapshot, so the ingestion loop observes the change
// without a restart.
type AdminService struct {
	registry *SensorRegistry
	sensors  repository.SensorsRepo
	projects repository.ProjectsRepo
	logger   *zap.Logger
}

func NewAdminService(registry *SensorRegistry, sensors repository.SensorsRepo, projects repository.ProjectsRepo, logger *zap.Logger) *AdminService {
	return &AdminService{registry: registry, sensors: sensors, projects: projects, logger: logger}
}

// AddSensor registers a sensor. The unit always comes from the type table;
// the default range applies when the caller supplies none.
func (a *AdminService) AddSensor(ctx context.Context, name, sensorType string, min, max *float64) (*domain.Sensor, error) {
	info, ok := domain.SensorTypeByName(sensorType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSensorType, sensorType)
	}

	if name == "" {
		name = defaultSensorName(sensorType)
	}
	if min == nil && max == nil {
		dmin, dmax := info.DefaultMin, info.DefaultMax
		min, max = &dmin, &dmax
	}

	created, err := a.sensors.CreateSensor(ctx, domain.Sensor{
		Name:    name,
		Type:    sensorType,
		Unit:    info.Unit,
		Enabled: true,
		Min:     min,
		Max:     max,
	})
	if err != nil {
		return nil, err
	}

	a.registry.upsert(*created)
	a.logger.Info("sensor added",
		zap.Int64("sensor_id", created.ID),
		zap.String("type", created.Type))
	return created, nil
}

// ToggleSensor flips the enabled flag. Disabling never deletes stored
// readings; it only stops new ones.
func (a *AdminService) ToggleSensor(ctx context.Context, id int64, enabled bool) error {
	if err := a.sensors.SetEnabled(ctx, id, enabled); err != nil {
		return err
	}
	a.registry.setEnabled(id, enabled)
	a.logger.Info("sensor toggled", zap.Int64("sensor_id", id), zap.Bool("enabled", enabled))
	return nil
}

// SetRange updates the valid range; nil bounds clear it.
func (a *AdminService) SetRange(ctx context.Context, id int64, min, max *float64) error {
	if min != nil && max != nil && *min > *max {
		return fmt.Errorf("invalid range: min %v > max %v", *min, *max)
	}
	if err := a.sensors.SetRange(ctx, id, min, max); err != nil {
		return err
	}
	a.registry.setRange(id, min, max)
	return nil
}

// CreateProject creates a project and, optionally, a fresh sensor per
// requested type attached to it.
func (a *AdminService) CreateProject(ctx context.Context, name, description string, sensorTypes []string) (*domain.Project, error) {
	if name == "" {
		return nil, errors.New("project name is required")
	}

	project, err := a.projects.CreateProject(ctx, domain.Project{Name: name, Description: description})
	if err != nil {
		return nil, err
	}

	for _, st := range sensorTypes {
		sensor, err := a.AddSensor(ctx, "", st, nil, nil)
		if err != nil {
			if errors.Is(err, ErrUnknownSensorType) {
				a.logger.Warn("skipping unknown sensor type", zap.String("type", st))
				continue
			}
			return nil, err
		}
		if err := a.projects.AddSensorToProject(ctx, project.ID, sensor.ID); err != nil {
			return nil, err
		}
	}
	return project, nil
}

func (a *AdminService) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return a.projects.ListProjects(ctx)
}

func (a *AdminService) AddSensorToProject(ctx context.Context, projectID, sensorID int64) error {
	if _, ok := a.registry.Get(sensorID); !ok {
		return ErrUnknownSensor
	}
	return a.projects.AddSensorToProject(ctx, projectID, sensorID)
}

// AvailableTypes lists the sensor types that can be added.
func (a *AdminService) AvailableTypes() []domain.SensorTypeInfo {
	return domain.SensorTypeList()
}

func defaultSensorName(sensorType string) string {
	words := strings.Split(sensorType, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ") + " Sensor"
}
