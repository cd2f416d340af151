package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rickhiram/Sensor-Dashboard/internal/alert"
	"github.com/rickhiram/Sensor-Dashboard/internal/domain"
	"github.com/rickhiram/Sensor-Dashboard/internal/repository"
	"github.com/rickhiram/Sensor-Dashboard/internal/store"
)

var ErrUnknownSensor = errors.New("unknown sensor")

// SensorStatus is one sensor plus its live view: current value and alert
// state, both nil before the first reading ("no data yet" is an explicit
// result, never a failure).
type SensorStatus struct {
	domain.Sensor
	Current *domain.Reading    `json:"current"`
	Alert   *domain.AlertState `json:"alert"`
}

// QueryService is the read-only façade for the presentation layer. Every
// operation is served from memory (registry, ring cache, evaluator) except
// History, which hits durable storage; none of them wait on serial I/O.
type QueryService struct {
	registry *SensorRegistry
	series   *store.TimeSeries
	alerts   *alert.Evaluator
	projects repository.ProjectsRepo
}

func NewQueryService(registry *SensorRegistry, series *store.TimeSeries, alerts *alert.Evaluator, projects repository.ProjectsRepo) *QueryService {
	return &QueryService{registry: registry, series: series, alerts: alerts, projects: projects}
}

// CurrentValue returns the newest reading; ok=false means no data yet.
func (q *QueryService) CurrentValue(sensorID int64) (domain.Reading, bool, error) {
	if _, known := q.registry.Get(sensorID); !known {
		return domain.Reading{}, false, ErrUnknownSensor
	}
	r, ok := q.series.Current(sensorID)
	return r, ok, nil
}

// RecentWindow returns the cached window, most-recent last. minutes bounds
// the age when > 0; limit bounds the count when > 0.
func (q *QueryService) RecentWindow(sensorID int64, minutes, limit int) ([]domain.Reading, error) {
	if _, known := q.registry.Get(sensorID); !known {
		return nil, ErrUnknownSensor
	}

	var out []domain.Reading
	if minutes > 0 {
		out = q.series.RecentSince(sensorID, time.Duration(minutes)*time.Minute)
	} else {
		out = q.series.RecentWindow(sensorID, 0)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// AlertState returns the derived state; ok=false means no data yet.
func (q *QueryService) AlertState(sensorID int64) (domain.AlertState, bool, error) {
	if _, known := q.registry.Get(sensorID); !known {
		return domain.AlertState{}, false, ErrUnknownSensor
	}
	st, ok := q.alerts.State(sensorID)
	return st, ok, nil
}

// History reads durable storage for ranges outside the memory window.
func (q *QueryService) History(ctx context.Context, sensorID int64, from, to time.Time, limit int) ([]domain.Reading, error) {
	if _, known := q.registry.Get(sensorID); !known {
		return nil, ErrUnknownSensor
	}
	return q.series.History(ctx, sensorID, from, to, limit)
}

// ListSensors returns sensors with their live status. projectID 0 lists the
// full registered set.
func (q *QueryService) ListSensors(ctx context.Context, projectID int64) ([]SensorStatus, error) {
	var sensors []domain.Sensor
	if projectID > 0 {
		ids, err := q.projects.ListProjectSensorIDs(ctx, projectID)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if s, ok := q.registry.Get(id); ok {
				sensors = append(sensors, s)
			}
		}
	} else {
		sensors = q.registry.List()
	}

	sort.Slice(sensors, func(i, j int) bool {
		if sensors[i].Name != sensors[j].Name {
			return sensors[i].Name < sensors[j].Name
		}
		return sensors[i].ID < sensors[j].ID
	})

	out := make([]SensorStatus, 0, len(sensors))
	for _, s := range sensors {
		status := SensorStatus{Sensor: s}
		if r, ok := q.series.Current(s.ID); ok {
			cur := r
			status.Current = &cur
		}
		if st, ok := q.alerts.State(s.ID); ok {
			state := st
			status.Alert = &state
		}
		out = append(out, status)
	}
	return out, nil
}
