package service

import (
	"context"
	"sync"

	"github.com/rickhiram/Sensor-Dashboard/internal/domain"
	"github.com/rickhiram/Sensor-Dashboard/internal/repository"
)

// SensorRegistry is the in-memory snapshot of the registered sensor set. The
// ingestion loop resolves keys against it on every line, so lookups must not
// touch the database; mutations go through the repo first and then update
// the snapshot. Toggling is race-safe by construction: a record already past
// the lookup lands once, later records see the new state.
type SensorRegistry struct {
	mu   sync.RWMutex
	repo repository.SensorsRepo
	byID map[int64]domain.Sensor
}

func NewSensorRegistry(repo repository.SensorsRepo) *SensorRegistry {
	return &SensorRegistry{repo: repo, byID: map[int64]domain.Sensor{}}
}

// Load replaces the snapshot with the repo contents.
func (r *SensorRegistry) Load(ctx context.Context) error {
	sensors, err := r.repo.ListSensors(ctx)
	if err != nil {
		return err
	}

	byID := make(map[int64]domain.Sensor, len(sensors))
	for _, s := range sensors {
		byID[s.ID] = s
	}

	r.mu.Lock()
	r.byID = byID
	r.mu.Unlock()
	return nil
}

// HasKey reports whether any sensor (enabled or not) is registered for the
// wire key. Disabled sensors keep their key registered: their lines are
// dropped later, not treated as unknown.
func (r *SensorRegistry) HasKey(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.byID {
		if s.Type == key {
			return true
		}
	}
	return false
}

// EnabledSensors returns every enabled sensor registered for the wire key.
func (r *SensorRegistry) EnabledSensors(key string) []domain.Sensor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Sensor
	for _, s := range r.byID {
		if s.Enabled && s.Type == key {
			out = append(out, s)
		}
	}
	return out
}

func (r *SensorRegistry) Get(id int64) (domain.Sensor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

func (r *SensorRegistry) List() []domain.Sensor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Sensor, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	return out
}

func (r *SensorRegistry) upsert(s domain.Sensor) {
	r.mu.Lock()
	r.byID[s.ID] = s
	r.mu.Unlock()
}

func (r *SensorRegistry) setEnabled(id int64, enabled bool) {
	r.mu.Lock()
	if s, ok := r.byID[id]; ok {
		s.Enabled = enabled
		r.byID[id] = s
	}
	r.mu.Unlock()
}

func (r *SensorRegistry) setRange(id int64, min, max *float64) {
	r.mu.Lock()
	if s, ok := r.byID[id]; ok {
		s.Min = min
		s.Max = max
		r.byID[id] = s
	}
	r.mu.Unlock()
}
