package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rickhiram/Sensor-Dashboard/internal/domain"
)

// MemorySensorsRepo backs sensor management when the DB is disabled or
// unreachable: the engine stays usable, metadata just does not survive a
// restart.
type MemorySensorsRepo struct {
	mu      sync.RWMutex
	nextID  int64
	sensors map[int64]domain.Sensor
}

func NewMemorySensorsRepo() *MemorySensorsRepo {
	return &MemorySensorsRepo{nextID: 1, sensors: map[int64]domain.Sensor{}}
}

func (r *MemorySensorsRepo) ListSensors(_ context.Context) ([]domain.Sensor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Sensor, 0, len(r.sensors))
	for _, s := range r.sensors {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemorySensorsRepo) GetSensor(_ context.Context, id int64) (*domain.Sensor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sensors[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *MemorySensorsRepo) CreateSensor(_ context.Context, s domain.Sensor) (*domain.Sensor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.ID = r.nextID
	r.nextID++
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	r.sensors[s.ID] = s
	return &s, nil
}

func (r *MemorySensorsRepo) SetEnabled(_ context.Context, id int64, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sensors[id]
	if !ok {
		return ErrNotFound
	}
	s.Enabled = enabled
	r.sensors[id] = s
	return nil
}

func (r *MemorySensorsRepo) SetRange(_ context.Context, id int64, min, max *float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sensors[id]
	if !ok {
		return ErrNotFound
	}
	s.Min = min
	s.Max = max
	r.sensors[id] = s
	return nil
}
