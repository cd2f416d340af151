package repository

import (
	"context"
	"sync"
	"time"

	"github.com/rickhiram/Sensor-Dashboard/internal/domain"
)

// MemoryReadingsRepo keeps the reading log in process memory. It caps the
// per-sensor log so a long no-DB run cannot grow without bound.
type MemoryReadingsRepo struct {
	mu       sync.RWMutex
	maxPer   int
	readings map[int64][]domain.Reading
}

func NewMemoryReadingsRepo() *MemoryReadingsRepo {
	return &MemoryReadingsRepo{maxPer: 100000, readings: map[int64][]domain.Reading{}}
}

func (r *MemoryReadingsRepo) InsertReading(_ context.Context, reading domain.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := append(r.readings[reading.SensorID], reading)
	if len(log) > r.maxPer {
		log = log[len(log)-r.maxPer:]
	}
	r.readings[reading.SensorID] = log
	return nil
}

func (r *MemoryReadingsRepo) History(_ context.Context, sensorID int64, from, to time.Time, limit int) ([]domain.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Reading{}
	for _, rd := range r.readings[sensorID] {
		if rd.Timestamp.Before(from) || rd.Timestamp.After(to) {
			continue
		}
		out = append(out, rd)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
