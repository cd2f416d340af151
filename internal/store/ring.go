package store

import (
	"sync"
	"time"

	"github.com/rickhiram/Sensor-Dashboard/internal/domain"
)

// ring is a fixed-capacity buffer of one sensor's most recent readings.
// Oldest entries are evicted first; the buffer never exceeds capacity.
type ring struct {
	buf   []domain.Reading
	head  int // next write position
	count int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]domain.Reading, capacity)}
}

func (r *ring) append(reading domain.Reading) {
	r.buf[r.head] = reading
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// window returns up to n readings, most-recent last.
func (r *ring) window(n int) []domain.Reading {
	if n <= 0 || n > r.count {
		n = r.count
	}
	out := make([]domain.Reading, 0, n)
	start := r.head - n
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < n; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}

// since returns the cached readings at or after cutoff, most-recent last.
func (r *ring) since(cutoff time.Time) []domain.Reading {
	all := r.window(r.count)
	for i, reading := range all {
		if !reading.Timestamp.Before(cutoff) {
			return all[i:]
		}
	}
	return nil
}

func (r *ring) latest() (domain.Reading, bool) {
	if r.count == 0 {
		return domain.Reading{}, false
	}
	idx := r.head - 1
	if idx < 0 {
		idx += len(r.buf)
	}
	return r.buf[idx], true
}

// Cache holds one ring per sensor. The outer lock only guards the map;
// each sensor has its own lock so concurrent reads of different sensors'
// windows never block each other.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	sensors  map[int64]*sensorEntry
}

type sensorEntry struct {
	mu   sync.RWMutex
	ring *ring
}

func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	return &Cache{capacity: capacity, sensors: map[int64]*sensorEntry{}}
}

func (c *Cache) entry(sensorID int64) *sensorEntry {
	c.mu.RLock()
	e, ok := c.sensors[sensorID]
	c.mu.RUnlock()
	if ok {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.sensors[sensorID]; ok {
		return e
	}
	e = &sensorEntry{ring: newRing(c.capacity)}
	c.sensors[sensorID] = e
	return e
}

func (c *Cache) Append(reading domain.Reading) {
	e := c.entry(reading.SensorID)
	e.mu.Lock()
	e.ring.append(reading)
	e.mu.Unlock()
}

func (c *Cache) Window(sensorID int64, n int) []domain.Reading {
	e := c.entry(sensorID)
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ring.window(n)
}

func (c *Cache) Since(sensorID int64, cutoff time.Time) []domain.Reading {
	e := c.entry(sensorID)
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ring.since(cutoff)
}

func (c *Cache) Latest(sensorID int64) (domain.Reading, bool) {
	e := c.entry(sensorID)
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ring.latest()
}
