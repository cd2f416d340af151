package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rickhiram/Sensor-Dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reading(sensorID int64, sec int, value float64) domain.Reading {
	return domain.Reading{
		SensorID:  sensorID,
		Timestamp: time.Date(2025, 6, 1, 12, 0, sec, 0, time.UTC),
		Value:     value,
	}
}

func TestCacheWriteThenReadSingleSensor(t *testing.T) {
	c := NewCache(8)
	c.Append(reading(1, 0, 42.5))

	got := c.Window(1, 1)
	require.Len(t, got, 1)
	assert.Equal(t, 42.5, got[0].Value)

	latest, ok := c.Latest(1)
	require.True(t, ok)
	assert.Equal(t, 42.5, latest.Value)
}

func TestCacheCapacityEviction(t *testing.T) {
	const capacity = 4
	c := NewCache(capacity)

	for i := 0; i <= capacity; i++ {
		c.Append(reading(1, i, float64(i)))
	}

	got := c.Window(1, 0)
	require.Len(t, got, capacity, "ring must never exceed capacity")

	// After N+1 appends with capacity N the oldest entry is gone.
	for _, r := range got {
		assert.NotEqual(t, 0.0, r.Value, "oldest entry should have been evicted")
	}
	// Most-recent last ordering.
	assert.Equal(t, []float64{1, 2, 3, 4}, []float64{got[0].Value, got[1].Value, got[2].Value, got[3].Value})
}

func TestCacheWindowSmallerThanCount(t *testing.T) {
	c := NewCache(8)
	for i := 0; i < 5; i++ {
		c.Append(reading(1, i, float64(i)))
	}

	got := c.Window(1, 2)
	require.Len(t, got, 2)
	assert.Equal(t, 3.0, got[0].Value)
	assert.Equal(t, 4.0, got[1].Value)
}

func TestCacheSince(t *testing.T) {
	c := NewCache(8)
	for i := 0; i < 5; i++ {
		c.Append(reading(1, i*10, float64(i)))
	}

	cutoff := time.Date(2025, 6, 1, 12, 0, 20, 0, time.UTC)
	got := c.Since(1, cutoff)
	require.Len(t, got, 3)
	assert.Equal(t, 2.0, got[0].Value)
	assert.Equal(t, 4.0, got[2].Value)
}

func TestCacheNoDataYet(t *testing.T) {
	c := NewCache(8)

	assert.Empty(t, c.Window(99, 10))
	_, ok := c.Latest(99)
	assert.False(t, ok)
}

func TestCacheSensorsAreIndependent(t *testing.T) {
	c := NewCache(4)
	c.Append(reading(1, 0, 1))
	c.Append(reading(2, 0, 2))

	require.Len(t, c.Window(1, 0), 1)
	require.Len(t, c.Window(2, 0), 1)
	assert.Equal(t, 1.0, c.Window(1, 0)[0].Value)
	assert.Equal(t, 2.0, c.Window(2, 0)[0].Value)
}

func TestCacheConcurrentAppendAndRead(t *testing.T) {
	c := NewCache(32)
	var wg sync.WaitGroup

	for s := int64(1); s <= 4; s++ {
		wg.Add(2)
		go func(id int64) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.Append(reading(id, i%60, float64(i)))
			}
		}(s)
		go func(id int64) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				w := c.Window(id, 10)
				if len(w) > 32 {
					panic(fmt.Sprintf("window overflow: %d", len(w)))
				}
			}
		}(s)
	}
	wg.Wait()

	for s := int64(1); s <= 4; s++ {
		assert.LessOrEqual(t, len(c.Window(s, 0)), 32)
	}
}
