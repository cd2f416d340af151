package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rickhiram/Sensor-Dashboard/internal/domain"
	"go.uber.org/zap"
)

// ReadingsRepo is the durable append-only reading log.
type ReadingsRepo interface {
	InsertReading(ctx context.Context, r domain.Reading) error
	History(ctx context.Context, sensorID int64, from, to time.Time, limit int) ([]domain.Reading, error)
}

// TimeSeries combines the in-memory recent-window cache with the durable
// reading log. For one sensor, cache and durable writes happen in append
// order (the ingestion loop is the single writer per stream); reads of the
// recent window never block on the durable path.
type TimeSeries struct {
	cache        *Cache
	repo         ReadingsRepo
	kv           KV // optional mirror, may be nil
	writeTimeout time.Duration
	logger       *zap.Logger
}

func NewTimeSeries(cache *Cache, repo ReadingsRepo, kv KV, writeTimeout time.Duration, logger *zap.Logger) *TimeSeries {
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Second
	}
	return &TimeSeries{cache: cache, repo: repo, kv: kv, writeTimeout: writeTimeout, logger: logger}
}

// Append records the reading. The memory window always takes it; the durable
// insert runs under a bounded timeout and its failure degrades to
// memory-only instead of stalling ingestion.
func (t *TimeSeries) Append(ctx context.Context, r domain.Reading) error {
	t.cache.Append(r)
	t.mirror(ctx, r)

	wctx, cancel := context.WithTimeout(ctx, t.writeTimeout)
	defer cancel()
	if err := t.repo.InsertReading(wctx, r); err != nil {
		return fmt.Errorf("durable write: %w", err)
	}
	return nil
}

// RecentWindow returns the latest n cached readings, most-recent last.
func (t *TimeSeries) RecentWindow(sensorID int64, n int) []domain.Reading {
	return t.cache.Window(sensorID, n)
}

// RecentSince returns cached readings newer than the given age.
func (t *TimeSeries) RecentSince(sensorID int64, age time.Duration) []domain.Reading {
	return t.cache.Since(sensorID, time.Now().Add(-age))
}

// Current returns the newest cached reading, ok=false when the sensor has no
// data yet.
func (t *TimeSeries) Current(sensorID int64) (domain.Reading, bool) {
	return t.cache.Latest(sensorID)
}

// History reads from durable storage for ranges outside the memory window.
func (t *TimeSeries) History(ctx context.Context, sensorID int64, from, to time.Time, limit int) ([]domain.Reading, error) {
	return t.repo.History(ctx, sensorID, from, to, limit)
}

func (t *TimeSeries) mirror(ctx context.Context, r domain.Reading) {
	if t.kv == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"value":     r.Value,
		"timestamp": r.Timestamp.Format(time.RFC3339Nano),
	})
	if err != nil {
		return
	}
	kctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	key := fmt.Sprintf("sensorhub:current:%d", r.SensorID)
	if err := t.kv.Set(kctx, key, string(payload), time.Hour); err != nil {
		t.logger.Debug("kv mirror failed", zap.String("key", key), zap.Error(err))
	}
}
