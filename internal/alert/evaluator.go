package alert

import (
	"sync"
	"time"

	"github.com/rickhiram/Sensor-Dashboard/internal/domain"
	"go.uber.org/zap"
)

// Event is one range-boundary crossing. It fires on transitions only, never
// on every sample.
type Event struct {
	SensorID   int64     `json:"sensor_id"`
	SensorName string    `json:"sensor_name"`
	InRange    bool      `json:"in_range"`
	Value      float64   `json:"value"`
	At         time.Time `json:"at"`
}

// Publisher receives edge events (MQTT, test hooks). Must not block.
type Publisher interface {
	PublishAlert(e Event)
}

// Evaluator tracks per-sensor in/out-of-range state. State is derived and
// recomputable; it lives only in memory.
type Evaluator struct {
	mu     sync.RWMutex
	states map[int64]domain.AlertState
	pubs   []Publisher
	logger *zap.Logger
}

func NewEvaluator(logger *zap.Logger, pubs ...Publisher) *Evaluator {
	return &Evaluator{
		states: map[int64]domain.AlertState{},
		pubs:   pubs,
		logger: logger,
	}
}

// Evaluate folds one reading into the sensor's alert state. The first
// reading seeds the state without firing an edge; afterwards an edge fires
// exactly once per boundary crossing.
func (e *Evaluator) Evaluate(s domain.Sensor, r domain.Reading) {
	inRange := withinRange(s, r.Value)

	e.mu.Lock()
	prev, seen := e.states[s.ID]
	next := domain.AlertState{InRange: inRange, LastValue: r.Value, Since: prev.Since}
	transition := seen && prev.InRange != inRange
	if !seen || transition {
		next.Since = r.Timestamp
	}
	e.states[s.ID] = next
	e.mu.Unlock()

	if !transition {
		return
	}

	ev := Event{SensorID: s.ID, SensorName: s.Name, InRange: inRange, Value: r.Value, At: r.Timestamp}
	e.logger.Info("alert transition",
		zap.Int64("sensor_id", ev.SensorID),
		zap.String("sensor", ev.SensorName),
		zap.Bool("in_range", ev.InRange),
		zap.Float64("value", ev.Value))
	for _, p := range e.pubs {
		p.PublishAlert(ev)
	}
}

// State returns the current alert state, ok=false before the first reading.
func (e *Evaluator) State(sensorID int64) (domain.AlertState, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st, ok := e.states[sensorID]
	return st, ok
}

// withinRange treats a sensor with no configured bound as always in range.
func withinRange(s domain.Sensor, value float64) bool {
	if s.Min != nil && value < *s.Min {
		return false
	}
	if s.Max != nil && value > *s.Max {
		return false
	}
	return true
}
