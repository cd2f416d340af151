package domain

import "time"

// Sensor is a named, typed data source attached to the telemetry stream.
// Min/Max are nil when no valid range has been configured.
type Sensor struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Unit      string     `json:"unit"`
	Enabled   bool       `json:"enabled"`
	Min       *float64   `json:"min_value"`
	Max       *float64   `json:"max_value"`
	CreatedAt time.Time  `json:"created_at"`
}

// Reading is one immutable (sensor, timestamp, value) fact.
type Reading struct {
	SensorID  int64     `json:"sensor_id"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Project groups sensors for dashboard display. Membership is many-to-many:
// one sensor may feed several projects.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// AlertState is the derived in/out-of-range status of a sensor. It is
// recomputed on every reading and never persisted.
type AlertState struct {
	InRange   bool      `json:"in_range"`
	LastValue float64   `json:"last_value"`
	Since     time.Time `json:"since"`
}
