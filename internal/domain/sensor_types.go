package domain

import "sort"

// SensorTypeInfo describes one supported sensor type: its display unit and
// the default valid range applied when a sensor of this type is created
// without an explicit range.
type SensorTypeInfo struct {
	Type       string  `json:"type"`
	Unit       string  `json:"unit"`
	DefaultMin float64 `json:"default_min"`
	DefaultMax float64 `json:"default_max"`
}

// sensorTypes is static configuration, not branching logic: the key
// vocabulary accepted on the wire and the unit/range defaults per type.
var sensorTypes = map[string]SensorTypeInfo{
	"temperature":    {Type: "temperature", Unit: "°C", DefaultMin: -40, DefaultMax: 85},
	"humidity":       {Type: "humidity", Unit: "%", DefaultMin: 0, DefaultMax: 100},
	"light":          {Type: "light", Unit: "lux", DefaultMin: 0, DefaultMax: 100000},
	"soil_moisture":  {Type: "soil_moisture", Unit: "%", DefaultMin: 0, DefaultMax: 100},
	"distance":       {Type: "distance", Unit: "cm", DefaultMin: 0, DefaultMax: 400},
	"pressure":       {Type: "pressure", Unit: "hPa", DefaultMin: 300, DefaultMax: 1100},
	"co2":            {Type: "co2", Unit: "ppm", DefaultMin: 400, DefaultMax: 5000},
	"magnetic_field": {Type: "magnetic_field", Unit: "µT", DefaultMin: -100, DefaultMax: 100},
}

// SensorTypeByName returns the type table entry for name, if known.
func SensorTypeByName(name string) (SensorTypeInfo, bool) {
	info, ok := sensorTypes[name]
	return info, ok
}

// SensorTypeList returns all supported sensor types in stable order.
func SensorTypeList() []SensorTypeInfo {
	out := make([]SensorTypeInfo, 0, len(sensorTypes))
	for _, info := range sensorTypes {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
