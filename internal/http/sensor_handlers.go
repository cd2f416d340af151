package httpapi

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rickhiram/Sensor-Dashboard/internal/repository"
	"github.com/rickhiram/Sensor-Dashboard/internal/service"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// SensorHandler serves the sensor endpoints: live reads out of the memory
// window, history out of durable storage, and the mutation operations.
type SensorHandler struct {
	query  *service.QueryService
	admin  *service.AdminService
	logger *zap.Logger
}

func NewSensorHandler(query *service.QueryService, admin *service.AdminService, logger *zap.Logger) *SensorHandler {
	return &SensorHandler{query: query, admin: admin, logger: logger}
}

func (h *SensorHandler) List(w http.ResponseWriter, req *http.Request) {
	sensors, err := h.query.ListSensors(req.Context(), 0)
	if err != nil {
		h.logger.Error("list sensors failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list sensors")
		return
	}
	writeJSON(w, http.StatusOK, sensors)
}

func (h *SensorHandler) Available(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.admin.AvailableTypes())
}

type addSensorRequest struct {
	Name string   `json:"name"`
	Type string   `json:"type"`
	Min  *float64 `json:"min_value"`
	Max  *float64 `json:"max_value"`
}

func (h *SensorHandler) Add(w http.ResponseWriter, req *http.Request) {
	var body addSensorRequest
	if err := readBodyJSON(req, maxBodyBytes, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Type == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}

	sensor, err := h.admin.AddSensor(req.Context(), body.Name, body.Type, body.Min, body.Max)
	if err != nil {
		if errors.Is(err, service.ErrUnknownSensorType) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("add sensor failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to add sensor")
		return
	}
	writeJSON(w, http.StatusCreated, sensor)
}

type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *SensorHandler) Toggle(w http.ResponseWriter, req *http.Request, id int64) {
	var body toggleRequest
	if err := readBodyJSON(req, maxBodyBytes, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.admin.ToggleSensor(req.Context(), id, body.Enabled); err != nil {
		h.respondMutationError(w, err, "toggle sensor failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": body.Enabled})
}

type rangeRequest struct {
	Min *float64 `json:"min_value"`
	Max *float64 `json:"max_value"`
}

func (h *SensorHandler) Range(w http.ResponseWriter, req *http.Request, id int64) {
	var body rangeRequest
	if err := readBodyJSON(req, maxBodyBytes, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.admin.SetRange(req.Context(), id, body.Min, body.Max); err != nil {
		h.respondMutationError(w, err, "set range failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"min_value": body.Min, "max_value": body.Max})
}

func (h *SensorHandler) Current(w http.ResponseWriter, _ *http.Request, id int64) {
	reading, ok, err := h.query.CurrentValue(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown sensor")
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"reading": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reading": reading})
}

func (h *SensorHandler) Data(w http.ResponseWriter, req *http.Request, id int64) {
	minutes := parseInt(req.URL.Query().Get("minutes"), 0)
	limit := parseInt(req.URL.Query().Get("limit"), 0)

	readings, err := h.query.RecentWindow(id, minutes, limit)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown sensor")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"readings": readings, "count": len(readings)})
}

func (h *SensorHandler) Alert(w http.ResponseWriter, _ *http.Request, id int64) {
	state, ok, err := h.query.AlertState(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown sensor")
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"alert": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alert": state})
}

func (h *SensorHandler) History(w http.ResponseWriter, req *http.Request, id int64) {
	from, to, err := historyRange(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := parseInt(req.URL.Query().Get("limit"), 0)

	readings, err := h.query.History(req.Context(), id, from, to, limit)
	if err != nil {
		if errors.Is(err, service.ErrUnknownSensor) {
			writeError(w, http.StatusNotFound, "unknown sensor")
			return
		}
		h.logger.Error("history query failed", zap.Int64("sensor_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"readings": readings, "count": len(readings)})
}

// ExportCSV streams the selected history range as CSV, one row per reading.
func (h *SensorHandler) ExportCSV(w http.ResponseWriter, req *http.Request, id int64) {
	from, to, err := historyRange(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	readings, err := h.query.History(req.Context(), id, from, to, 0)
	if err != nil {
		if errors.Is(err, service.ErrUnknownSensor) {
			writeError(w, http.StatusNotFound, "unknown sensor")
			return
		}
		h.logger.Error("history query failed", zap.Int64("sensor_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="sensor_%d_%s.csv"`, id, to.Format("20060102")))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"timestamp", "value"})
	for _, r := range readings {
		_ = cw.Write([]string{
			r.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(r.Value, 'f', -1, 64),
		})
	}
	cw.Flush()
}

// historyRange reads from/to query params (RFC 3339). Defaults: to=now,
// from=24h before to.
func historyRange(req *http.Request) (time.Time, time.Time, error) {
	to := time.Now()
	if s := req.URL.Query().Get("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'to' timestamp: %s", s)
		}
		to = t
	}
	from := to.Add(-24 * time.Hour)
	if s := req.URL.Query().Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'from' timestamp: %s", s)
		}
		from = t
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, errors.New("'from' is after 'to'")
	}
	return from, to, nil
}

func (h *SensorHandler) respondMutationError(w http.ResponseWriter, err error, logMsg string) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown sensor")
		return
	}
	h.logger.Error(logMsg, zap.Error(err))
	writeError(w, http.StatusBadRequest, err.Error())
}
