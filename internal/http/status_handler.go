package httpapi

import (
	"net/http"

	"github.com/rickhiram/Sensor-Dashboard/internal/ingest"
)

// StatusProvider exposes the ingestion loop snapshot.
type StatusProvider interface {
	Status() ingest.Status
}

// StatusHandler reports the ingestion state machine: connection state, active
// port, counters. The dashboard polls this to show link health.
type StatusHandler struct {
	ingest StatusProvider
}

func NewStatusHandler(provider StatusProvider) *StatusHandler {
	return &StatusHandler{ingest: provider}
}

func (h *StatusHandler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ingest.Status())
}
