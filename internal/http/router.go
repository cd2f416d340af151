package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router wraps the standard library http.ServeMux so the API surface stays
// free of third-party routing dependencies.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterSensorRoutes wires the sensor read and mutation endpoints.
func (r *Router) RegisterSensorRoutes(h *SensorHandler) {
	r.Handle("/api/sensors", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.List(w, req)
		case http.MethodPost:
			h.Add(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	r.Handle("/api/sensors/available", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Available(w, req)
	})

	// /api/sensors/{id}/{action}
	r.Handle("/api/sensors/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/sensors/")
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 || parts[0] == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		id, ok := parseID(parts[0])
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		switch parts[1] {
		case "current":
			requireGet(w, req, func() { h.Current(w, req, id) })
		case "data":
			requireGet(w, req, func() { h.Data(w, req, id) })
		case "alert":
			requireGet(w, req, func() { h.Alert(w, req, id) })
		case "history":
			requireGet(w, req, func() { h.History(w, req, id) })
		case "export.csv":
			requireGet(w, req, func() { h.ExportCSV(w, req, id) })
		case "toggle":
			requirePost(w, req, func() { h.Toggle(w, req, id) })
		case "range":
			requirePost(w, req, func() { h.Range(w, req, id) })
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// RegisterProjectRoutes wires project listing, creation, and membership.
func (r *Router) RegisterProjectRoutes(h *ProjectHandler) {
	r.Handle("/api/projects", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.List(w, req)
		case http.MethodPost:
			h.Create(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// /api/projects/{id}/sensors
	r.Handle("/api/projects/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/projects/")
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 || parts[1] != "sensors" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		id, ok := parseID(parts[0])
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		switch req.Method {
		case http.MethodGet:
			h.Sensors(w, req, id)
		case http.MethodPost:
			h.AddSensor(w, req, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// RegisterStatusRoutes wires the ingestion status endpoint.
func (r *Router) RegisterStatusRoutes(h *StatusHandler) {
	r.Handle("/api/status", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Status(w, req)
	})
}

func requireGet(w http.ResponseWriter, req *http.Request, next func()) {
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	next()
}

func requirePost(w http.ResponseWriter, req *http.Request, next func()) {
	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	next()
}
