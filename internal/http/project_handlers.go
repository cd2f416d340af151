package httpapi

import (
	"errors"
	"net/http"

	"github.com/rickhiram/Sensor-Dashboard/internal/service"
	"go.uber.org/zap"
)

// ProjectHandler serves project listing, creation, and sensor membership.
type ProjectHandler struct {
	query  *service.QueryService
	admin  *service.AdminService
	logger *zap.Logger
}

func NewProjectHandler(query *service.QueryService, admin *service.AdminService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{query: query, admin: admin, logger: logger}
}

func (h *ProjectHandler) List(w http.ResponseWriter, req *http.Request) {
	projects, err := h.admin.ListProjects(req.Context())
	if err != nil {
		h.logger.Error("list projects failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

type createProjectRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SensorTypes []string `json:"sensor_types"`
}

func (h *ProjectHandler) Create(w http.ResponseWriter, req *http.Request) {
	var body createProjectRequest
	if err := readBodyJSON(req, maxBodyBytes, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	project, err := h.admin.CreateProject(req.Context(), body.Name, body.Description, body.SensorTypes)
	if err != nil {
		h.logger.Error("create project failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create project")
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) Sensors(w http.ResponseWriter, req *http.Request, projectID int64) {
	sensors, err := h.query.ListSensors(req.Context(), projectID)
	if err != nil {
		h.logger.Error("list project sensors failed",
			zap.Int64("project_id", projectID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list project sensors")
		return
	}
	writeJSON(w, http.StatusOK, sensors)
}

type addProjectSensorRequest struct {
	SensorID int64 `json:"sensor_id"`
}

func (h *ProjectHandler) AddSensor(w http.ResponseWriter, req *http.Request, projectID int64) {
	var body addProjectSensorRequest
	if err := readBodyJSON(req, maxBodyBytes, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.SensorID <= 0 {
		writeError(w, http.StatusBadRequest, "sensor_id is required")
		return
	}

	if err := h.admin.AddSensorToProject(req.Context(), projectID, body.SensorID); err != nil {
		if errors.Is(err, service.ErrUnknownSensor) {
			writeError(w, http.StatusNotFound, "unknown sensor")
			return
		}
		h.logger.Error("add sensor to project failed",
			zap.Int64("project_id", projectID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to add sensor to project")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"project_id": projectID, "sensor_id": body.SensorID})
}
