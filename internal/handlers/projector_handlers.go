package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"projector-server/internal/models"
	"projector-server/internal/services"
)

// ProjectorHandler handles HTTP requests for projector records
type ProjectorHandler struct {
	projectorService *services.ProjectorService
	gate             services.PermissionGate
}

// NewProjectorHandler creates a new projector handler
func NewProjectorHandler(projectorService *services.ProjectorService, gate services.PermissionGate) *ProjectorHandler {
	return &ProjectorHandler{
		projectorService: projectorService,
		gate:             gate,
	}
}

// CreateProjectorRequest represents a projector creation request
type CreateProjectorRequest struct {
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CreateProjector stores a new projector
// POST /api/projectors
func (h *ProjectorHandler) CreateProjector(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Authorize(r.Context(), ActorFrom(r.Context()), models.OperationManage); err != nil {
		writeServiceError(w, err)
		return
	}

	var req CreateProjectorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	projector, err := h.projectorService.Create(r.Context(), req.Name, req.Width, req.Height)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, projector)
}

// ListProjectors returns all projectors
// GET /api/projectors
func (h *ProjectorHandler) ListProjectors(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Authorize(r.Context(), ActorFrom(r.Context()), models.OperationView); err != nil {
		writeServiceError(w, err)
		return
	}

	projectors, err := h.projectorService.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	// Always return an array, even if empty
	if projectors == nil {
		projectors = []*models.Projector{}
	}
	writeJSON(w, http.StatusOK, projectors)
}

// GetProjector returns a projector by ID
// GET /api/projectors/{id}
func (h *ProjectorHandler) GetProjector(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Authorize(r.Context(), ActorFrom(r.Context()), models.OperationView); err != nil {
		writeServiceError(w, err)
		return
	}

	projector, err := h.projectorService.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projector)
}
