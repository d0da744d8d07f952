package handlers

import (
	"encoding/json"
	"net/http"

	"projector-server/internal/models"
	"projector-server/internal/services"
)

// SlideHandler handles HTTP requests that drive the active slide
type SlideHandler struct {
	controller *services.SlideController
}

// NewSlideHandler creates a new slide handler
func NewSlideHandler(controller *services.SlideController) *SlideHandler {
	return &SlideHandler{
		controller: controller,
	}
}

// FullscreenResponse is returned by ToggleFullscreen
type FullscreenResponse struct {
	Fullscreen bool `json:"fullscreen"`
}

// GetActiveSlide returns the current active slide
// GET /api/projector/active-slide
func (h *SlideHandler) GetActiveSlide(w http.ResponseWriter, r *http.Request) {
	slide, err := h.controller.Current(r.Context(), ActorFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slide)
}

// SetActiveSlide replaces the active slide with new content
// PUT /api/projector/active-slide
func (h *SlideHandler) SetActiveSlide(w http.ResponseWriter, r *http.Request) {
	var req models.ActiveSlide
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	slide, err := h.controller.Activate(r.Context(), ActorFrom(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slide)
}

// NextPage shows the next page of the active pdf
// POST /api/projector/pdf/next
func (h *SlideHandler) NextPage(w http.ResponseWriter, r *http.Request) {
	result, err := h.controller.AdvancePage(r.Context(), ActorFrom(r.Context()))
	writePageResult(w, result, err)
}

// PreviousPage shows the previous page of the active pdf
// POST /api/projector/pdf/previous
func (h *SlideHandler) PreviousPage(w http.ResponseWriter, r *http.Request) {
	result, err := h.controller.RetreatPage(r.Context(), ActorFrom(r.Context()))
	writePageResult(w, result, err)
}

// GoToPage shows the page given in page_num
// POST /api/projector/pdf/goto?page_num=N
func (h *SlideHandler) GoToPage(w http.ResponseWriter, r *http.Request) {
	target := services.ParsePageTarget(r.URL.Query().Get("page_num"))
	result, err := h.controller.GoToPage(r.Context(), ActorFrom(r.Context()), target)
	writePageResult(w, result, err)
}

// ToggleFullscreen flips fullscreen mode on the projector
// POST /api/projector/pdf/fullscreen
func (h *SlideHandler) ToggleFullscreen(w http.ResponseWriter, r *http.Request) {
	fullscreen, err := h.controller.ToggleFullscreen(r.Context(), ActorFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FullscreenResponse{Fullscreen: fullscreen})
}

// writePageResult answers with the new page, or 204 when nothing changed
func writePageResult(w http.ResponseWriter, result models.PageResult, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !result.Changed {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
