package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes wires every handler onto a router
func SetupRoutes(wsHandler *WebSocketHandler, slideHandler *SlideHandler, projectorHandler *ProjectorHandler, parser ActorParser) *mux.Router {
	router := mux.NewRouter()
	router.Use(LogMiddleware)
	router.Use(ActorMiddleware(parser))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}).Methods(http.MethodGet)

	router.HandleFunc("/ws", wsHandler.HandleWebSocket).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	projector := api.PathPrefix("/projector").Subrouter()
	projector.HandleFunc("/active-slide", slideHandler.GetActiveSlide).Methods(http.MethodGet)
	projector.HandleFunc("/active-slide", slideHandler.SetActiveSlide).Methods(http.MethodPut)
	projector.HandleFunc("/pdf/next", slideHandler.NextPage).Methods(http.MethodPost)
	projector.HandleFunc("/pdf/previous", slideHandler.PreviousPage).Methods(http.MethodPost)
	projector.HandleFunc("/pdf/goto", slideHandler.GoToPage).Methods(http.MethodPost)
	projector.HandleFunc("/pdf/fullscreen", slideHandler.ToggleFullscreen).Methods(http.MethodPost)

	api.HandleFunc("/projectors", projectorHandler.ListProjectors).Methods(http.MethodGet)
	api.HandleFunc("/projectors", projectorHandler.CreateProjector).Methods(http.MethodPost)
	api.HandleFunc("/projectors/{id}", projectorHandler.GetProjector).Methods(http.MethodGet)

	return router
}
