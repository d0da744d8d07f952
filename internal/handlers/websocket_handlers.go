package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"projector-server/internal/models"
	"projector-server/internal/services"
)

// WebSocketHandler upgrades viewer connections onto the broadcast hub
type WebSocketHandler struct {
	wsService *services.WebSocketService
	gate      services.PermissionGate
	upgrader  websocket.Upgrader
}

// NewWebSocketHandler creates a new websocket handler
func NewWebSocketHandler(wsService *services.WebSocketService, gate services.PermissionGate) *WebSocketHandler {
	return &WebSocketHandler{
		wsService: wsService,
		gate:      gate,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Projector screens are opened from other origins (beamer PCs, kiosks)
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWebSocket attaches a viewer
// GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())
	if err := h.gate.Authorize(r.Context(), actor, models.OperationView); err != nil {
		writeServiceError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	h.wsService.Attach(conn)
}
