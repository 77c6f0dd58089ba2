package websocket

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"groupchat/internal/domain"
)

type WebSocketHandler struct {
	upgrader *websocket.Upgrader
	chat     ChatService
	hub      *Hub
	settings Settings
	log      *zap.Logger
}

func NewWebSocketHandler(chat ChatService, hub *Hub, settings Settings, log *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		chat:     chat,
		hub:      hub,
		settings: settings,
		log:      log,
	}
}

// ServeHTTP upgrades /ws?user_id=N and subscribes the connection to the
// user's groups.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(r.URL.Query().Get("user_id"))
	if err != nil || userID <= 0 {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	if _, err := h.chat.GetUser(r.Context(), userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		h.log.Error("load user", zap.Int("user_id", userID), zap.Error(err))
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return
	}

	groups, err := h.chat.UserGroups(r.Context(), userID)
	if err != nil {
		h.log.Error("load user groups", zap.Int("user_id", userID), zap.Error(err))
		http.Error(w, "failed to load groups", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ids := make([]int, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}

	client := &Client{
		UserID:   userID,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Hub:      h.hub,
		groupIDs: ids,
		chat:     h.chat,
		settings: h.settings,
		log:      h.log,
	}
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
