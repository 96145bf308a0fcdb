package handlers

import (
	"log"
	"net/http"

	"github.com/Dosada05/scrim-system/live"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// В продакшене здесь должна быть проверка Origin,
		// чтобы разрешать подключения только с доверенных доменов.
		return true
	},
}

type WebSocketHandler struct {
	hub *live.Hub
}

func NewWebSocketHandler(hub *live.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

// ServeBoard подключает клиента к live-доске скримов.
// Клиент подключается к /ws/board и получает события SCRIM_*.
func (h *WebSocketHandler) ServeBoard(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade board connection: %v", err)
		// upgrader.Upgrade сам отправляет HTTP ошибку клиенту.
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: live.BoardRoom,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
