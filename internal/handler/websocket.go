package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chat_server/internal/middleware"
	"chat_server/internal/ws"
	"chat_server/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // В продакшене нужно проверять origin
	},
}

type WebSocketHandler struct {
	gateway *ws.Gateway
	log     logger.Logger
}

func NewWebSocketHandler(gateway *ws.Gateway, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		gateway: gateway,
		log:     log,
	}
}

// Connect апгрейдит соединение и передаёт его шлюзу;
// личность берётся из токена, подключение её не выбирает
func (h *WebSocketHandler) Connect(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	displayName := middleware.CurrentDisplayName(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	h.gateway.HandleConnection(c.Request.Context(), conn, userID, displayName)
}
