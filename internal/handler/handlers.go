package handler

import (
	"chat_server/internal/config"
	"chat_server/internal/service"
	"chat_server/internal/ws"
	"chat_server/pkg/logger"
)

type Handlers struct {
	Health       *HealthHandler
	User         *UserHandler
	Conversation *ConversationHandler
	WebSocket    *WebSocketHandler
}

func NewHandlers(services *service.Services, gateway *ws.Gateway, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(cfg),
		User:         NewUserHandler(services.User, log),
		Conversation: NewConversationHandler(services.Conversation, log),
		WebSocket:    NewWebSocketHandler(gateway, log),
	}
}
