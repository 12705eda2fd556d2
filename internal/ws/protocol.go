package ws

import (
	"encoding/json"

	"github.com/google/uuid"

	"chat_server/internal/domain"
)

// Действия, доступные клиенту поверх одного соединения
const (
	ActionJoinConversation  = "join_conversation"
	ActionLeaveConversation = "leave_conversation"
	ActionSendMessage       = "send_message"
	ActionTypingStarted     = "typing_started"
	ActionTypingStopped     = "typing_stopped"
	ActionMarkRead          = "mark_read"
)

// Request — входящий RPC-конверт
type Request struct {
	Action         string    `json:"action"`
	ConversationID uuid.UUID `json:"conversation_id,omitempty"`
	MessageID      uuid.UUID `json:"message_id,omitempty"`
	Content        string    `json:"content,omitempty"`
}

// envelope — исходящий конверт: тег типа плюс полезная нагрузка
type envelope struct {
	Type string       `json:"type"`
	Data domain.Event `json:"data"`
}

func encodeEvent(event domain.Event) ([]byte, error) {
	return json.Marshal(envelope{Type: event.EventType(), Data: event})
}
