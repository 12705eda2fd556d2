package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConversationView — строка сайдбара: заголовок глазами пользователя,
// последнее сообщение и количество непрочитанных
type ConversationView struct {
	ConversationID    uuid.UUID  `json:"conversation_id"`
	Type              string     `json:"type"`
	Title             string     `json:"title"`
	LastMessageID     *uuid.UUID `json:"last_message_id,omitempty"`
	LastMessage       *string    `json:"last_message,omitempty"`
	LastMessageAt     *time.Time `json:"last_message_at,omitempty"`
	LastMessageSender *string    `json:"last_message_sender,omitempty"`
	UnreadCount       int64      `json:"unread_count"`
}

type MessageView struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Content        string    `json:"content"`
	IsSystem       bool      `json:"is_system"`
	SentAt         time.Time `json:"sent_at"`
	IsRead         bool      `json:"is_read"`
}

type MemberView struct {
	UserID          uuid.UUID  `json:"user_id"`
	DisplayName     string     `json:"display_name"`
	JoinedAt        time.Time  `json:"joined_at"`
	AddedByUserID   *uuid.UUID `json:"added_by_user_id,omitempty"`
	AddedByUserName *string    `json:"added_by_user_name,omitempty"`
	IsOwner         bool       `json:"is_owner"`
}

type OnlineUserView struct {
	ID          uuid.UUID `json:"id"`
	UserName    string    `json:"user_name"`
	DisplayName string    `json:"display_name"`
	IsOnline    bool      `json:"is_online"`
}
