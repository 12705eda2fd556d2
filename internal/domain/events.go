package domain

import (
	"time"

	"github.com/google/uuid"
)

// Закрытый набор событий нотификаций. Каждое событие несёт тег типа,
// по которому клиент и fanout-резолвер делают switch.
const (
	EventMessageCreated     = "MessageCreated"
	EventConversationBump   = "ConversationBump"
	EventGroupCreated       = "GroupCreated"
	EventMembersAdded       = "MembersAdded"
	EventAddedToGroup       = "AddedToGroup"
	EventMemberRemoved      = "MemberRemoved"
	EventRemovedFromGroup   = "RemovedFromGroup"
	EventMemberLeft         = "MemberLeft"
	EventTypingChanged      = "TypingChanged"
	EventReadReceiptUpdated = "ReadReceiptUpdated"
	EventUserOnline         = "UserOnline"
	EventUserOffline        = "UserOffline"
	EventJoinedConversation = "JoinedConversation"
	EventLeftConversation   = "LeftConversation"
	EventError              = "Error"
)

type Event interface {
	EventType() string
}

type MessageCreatedEvent struct {
	Message *Message `json:"message"`
}

func (MessageCreatedEvent) EventType() string { return EventMessageCreated }

// ConversationBumpEvent летит в персональный канал каждого участника,
// чтобы сайдбар обновился даже у тех, кто переписку не открыл
type ConversationBumpEvent struct {
	ConversationID     uuid.UUID `json:"conversation_id"`
	LastMessagePreview string    `json:"last_message_preview"`
	SenderID           uuid.UUID `json:"sender_id"`
	SenderDisplayName  string    `json:"sender_display_name"`
	At                 time.Time `json:"at"`
}

func (ConversationBumpEvent) EventType() string { return EventConversationBump }

type GroupCreatedEvent struct {
	ConversationID  uuid.UUID   `json:"conversation_id"`
	GroupName       string      `json:"group_name"`
	Type            string      `json:"type"`
	CreatedByUserID uuid.UUID   `json:"created_by_user_id"`
	MemberIDs       []uuid.UUID `json:"member_ids"`
	CreatedAt       time.Time   `json:"created_at"`
}

func (GroupCreatedEvent) EventType() string { return EventGroupCreated }

type NewMemberInfo struct {
	MemberID    uuid.UUID `json:"member_id"`
	DisplayName string    `json:"display_name"`
}

// MembersAddedEvent — для старых участников комнаты
type MembersAddedEvent struct {
	ConversationID     uuid.UUID       `json:"conversation_id"`
	GroupName          string          `json:"group_name"`
	AddedByUserID      uuid.UUID       `json:"added_by_user_id"`
	AddedByDisplayName string          `json:"added_by_display_name"`
	NewMembers         []NewMemberInfo `json:"new_members"`
	AddedAt            time.Time       `json:"added_at"`
}

func (MembersAddedEvent) EventType() string { return EventMembersAdded }

// AddedToGroupEvent — персональное "вас добавили" для каждого нового участника
type AddedToGroupEvent struct {
	ConversationID     uuid.UUID `json:"conversation_id"`
	GroupName          string    `json:"group_name"`
	AddedByUserID      uuid.UUID `json:"added_by_user_id"`
	AddedByDisplayName string    `json:"added_by_display_name"`
	AddedAt            time.Time `json:"added_at"`
}

func (AddedToGroupEvent) EventType() string { return EventAddedToGroup }

type MemberRemovedEvent struct {
	ConversationID      uuid.UUID `json:"conversation_id"`
	GroupName           string    `json:"group_name"`
	MemberID            uuid.UUID `json:"member_id"`
	DisplayName         string    `json:"display_name"`
	KickedByDisplayName string    `json:"kicked_by_display_name,omitempty"`
	Message             string    `json:"message"`
}

func (MemberRemovedEvent) EventType() string { return EventMemberRemoved }

// RemovedFromGroupEvent — персональное "вас удалили"; уходит ДО комнатного броадкаста
type RemovedFromGroupEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Message        string    `json:"message"`
}

func (RemovedFromGroupEvent) EventType() string { return EventRemovedFromGroup }

type MemberLeftEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	GroupName      string    `json:"group_name"`
	MemberID       uuid.UUID `json:"member_id"`
	DisplayName    string    `json:"display_name"`
	Message        string    `json:"message"`
}

func (MemberLeftEvent) EventType() string { return EventMemberLeft }

type TypingChangedEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	DisplayName    string    `json:"display_name"`
	IsTyping       bool      `json:"is_typing"`
}

func (TypingChangedEvent) EventType() string { return EventTypingChanged }

type ReadReceiptUpdatedEvent struct {
	ConversationID    uuid.UUID `json:"conversation_id"`
	UserID            uuid.UUID `json:"user_id"`
	LastReadMessageID uuid.UUID `json:"last_read_message_id"`
	LastReadAt        time.Time `json:"last_read_at"`
}

func (ReadReceiptUpdatedEvent) EventType() string { return EventReadReceiptUpdated }

type UserOnlineEvent struct {
	UserID uuid.UUID `json:"user_id"`
}

func (UserOnlineEvent) EventType() string { return EventUserOnline }

type UserOfflineEvent struct {
	UserID uuid.UUID `json:"user_id"`
}

func (UserOfflineEvent) EventType() string { return EventUserOffline }

type JoinedConversationEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

func (JoinedConversationEvent) EventType() string { return EventJoinedConversation }

type LeftConversationEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

func (LeftConversationEvent) EventType() string { return EventLeftConversation }

type ErrorEvent struct {
	Action  string `json:"action,omitempty"`
	Message string `json:"message"`
}

func (ErrorEvent) EventType() string { return EventError }

// PersonalRoom — ключ персонального канала пользователя
func PersonalRoom(userID uuid.UUID) string {
	return "User::" + userID.String()
}
