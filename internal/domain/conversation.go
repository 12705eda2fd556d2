package domain

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	ID              uuid.UUID `json:"id"`
	Type            string    `json:"type"`
	Name            *string   `json:"name,omitempty"`
	CreatedByUserID uuid.UUID `json:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`
}

type ConversationMember struct {
	ConversationID   uuid.UUID  `json:"conversation_id"`
	UserID           uuid.UUID  `json:"user_id"`
	JoinedAt         time.Time  `json:"joined_at"`
	IsActive         bool       `json:"is_active"`
	HistoryClearedAt *time.Time `json:"history_cleared_at,omitempty"`
	AddedByUserID    *uuid.UUID `json:"added_by_user_id,omitempty"`
	AddedByUserName  *string    `json:"added_by_user_name,omitempty"`
}

// VisibleSince — нижняя граница видимости истории для участника
func (m *ConversationMember) VisibleSince() time.Time {
	if m.HistoryClearedAt != nil {
		return *m.HistoryClearedAt
	}
	return m.JoinedAt
}

const (
	ConversationTypeDirect        = "DIRECT"
	ConversationTypeGroup         = "GROUP"
	ConversationTypeExternalGroup = "EXTERNAL_GROUP"
)

// IsGroupType — у direct-переписок состав фиксирован, добавление/удаление только для групп
func IsGroupType(conversationType string) bool {
	return conversationType == ConversationTypeGroup || conversationType == ConversationTypeExternalGroup
}

const (
	MemberActionLeave = "leave"
	MemberActionKick  = "kick"
)
