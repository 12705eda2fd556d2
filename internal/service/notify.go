package service

import (
	"time"

	"github.com/google/uuid"

	"chat_server/internal/domain"
	"chat_server/pkg/logger"
)

// Broadcaster — транспортные примитивы доставки (реализует ws.Hub).
// Доставка fire-and-forget: отвалившийся клиент не влияет на исходную операцию.
type Broadcaster interface {
	ToRoom(roomID string, event domain.Event)
	ToOthersInRoom(roomID, excludeConnID string, event domain.Event)
	ToAll(event domain.Event)
}

// NotificationFanout переводит доменные события в адресные рассылки по комнатам
type NotificationFanout interface {
	MessageCreated(message *domain.Message, memberIDs []uuid.UUID, senderDisplayName string)
	GroupCreated(conversationID uuid.UUID, groupName, conversationType string, createdBy uuid.UUID, memberIDs []uuid.UUID)
	MembersAdded(conversationID uuid.UUID, groupName string, addedBy uuid.UUID, addedByName string, newMembers []domain.NewMemberInfo)
	MemberRemoved(conversationID uuid.UUID, groupName string, action string, memberID uuid.UUID, memberName string, kickedByName string)
	ReadReceiptUpdated(conversationID, userID, lastReadMessageID uuid.UUID, lastReadAt time.Time)
	TypingChanged(conversationID uuid.UUID, excludeConnID string, userID uuid.UUID, displayName string, isTyping bool)
	UserOnline(userID uuid.UUID)
	UserOffline(userID uuid.UUID)
}

type notificationFanout struct {
	broadcaster Broadcaster
	log         logger.Logger
}

func NewNotificationFanout(broadcaster Broadcaster, log logger.Logger) NotificationFanout {
	return &notificationFanout{
		broadcaster: broadcaster,
		log:         log,
	}
}

// MessageCreated шлёт событие в комнату переписки и bump в персональный канал
// каждого участника — сайдбар обновляется и у тех, кто комнату не открыл
func (f *notificationFanout) MessageCreated(message *domain.Message, memberIDs []uuid.UUID, senderDisplayName string) {
	f.broadcaster.ToRoom(message.ConversationID.String(), domain.MessageCreatedEvent{Message: message})

	bump := domain.ConversationBumpEvent{
		ConversationID:     message.ConversationID,
		LastMessagePreview: message.Content,
		SenderID:           message.SenderUserID,
		SenderDisplayName:  senderDisplayName,
		At:                 message.CreatedAt,
	}
	for _, memberID := range memberIDs {
		f.broadcaster.ToRoom(domain.PersonalRoom(memberID), bump)
	}
}

func (f *notificationFanout) GroupCreated(conversationID uuid.UUID, groupName, conversationType string, createdBy uuid.UUID, memberIDs []uuid.UUID) {
	event := domain.GroupCreatedEvent{
		ConversationID:  conversationID,
		GroupName:       groupName,
		Type:            conversationType,
		CreatedByUserID: createdBy,
		MemberIDs:       memberIDs,
		CreatedAt:       time.Now(),
	}
	for _, memberID := range memberIDs {
		f.broadcaster.ToRoom(domain.PersonalRoom(memberID), event)
	}
}

// MembersAdded: старым участникам — комнатное событие со списком новых,
// новым — персональное "вас добавили"
func (f *notificationFanout) MembersAdded(conversationID uuid.UUID, groupName string, addedBy uuid.UUID, addedByName string, newMembers []domain.NewMemberInfo) {
	now := time.Now()

	f.broadcaster.ToRoom(conversationID.String(), domain.MembersAddedEvent{
		ConversationID:     conversationID,
		GroupName:          groupName,
		AddedByUserID:      addedBy,
		AddedByDisplayName: addedByName,
		NewMembers:         newMembers,
		AddedAt:            now,
	})

	personal := domain.AddedToGroupEvent{
		ConversationID:     conversationID,
		GroupName:          groupName,
		AddedByUserID:      addedBy,
		AddedByDisplayName: addedByName,
		AddedAt:            now,
	}
	for _, member := range newMembers {
		f.broadcaster.ToRoom(domain.PersonalRoom(member.MemberID), personal)
	}
}

// MemberRemoved: при кике персональное уведомление уходит ПЕРЕД комнатным,
// чтобы удалённый клиент успел отписаться от комнаты
func (f *notificationFanout) MemberRemoved(conversationID uuid.UUID, groupName string, action string, memberID uuid.UUID, memberName string, kickedByName string) {
	if action == domain.MemberActionKick {
		f.broadcaster.ToRoom(domain.PersonalRoom(memberID), domain.RemovedFromGroupEvent{
			ConversationID: conversationID,
			Message:        "You have been removed from the group " + groupName + " by " + kickedByName + ".",
		})

		f.broadcaster.ToRoom(conversationID.String(), domain.MemberRemovedEvent{
			ConversationID:      conversationID,
			GroupName:           groupName,
			MemberID:            memberID,
			DisplayName:         memberName,
			KickedByDisplayName: kickedByName,
			Message:             memberName + " was removed from the group by " + kickedByName,
		})
		return
	}

	f.broadcaster.ToRoom(conversationID.String(), domain.MemberLeftEvent{
		ConversationID: conversationID,
		GroupName:      groupName,
		MemberID:       memberID,
		DisplayName:    memberName,
		Message:        memberName + " has left the group",
	})
}

func (f *notificationFanout) ReadReceiptUpdated(conversationID, userID, lastReadMessageID uuid.UUID, lastReadAt time.Time) {
	f.broadcaster.ToRoom(conversationID.String(), domain.ReadReceiptUpdatedEvent{
		ConversationID:    conversationID,
		UserID:            userID,
		LastReadMessageID: lastReadMessageID,
		LastReadAt:        lastReadAt,
	})
}

func (f *notificationFanout) TypingChanged(conversationID uuid.UUID, excludeConnID string, userID uuid.UUID, displayName string, isTyping bool) {
	f.broadcaster.ToOthersInRoom(conversationID.String(), excludeConnID, domain.TypingChangedEvent{
		ConversationID: conversationID,
		UserID:         userID,
		DisplayName:    displayName,
		IsTyping:       isTyping,
	})
}

func (f *notificationFanout) UserOnline(userID uuid.UUID) {
	f.broadcaster.ToAll(domain.UserOnlineEvent{UserID: userID})
}

func (f *notificationFanout) UserOffline(userID uuid.UUID) {
	f.broadcaster.ToAll(domain.UserOfflineEvent{UserID: userID})
}
