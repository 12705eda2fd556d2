package service

import (
	"chat_server/internal/config"
	"chat_server/internal/repository"
	"chat_server/pkg/logger"
)

type Services struct {
	Presence     PresenceStore
	Membership   GroupMembershipStore
	Fanout       NotificationFanout
	Conversation ConversationService
	User         UserService
	Cleanup      *IdleCleanupScheduler
}

func NewServices(repos *repository.Repositories, broadcaster Broadcaster, cfg *config.Config, log logger.Logger) *Services {
	presence := NewPresenceStore()
	membership := NewGroupMembershipStore()
	fanout := NewNotificationFanout(broadcaster, log)

	return &Services{
		Presence:     presence,
		Membership:   membership,
		Fanout:       fanout,
		Conversation: NewConversationService(repos, fanout, cfg.Chat, log),
		User:         NewUserService(repos.User, presence, log),
		Cleanup:      NewIdleCleanupScheduler(membership, cfg.Chat, log),
	}
}
