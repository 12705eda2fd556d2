package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"chat_server/pkg/logger"
)

type Repositories struct {
	User         UserRepository
	Conversation ConversationRepository
	Member       MemberRepository
	Message      MessageRepository
	Lock         LockRepository
}

func NewRepositories(db *pgxpool.Pool, rdb *redis.Client, log logger.Logger) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db, log),
		Conversation: NewConversationRepository(db, log),
		Member:       NewMemberRepository(db, log),
		Message:      NewMessageRepository(db, log),
		Lock:         NewLockRepository(rdb, log),
	}
}
