package service

import (
	"context"

	"github.com/google/uuid"

	"chat_server/internal/domain"
	"chat_server/internal/repository"
	"chat_server/pkg/logger"
)

type UserService interface {
	// ListUsersWithPresence отдаёт всех, кроме вызывающего, с флагом online
	ListUsersWithPresence(ctx context.Context, currentUserID uuid.UUID) ([]*domain.OnlineUserView, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	presence PresenceStore
	log      logger.Logger
}

func NewUserService(userRepo repository.UserRepository, presence PresenceStore, log logger.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		presence: presence,
		log:      log,
	}
}

func (s *userService) ListUsersWithPresence(ctx context.Context, currentUserID uuid.UUID) ([]*domain.OnlineUserView, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	online := make(map[uuid.UUID]bool)
	for _, id := range s.presence.ListOnlineUsers() {
		online[id] = true
	}

	views := make([]*domain.OnlineUserView, 0, len(users))
	for _, user := range users {
		if user.ID == currentUserID {
			continue
		}
		views = append(views, &domain.OnlineUserView{
			ID:          user.ID,
			UserName:    user.UserName,
			DisplayName: user.DisplayName,
			IsOnline:    online[user.ID],
		})
	}

	return views, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
