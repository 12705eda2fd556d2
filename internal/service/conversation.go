package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"chat_server/internal/config"
	"chat_server/internal/domain"
	"chat_server/internal/repository"
	apperrors "chat_server/pkg/errors"
	"chat_server/pkg/logger"
)

// ConversationService владеет durable-инвариантами переписок: уникальность
// direct-пары, состав групп, окно видимости истории, продвижение отметок чтения.
type ConversationService interface {
	EnsureDirectConversation(ctx context.Context, userA, userB uuid.UUID) (uuid.UUID, error)
	FindDirectConversation(ctx context.Context, userA, userB uuid.UUID) (uuid.UUID, error)
	CreateGroup(ctx context.Context, name, conversationType string, creatorID uuid.UUID, creatorName string, memberIDs []uuid.UUID) (*domain.Conversation, []uuid.UUID, error)
	AddMembers(ctx context.Context, conversationID, actorID uuid.UUID, actorName string, memberIDs []uuid.UUID) error
	RemoveMember(ctx context.Context, conversationID, memberID uuid.UUID, action string, kickedByUserID *uuid.UUID) error
	ClearConversation(ctx context.Context, conversationID, userID uuid.UUID) error
	SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*domain.Message, []uuid.UUID, error)
	MarkRead(ctx context.Context, conversationID, userID, messageID uuid.UUID) (*domain.ConversationReadState, bool, error)
	CheckMember(ctx context.Context, conversationID, userID uuid.UUID) error
	ListConversations(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationView, error)
	ListMessages(ctx context.Context, conversationID, userID uuid.UUID, paging domain.PagingRequest) (*domain.PagingResponse[*domain.MessageView], error)
	ListMembers(ctx context.Context, conversationID uuid.UUID) ([]*domain.MemberView, error)
	ListConversationIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type conversationService struct {
	convRepo   repository.ConversationRepository
	memberRepo repository.MemberRepository
	msgRepo    repository.MessageRepository
	userRepo   repository.UserRepository
	lockRepo   repository.LockRepository
	fanout     NotificationFanout
	cfg        config.ChatConfig
	log        logger.Logger
}

func NewConversationService(
	repos *repository.Repositories,
	fanout NotificationFanout,
	cfg config.ChatConfig,
	log logger.Logger,
) ConversationService {
	return &conversationService{
		convRepo:   repos.Conversation,
		memberRepo: repos.Member,
		msgRepo:    repos.Message,
		userRepo:   repos.User,
		lockRepo:   repos.Lock,
		fanout:     fanout,
		cfg:        cfg,
		log:        log,
	}
}

// directPairLockKey строит ключ замка по упорядоченной паре, чтобы оба
// конкурирующих запроса боролись за один и тот же ключ
func directPairLockKey(userA, userB uuid.UUID) string {
	low, high := userA.String(), userB.String()
	if strings.Compare(low, high) > 0 {
		low, high = high, low
	}
	return "lock:direct:" + low + "|" + high
}

// EnsureDirectConversation возвращает id существующей DIRECT-переписки пары
// или создаёт новую. Замок держится на всю секцию проверка-потом-создание:
// никакая чередовка двух запросов не даст дубликат.
func (s *conversationService) EnsureDirectConversation(ctx context.Context, userA, userB uuid.UUID) (uuid.UUID, error) {
	if userA == userB {
		return uuid.Nil, fmt.Errorf("%w: cannot start a direct conversation with yourself", apperrors.ErrValidation)
	}

	users, err := s.userRepo.ListActiveByIDs(ctx, []uuid.UUID{userA, userB})
	if err != nil {
		return uuid.Nil, err
	}
	if len(users) != 2 {
		return uuid.Nil, apperrors.ErrUserNotFound
	}

	release, err := s.lockRepo.Acquire(ctx, directPairLockKey(userA, userB), s.cfg.DirectLockTTL, s.cfg.DirectLockWait)
	if err != nil {
		return uuid.Nil, err
	}
	defer release()

	existingID, err := s.convRepo.FindDirect(ctx, userA, userB)
	if err != nil {
		return uuid.Nil, err
	}
	if existingID != uuid.Nil {
		return existingID, nil
	}

	conversation := &domain.Conversation{
		ID:              uuid.New(),
		Type:            domain.ConversationTypeDirect,
		CreatedByUserID: userA,
		CreatedAt:       time.Now(),
	}
	creatorName := displayNameOf(users, userA)
	if err := s.convRepo.CreateWithMembers(ctx, conversation, []uuid.UUID{userA, userB}, creatorName); err != nil {
		return uuid.Nil, err
	}

	s.log.Info("Direct conversation created", "conversation_id", conversation.ID, "user_a", userA, "user_b", userB)
	return conversation.ID, nil
}

func (s *conversationService) FindDirectConversation(ctx context.Context, userA, userB uuid.UUID) (uuid.UUID, error) {
	return s.convRepo.FindDirect(ctx, userA, userB)
}

func (s *conversationService) CreateGroup(ctx context.Context, name, conversationType string, creatorID uuid.UUID, creatorName string, memberIDs []uuid.UUID) (*domain.Conversation, []uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: group name is required", apperrors.ErrValidation)
	}
	if !domain.IsGroupType(conversationType) {
		return nil, nil, fmt.Errorf("%w: invalid conversation type %q", apperrors.ErrValidation, conversationType)
	}

	allMembers := make([]uuid.UUID, 0, len(memberIDs)+1)
	seen := make(map[uuid.UUID]bool, len(memberIDs)+1)
	for _, id := range append([]uuid.UUID{creatorID}, memberIDs...) {
		if !seen[id] {
			seen[id] = true
			allMembers = append(allMembers, id)
		}
	}

	users, err := s.userRepo.ListActiveByIDs(ctx, allMembers)
	if err != nil {
		return nil, nil, err
	}
	if len(users) != len(allMembers) {
		return nil, nil, fmt.Errorf("%w: one or more users do not exist", apperrors.ErrUserNotFound)
	}

	conversation := &domain.Conversation{
		ID:              uuid.New(),
		Type:            conversationType,
		Name:            &name,
		CreatedByUserID: creatorID,
		CreatedAt:       time.Now(),
	}
	if err := s.convRepo.CreateWithMembers(ctx, conversation, allMembers, creatorName); err != nil {
		return nil, nil, err
	}

	s.fanout.GroupCreated(conversation.ID, name, conversationType, creatorID, allMembers)
	s.log.Info("Group created", "conversation_id", conversation.ID, "name", name, "members", len(allMembers))

	return conversation, allMembers, nil
}

func (s *conversationService) AddMembers(ctx context.Context, conversationID, actorID uuid.UUID, actorName string, memberIDs []uuid.UUID) error {
	if len(memberIDs) == 0 {
		return fmt.Errorf("%w: member list is empty", apperrors.ErrValidation)
	}

	conversation, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !domain.IsGroupType(conversation.Type) {
		return fmt.Errorf("%w: direct conversation membership is immutable", apperrors.ErrValidation)
	}
	if err := s.CheckMember(ctx, conversationID, actorID); err != nil {
		return err
	}

	users, err := s.userRepo.ListActiveByIDs(ctx, memberIDs)
	if err != nil {
		return err
	}
	if len(users) != len(memberIDs) {
		return fmt.Errorf("%w: one or more users do not exist", apperrors.ErrUserNotFound)
	}

	newMembers := make([]domain.NewMemberInfo, 0, len(users))
	names := make([]string, 0, len(users))
	for _, user := range users {
		newMembers = append(newMembers, domain.NewMemberInfo{MemberID: user.ID, DisplayName: user.DisplayName})
		names = append(names, user.DisplayName)
	}

	announcement := actorName + " added " + strings.Join(names, ", ") + " to the group."
	_, err = s.memberRepo.AddMembersWithAnnouncement(ctx, conversationID, actorID, actorName, memberIDs, announcement)
	if err != nil {
		return err
	}

	s.fanout.MembersAdded(conversationID, groupTitle(conversation), actorID, actorName, newMembers)
	return nil
}

func (s *conversationService) RemoveMember(ctx context.Context, conversationID, memberID uuid.UUID, action string, kickedByUserID *uuid.UUID) error {
	conversation, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !domain.IsGroupType(conversation.Type) {
		return fmt.Errorf("%w: direct conversation membership is immutable", apperrors.ErrValidation)
	}

	member, err := s.userRepo.GetByID(ctx, memberID)
	if err != nil {
		return err
	}

	var kickedByName string
	if action == domain.MemberActionKick {
		if kickedByUserID == nil {
			return fmt.Errorf("%w: kick requires an acting user", apperrors.ErrValidation)
		}
		// Кикать может только действующий участник группы
		if err := s.CheckMember(ctx, conversationID, *kickedByUserID); err != nil {
			return err
		}
		actor, err := s.userRepo.GetByID(ctx, *kickedByUserID)
		if err != nil {
			return err
		}
		kickedByName = actor.DisplayName
	}

	announcement := member.DisplayName + " has left the group"
	if action == domain.MemberActionKick {
		announcement = member.DisplayName + " was removed from the group by " + kickedByName
	}

	if err := s.memberRepo.RemoveMemberWithAnnouncement(ctx, conversationID, memberID, announcement); err != nil {
		return err
	}

	s.fanout.MemberRemoved(conversationID, groupTitle(conversation), action, memberID, member.DisplayName, kickedByName)
	return nil
}

// ClearConversation: у групп история принадлежит группе — прячем только для
// вызывающего; у direct-пары история принадлежит паре — удаляем целиком
func (s *conversationService) ClearConversation(ctx context.Context, conversationID, userID uuid.UUID) error {
	conversation, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if err := s.CheckMember(ctx, conversationID, userID); err != nil {
		return err
	}

	if domain.IsGroupType(conversation.Type) {
		return s.memberRepo.UpdateHistoryClearedAt(ctx, conversationID, userID)
	}
	return s.convRepo.Delete(ctx, conversationID)
}

func (s *conversationService) SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*domain.Message, []uuid.UUID, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, fmt.Errorf("%w: message content is required", apperrors.ErrValidation)
	}

	if err := s.CheckMember(ctx, conversationID, senderID); err != nil {
		return nil, nil, err
	}

	message := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderUserID:   senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if err := s.msgRepo.Create(ctx, message); err != nil {
		return nil, nil, err
	}

	memberIDs, err := s.convRepo.ListActiveMemberIDs(ctx, conversationID)
	if err != nil {
		// Сообщение записано; без списка участников невозможен только bump
		s.log.Warn("Message persisted but member list unavailable", "error", err, "conversation_id", conversationID)
		return message, nil, nil
	}

	return message, memberIDs, nil
}

// MarkRead продвигает отметку чтения по created_at сообщения.
// Запоздавший вызов (более старое сообщение) — no-op с updated=false.
func (s *conversationService) MarkRead(ctx context.Context, conversationID, userID, messageID uuid.UUID) (*domain.ConversationReadState, bool, error) {
	if err := s.CheckMember(ctx, conversationID, userID); err != nil {
		return nil, false, err
	}

	message, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, false, err
	}
	if message.ConversationID != conversationID {
		return nil, false, fmt.Errorf("%w: message does not belong to conversation", apperrors.ErrMessageNotFound)
	}

	state := &domain.ConversationReadState{
		ConversationID:    conversationID,
		UserID:            userID,
		LastReadMessageID: &messageID,
		LastReadAt:        message.CreatedAt,
	}
	updated, err := s.msgRepo.AdvanceReadState(ctx, state)
	if err != nil {
		return nil, false, err
	}

	return state, updated, nil
}

// CheckMember — durable-проверка авторизации; кеш комнат её не заменяет
func (s *conversationService) CheckMember(ctx context.Context, conversationID, userID uuid.UUID) error {
	_, err := s.convRepo.GetMember(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrMemberNotFound) {
			return apperrors.ErrNotAMember
		}
		return err
	}
	return nil
}

func (s *conversationService) ListConversations(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationView, error) {
	return s.convRepo.ListViewsByUser(ctx, userID)
}

func (s *conversationService) ListMessages(ctx context.Context, conversationID, userID uuid.UUID, paging domain.PagingRequest) (*domain.PagingResponse[*domain.MessageView], error) {
	member, err := s.convRepo.GetMember(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrMemberNotFound) {
			return nil, apperrors.ErrNotAMember
		}
		return nil, err
	}

	paging.Normalize(s.cfg.DefaultPageSize)
	totalCount, messages, err := s.msgRepo.ListPage(ctx, conversationID, userID, member.VisibleSince(), paging)
	if err != nil {
		return nil, err
	}

	return domain.NewPagingResponse(totalCount, messages, paging.PageIndex, paging.PageSize), nil
}

func (s *conversationService) ListMembers(ctx context.Context, conversationID uuid.UUID) ([]*domain.MemberView, error) {
	conversation, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return s.memberRepo.ListViews(ctx, conversationID, conversation.CreatedByUserID)
}

func (s *conversationService) ListConversationIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.convRepo.ListConversationIDsByUser(ctx, userID)
}

func groupTitle(conversation *domain.Conversation) string {
	if conversation.Name != nil {
		return *conversation.Name
	}
	return ""
}

func displayNameOf(users []*domain.User, id uuid.UUID) string {
	for _, user := range users {
		if user.ID == id {
			return user.DisplayName
		}
	}
	return ""
}
