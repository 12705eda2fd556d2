package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chat_server/internal/domain"
	apperrors "chat_server/pkg/errors"
	"chat_server/pkg/logger"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	// ListPage отдаёт страницу новых-сверху в окне видимости участника
	ListPage(ctx context.Context, conversationID, userID uuid.UUID, visibleSince time.Time, paging domain.PagingRequest) (int, []*domain.MessageView, error)
	GetReadState(ctx context.Context, conversationID, userID uuid.UUID) (*domain.ConversationReadState, error)
	// AdvanceReadState двигает отметку прочтения только вперёд;
	// false — запоздавший вызов, состояние не тронуто.
	AdvanceReadState(ctx context.Context, state *domain.ConversationReadState) (bool, error)
}

type messageRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMessageRepository(db *pgxpool.Pool, log logger.Logger) MessageRepository {
	return &messageRepository{db: db, log: log}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_user_id, content, is_system, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		message.ID, message.ConversationID, message.SenderUserID,
		message.Content, message.IsSystem, message.CreatedAt,
	).Scan(&message.CreatedAt)
	if err != nil {
		r.log.Error("Failed to create message", "error", err, "conversation_id", message.ConversationID)
		return err
	}

	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT id, conversation_id, sender_user_id, content, is_system, created_at
		FROM messages
		WHERE id = $1
	`

	message := &domain.Message{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&message.ID, &message.ConversationID, &message.SenderUserID,
		&message.Content, &message.IsSystem, &message.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}
		r.log.Error("Failed to get message", "error", err, "message_id", id)
		return nil, err
	}

	return message, nil
}

func (r *messageRepository) ListPage(ctx context.Context, conversationID, userID uuid.UUID, visibleSince time.Time, paging domain.PagingRequest) (int, []*domain.MessageView, error) {
	// Отметка прочтения читателя; без строки считаем, что не читал ничего
	var lastReadAt time.Time
	err := r.db.QueryRow(ctx, `
		SELECT last_read_at FROM conversation_read_states
		WHERE conversation_id = $1 AND user_id = $2
	`, conversationID, userID).Scan(&lastReadAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		r.log.Error("Failed to get read state", "error", err, "conversation_id", conversationID)
		return 0, nil, err
	}

	var totalCount int
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE conversation_id = $1 AND created_at >= $2
	`, conversationID, visibleSince).Scan(&totalCount)
	if err != nil {
		r.log.Error("Failed to count messages", "error", err, "conversation_id", conversationID)
		return 0, nil, err
	}

	query := `
		SELECT id, conversation_id, sender_user_id, content, is_system, created_at,
		       created_at <= $3 AS is_read
		FROM messages
		WHERE conversation_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.db.Query(ctx, query, conversationID, visibleSince, lastReadAt, paging.PageSize, paging.Offset())
	if err != nil {
		r.log.Error("Failed to list messages", "error", err, "conversation_id", conversationID)
		return 0, nil, err
	}
	defer rows.Close()

	var messages []*domain.MessageView
	for rows.Next() {
		view := &domain.MessageView{}
		err := rows.Scan(
			&view.ID, &view.ConversationID, &view.SenderID,
			&view.Content, &view.IsSystem, &view.SentAt, &view.IsRead,
		)
		if err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return 0, nil, err
		}
		messages = append(messages, view)
	}

	return totalCount, messages, rows.Err()
}

func (r *messageRepository) GetReadState(ctx context.Context, conversationID, userID uuid.UUID) (*domain.ConversationReadState, error) {
	query := `
		SELECT conversation_id, user_id, last_read_message_id, last_read_at
		FROM conversation_read_states
		WHERE conversation_id = $1 AND user_id = $2
	`

	state := &domain.ConversationReadState{}
	err := r.db.QueryRow(ctx, query, conversationID, userID).Scan(
		&state.ConversationID, &state.UserID, &state.LastReadMessageID, &state.LastReadAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.log.Error("Failed to get read state", "error", err, "conversation_id", conversationID)
		return nil, err
	}

	return state, nil
}

func (r *messageRepository) AdvanceReadState(ctx context.Context, state *domain.ConversationReadState) (bool, error) {
	// Условие в DO UPDATE отбрасывает запоздавшие отметки: last_read_at не откатывается
	query := `
		INSERT INTO conversation_read_states (conversation_id, user_id, last_read_message_id, last_read_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (conversation_id, user_id) DO UPDATE
		SET last_read_message_id = EXCLUDED.last_read_message_id,
		    last_read_at = EXCLUDED.last_read_at
		WHERE conversation_read_states.last_read_at < EXCLUDED.last_read_at
	`

	tag, err := r.db.Exec(ctx, query,
		state.ConversationID, state.UserID, state.LastReadMessageID, state.LastReadAt,
	)
	if err != nil {
		r.log.Error("Failed to advance read state", "error", err, "conversation_id", state.ConversationID)
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}
