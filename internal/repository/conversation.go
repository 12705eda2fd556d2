package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chat_server/internal/domain"
	apperrors "chat_server/pkg/errors"
	"chat_server/pkg/logger"
)

type ConversationRepository interface {
	CreateWithMembers(ctx context.Context, conversation *domain.Conversation, memberIDs []uuid.UUID, addedByName string) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	FindDirect(ctx context.Context, userA, userB uuid.UUID) (uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetMember(ctx context.Context, conversationID, userID uuid.UUID) (*domain.ConversationMember, error)
	ListActiveMemberIDs(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error)
	ListConversationIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListViewsByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationView, error)
}

type conversationRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewConversationRepository(db *pgxpool.Pool, log logger.Logger) ConversationRepository {
	return &conversationRepository{db: db, log: log}
}

// CreateWithMembers создаёт переписку и её участников одной транзакцией
func (r *conversationRepository) CreateWithMembers(ctx context.Context, conversation *domain.Conversation, memberIDs []uuid.UUID, addedByName string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("Failed to begin transaction", "error", err)
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO conversations (id, type, name, created_by_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = tx.Exec(ctx, query,
		conversation.ID, conversation.Type, conversation.Name,
		conversation.CreatedByUserID, conversation.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create conversation", "error", err)
		return err
	}

	memberQuery := `
		INSERT INTO conversation_members (conversation_id, user_id, joined_at, is_active, added_by_user_id, added_by_user_name)
		VALUES ($1, $2, $3, true, $4, $5)
	`

	now := time.Now()
	for _, memberID := range memberIDs {
		_, err = tx.Exec(ctx, memberQuery,
			conversation.ID, memberID, now, conversation.CreatedByUserID, addedByName,
		)
		if err != nil {
			r.log.Error("Failed to add conversation member", "error", err, "user_id", memberID)
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *conversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT id, type, name, created_by_user_id, created_at
		FROM conversations
		WHERE id = $1
	`

	conversation := &domain.Conversation{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&conversation.ID, &conversation.Type, &conversation.Name,
		&conversation.CreatedByUserID, &conversation.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConversationNotFound
		}
		r.log.Error("Failed to get conversation", "error", err, "conversation_id", id)
		return nil, err
	}

	return conversation, nil
}

// FindDirect ищет существующую DIRECT-переписку пары; uuid.Nil если её нет
func (r *conversationRepository) FindDirect(ctx context.Context, userA, userB uuid.UUID) (uuid.UUID, error) {
	query := `
		SELECT c.id
		FROM conversations c
		JOIN conversation_members m1 ON m1.conversation_id = c.id AND m1.user_id = $1
		JOIN conversation_members m2 ON m2.conversation_id = c.id AND m2.user_id = $2
		WHERE c.type = $3
		LIMIT 1
	`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query, userA, userB, domain.ConversationTypeDirect).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, nil
		}
		r.log.Error("Failed to find direct conversation", "error", err)
		return uuid.Nil, err
	}

	return id, nil
}

// Delete убирает переписку целиком (каскад снесёт участников, сообщения и read-state)
func (r *conversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete conversation", "error", err, "conversation_id", id)
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrConversationNotFound
	}
	return nil
}

func (r *conversationRepository) GetMember(ctx context.Context, conversationID, userID uuid.UUID) (*domain.ConversationMember, error) {
	query := `
		SELECT conversation_id, user_id, joined_at, is_active, history_cleared_at, added_by_user_id, added_by_user_name
		FROM conversation_members
		WHERE conversation_id = $1 AND user_id = $2 AND is_active = true
	`

	member := &domain.ConversationMember{}
	err := r.db.QueryRow(ctx, query, conversationID, userID).Scan(
		&member.ConversationID, &member.UserID, &member.JoinedAt, &member.IsActive,
		&member.HistoryClearedAt, &member.AddedByUserID, &member.AddedByUserName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMemberNotFound
		}
		r.log.Error("Failed to get conversation member", "error", err, "conversation_id", conversationID, "user_id", userID)
		return nil, err
	}

	return member, nil
}

func (r *conversationRepository) ListActiveMemberIDs(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT user_id FROM conversation_members
		WHERE conversation_id = $1 AND is_active = true
	`

	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		r.log.Error("Failed to list conversation members", "error", err, "conversation_id", conversationID)
		return nil, err
	}
	defer rows.Close()

	return scanUUIDs(rows)
}

func (r *conversationRepository) ListConversationIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT conversation_id FROM conversation_members
		WHERE user_id = $1 AND is_active = true
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to list user conversations", "error", err, "user_id", userID)
		return nil, err
	}
	defer rows.Close()

	return scanUUIDs(rows)
}

// ListViewsByUser собирает сайдбар: заголовок глазами пользователя,
// последнее видимое сообщение и непрочитанные в окне видимости
func (r *conversationRepository) ListViewsByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationView, error) {
	query := `
		SELECT c.id, c.type,
		       CASE WHEN c.type = 'DIRECT' THEN COALESCE(peer.display_name, '') ELSE COALESCE(c.name, '') END AS title,
		       lm.id, lm.content, lm.created_at, lm.sender_name,
		       (
		           SELECT COUNT(*) FROM messages msg
		           WHERE msg.conversation_id = c.id
		             AND msg.sender_user_id <> m.user_id
		             AND msg.created_at >= COALESCE(m.history_cleared_at, m.joined_at)
		             AND msg.created_at > COALESCE(rs.last_read_at, 'epoch'::timestamptz)
		       ) AS unread_count
		FROM conversation_members m
		JOIN conversations c ON c.id = m.conversation_id
		LEFT JOIN conversation_read_states rs
		       ON rs.conversation_id = c.id AND rs.user_id = m.user_id
		LEFT JOIN LATERAL (
		    SELECT msg.id, msg.content, msg.created_at, u.display_name AS sender_name
		    FROM messages msg
		    JOIN users u ON u.id = msg.sender_user_id
		    WHERE msg.conversation_id = c.id
		      AND msg.created_at >= COALESCE(m.history_cleared_at, m.joined_at)
		    ORDER BY msg.created_at DESC
		    LIMIT 1
		) lm ON true
		LEFT JOIN LATERAL (
		    SELECT u2.display_name
		    FROM conversation_members peer_m
		    JOIN users u2 ON u2.id = peer_m.user_id
		    WHERE peer_m.conversation_id = c.id AND peer_m.user_id <> m.user_id
		    LIMIT 1
		) peer ON true
		WHERE m.user_id = $1 AND m.is_active = true
		ORDER BY COALESCE(lm.created_at, c.created_at) DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to list conversation views", "error", err, "user_id", userID)
		return nil, err
	}
	defer rows.Close()

	var views []*domain.ConversationView
	for rows.Next() {
		view := &domain.ConversationView{}
		err := rows.Scan(
			&view.ConversationID, &view.Type, &view.Title,
			&view.LastMessageID, &view.LastMessage, &view.LastMessageAt, &view.LastMessageSender,
			&view.UnreadCount,
		)
		if err != nil {
			r.log.Error("Failed to scan conversation view", "error", err)
			return nil, err
		}
		views = append(views, view)
	}

	return views, rows.Err()
}

func scanUUIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
