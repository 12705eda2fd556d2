package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"chat_server/internal/domain"
	apperrors "chat_server/pkg/errors"
	"chat_server/pkg/logger"
)

type MemberRepository interface {
	// AddMembersWithAnnouncement вставляет участников и системное сообщение
	// одной транзакцией; возвращает состав до добавления.
	AddMembersWithAnnouncement(ctx context.Context, conversationID uuid.UUID, addedByUserID uuid.UUID, addedByName string, memberIDs []uuid.UUID, announcement string) ([]uuid.UUID, error)
	// RemoveMemberWithAnnouncement удаляет участника и пишет системное сообщение
	// одной транзакцией.
	RemoveMemberWithAnnouncement(ctx context.Context, conversationID, memberID uuid.UUID, announcement string) error
	UpdateHistoryClearedAt(ctx context.Context, conversationID, userID uuid.UUID) error
	ListViews(ctx context.Context, conversationID, ownerID uuid.UUID) ([]*domain.MemberView, error)
}

type memberRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMemberRepository(db *pgxpool.Pool, log logger.Logger) MemberRepository {
	return &memberRepository{db: db, log: log}
}

func (r *memberRepository) AddMembersWithAnnouncement(ctx context.Context, conversationID uuid.UUID, addedByUserID uuid.UUID, addedByName string, memberIDs []uuid.UUID, announcement string) ([]uuid.UUID, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("Failed to begin transaction", "error", err)
		return nil, err
	}
	defer tx.Rollback(ctx)

	// FOR UPDATE сериализует конкурентные добавления в одну переписку
	rows, err := tx.Query(ctx, `
		SELECT user_id FROM conversation_members
		WHERE conversation_id = $1 AND is_active = true
		FOR UPDATE
	`, conversationID)
	if err != nil {
		r.log.Error("Failed to lock conversation members", "error", err, "conversation_id", conversationID)
		return nil, err
	}
	oldMembers, err := scanUUIDs(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	existing := make(map[uuid.UUID]bool, len(oldMembers))
	for _, id := range oldMembers {
		existing[id] = true
	}
	for _, id := range memberIDs {
		if existing[id] {
			return nil, apperrors.ErrAlreadyMember
		}
	}

	now := time.Now()
	for _, memberID := range memberIDs {
		_, err = tx.Exec(ctx, `
			INSERT INTO conversation_members (conversation_id, user_id, joined_at, is_active, added_by_user_id, added_by_user_name)
			VALUES ($1, $2, $3, true, $4, $5)
		`, conversationID, memberID, now, addedByUserID, addedByName)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return nil, apperrors.ErrAlreadyMember
			}
			r.log.Error("Failed to insert member", "error", err, "user_id", memberID)
			return nil, err
		}
	}

	if err := insertSystemMessage(ctx, tx, conversationID, addedByUserID, announcement, now); err != nil {
		r.log.Error("Failed to insert system message", "error", err, "conversation_id", conversationID)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return oldMembers, nil
}

func (r *memberRepository) RemoveMemberWithAnnouncement(ctx context.Context, conversationID, memberID uuid.UUID, announcement string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("Failed to begin transaction", "error", err)
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		DELETE FROM conversation_members
		WHERE conversation_id = $1 AND user_id = $2
	`, conversationID, memberID)
	if err != nil {
		r.log.Error("Failed to remove member", "error", err, "conversation_id", conversationID, "user_id", memberID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMemberNotFound
	}

	if err := insertSystemMessage(ctx, tx, conversationID, memberID, announcement, time.Now()); err != nil {
		r.log.Error("Failed to insert system message", "error", err, "conversation_id", conversationID)
		return err
	}

	return tx.Commit(ctx)
}

// UpdateHistoryClearedAt прячет историю до текущего момента только для одного участника
func (r *memberRepository) UpdateHistoryClearedAt(ctx context.Context, conversationID, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE conversation_members
		SET history_cleared_at = $3
		WHERE conversation_id = $1 AND user_id = $2
	`, conversationID, userID, time.Now())
	if err != nil {
		r.log.Error("Failed to update history cleared at", "error", err, "conversation_id", conversationID, "user_id", userID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMemberNotFound
	}
	return nil
}

func (r *memberRepository) ListViews(ctx context.Context, conversationID, ownerID uuid.UUID) ([]*domain.MemberView, error) {
	query := `
		SELECT m.user_id, u.display_name, m.joined_at, m.added_by_user_id, m.added_by_user_name
		FROM conversation_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.conversation_id = $1 AND m.is_active = true
		ORDER BY m.joined_at
	`

	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		r.log.Error("Failed to list member views", "error", err, "conversation_id", conversationID)
		return nil, err
	}
	defer rows.Close()

	var views []*domain.MemberView
	for rows.Next() {
		view := &domain.MemberView{}
		err := rows.Scan(&view.UserID, &view.DisplayName, &view.JoinedAt, &view.AddedByUserID, &view.AddedByUserName)
		if err != nil {
			r.log.Error("Failed to scan member view", "error", err)
			return nil, err
		}
		view.IsOwner = view.UserID == ownerID
		views = append(views, view)
	}

	return views, rows.Err()
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertSystemMessage(ctx context.Context, tx execer, conversationID, actorID uuid.UUID, content string, at time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, sender_user_id, content, is_system, created_at)
		VALUES ($1, $2, $3, $4, true, $5)
	`, uuid.New(), conversationID, actorID, content, at)
	return err
}
