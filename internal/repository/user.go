package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chat_server/internal/domain"
	apperrors "chat_server/pkg/errors"
	"chat_server/pkg/logger"
)

// Пользователи создаются внешней синхронизацией, поэтому репозиторий только читает
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error)
	ListAll(ctx context.Context) ([]*domain.User, error)
}

type userRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewUserRepository(db *pgxpool.Pool, log logger.Logger) UserRepository {
	return &userRepository{db: db, log: log}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, user_name, full_name, display_name, email, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	user := &domain.User{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.UserName, &user.FullName, &user.DisplayName,
		&user.Email, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		r.log.Error("Failed to get user", "error", err, "user_id", id)
		return nil, err
	}

	return user, nil
}

func (r *userRepository) ListActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	query := `
		SELECT id, user_name, full_name, display_name, email, is_active, created_at, updated_at
		FROM users
		WHERE is_active = true AND id = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		r.log.Error("Failed to list users by ids", "error", err)
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

func (r *userRepository) ListAll(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT id, user_name, full_name, display_name, email, is_active, created_at, updated_at
		FROM users
		ORDER BY display_name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to list users", "error", err)
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows pgx.Rows) ([]*domain.User, error) {
	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		err := rows.Scan(
			&user.ID, &user.UserName, &user.FullName, &user.DisplayName,
			&user.Email, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
