package domain

import (
	"time"

	"github.com/google/uuid"
)

// User создаётся внешним процессом синхронизации; ядро его не изменяет
type User struct {
	ID          uuid.UUID `json:"id"`
	UserName    string    `json:"user_name"`
	FullName    string    `json:"full_name"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
