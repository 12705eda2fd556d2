package service

import (
	"sync"

	"github.com/google/uuid"
)

// PresenceStore отслеживает живые соединения пользователей.
// Флаги переходов online/offline вычисляются под тем же замком, что и мутация,
// иначе при нескольких вкладках возможны дублирующиеся броадкасты.
type PresenceStore interface {
	AddConnection(userID uuid.UUID, connID string) (wasFirst bool)
	RemoveConnection(userID uuid.UUID, connID string) (becameEmpty bool)
	ListOnlineUsers() []uuid.UUID
	ListConnections(userID uuid.UUID) []string
	IsOnline(userID uuid.UUID) bool
}

type presenceStore struct {
	mu          sync.Mutex
	userToConns map[uuid.UUID]map[string]bool
}

func NewPresenceStore() PresenceStore {
	return &presenceStore{
		userToConns: make(map[uuid.UUID]map[string]bool),
	}
}

func (s *presenceStore) AddConnection(userID uuid.UUID, connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	conns, ok := s.userToConns[userID]
	if !ok {
		conns = make(map[string]bool)
		s.userToConns[userID] = conns
	}
	wasEmpty := len(conns) == 0
	conns[connID] = true
	return wasEmpty
}

func (s *presenceStore) RemoveConnection(userID uuid.UUID, connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	conns, ok := s.userToConns[userID]
	if !ok {
		return false
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(s.userToConns, userID)
		return true
	}
	return false
}

func (s *presenceStore) ListOnlineUsers() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]uuid.UUID, 0, len(s.userToConns))
	for userID := range s.userToConns {
		users = append(users, userID)
	}
	return users
}

func (s *presenceStore) ListConnections(userID uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	conns := s.userToConns[userID]
	result := make([]string, 0, len(conns))
	for connID := range conns {
		result = append(result, connID)
	}
	return result
}

func (s *presenceStore) IsOnline(userID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.userToConns[userID]) > 0
}
