package service

import (
	"sync"
	"time"
)

// GroupMembershipStore — кеш состава комнат для быстрого разрешения адресатов
// fan-out. Прямой индекс комната → участники и обратный участник → комнаты.
// Не источник истины для авторизации: её всегда перепроверяют по БД.
type GroupMembershipStore interface {
	AddMember(groupID, userID string)
	RemoveMember(groupID, userID string)
	ListGroupsOfUser(userID string) []string
	ListMembers(groupID string) []string
	IsMember(groupID, userID string) bool
	Touch(userID string)
	// EvictIdle выселяет из всех комнат тех, кто не активничал дольше threshold.
	// Возвращает количество выселенных.
	EvictIdle(threshold time.Duration) int
}

type groupMembershipStore struct {
	mu           sync.Mutex
	groupToUsers map[string]map[string]bool
	userToGroups map[string]map[string]bool
	lastActiveAt map[string]time.Time
	now          func() time.Time
}

func NewGroupMembershipStore() GroupMembershipStore {
	return &groupMembershipStore{
		groupToUsers: make(map[string]map[string]bool),
		userToGroups: make(map[string]map[string]bool),
		lastActiveAt: make(map[string]time.Time),
		now:          time.Now,
	}
}

func (s *groupMembershipStore) AddMember(groupID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.groupToUsers[groupID]
	if !ok {
		users = make(map[string]bool)
		s.groupToUsers[groupID] = users
	}
	users[userID] = true

	groups, ok := s.userToGroups[userID]
	if !ok {
		groups = make(map[string]bool)
		s.userToGroups[userID] = groups
	}
	groups[groupID] = true
}

func (s *groupMembershipStore) RemoveMember(groupID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if users, ok := s.groupToUsers[groupID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(s.groupToUsers, groupID)
		}
	}
	if groups, ok := s.userToGroups[userID]; ok {
		delete(groups, groupID)
		if len(groups) == 0 {
			delete(s.userToGroups, userID)
		}
	}
}

func (s *groupMembershipStore) ListGroupsOfUser(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := s.userToGroups[userID]
	result := make([]string, 0, len(groups))
	for groupID := range groups {
		result = append(result, groupID)
	}
	return result
}

func (s *groupMembershipStore) ListMembers(groupID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.groupToUsers[groupID]
	result := make([]string, 0, len(users))
	for userID := range users {
		result = append(result, userID)
	}
	return result
}

func (s *groupMembershipStore) IsMember(groupID, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.groupToUsers[groupID]
	return ok && users[userID]
}

func (s *groupMembershipStore) Touch(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt[userID] = s.now()
}

func (s *groupMembershipStore) EvictIdle(threshold time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-threshold)
	evicted := 0

	for userID, lastActive := range s.lastActiveAt {
		if !lastActive.Before(cutoff) {
			continue
		}
		for groupID := range s.userToGroups[userID] {
			if users, ok := s.groupToUsers[groupID]; ok {
				delete(users, userID)
				if len(users) == 0 {
					delete(s.groupToUsers, groupID)
				}
			}
		}
		delete(s.userToGroups, userID)
		delete(s.lastActiveAt, userID)
		evicted++
	}

	return evicted
}
