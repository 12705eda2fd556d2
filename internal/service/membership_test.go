package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembershipStore_AddRemove(t *testing.T) {
	store := NewGroupMembershipStore()

	store.AddMember("room-1", "alice")
	store.AddMember("room-1", "bob")
	store.AddMember("room-2", "alice")

	assert.True(t, store.IsMember("room-1", "alice"))
	assert.True(t, store.IsMember("room-1", "bob"))
	assert.False(t, store.IsMember("room-2", "bob"))

	members := store.ListMembers("room-1")
	require.Len(t, members, 2)
	assert.Contains(t, members, "alice")
	assert.Contains(t, members, "bob")

	// обратный индекс
	groups := store.ListGroupsOfUser("alice")
	require.Len(t, groups, 2)
	assert.Contains(t, groups, "room-1")
	assert.Contains(t, groups, "room-2")

	store.RemoveMember("room-1", "alice")
	assert.False(t, store.IsMember("room-1", "alice"))
	assert.Equal(t, []string{"room-2"}, store.ListGroupsOfUser("alice"))
}

func TestMembershipStore_AddIsIdempotent(t *testing.T) {
	store := NewGroupMembershipStore()

	store.AddMember("room-1", "alice")
	store.AddMember("room-1", "alice")

	assert.Len(t, store.ListMembers("room-1"), 1)
	assert.Len(t, store.ListGroupsOfUser("alice"), 1)
}

func TestMembershipStore_RemoveUnknownIsNoop(t *testing.T) {
	store := NewGroupMembershipStore()

	store.RemoveMember("room-1", "ghost")
	assert.Empty(t, store.ListMembers("room-1"))
}

func TestMembershipStore_EvictIdle(t *testing.T) {
	store := NewGroupMembershipStore().(*groupMembershipStore)

	current := time.Now()
	store.now = func() time.Time { return current }

	store.AddMember("room-1", "alice")
	store.AddMember("room-1", "bob")
	store.Touch("alice")
	store.Touch("bob")

	// bob активничает, alice молчит
	current = current.Add(10 * time.Minute)
	store.Touch("bob")

	current = current.Add(6 * time.Minute)
	evicted := store.EvictIdle(15 * time.Minute)

	assert.Equal(t, 1, evicted)
	assert.False(t, store.IsMember("room-1", "alice"))
	assert.True(t, store.IsMember("room-1", "bob"))
	assert.Empty(t, store.ListGroupsOfUser("alice"))
}

func TestMembershipStore_EvictIdleKeepsActive(t *testing.T) {
	store := NewGroupMembershipStore().(*groupMembershipStore)

	current := time.Now()
	store.now = func() time.Time { return current }

	store.AddMember("room-1", "alice")
	store.Touch("alice")

	current = current.Add(14 * time.Minute)
	assert.Equal(t, 0, store.EvictIdle(15*time.Minute))
	assert.True(t, store.IsMember("room-1", "alice"))
}

func TestMembershipStore_UserWithoutTouchIsNotTracked(t *testing.T) {
	store := NewGroupMembershipStore().(*groupMembershipStore)

	current := time.Now()
	store.now = func() time.Time { return current }

	// участник попал в кеш без отметки активности
	store.AddMember("room-1", "alice")

	current = current.Add(time.Hour)
	assert.Equal(t, 0, store.EvictIdle(15*time.Minute))
	assert.True(t, store.IsMember("room-1", "alice"))
}
