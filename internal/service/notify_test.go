package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat_server/internal/domain"
	"chat_server/pkg/logger"
)

type sentFrame struct {
	room    string
	exclude string
	toAll   bool
	event   domain.Event
}

// fakeBroadcaster пишет рассылки в журнал в порядке отправки
type fakeBroadcaster struct {
	frames []sentFrame
}

func (b *fakeBroadcaster) ToRoom(roomID string, event domain.Event) {
	b.frames = append(b.frames, sentFrame{room: roomID, event: event})
}

func (b *fakeBroadcaster) ToOthersInRoom(roomID, excludeConnID string, event domain.Event) {
	b.frames = append(b.frames, sentFrame{room: roomID, exclude: excludeConnID, event: event})
}

func (b *fakeBroadcaster) ToAll(event domain.Event) {
	b.frames = append(b.frames, sentFrame{toAll: true, event: event})
}

func (b *fakeBroadcaster) framesOfType(eventType string) []sentFrame {
	var result []sentFrame
	for _, frame := range b.frames {
		if frame.event.EventType() == eventType {
			result = append(result, frame)
		}
	}
	return result
}

func newFanoutForTest() (*fakeBroadcaster, NotificationFanout) {
	broadcaster := &fakeBroadcaster{}
	return broadcaster, NewNotificationFanout(broadcaster, logger.New("error"))
}

func TestFanout_MessageCreated(t *testing.T) {
	broadcaster, fanout := newFanoutForTest()

	conversationID := uuid.New()
	sender := uuid.New()
	memberA := uuid.New()
	memberB := uuid.New()
	message := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderUserID:   sender,
		Content:        "hello",
		CreatedAt:      time.Now(),
	}

	fanout.MessageCreated(message, []uuid.UUID{memberA, memberB}, "Alice")

	created := broadcaster.framesOfType(domain.EventMessageCreated)
	require.Len(t, created, 1)
	assert.Equal(t, conversationID.String(), created[0].room)

	// bump уходит в персональный канал каждого участника, включая отправителя
	bumps := broadcaster.framesOfType(domain.EventConversationBump)
	require.Len(t, bumps, 2)
	rooms := []string{bumps[0].room, bumps[1].room}
	assert.Contains(t, rooms, domain.PersonalRoom(memberA))
	assert.Contains(t, rooms, domain.PersonalRoom(memberB))
}

func TestFanout_GroupCreatedGoesToPersonalRooms(t *testing.T) {
	broadcaster, fanout := newFanoutForTest()

	conversationID := uuid.New()
	creator := uuid.New()
	member := uuid.New()

	fanout.GroupCreated(conversationID, "team", domain.ConversationTypeGroup, creator, []uuid.UUID{creator, member})

	frames := broadcaster.framesOfType(domain.EventGroupCreated)
	require.Len(t, frames, 2)
	assert.Equal(t, domain.PersonalRoom(creator), frames[0].room)
	assert.Equal(t, domain.PersonalRoom(member), frames[1].room)
}

func TestFanout_MembersAdded(t *testing.T) {
	broadcaster, fanout := newFanoutForTest()

	conversationID := uuid.New()
	actor := uuid.New()
	newMember := uuid.New()

	fanout.MembersAdded(conversationID, "team", actor, "Alice", []domain.NewMemberInfo{
		{MemberID: newMember, DisplayName: "Bob"},
	})

	roomFrames := broadcaster.framesOfType(domain.EventMembersAdded)
	require.Len(t, roomFrames, 1)
	assert.Equal(t, conversationID.String(), roomFrames[0].room)

	personal := broadcaster.framesOfType(domain.EventAddedToGroup)
	require.Len(t, personal, 1)
	assert.Equal(t, domain.PersonalRoom(newMember), personal[0].room)
}

func TestFanout_KickNotifiesMemberBeforeRoom(t *testing.T) {
	broadcaster, fanout := newFanoutForTest()

	conversationID := uuid.New()
	memberID := uuid.New()

	fanout.MemberRemoved(conversationID, "team", domain.MemberActionKick, memberID, "Bob", "Alice")

	require.Len(t, broadcaster.frames, 2)
	// персональное уведомление строго до комнатного
	assert.Equal(t, domain.EventRemovedFromGroup, broadcaster.frames[0].event.EventType())
	assert.Equal(t, domain.PersonalRoom(memberID), broadcaster.frames[0].room)
	assert.Equal(t, domain.EventMemberRemoved, broadcaster.frames[1].event.EventType())
	assert.Equal(t, conversationID.String(), broadcaster.frames[1].room)
}

func TestFanout_LeaveSkipsPersonalNotification(t *testing.T) {
	broadcaster, fanout := newFanoutForTest()

	conversationID := uuid.New()
	memberID := uuid.New()

	fanout.MemberRemoved(conversationID, "team", domain.MemberActionLeave, memberID, "Bob", "")

	require.Len(t, broadcaster.frames, 1)
	assert.Equal(t, domain.EventMemberLeft, broadcaster.frames[0].event.EventType())
	assert.Equal(t, conversationID.String(), broadcaster.frames[0].room)
}

func TestFanout_TypingExcludesOrigin(t *testing.T) {
	broadcaster, fanout := newFanoutForTest()

	conversationID := uuid.New()
	userID := uuid.New()

	fanout.TypingChanged(conversationID, "conn-42", userID, "Alice", true)

	require.Len(t, broadcaster.frames, 1)
	assert.Equal(t, conversationID.String(), broadcaster.frames[0].room)
	assert.Equal(t, "conn-42", broadcaster.frames[0].exclude)
}

func TestFanout_PresenceGoesToAll(t *testing.T) {
	broadcaster, fanout := newFanoutForTest()

	userID := uuid.New()
	fanout.UserOnline(userID)
	fanout.UserOffline(userID)

	require.Len(t, broadcaster.frames, 2)
	assert.True(t, broadcaster.frames[0].toAll)
	assert.Equal(t, domain.EventUserOnline, broadcaster.frames[0].event.EventType())
	assert.True(t, broadcaster.frames[1].toAll)
	assert.Equal(t, domain.EventUserOffline, broadcaster.frames[1].event.EventType())
}
