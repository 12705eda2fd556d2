package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chat_server/internal/config"
	"chat_server/internal/domain"
	"chat_server/internal/service"
	apperrors "chat_server/pkg/errors"
	"chat_server/pkg/logger"
)

// Gateway — единственная точка входа живого соединения: привязывает его к
// пользователю и оркестрирует RPC, дергая сторы и fan-out.
// Любое комнатное действие сперва проходит durable-проверку членства.
type Gateway struct {
	hub           *Hub
	presence      service.PresenceStore
	membership    service.GroupMembershipStore
	conversations service.ConversationService
	fanout        service.NotificationFanout
	cfg           config.ChatConfig
	log           logger.Logger
}

func NewGateway(
	hub *Hub,
	services *service.Services,
	cfg config.ChatConfig,
	log logger.Logger,
) *Gateway {
	return &Gateway{
		hub:           hub,
		presence:      services.Presence,
		membership:    services.Membership,
		conversations: services.Conversation,
		fanout:        services.Fanout,
		cfg:           cfg,
		log:           log,
	}
}

// HandleConnection регистрирует соединение и блокируется до его разрыва
func (g *Gateway) HandleConnection(ctx context.Context, conn *websocket.Conn, userID uuid.UUID, displayName string) {
	client := newClient(g.hub, conn, userID, displayName, g.cfg.SendBufferSize)

	g.onConnect(ctx, client)

	go client.writePump()
	client.readPump(ctx, g)
}

func (g *Gateway) onConnect(ctx context.Context, client *Client) {
	g.hub.register(client)

	userKey := client.UserID.String()
	personalRoom := domain.PersonalRoom(client.UserID)

	// Персональный канал получает bump/presence независимо от открытых комнат
	g.hub.Join(client, personalRoom)
	g.membership.AddMember(personalRoom, userKey)
	g.membership.Touch(userKey)

	// Подписка на все переписки из durable-членства, не только из кеша
	conversationIDs, err := g.conversations.ListConversationIDs(ctx, client.UserID)
	if err != nil {
		g.log.Warn("Failed to list conversations on connect", "error", err, "user_id", client.UserID)
	}
	for _, id := range conversationIDs {
		g.hub.Join(client, id.String())
		g.membership.AddMember(id.String(), userKey)
	}

	wasFirst := g.presence.AddConnection(client.UserID, client.ID)
	if wasFirst {
		g.fanout.UserOnline(client.UserID)
	}

	g.log.Info("Connection established", "user_id", client.UserID, "conn_id", client.ID, "first", wasFirst)
}

// onDisconnect: комнаты в кеше не трогаем — это durable-интерес,
// его приберёт idle-чистка
func (g *Gateway) onDisconnect(client *Client) {
	g.hub.unregister(client)

	becameEmpty := g.presence.RemoveConnection(client.UserID, client.ID)
	g.membership.Touch(client.UserID.String())
	if becameEmpty {
		g.fanout.UserOffline(client.UserID)
	}

	g.log.Info("Connection closed", "user_id", client.UserID, "conn_id", client.ID, "offline", becameEmpty)
}

func (g *Gateway) dispatch(ctx context.Context, client *Client, raw []byte) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		g.sendError(client, "", "malformed request")
		return
	}

	var err error
	switch req.Action {
	case ActionJoinConversation:
		err = g.handleJoin(ctx, client, req.ConversationID)
	case ActionLeaveConversation:
		err = g.handleLeave(client, req.ConversationID)
	case ActionSendMessage:
		err = g.handleSend(ctx, client, req.ConversationID, req.Content)
	case ActionTypingStarted:
		err = g.handleTyping(ctx, client, req.ConversationID, true)
	case ActionTypingStopped:
		err = g.handleTyping(ctx, client, req.ConversationID, false)
	case ActionMarkRead:
		err = g.handleMarkRead(ctx, client, req.ConversationID, req.MessageID)
	default:
		g.sendError(client, req.Action, "unknown action")
		return
	}

	if err != nil {
		g.log.Warn("RPC failed", "action", req.Action, "error", err, "user_id", client.UserID)
		g.sendError(client, req.Action, clientError(err))
	}
}

func (g *Gateway) handleJoin(ctx context.Context, client *Client, conversationID uuid.UUID) error {
	if err := g.conversations.CheckMember(ctx, conversationID, client.UserID); err != nil {
		return err
	}

	room := conversationID.String()
	g.hub.Join(client, room)
	g.membership.AddMember(room, client.UserID.String())
	g.membership.Touch(client.UserID.String())

	g.sendTo(client, domain.JoinedConversationEvent{ConversationID: conversationID})
	return nil
}

// handleLeave отписывает только транспортную комнату; durable-членство
// снимается отдельной операцией leave/kick
func (g *Gateway) handleLeave(client *Client, conversationID uuid.UUID) error {
	g.hub.Leave(client, conversationID.String())
	g.sendTo(client, domain.LeftConversationEvent{ConversationID: conversationID})
	return nil
}

func (g *Gateway) handleSend(ctx context.Context, client *Client, conversationID uuid.UUID, content string) error {
	message, memberIDs, err := g.conversations.SendMessage(ctx, conversationID, client.UserID, content)
	if err != nil {
		return err
	}

	// Broadcast только после успешного коммита
	g.fanout.MessageCreated(message, memberIDs, client.DisplayName)
	g.membership.Touch(client.UserID.String())
	return nil
}

// handleTyping ходит в кеш как fast-path; промах добирается до durable-состояния
func (g *Gateway) handleTyping(ctx context.Context, client *Client, conversationID uuid.UUID, isTyping bool) error {
	room := conversationID.String()
	userKey := client.UserID.String()

	if !g.membership.IsMember(room, userKey) {
		if err := g.conversations.CheckMember(ctx, conversationID, client.UserID); err != nil {
			return err
		}
		g.membership.AddMember(room, userKey)
	}

	g.membership.Touch(userKey)
	g.fanout.TypingChanged(conversationID, client.ID, client.UserID, client.DisplayName, isTyping)
	return nil
}

func (g *Gateway) handleMarkRead(ctx context.Context, client *Client, conversationID, messageID uuid.UUID) error {
	state, updated, err := g.conversations.MarkRead(ctx, conversationID, client.UserID, messageID)
	if err != nil {
		return err
	}

	// Запоздавшая отметка — тихий no-op без broadcast
	if updated {
		g.fanout.ReadReceiptUpdated(conversationID, client.UserID, messageID, state.LastReadAt)
	}
	g.membership.Touch(client.UserID.String())
	return nil
}

func (g *Gateway) sendTo(client *Client, event domain.Event) {
	payload, err := encodeEvent(event)
	if err != nil {
		g.log.Error("Failed to encode event", "error", err, "type", event.EventType())
		return
	}
	client.enqueue(payload)
}

func (g *Gateway) sendError(client *Client, action, message string) {
	g.sendTo(client, domain.ErrorEvent{Action: action, Message: message})
}

// clientError переводит внутренние ошибки в текст для клиента, не светя детали БД
func clientError(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrNotAMember), errors.Is(err, apperrors.ErrForbidden):
		return "not a member of this conversation"
	case errors.Is(err, apperrors.ErrValidation):
		return err.Error()
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrMessageNotFound),
		errors.Is(err, apperrors.ErrConversationNotFound):
		return "not found"
	default:
		return "internal error"
	}
}
