package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chat_server/internal/domain"
	"chat_server/internal/middleware"
	"chat_server/internal/service"
	"chat_server/pkg/errors"
	"chat_server/pkg/logger"
)

type ConversationHandler struct {
	conversations service.ConversationService
	log           logger.Logger
}

func NewConversationHandler(conversations service.ConversationService, log logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		log:           log,
	}
}

// List отдаёт сайдбар вызывающего: переписки с последним сообщением и unread
func (h *ConversationHandler) List(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	views, err := h.conversations.ListConversations(c.Request.Context(), userID)
	if err != nil {
		c.JSON(errors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, views)
}

type EnsureDirectRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

func (h *ConversationHandler) EnsureDirect(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var req EnsureDirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conversationID, err := h.conversations.EnsureDirectConversation(c.Request.Context(), userID, req.UserID)
	if err != nil {
		c.JSON(errors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation_id": conversationID})
}

// FindDirect проверяет наличие DIRECT-переписки, не создавая её
func (h *ConversationHandler) FindDirect(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	otherID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	conversationID, err := h.conversations.FindDirectConversation(c.Request.Context(), userID, otherID)
	if err != nil {
		c.JSON(errors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	if conversationID == uuid.Nil {
		c.JSON(http.StatusOK, gin.H{"exists": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"exists": true, "conversation_id": conversationID})
}

func (h *ConversationHandler) ListMessages(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation ID"})
		return
	}

	pageIndex, _ := strconv.Atoi(c.DefaultQuery("page_index", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))
	paging := domain.PagingRequest{PageIndex: pageIndex, PageSize: pageSize}

	page, err := h.conversations.ListMessages(c.Request.Context(), conversationID, userID, paging)
	if err != nil {
		c.JSON(errors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, page)
}

// Clear для группы прячет историю до текущего момента, DIRECT удаляет целиком
func (h *ConversationHandler) Clear(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation ID"})
		return
	}

	if err := h.conversations.ClearConversation(c.Request.Context(), conversationID, userID); err != nil {
		c.JSON(errors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Conversation cleared"})
}

type CreateGroupRequest struct {
	Name      string      `json:"name" binding:"required"`
	MemberIDs []uuid.UUID `json:"member_ids" binding:"required"`
}

func (h *ConversationHandler) CreateGroup(c *gin.Context) {
	h.createGroup(c, domain.ConversationTypeGroup)
}

// CreateExternalGroup создаёт группу, заведённую внешней системой;
// семантика членства и рассылок совпадает с обычной группой
func (h *ConversationHandler) CreateExternalGroup(c *gin.Context) {
	h.createGroup(c, domain.ConversationTypeExternalGroup)
}

func (h *ConversationHandler) createGroup(c *gin.Context, conversationType string) {
	userID := middleware.CurrentUserID(c)
	displayName := middleware.CurrentDisplayName(c)

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conversation, _, err := h.conversations.CreateGroup(c.Request.Context(), req.Name, conversationType, userID, displayName, req.MemberIDs)
	if err != nil {
		c.JSON(errors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, conversation)
}

type AddMembersRequest struct {
	MemberIDs []uuid.UUID `json:"member_ids" binding:"required"`
}

func (h *ConversationHandler) AddMembers(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	displayName := middleware.CurrentDisplayName(c)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation ID"})
		return
	}

	var req AddMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.conversations.AddMembers(c.Request.Context(), conversationID, userID, displayName, req.MemberIDs); err != nil {
		c.JSON(errors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Members added"})
}

func (h *ConversationHandler) Leave(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation ID"})
		return
	}

	if err := h.conversations.RemoveMember(c.Request.Context(), conversationID, userID, domain.MemberActionLeave, nil); err != nil {
		c.JSON(errors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left conversation"})
}

func (h *ConversationHandler) Kick(c *gin.Context) {
	actorID := middleware.CurrentUserID(c)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation ID"})
		return
	}

	memberID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID"})
		return
	}

	if err := h.conversations.RemoveMember(c.Request.Context(), conversationID, memberID, domain.MemberActionKick, &actorID); err != nil {
		c.JSON(errors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

func (h *ConversationHandler) ListMembers(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation ID"})
		return
	}

	// состав видят только участники
	if err := h.conversations.CheckMember(c.Request.Context(), conversationID, userID); err != nil {
		c.JSON(errors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	members, err := h.conversations.ListMembers(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(errors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, members)
}
