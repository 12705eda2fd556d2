package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat_server/internal/middleware"
	"chat_server/internal/service"
	"chat_server/pkg/errors"
	"chat_server/pkg/logger"
)

type UserHandler struct {
	userService service.UserService
	log         logger.Logger
}

func NewUserHandler(userService service.UserService, log logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log,
	}
}

// List отдаёт всех пользователей, кроме вызывающего, с флагом присутствия
func (h *UserHandler) List(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	users, err := h.userService.ListUsersWithPresence(c.Request.Context(), userID)
	if err != nil {
		c.JSON(errors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, users)
}
