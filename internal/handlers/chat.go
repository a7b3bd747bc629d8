package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/projectnav/navigator/internal/middleware"
	"github.com/projectnav/navigator/internal/services"
	"github.com/projectnav/navigator/pkg/logger"
	"github.com/projectnav/navigator/pkg/response"
	"gorm.io/gorm"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(db *gorm.DB, llm services.ChatCompleter) *ChatHandler {
	return &ChatHandler{
		chatService: services.NewChatService(db, llm),
	}
}

type chatRequest struct {
	ProjectID uint   `json:"projectId" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// Chat runs one orchestrated exchange against the project's transcript
// POST /chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	reply, err := h.chatService.HandleMessage(c.Request.Context(), middleware.GetUserID(c), req.ProjectID, req.Message)
	if err != nil {
		logger.Error().Err(err).Uint("project_id", req.ProjectID).Msg("chat failed")
		response.Error(c, err)
		return
	}

	c.JSON(200, gin.H{"reply": reply})
}

// History returns the transcript window, oldest first
// GET /chat-history/:projectId
func (h *ChatHandler) History(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("projectId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	messages, err := h.chatService.History(middleware.GetUserID(c), uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(200, messages)
}
