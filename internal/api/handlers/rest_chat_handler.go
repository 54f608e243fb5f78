package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/services"
)

// RestChatHandler handles REST requests for conversations and messages.
type RestChatHandler struct {
	chatService services.IChatService
}

// NewRestChatHandler creates a new RestChatHandler.
func NewRestChatHandler(chatService services.IChatService) *RestChatHandler {
	return &RestChatHandler{chatService: chatService}
}

// ListConversations handles GET /v1/conversation
func (h *RestChatHandler) ListConversations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	convs, err := h.chatService.ListConversations(c.Request.Context(), userID, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": convs})
}

// ListMessages handles GET /v1/conversation/:id/messages
func (h *RestChatHandler) ListMessages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	convID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	msgs, err := h.chatService.ListMessages(c.Request.Context(), convID, userID, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

// SendMessageRequest is the body of POST /v1/conversation/:id/messages.
type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// SendMessage handles POST /v1/conversation/:id/messages
func (h *RestChatHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	convID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chatService.SendMessage(c.Request.Context(), convID, userID, req.Body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// MarkRead handles POST /v1/conversation/:id/read
func (h *RestChatHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	convID, ok := pathSixID(c, "id")
	if !ok {
		return
	}
	if err := h.chatService.MarkConversationRead(c.Request.Context(), convID, userID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UnreadCount handles GET /v1/conversation/unread-count
func (h *RestChatHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	n, err := h.chatService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}
