package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vpnserver/internal/models"
	"vpnserver/internal/repository"
)

type messageResponse struct {
	ID       int64     `json:"id"`
	Type     string    `json:"type"`
	Message  string    `json:"message"`
	DateTime time.Time `json:"date_time"`
	UserID   string    `json:"user_id,omitempty"`
}

type systemMessagesQuery struct {
	MessageType string `form:"message_type" binding:"required,messagetype"`
}

type addSystemMessageRequest struct {
	MessageType string `form:"message_type" json:"message_type" binding:"required,messagetype"`
	MessageBody string `form:"message_body" json:"message_body" binding:"required"`
}

type deleteSystemMessageRequest struct {
	MessageID int64 `form:"message_id" json:"message_id" binding:"required,gt=0"`
}

func (h HandlerSet) SystemMessages(c *gin.Context) {
	var req systemMessagesQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBadRequest(c, validationError(err))
		return
	}

	messages, err := h.messages.SystemMessages(c.Request.Context(), models.MessageType(req.MessageType))
	if err != nil {
		h.respondInternal(c, "system_messages", err)
		return
	}

	items := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		items = append(items, messageResponse{
			ID:       m.ID,
			Type:     string(m.Type),
			Message:  m.Message,
			DateTime: m.DateTime,
		})
	}
	respondOK(c, "system_messages", items)
}

func (h HandlerSet) AddSystemMessage(c *gin.Context) {
	var req addSystemMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, validationError(err))
		return
	}

	id, err := h.messages.AddSystemMessage(c.Request.Context(), models.MessageType(req.MessageType), req.MessageBody)
	if err != nil {
		h.respondInternal(c, "add_system_message", err)
		return
	}
	respondOK(c, "add_system_message", gin.H{"id": id})
}

func (h HandlerSet) DeleteSystemMessage(c *gin.Context) {
	var req deleteSystemMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, validationError(err))
		return
	}

	if err := h.messages.DeleteSystemMessage(c.Request.Context(), req.MessageID); err != nil {
		if errors.Is(err, repository.ErrSystemMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.respondInternal(c, "delete_system_message", err)
		return
	}
	respondOK(c, "delete_system_message", nil)
}
