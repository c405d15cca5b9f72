package handlers

import (
	"github.com/gin-gonic/gin"
)

type killClientRequest struct {
	CommonName string `form:"common_name" json:"common_name" binding:"required,commonname"`
}

func (h HandlerSet) KillClient(c *gin.Context) {
	var req killClientRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, validationError(err))
		return
	}

	killed, err := h.clients.KillClient(c.Request.Context(), req.CommonName)
	if err != nil {
		h.respondInternal(c, "kill_client", err)
		return
	}
	respondOK(c, "kill_client", gin.H{"clients_killed": killed})
}
