package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vpnserver/internal/middleware"
)

// respondOK writes {"<op>": {"ok": true, "data": ...}}; data is omitted when nil.
func respondOK(c *gin.Context, op string, data any) {
	body := gin.H{"ok": true}
	if data != nil {
		body["data"] = data
	}
	c.JSON(http.StatusOK, gin.H{op: body})
}

// respondDenied reports a policy outcome, which is not an HTTP error.
func respondDenied(c *gin.Context, op string, reason string) {
	c.JSON(http.StatusOK, gin.H{op: gin.H{"ok": false, "error": reason}})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (h HandlerSet) respondInternal(c *gin.Context, op string, err error) {
	h.log.Error().
		Err(err).
		Str("op", op).
		Str("request_id", middleware.RequestIDFrom(c)).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
}
