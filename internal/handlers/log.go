package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

type logQuery struct {
	DateTime  *int64 `form:"date_time" binding:"required,min=0,max=253402300799"`
	IPAddress string `form:"ip_address" binding:"required,ip"`
}

type logEntryResponse struct {
	UserID           string     `json:"user_id"`
	ProfileID        string     `json:"profile_id"`
	CommonName       string     `json:"common_name"`
	IP4              string     `json:"ip4"`
	IP6              string     `json:"ip6"`
	ConnectedAt      time.Time  `json:"connected_at"`
	DisconnectedAt   *time.Time `json:"disconnected_at"`
	BytesTransferred *int64     `json:"bytes_transferred"`
}

// Log answers which sessions held ip_address at date_time.
func (h HandlerSet) Log(c *gin.Context) {
	var req logQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBadRequest(c, validationError(err))
		return
	}

	entries, err := h.connectionLog.LogAt(c.Request.Context(), time.Unix(*req.DateTime, 0).UTC(), req.IPAddress)
	if err != nil {
		h.respondInternal(c, "log", err)
		return
	}

	items := make([]logEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, logEntryResponse{
			UserID:           e.UserID,
			ProfileID:        e.ProfileID,
			CommonName:       e.CommonName,
			IP4:              e.IP4,
			IP6:              e.IP6,
			ConnectedAt:      e.ConnectedAt,
			DisconnectedAt:   e.DisconnectedAt,
			BytesTransferred: e.BytesTransferred,
		})
	}
	respondOK(c, "log", items)
}
