package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"vpnserver/internal/service"
)

// Timestamps are Unix seconds, at most 9999-12-31T23:59:59Z.
type connectRequest struct {
	ProfileID   string `form:"profile_id" json:"profile_id" binding:"required,profileid"`
	CommonName  string `form:"common_name" json:"common_name" binding:"required,commonname"`
	IP4         string `form:"ip4" json:"ip4" binding:"required,ipv4"`
	IP6         string `form:"ip6" json:"ip6" binding:"required,ipv6"`
	ConnectedAt *int64 `form:"connected_at" json:"connected_at" binding:"required,min=0,max=253402300799"`
}

type disconnectRequest struct {
	ProfileID        string `form:"profile_id" json:"profile_id" binding:"required,profileid"`
	CommonName       string `form:"common_name" json:"common_name" binding:"required,commonname"`
	IP4              string `form:"ip4" json:"ip4" binding:"required,ipv4"`
	IP6              string `form:"ip6" json:"ip6" binding:"required,ipv6"`
	ConnectedAt      *int64 `form:"connected_at" json:"connected_at" binding:"required,min=0,max=253402300799"`
	DisconnectedAt   *int64 `form:"disconnected_at" json:"disconnected_at" binding:"required,min=0,max=253402300799"`
	BytesTransferred *int64 `form:"bytes_transferred" json:"bytes_transferred" binding:"required,min=0"`
}

func (h HandlerSet) requireProfile(id string) error {
	if !h.profiles.Has(id) {
		return fmt.Errorf("invalid request: profile_id: profile %q does not exist", id)
	}
	return nil
}

func (h HandlerSet) Connect(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, validationError(err))
		return
	}
	if err := h.requireProfile(req.ProfileID); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.connections.Connect(c.Request.Context(), service.ConnectInput{
		ProfileID:   req.ProfileID,
		CommonName:  req.CommonName,
		IP4:         req.IP4,
		IP6:         req.IP6,
		ConnectedAt: time.Unix(*req.ConnectedAt, 0).UTC(),
	})
	if err != nil {
		h.respondInternal(c, "connect", err)
		return
	}
	if !result.Accepted {
		respondDenied(c, "connect", result.Message)
		return
	}
	respondOK(c, "connect", nil)
}

func (h HandlerSet) Disconnect(c *gin.Context) {
	var req disconnectRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, validationError(err))
		return
	}
	if err := h.requireProfile(req.ProfileID); err != nil {
		respondBadRequest(c, err)
		return
	}

	err := h.connections.Disconnect(c.Request.Context(), service.DisconnectInput{
		ProfileID:        req.ProfileID,
		CommonName:       req.CommonName,
		IP4:              req.IP4,
		IP6:              req.IP6,
		ConnectedAt:      time.Unix(*req.ConnectedAt, 0).UTC(),
		DisconnectedAt:   time.Unix(*req.DisconnectedAt, 0).UTC(),
		BytesTransferred: *req.BytesTransferred,
	})
	if err != nil {
		h.respondInternal(c, "disconnect", err)
		return
	}
	respondOK(c, "disconnect", nil)
}
