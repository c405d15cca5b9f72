package handlers

import (
	"github.com/gin-gonic/gin"

	"vpnserver/internal/config"
	"vpnserver/internal/status"
)

type clientConnectionsQuery struct {
	ProfileID string `form:"profile_id" binding:"omitempty,profileid"`
}

func (h HandlerSet) ProfileList(c *gin.Context) {
	profiles := h.profiles.List()
	items := make(map[string]gin.H, len(profiles))
	for _, p := range profiles {
		items[p.ID] = gin.H{
			"profile_number":      p.ProfileNumber,
			"display_name":        p.DisplayName,
			"range":               p.Range,
			"range6":              p.Range6,
			"vpn_proto_ports":     p.VPNProtoPorts,
			"enable_acl":          p.EnableACL,
			"acl_permission_list": p.ACLPermissionList,
		}
	}
	respondOK(c, "profile_list", items)
}

// ClientConnections lists the open accounting rows grouped by profile,
// optionally restricted to one profile.
func (h HandlerSet) ClientConnections(c *gin.Context) {
	var req clientConnectionsQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBadRequest(c, validationError(err))
		return
	}

	var profiles []config.ProfileConfig
	if req.ProfileID != "" {
		profile, ok := h.profiles.Get(req.ProfileID)
		if !ok {
			respondBadRequest(c, h.requireProfile(req.ProfileID))
			return
		}
		profiles = []config.ProfileConfig{profile}
	} else {
		profiles = h.profiles.List()
	}

	list, err := status.NewStorageSource(h.open).ConnectionList(c.Request.Context(), profiles)
	if err != nil {
		h.respondInternal(c, "client_connections", err)
		return
	}

	items := make([]gin.H, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, gin.H{
			"id":          p.ID,
			"connections": list[p.ID],
		})
	}
	respondOK(c, "client_connections", items)
}

func (h HandlerSet) Status(c *gin.Context) {
	statuses, err := h.status.Report(c.Request.Context())
	if err != nil {
		h.respondInternal(c, "status", err)
		return
	}
	respondOK(c, "status", statuses)
}
