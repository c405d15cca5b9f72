package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vpnserver/internal/repository"
)

type userQuery struct {
	UserID string `form:"user_id" json:"user_id" binding:"required"`
}

type commonNameQuery struct {
	CommonName string `form:"common_name" binding:"required,commonname"`
}

func (h HandlerSet) bindUser(c *gin.Context, query bool) (string, bool) {
	var req userQuery
	var err error
	if query {
		err = c.ShouldBindQuery(&req)
	} else {
		err = c.ShouldBind(&req)
	}
	if err != nil {
		respondBadRequest(c, validationError(err))
		return "", false
	}
	return req.UserID, true
}

// storeError maps a not-found sentinel to 404 and anything else to 500.
func (h HandlerSet) storeError(c *gin.Context, op string, err error) {
	if errors.Is(err, repository.ErrUserNotFound) || errors.Is(err, repository.ErrCertificateNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	h.respondInternal(c, op, err)
}

func (h HandlerSet) UserMessages(c *gin.Context) {
	userID, ok := h.bindUser(c, true)
	if !ok {
		return
	}

	messages, err := h.messages.UserMessages(c.Request.Context(), userID)
	if err != nil {
		h.respondInternal(c, "user_messages", err)
		return
	}

	items := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		items = append(items, messageResponse{
			ID:       m.ID,
			UserID:   m.UserID,
			Type:     string(m.Type),
			Message:  m.Message,
			DateTime: m.DateTime,
		})
	}
	respondOK(c, "user_messages", items)
}

func (h HandlerSet) DisableUser(c *gin.Context) {
	userID, ok := h.bindUser(c, false)
	if !ok {
		return
	}
	if err := h.users.Disable(c.Request.Context(), userID); err != nil {
		h.storeError(c, "disable_user", err)
		return
	}
	h.log.Info().Str("user_id", userID).Msg("user disabled")
	respondOK(c, "disable_user", nil)
}

func (h HandlerSet) EnableUser(c *gin.Context) {
	userID, ok := h.bindUser(c, false)
	if !ok {
		return
	}
	if err := h.users.Enable(c.Request.Context(), userID); err != nil {
		h.storeError(c, "enable_user", err)
		return
	}
	h.log.Info().Str("user_id", userID).Msg("user enabled")
	respondOK(c, "enable_user", nil)
}

func (h HandlerSet) IsDisabledUser(c *gin.Context) {
	userID, ok := h.bindUser(c, true)
	if !ok {
		return
	}
	disabled, err := h.users.IsDisabled(c.Request.Context(), userID)
	if err != nil {
		h.storeError(c, "is_disabled_user", err)
		return
	}
	respondOK(c, "is_disabled_user", disabled)
}

func (h HandlerSet) UserPermissionList(c *gin.Context) {
	userID, ok := h.bindUser(c, true)
	if !ok {
		return
	}
	permissions, err := h.users.PermissionList(c.Request.Context(), userID)
	if err != nil {
		h.storeError(c, "user_permission_list", err)
		return
	}
	respondOK(c, "user_permission_list", permissions)
}

func (h HandlerSet) UserCertificateInfo(c *gin.Context) {
	var req commonNameQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBadRequest(c, validationError(err))
		return
	}

	info, err := h.certificates.UserCertificateInfo(c.Request.Context(), req.CommonName)
	if err != nil {
		h.storeError(c, "user_certificate_info", err)
		return
	}
	respondOK(c, "user_certificate_info", gin.H{
		"common_name":      info.CommonName,
		"user_id":          info.UserID,
		"display_name":     info.DisplayName,
		"valid_from":       info.ValidFrom,
		"valid_to":         info.ValidTo,
		"user_is_disabled": info.UserIsDisabled,
	})
}

func (h HandlerSet) GroupList(c *gin.Context) {
	groups, err := h.users.GroupList(c.Request.Context())
	if err != nil {
		h.respondInternal(c, "group_list", err)
		return
	}
	respondOK(c, "group_list", groups)
}
