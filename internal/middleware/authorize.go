package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	PrincipalServerNode = "vpn-server-node"
	PrincipalUserPortal = "vpn-user-portal"
)

func RequirePrincipals(principals ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(principals))
	for _, p := range principals {
		allowed[p] = struct{}{}
	}

	return func(c *gin.Context) {
		principal := Principal(c)
		if principal == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if _, ok := allowed[principal]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Next()
	}
}
