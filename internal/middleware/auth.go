package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vpnserver/internal/config"
	"vpnserver/internal/security"
)

const principalKey = "principal"

// Authenticate resolves the api consumer from HTTP basic credentials or a
// bearer token and stores its name on the context.
func Authenticate(cfg config.SecurityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		var principal string
		switch {
		case strings.HasPrefix(authHeader, "Bearer "):
			name, err := security.ParseToken(strings.TrimPrefix(authHeader, "Bearer "), cfg.JWTSecret)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
				return
			}
			principal = name
		default:
			user, pass, ok := c.Request.BasicAuth()
			if !ok {
				c.Header("WWW-Authenticate", `Basic realm="vpn-server-api"`)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_credentials"})
				return
			}
			secret, known := cfg.APIConsumers[user]
			if !known || !security.VerifySecret(secret, pass) {
				c.Header("WWW-Authenticate", `Basic realm="vpn-server-api"`)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
				return
			}
			principal = user
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// Principal returns the authenticated api consumer, if any.
func Principal(c *gin.Context) string {
	return c.GetString(principalKey)
}
