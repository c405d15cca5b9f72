package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"vpnserver/internal/config"
	"vpnserver/internal/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testSecurity = config.SecurityConfig{
	JWTSecret: "jwt-secret",
	APIConsumers: map[string]string{
		PrincipalServerNode: "node-secret",
		PrincipalUserPortal: "portal-secret",
	},
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Recovery(zerolog.Nop()), Logger(zerolog.Nop()))
	api := r.Group("/api", Authenticate(testSecurity))
	api.GET("/node", RequirePrincipals(PrincipalServerNode), func(c *gin.Context) {
		c.String(http.StatusOK, Principal(c))
	})
	api.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate_Basic(t *testing.T) {
	r := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/node", nil)
	req.SetBasicAuth(PrincipalServerNode, "node-secret")
	w := do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, PrincipalServerNode, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/node", nil)
	req.SetBasicAuth(PrincipalServerNode, "portal-secret")
	w := do(newRouter(), req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
}

func TestAuthenticate_Missing(t *testing.T) {
	w := do(newRouter(), httptest.NewRequest(http.MethodGet, "/api/node", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"missing_credentials"}`, w.Body.String())
}

func TestAuthenticate_HashedSecret(t *testing.T) {
	encoded, err := security.HashSecretWithParams("node-secret", security.Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	assert.NoError(t, err)

	r := gin.New()
	r.GET("/x", Authenticate(config.SecurityConfig{APIConsumers: map[string]string{PrincipalServerNode: encoded}}), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.SetBasicAuth(PrincipalServerNode, "node-secret")
	assert.Equal(t, http.StatusNoContent, do(r, req).Code)
}

func TestAuthenticate_Bearer(t *testing.T) {
	token, err := security.GenerateToken(testSecurity.JWTSecret, PrincipalServerNode, time.Minute)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/node", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := do(newRouter(), req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/node", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, do(newRouter(), req).Code)
}

func TestRequirePrincipals_Forbidden(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/node", nil)
	req.SetBasicAuth(PrincipalUserPortal, "portal-secret")
	w := do(newRouter(), req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestID_Propagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/node", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := do(newRouter(), req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestRecovery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/panic", nil)
	req.SetBasicAuth(PrincipalUserPortal, "portal-secret")
	w := do(newRouter(), req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal_server_error"}`, w.Body.String())
}
