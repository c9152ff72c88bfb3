package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"kb-chatbot-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(m *token.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/sessions/:id", SessionAuthMiddleware(m), func(c *gin.Context) {
		claims := c.MustGet("claims").(*token.SessionClaims)
		c.String(http.StatusOK, claims.SessionID)
	})
	return r
}

func doGet(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionAuthMiddleware(t *testing.T) {
	m := token.NewJWTManager("secret", 1)
	r := newAuthRouter(m)
	tok, err := m.GenerateToken("abc")
	require.NoError(t, err)

	w := doGet(r, "/sessions/abc", "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/sessions/abc", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/sessions/abc", tok).Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "/sessions/abc", "Bearer nope").Code)
	assert.Equal(t, http.StatusForbidden, doGet(r, "/sessions/other", "Bearer "+tok).Code)
}
