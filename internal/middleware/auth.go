// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"kb-chatbot-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// SessionAuthMiddleware 创建一个 Gin 中间件，用于会话 token 认证。
// token 中的会话 ID 必须与路由参数 :id 一致，通过后 claims 存入上下文。
func SessionAuthMiddleware(jwtManager *token.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "请求未包含授权头", "data": nil})
			return
		}

		// Token 以 "Bearer <token>" 的形式提供
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的授权头格式", "data": nil})
			return
		}
		claims, err := jwtManager.VerifyToken(strings.TrimPrefix(authHeader, bearerPrefix))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效或已过期的 token", "data": nil})
			return
		}

		if id := c.Param("id"); id != "" && id != claims.SessionID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": "token 与会话不匹配", "data": nil})
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}
