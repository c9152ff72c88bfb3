package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdminTokenMiddleware 保护运维接口，请求必须携带 "Bearer <admin.token>"。
// 未配置 token 时接口整体关闭。
func AdminTokenMiddleware(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminToken == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": "运维接口未启用", "data": nil})
			return
		}

		authHeader := c.GetHeader("Authorization")
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "请求未包含有效的授权头", "data": nil})
			return
		}
		given := strings.TrimPrefix(authHeader, bearerPrefix)
		if subtle.ConstantTimeCompare([]byte(given), []byte(adminToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": "权限不足，需要运维令牌", "data": nil})
			return
		}
		c.Next()
	}
}
