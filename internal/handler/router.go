package handler

import (
	"net/http"

	"kb-chatbot-go/internal/knowledge"
	"kb-chatbot-go/internal/middleware"
	"kb-chatbot-go/internal/service"
	"kb-chatbot-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// RouterDeps 汇总注册路由所需的依赖。
type RouterDeps struct {
	Sessions    service.SessionService
	Cache       *knowledge.Cache
	Source      string
	JWTManager  *token.JWTManager
	AdminToken  string       // 为空时重新加载接口关闭
	MetricsPath string       // 为空时不暴露指标
	Metrics     http.Handler // Prometheus handler
}

// NewRouter 创建路由引擎并注册全部路由。
func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	sessionHandler := NewSessionHandler(d.Sessions, d.JWTManager)
	knowledgeHandler := NewKnowledgeHandler(d.Cache, d.Source)

	apiV1 := r.Group("/api/v1")
	{
		sessions := apiV1.Group("/sessions")
		{
			// 创建会话无需认证
			sessions.POST("", sessionHandler.Create)

			authed := sessions.Group("/:id")
			authed.Use(middleware.SessionAuthMiddleware(d.JWTManager))
			{
				authed.GET("", sessionHandler.Get)
				authed.POST("/messages", sessionHandler.SendMessage)
				authed.PUT("/threshold", sessionHandler.SetThreshold)
				authed.POST("/reset", sessionHandler.Reset)
				authed.DELETE("", sessionHandler.Delete)
			}
		}

		kb := apiV1.Group("/knowledge")
		{
			kb.GET("", knowledgeHandler.Status)
			kb.POST("/reload", middleware.AdminTokenMiddleware(d.AdminToken), knowledgeHandler.Reload)
		}
	}

	// Chat 路由 (WebSocket)
	r.GET("/chat/:token", NewChatHandler(d.Sessions, d.JWTManager).Handle)

	r.GET("/healthz", func(c *gin.Context) {
		success(c, gin.H{"status": "ok"})
	})
	if d.MetricsPath != "" && d.Metrics != nil {
		r.GET(d.MetricsPath, gin.WrapH(d.Metrics))
	}
	return r
}
