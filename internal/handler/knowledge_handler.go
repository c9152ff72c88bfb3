package handler

import (
	"net/http"

	"kb-chatbot-go/internal/knowledge"

	"github.com/gin-gonic/gin"
)

// KnowledgeHandler 暴露知识库状态和显式重新加载入口。
type KnowledgeHandler struct {
	cache  *knowledge.Cache
	source string
}

// NewKnowledgeHandler 创建一个新的 KnowledgeHandler。
func NewKnowledgeHandler(cache *knowledge.Cache, source string) *KnowledgeHandler {
	return &KnowledgeHandler{cache: cache, source: source}
}

// Status 返回当前知识库快照的状态。
func (h *KnowledgeHandler) Status(c *gin.Context) {
	status, ok := h.cache.Status(h.source)
	if !ok {
		fail(c, http.StatusServiceUnavailable, "知识库尚未加载")
		return
	}
	success(c, status)
}

// Reload 重新读取来源。失败时旧快照继续生效。
func (h *KnowledgeHandler) Reload(c *gin.Context) {
	if _, err := h.cache.Reload(c.Request.Context(), h.source); err != nil {
		failWithError(c, err)
		return
	}
	status, _ := h.cache.Status(h.source)
	success(c, status)
}
