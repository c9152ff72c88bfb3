package handler

import (
	"net/http"

	"kb-chatbot-go/internal/service"
	"kb-chatbot-go/pkg/log"
	"kb-chatbot-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// SessionHandler 处理会话相关的 REST 请求。
type SessionHandler struct {
	sessions   service.SessionService
	jwtManager *token.JWTManager
}

// NewSessionHandler 创建一个新的 SessionHandler。
func NewSessionHandler(sessions service.SessionService, jwtManager *token.JWTManager) *SessionHandler {
	RegisterValidators()
	return &SessionHandler{sessions: sessions, jwtManager: jwtManager}
}

// MessageRequest 是发送消息的请求体。空字符串也是合法输入。
type MessageRequest struct {
	Message *string `json:"message" binding:"required"`
}

// ThresholdRequest 是调整阈值的请求体，0 也是合法值。
type ThresholdRequest struct {
	Threshold *float64 `json:"threshold" binding:"required,threshold"`
}

// Create 创建新会话并签发会话 token。
func (h *SessionHandler) Create(c *gin.Context) {
	state, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		failWithError(c, err)
		return
	}
	tok, err := h.jwtManager.GenerateToken(state.ID)
	if err != nil {
		log.Error("签发会话 token 失败", err)
		fail(c, http.StatusInternalServerError, "签发 token 失败")
		return
	}
	success(c, gin.H{
		"sessionId": state.ID,
		"token":     tok,
		"messages":  state.Messages,
		"threshold": state.Threshold,
	})
}

// Get 返回会话当前状态。
func (h *SessionHandler) Get(c *gin.Context) {
	state, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWithError(c, err)
		return
	}
	success(c, state)
}

// SendMessage 处理一条用户消息并返回回复。
func (h *SessionHandler) SendMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "无效的请求参数")
		return
	}
	reply, err := h.sessions.Chat(c.Request.Context(), c.Param("id"), *req.Message)
	if err != nil {
		failWithError(c, err)
		return
	}
	success(c, reply)
}

// SetThreshold 调整会话的匹配阈值，越界时返回 400。
func (h *SessionHandler) SetThreshold(c *gin.Context) {
	var req ThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "threshold 必须在 [0, 1] 区间内")
		return
	}
	state, err := h.sessions.SetThreshold(c.Request.Context(), c.Param("id"), *req.Threshold)
	if err != nil {
		failWithError(c, err)
		return
	}
	success(c, gin.H{"threshold": state.Threshold})
}

// Reset 清空会话消息。
func (h *SessionHandler) Reset(c *gin.Context) {
	state, err := h.sessions.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWithError(c, err)
		return
	}
	success(c, state)
}

// Delete 删除会话。
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failWithError(c, err)
		return
	}
	success(c, nil)
}
