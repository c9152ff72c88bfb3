package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"kb-chatbot-go/internal/model"
	"kb-chatbot-go/internal/service"
	"kb-chatbot-go/pkg/log"
	"kb-chatbot-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // 允许所有来源
		},
	}
)

// 客户端发送的 JSON 控制帧。非 JSON 的文本帧直接当作用户消息。
type wsCommand struct {
	Type      string   `json:"type"`
	Message   string   `json:"message"`
	Threshold *float64 `json:"threshold"`
}

// ChatHandler 负责处理 WebSocket 聊天连接。
type ChatHandler struct {
	sessions   service.SessionService
	jwtManager *token.JWTManager
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(sessions service.SessionService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{sessions: sessions, jwtManager: jwtManager}
}

// Handle 处理一个传入的 WebSocket 连接。
func (h *ChatHandler) Handle(c *gin.Context) {
	claims, err := h.jwtManager.VerifyToken(c.Param("token"))
	if err != nil {
		fail(c, http.StatusUnauthorized, "无效的 token")
		return
	}
	if _, err := h.sessions.Get(c.Request.Context(), claims.SessionID); err != nil {
		failWithError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	sessionID := claims.SessionID
	log.Infof("WebSocket 连接已建立，会话: %s", sessionID)

	for {
		msgType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("从 WebSocket 读取消息失败: %v", err)
			}
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}

		resp := h.dispatch(c, sessionID, message)
		b, _ := json.Marshal(resp)
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Warnf("写入 WebSocket 消息失败: %v", err)
			break
		}
	}
}

func (h *ChatHandler) dispatch(c *gin.Context, sessionID string, message []byte) gin.H {
	ctx := c.Request.Context()
	text := string(message)

	var cmd wsCommand
	if len(message) > 0 && message[0] == '{' && json.Unmarshal(message, &cmd) == nil {
		switch cmd.Type {
		case "threshold":
			if cmd.Threshold == nil {
				return errorFrame(model.ErrInvalidThreshold)
			}
			state, err := h.sessions.SetThreshold(ctx, sessionID, *cmd.Threshold)
			if err != nil {
				return errorFrame(err)
			}
			return gin.H{"type": "threshold", "threshold": state.Threshold}
		case "reset":
			state, err := h.sessions.Reset(ctx, sessionID)
			if err != nil {
				return errorFrame(err)
			}
			return gin.H{"type": "reset", "messages": state.Messages}
		case "message":
			text = cmd.Message
		}
	}

	reply, err := h.sessions.Chat(ctx, sessionID, text)
	if err != nil {
		return errorFrame(err)
	}
	frame := gin.H{"type": "reply", "reply": reply.Reply, "source": reply.Source, "timestamp": time.Now().UnixMilli()}
	if reply.Match != nil {
		frame["match"] = reply.Match
	}
	return frame
}

func errorFrame(err error) gin.H {
	log.Warnf("WebSocket 请求处理失败: %v", err)
	return gin.H{"type": "error", "message": err.Error()}
}
