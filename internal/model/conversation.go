package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage 代表对话中的单条消息。
type ChatMessage struct {
	Role      string    `json:"role"` // "user" 或 "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationState 是单个会话的可变状态，只归属于一个会话，不在会话间共享。
type ConversationState struct {
	ID        string        `json:"id"`
	Messages  []ChatMessage `json:"messages"`
	UserName  string        `json:"userName,omitempty"`
	Threshold float64       `json:"threshold"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// NewConversationState 创建一个带有一条助手问候语的新会话状态。
func NewConversationState(id, greeting string, threshold float64) *ConversationState {
	now := time.Now()
	return &ConversationState{
		ID:        id,
		Messages:  []ChatMessage{{Role: RoleAssistant, Content: greeting, Timestamp: now}},
		Threshold: threshold,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append 追加一条消息。
func (s *ConversationState) Append(role, content string) {
	now := time.Now()
	s.Messages = append(s.Messages, ChatMessage{Role: role, Content: content, Timestamp: now})
	s.UpdatedAt = now
}

// HasName 判断是否已记录用户名。
func (s *ConversationState) HasName() bool {
	return s.UserName != ""
}

// Reset 清空消息历史；clearName 为 true 时一并清除用户名。
func (s *ConversationState) Reset(clearName bool) {
	s.Messages = []ChatMessage{}
	if clearName {
		s.UserName = ""
	}
	s.UpdatedAt = time.Now()
}
