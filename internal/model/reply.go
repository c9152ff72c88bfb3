package model

import (
	"errors"
	"fmt"
	"math"
)

// DefaultThreshold 是默认的匹配阈值。
const DefaultThreshold = 0.25

// ErrInvalidThreshold 表示阈值不在 [0, 1] 区间内。阈值越界时直接拒绝，不做截断。
var ErrInvalidThreshold = errors.New("threshold must be within [0, 1]")

// ValidateThreshold 校验阈值。
func ValidateThreshold(t float64) error {
	if math.IsNaN(t) || t < 0 || t > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, t)
	}
	return nil
}

// ReplySource 标识最终回复来自哪一层兜底策略。
type ReplySource string

const (
	SourceKnowledgeBase ReplySource = "kb"
	SourceSmallTalk     ReplySource = "smalltalk"
	SourceFallback      ReplySource = "fallback"
)

// MatchInfo 是仅用于展示的命中信息，不影响会话状态。
type MatchInfo struct {
	MatchedQuestion string  `json:"matchedQuestion"`
	Score           float64 `json:"score"`
}

// Reply 是一轮对话返回给展示层的结果。
type Reply struct {
	Reply  string      `json:"reply"`
	Source ReplySource `json:"source"`
	Match  *MatchInfo  `json:"match,omitempty"`
}
