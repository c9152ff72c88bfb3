// Package dialog 包含与知识库无关的轻量对话规则：用户名识别和寒暄回复。
package dialog

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"kb-chatbot-go/internal/model"
)

// NameExtractor 按顺序尝试自我介绍规则，第一个命中的规则胜出。
type NameExtractor struct {
	patterns []*regexp.Regexp
}

// NewNameExtractor 返回内置规则的提取器。
func NewNameExtractor() *NameExtractor {
	return &NameExtractor{patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bmy\s+name\s+is\s+([A-Z][a-zA-Z\-']+)\b`),
		regexp.MustCompile(`(?i)\bi\s*am\s+([A-Z][a-zA-Z\-']+)\b`),
		regexp.MustCompile(`(?i)\bi'm\s+([A-Z][a-zA-Z\-']+)\b`),
	}}
}

// Extract 从文本中识别用户名。命中时写入 state.UserName 并返回 (name, true)，
// 否则 state 保持不变。"I am happy" 会被识别成 "Happy"，这是规则本身的局限。
func (e *NameExtractor) Extract(state *model.ConversationState, text string) (string, bool) {
	for _, p := range e.patterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := titleCase(strings.TrimSpace(m[1]))
		if state != nil {
			state.UserName = name
		}
		return name, true
	}
	return "", false
}

// titleCase 首字母大写，其余小写。
func titleCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
