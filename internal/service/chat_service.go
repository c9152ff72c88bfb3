// Package service 包含了应用的业务逻辑层。
package service

import (
	"strings"

	"kb-chatbot-go/internal/dialog"
	"kb-chatbot-go/internal/metrics"
	"kb-chatbot-go/internal/model"
	"kb-chatbot-go/pkg/log"
)

// DefaultFallback 是知识库与寒暄都未命中时的固定回复。
const DefaultFallback = "I'm still learning. Try asking me something found in my knowledge base or rephrase your question."

// Matcher 是知识库检索的最小接口，*knowledge.KnowledgeBase 实现了它。
type Matcher interface {
	Match(query string, threshold float64) model.MatchResult
}

// ChatService 定义了单轮对话的编排接口。
type ChatService interface {
	Reply(state *model.ConversationState, kb Matcher, text string, threshold float64) *model.Reply
}

type chatService struct {
	names     *dialog.NameExtractor
	smallTalk *dialog.SmallTalk
	fallback  string
}

// NewChatService 创建一个新的 ChatService 实例。fallback 为空时使用 DefaultFallback。
func NewChatService(fallback string) ChatService {
	if strings.TrimSpace(fallback) == "" {
		fallback = DefaultFallback
	}
	return &chatService{
		names:     dialog.NewNameExtractor(),
		smallTalk: dialog.NewSmallTalk(),
		fallback:  fallback,
	}
}

// Reply 按固定顺序处理一轮对话：
// 记录用户消息 -> 识别用户名 -> 知识库检索 -> 寒暄 -> 兜底 -> 加称呼 -> 记录助手消息。
// 对任何输入都会返回一个回复。
func (s *chatService) Reply(state *model.ConversationState, kb Matcher, text string, threshold float64) *model.Reply {
	defer metrics.TimeReply()()

	state.Append(model.RoleUser, text)

	if name, ok := s.names.Extract(state, text); ok {
		log.Debugw("user name captured", "session", state.ID, "name", name)
	}

	reply := &model.Reply{}
	var res model.MatchResult
	if kb != nil {
		res = kb.Match(text, threshold)
	} else {
		res = model.NoMatch()
	}
	if res.Matched() {
		reply.Match = &model.MatchInfo{MatchedQuestion: *res.MatchedQuestion, Score: res.Score}
		metrics.Default().ObserveMatchScore(res.Score)
		// 命中但答案为空时继续走后面的兜底
		if *res.Answer != "" {
			reply.Reply, reply.Source = *res.Answer, model.SourceKnowledgeBase
		}
	}

	if reply.Reply == "" {
		if answer, ok := s.smallTalk.Respond(text, state.UserName); ok {
			reply.Reply, reply.Source = answer, model.SourceSmallTalk
		} else {
			reply.Reply, reply.Source = s.fallback, model.SourceFallback
		}
	}

	if state.HasName() {
		reply.Reply = state.UserName + ", " + reply.Reply
	}

	state.Append(model.RoleAssistant, reply.Reply)
	metrics.Default().IncReply(string(reply.Source))
	log.Debugw("reply composed",
		"session", state.ID,
		"source", reply.Source,
		"index", res.Index,
		"score", res.Score,
	)
	return reply
}
