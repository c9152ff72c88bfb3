package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"kb-chatbot-go/internal/knowledge"
	"kb-chatbot-go/internal/model"
	"kb-chatbot-go/internal/repository"
	"kb-chatbot-go/pkg/log"

	"github.com/google/uuid"
)

// ErrSessionNotFound 表示会话不存在或已过期。
var ErrSessionNotFound = errors.New("session not found")

// KnowledgeProvider 返回当前生效的知识库快照。
type KnowledgeProvider interface {
	Get(ctx context.Context, spec string) (*knowledge.KnowledgeBase, error)
}

// SessionOptions 是会话生命周期相关的配置。
type SessionOptions struct {
	Source           string
	DefaultThreshold float64
	Greeting         string
	ResetClearsName  bool
}

// SessionService 管理会话的创建、对话、阈值调整、重置与删除。
type SessionService interface {
	Create(ctx context.Context) (*model.ConversationState, error)
	Get(ctx context.Context, id string) (*model.ConversationState, error)
	Chat(ctx context.Context, id, text string) (*model.Reply, error)
	SetThreshold(ctx context.Context, id string, threshold float64) (*model.ConversationState, error)
	Reset(ctx context.Context, id string) (*model.ConversationState, error)
	Delete(ctx context.Context, id string) error
}

type sessionService struct {
	repo     repository.SessionRepository
	kbs      KnowledgeProvider
	chat     ChatService
	opts     SessionOptions
	sessLock sync.Map // id -> *sync.Mutex，同一会话的请求串行执行
}

// NewSessionService 创建一个新的 SessionService 实例。
func NewSessionService(repo repository.SessionRepository, kbs KnowledgeProvider, chat ChatService, opts SessionOptions) (SessionService, error) {
	if err := model.ValidateThreshold(opts.DefaultThreshold); err != nil {
		return nil, err
	}
	return &sessionService{repo: repo, kbs: kbs, chat: chat, opts: opts}, nil
}

func (s *sessionService) lock(id string) func() {
	v, _ := s.sessLock.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// forgetIfMissing 在会话已不存在时释放它的锁条目。
func (s *sessionService) forgetIfMissing(id string, err error) {
	if errors.Is(err, ErrSessionNotFound) {
		s.sessLock.Delete(id)
	}
}

func (s *sessionService) load(ctx context.Context, id string) (*model.ConversationState, error) {
	state, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return state, nil
}

// Create 创建一个带问候语的新会话。
func (s *sessionService) Create(ctx context.Context) (*model.ConversationState, error) {
	state := model.NewConversationState(uuid.NewString(), s.opts.Greeting, s.opts.DefaultThreshold)
	if err := s.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	log.Infof("[SessionService] 创建会话 %s", state.ID)
	return state, nil
}

// Get 返回会话当前状态。
func (s *sessionService) Get(ctx context.Context, id string) (*model.ConversationState, error) {
	return s.load(ctx, id)
}

// Chat 处理一条用户消息，使用会话自身的阈值。
func (s *sessionService) Chat(ctx context.Context, id, text string) (*model.Reply, error) {
	unlock := s.lock(id)
	defer unlock()

	state, err := s.load(ctx, id)
	if err != nil {
		s.forgetIfMissing(id, err)
		return nil, err
	}
	kb, err := s.kbs.Get(ctx, s.opts.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to get knowledge base: %w", err)
	}
	reply := s.chat.Reply(state, kb, text, state.Threshold)
	if err := s.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return reply, nil
}

// SetThreshold 更新会话阈值。越界的值直接拒绝，不做截断。
func (s *sessionService) SetThreshold(ctx context.Context, id string, threshold float64) (*model.ConversationState, error) {
	if err := model.ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	unlock := s.lock(id)
	defer unlock()

	state, err := s.load(ctx, id)
	if err != nil {
		s.forgetIfMissing(id, err)
		return nil, err
	}
	state.Threshold = threshold
	if err := s.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return state, nil
}

// Reset 清空消息历史。用户名默认保留，除非配置了 reset_clears_name。
func (s *sessionService) Reset(ctx context.Context, id string) (*model.ConversationState, error) {
	unlock := s.lock(id)
	defer unlock()

	state, err := s.load(ctx, id)
	if err != nil {
		s.forgetIfMissing(id, err)
		return nil, err
	}
	state.Reset(s.opts.ResetClearsName)
	if err := s.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return state, nil
}

// Delete 删除会话。
func (s *sessionService) Delete(ctx context.Context, id string) error {
	unlock := s.lock(id)
	defer func() {
		unlock()
		s.sessLock.Delete(id)
	}()

	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	log.Infof("[SessionService] 删除会话 %s", id)
	return nil
}
