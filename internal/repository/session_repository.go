// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"kb-chatbot-go/internal/model"
)

// ErrNotFound 表示会话不存在或已过期。
var ErrNotFound = errors.New("session not found")

// SessionRepository 定义了会话状态的存取接口。
type SessionRepository interface {
	Get(ctx context.Context, id string) (*model.ConversationState, error)
	Save(ctx context.Context, state *model.ConversationState) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	state     model.ConversationState
	expiresAt time.Time
}

// maxSweepInterval 是两次过期清理之间的最长间隔。
const maxSweepInterval = time.Minute

type memorySessionRepository struct {
	mu        sync.RWMutex
	sessions  map[string]memoryEntry
	ttl       time.Duration
	lastSweep time.Time
}

// NewMemorySessionRepository 创建一个进程内的会话仓库。ttl <= 0 表示永不过期。
// 过期会话除了在读取时淘汰外，还会在 Save 时被周期性地批量清理。
func NewMemorySessionRepository(ttl time.Duration) SessionRepository {
	return &memorySessionRepository{
		sessions:  make(map[string]memoryEntry),
		ttl:       ttl,
		lastSweep: time.Now(),
	}
}

func (r *memorySessionRepository) Get(_ context.Context, id string) (*model.ConversationState, error) {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		r.mu.Lock()
		delete(r.sessions, id)
		r.mu.Unlock()
		return nil, ErrNotFound
	}
	return cloneState(&e.state), nil
}

func (r *memorySessionRepository) Save(_ context.Context, state *model.ConversationState) error {
	e := memoryEntry{state: *cloneState(state)}
	if r.ttl > 0 {
		e.expiresAt = time.Now().Add(r.ttl)
	}
	r.mu.Lock()
	r.sweepLocked(time.Now())
	r.sessions[state.ID] = e
	r.mu.Unlock()
	return nil
}

// sweepLocked 删除所有已过期的会话，调用方必须持有写锁。
func (r *memorySessionRepository) sweepLocked(now time.Time) {
	if r.ttl <= 0 {
		return
	}
	interval := r.ttl
	if interval > maxSweepInterval {
		interval = maxSweepInterval
	}
	if now.Sub(r.lastSweep) < interval {
		return
	}
	r.lastSweep = now
	for id, e := range r.sessions {
		if now.After(e.expiresAt) {
			delete(r.sessions, id)
		}
	}
}

func (r *memorySessionRepository) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *memorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

// cloneState 复制消息切片，调用方拿到的状态与仓库内部互不影响。
func cloneState(s *model.ConversationState) *model.ConversationState {
	c := *s
	c.Messages = append([]model.ChatMessage{}, s.Messages...)
	return &c
}
