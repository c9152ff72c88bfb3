package knowledge

import (
	"context"
	"fmt"
	"sync"

	"kb-chatbot-go/internal/metrics"
	"kb-chatbot-go/internal/model"
	"kb-chatbot-go/pkg/log"
)

type cacheEntry struct {
	kb    *KnowledgeBase
	stale bool
}

// Cache 按来源标识缓存已构建的知识库：首次访问时惰性构建，之后一直复用，
// 只有显式调用 Reload 才会重新读取来源。
type Cache struct {
	resolver SourceResolver

	mu      sync.RWMutex
	entries map[string]*cacheEntry
	// 构建过程串行化，避免同一来源被并发构建多次
	buildMu sync.Mutex
}

// NewCache 创建一个知识库缓存。
func NewCache(resolver SourceResolver) *Cache {
	return &Cache{
		resolver: resolver,
		entries:  make(map[string]*cacheEntry),
	}
}

// Get 返回来源对应的知识库快照，不存在时构建。
func (c *Cache) Get(ctx context.Context, spec string) (*KnowledgeBase, error) {
	if kb := c.lookup(spec); kb != nil {
		return kb, nil
	}

	c.buildMu.Lock()
	defer c.buildMu.Unlock()
	if kb := c.lookup(spec); kb != nil {
		return kb, nil
	}
	kb, err := c.build(ctx, spec)
	if err != nil {
		return nil, err
	}
	c.store(spec, kb)
	return kb, nil
}

// Reload 重新读取来源并原子替换快照。失败时保留旧快照并返回错误。
func (c *Cache) Reload(ctx context.Context, spec string) (*KnowledgeBase, error) {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	kb, err := c.build(ctx, spec)
	if err != nil {
		log.Errorf("[KnowledgeCache] 重新加载 '%s' 失败，继续使用旧快照: %v", spec, err)
		return nil, err
	}
	c.store(spec, kb)
	log.Infof("[KnowledgeCache] 知识库 '%s' 已重新加载, 共 %d 条", spec, kb.Len())
	return kb, nil
}

// MarkStale 标记来源已在外部被修改。仅做标记，不会触发重新加载。
func (c *Cache) MarkStale(spec string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[spec]; ok {
		e.stale = true
	}
}

// Status 返回来源当前快照的状态，未加载时 ok 为 false。
func (c *Cache) Status(spec string) (model.KnowledgeStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[spec]
	if !ok {
		return model.KnowledgeStatus{}, false
	}
	return model.KnowledgeStatus{
		Source:   e.kb.Source(),
		Entries:  e.kb.Len(),
		Terms:    e.kb.Terms(),
		Topics:   e.kb.Topics(),
		LoadedAt: model.LocalTime(e.kb.LoadedAt()),
		Stale:    e.stale,
	}, true
}

func (c *Cache) lookup(spec string) *KnowledgeBase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[spec]; ok {
		return e.kb
	}
	return nil
}

func (c *Cache) store(spec string, kb *KnowledgeBase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[spec] = &cacheEntry{kb: kb}
}

func (c *Cache) build(ctx context.Context, spec string) (*KnowledgeBase, error) {
	src, err := c.resolver.Resolve(spec)
	if err != nil {
		metrics.Default().IncKnowledgeLoad(false)
		return nil, fmt.Errorf("failed to resolve knowledge base source: %w", err)
	}
	kb, err := Build(ctx, src)
	metrics.Default().IncKnowledgeLoad(err == nil)
	return kb, err
}
