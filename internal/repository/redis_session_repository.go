package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kb-chatbot-go/internal/model"

	"github.com/go-redis/redis/v8"
)

type redisSessionRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewRedisSessionRepository 创建一个基于 Redis 的会话仓库，每次保存都会刷新过期时间。
func NewRedisSessionRepository(redisClient *redis.Client, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{redisClient: redisClient, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Get 从 Redis 读取会话状态。
func (r *redisSessionRepository) Get(ctx context.Context, id string) (*model.ConversationState, error) {
	jsonData, err := r.redisClient.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	var state model.ConversationState
	if err := json.Unmarshal([]byte(jsonData), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if state.Messages == nil {
		state.Messages = []model.ChatMessage{}
	}
	return &state, nil
}

// Save 把会话状态序列化为 JSON 写入 Redis。
func (r *redisSessionRepository) Save(ctx context.Context, state *model.ConversationState) error {
	jsonData, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.redisClient.Set(ctx, sessionKey(state.ID), jsonData, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}
	return nil
}

// Delete 删除会话。
func (r *redisSessionRepository) Delete(ctx context.Context, id string) error {
	n, err := r.redisClient.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
