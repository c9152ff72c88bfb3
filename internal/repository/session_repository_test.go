package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"kb-chatbot-go/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T, ttl time.Duration) (SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionRepository(client, ttl), mr
}

func exerciseRepository(t *testing.T, repo SessionRepository) {
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	state := model.NewConversationState("abc", "Hi!", 0.3)
	state.UserName = "Alice"
	state.Append(model.RoleUser, "hello")
	require.NoError(t, repo.Save(ctx, state))

	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.UserName)
	assert.Equal(t, 0.3, got.Threshold)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "Hi!", got.Messages[0].Content)
	assert.Equal(t, model.RoleUser, got.Messages[1].Role)

	// 修改取回的副本不影响仓库
	got.Append(model.RoleAssistant, "extra")
	again, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Len(t, again.Messages, 2)

	again.Reset(false)
	require.NoError(t, repo.Save(ctx, again))
	reset, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.NotNil(t, reset.Messages)
	assert.Empty(t, reset.Messages)

	require.NoError(t, repo.Delete(ctx, "abc"))
	_, err = repo.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "abc"), ErrNotFound)
}

func TestMemorySessionRepository(t *testing.T) {
	exerciseRepository(t, NewMemorySessionRepository(time.Hour))
}

func TestRedisSessionRepository(t *testing.T) {
	repo, _ := newRedisRepo(t, time.Hour)
	exerciseRepository(t, repo)
}

func TestMemorySessionRepository_Expiry(t *testing.T) {
	repo := NewMemorySessionRepository(time.Millisecond)
	require.NoError(t, repo.Save(context.Background(), model.NewConversationState("x", "Hi!", 0.25)))
	time.Sleep(5 * time.Millisecond)
	_, err := repo.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySessionRepository_SweepsExpiredOnSave(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(time.Millisecond).(*memorySessionRepository)
	for i := 0; i < 1000; i++ {
		require.NoError(t, repo.Save(ctx, model.NewConversationState(fmt.Sprintf("s-%d", i), "Hi!", 0.25)))
	}
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, repo.Save(ctx, model.NewConversationState("fresh", "Hi!", 0.25)))
	assert.Equal(t, 1, repo.size())
}

func TestMemorySessionRepository_NoTTLKeepsEverything(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(0).(*memorySessionRepository)
	require.NoError(t, repo.Save(ctx, model.NewConversationState("a", "Hi!", 0.25)))
	require.NoError(t, repo.Save(ctx, model.NewConversationState("b", "Hi!", 0.25)))
	assert.Equal(t, 2, repo.size())
}

func TestRedisSessionRepository_TTL(t *testing.T) {
	repo, mr := newRedisRepo(t, time.Hour)
	require.NoError(t, repo.Save(context.Background(), model.NewConversationState("x", "Hi!", 0.25)))
	assert.True(t, mr.Exists("session:x"))
	assert.Equal(t, time.Hour, mr.TTL("session:x"))

	mr.FastForward(2 * time.Hour)
	_, err := repo.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotFound)
}
