package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kb-chatbot-go/internal/knowledge"
	"kb-chatbot-go/internal/model"
	"kb-chatbot-go/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticKB struct {
	kb  *knowledge.KnowledgeBase
	err error
}

func (s staticKB) Get(context.Context, string) (*knowledge.KnowledgeBase, error) {
	return s.kb, s.err
}

func newSessionService(t *testing.T, clearName bool) SessionService {
	t.Helper()
	svc, err := NewSessionService(
		repository.NewMemorySessionRepository(time.Hour),
		staticKB{kb: demoKB()},
		NewChatService(""),
		SessionOptions{Source: "demo", DefaultThreshold: 0.25, Greeting: greeting, ResetClearsName: clearName},
	)
	require.NoError(t, err)
	return svc
}

func TestSessionService_CreateAndGet(t *testing.T) {
	svc := newSessionService(t, false)
	ctx := context.Background()

	state, err := svc.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, state.ID)
	assert.Equal(t, 0.25, state.Threshold)
	require.Len(t, state.Messages, 1)
	assert.Equal(t, model.RoleAssistant, state.Messages[0].Role)
	assert.Equal(t, greeting, state.Messages[0].Content)

	got, err := svc.Get(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(t, state.ID, got.ID)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionService_ChatPersists(t *testing.T) {
	svc := newSessionService(t, false)
	ctx := context.Background()
	state, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.Chat(ctx, state.ID, "I'm bob")
	require.NoError(t, err)
	reply, err := svc.Chat(ctx, state.ID, "what is the tech stack")
	require.NoError(t, err)
	assert.Equal(t, "Bob, Python and a UI layer.", reply.Reply)

	got, err := svc.Get(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.UserName)
	assert.Len(t, got.Messages, 5)

	_, err = svc.Chat(ctx, "missing", "hi")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionService_ChatUsesSessionThreshold(t *testing.T) {
	svc := newSessionService(t, false)
	ctx := context.Background()
	state, err := svc.Create(ctx)
	require.NoError(t, err)

	reply, err := svc.Chat(ctx, state.ID, "tech")
	require.NoError(t, err)
	assert.Equal(t, model.SourceKnowledgeBase, reply.Source)

	_, err = svc.SetThreshold(ctx, state.ID, 1)
	require.NoError(t, err)
	reply, err = svc.Chat(ctx, state.ID, "tech")
	require.NoError(t, err)
	assert.NotEqual(t, model.SourceKnowledgeBase, reply.Source)
}

func TestSessionService_SetThresholdRejectsOutOfRange(t *testing.T) {
	svc := newSessionService(t, false)
	ctx := context.Background()
	state, err := svc.Create(ctx)
	require.NoError(t, err)

	for _, v := range []float64{-0.01, 1.01} {
		_, err = svc.SetThreshold(ctx, state.ID, v)
		assert.ErrorIs(t, err, model.ErrInvalidThreshold)
	}
	got, err := svc.Get(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.25, got.Threshold)

	updated, err := svc.SetThreshold(ctx, state.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.Threshold)
}

func TestSessionService_Reset(t *testing.T) {
	ctx := context.Background()
	for _, clearName := range []bool{false, true} {
		svc := newSessionService(t, clearName)
		state, err := svc.Create(ctx)
		require.NoError(t, err)
		_, err = svc.Chat(ctx, state.ID, "my name is Alice")
		require.NoError(t, err)

		reset, err := svc.Reset(ctx, state.ID)
		require.NoError(t, err)
		assert.Empty(t, reset.Messages)
		if clearName {
			assert.Equal(t, "", reset.UserName)
		} else {
			assert.Equal(t, "Alice", reset.UserName)
		}
	}
}

func TestSessionService_Delete(t *testing.T) {
	svc := newSessionService(t, false)
	ctx := context.Background()
	state, err := svc.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, state.ID))
	_, err = svc.Get(ctx, state.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, state.ID), ErrSessionNotFound)
}

func TestSessionService_KnowledgeBaseError(t *testing.T) {
	boom := errors.New("boom")
	svc, err := NewSessionService(repository.NewMemorySessionRepository(0), staticKB{err: boom},
		NewChatService(""), SessionOptions{DefaultThreshold: 0.25, Greeting: greeting})
	require.NoError(t, err)
	state, err := svc.Create(context.Background())
	require.NoError(t, err)
	_, err = svc.Chat(context.Background(), state.ID, "hi")
	assert.ErrorIs(t, err, boom)
}

func TestSessionService_InvalidDefaultThreshold(t *testing.T) {
	_, err := NewSessionService(repository.NewMemorySessionRepository(0), staticKB{},
		NewChatService(""), SessionOptions{DefaultThreshold: 2})
	assert.ErrorIs(t, err, model.ErrInvalidThreshold)
}

func TestSessionService_ConcurrentTurnsAreSerialised(t *testing.T) {
	svc := newSessionService(t, false)
	ctx := context.Background()
	state, err := svc.Create(ctx)
	require.NoError(t, err)

	const turns = 20
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Chat(ctx, state.ID, "how does this work")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.Get(ctx, state.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1+2*turns)
}

func lockEntries(svc SessionService) int {
	n := 0
	svc.(*sessionService).sessLock.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func TestSessionService_ExpiredSessionReleasesLock(t *testing.T) {
	svc, err := NewSessionService(repository.NewMemorySessionRepository(time.Millisecond), staticKB{kb: demoKB()},
		NewChatService(""), SessionOptions{DefaultThreshold: 0.25, Greeting: greeting})
	require.NoError(t, err)
	ctx := context.Background()
	state, err := svc.Create(ctx)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	_, err = svc.Chat(ctx, state.ID, "hello")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.SetThreshold(ctx, "unknown", 0.5)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Reset(ctx, "unknown")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Zero(t, lockEntries(svc))
}

func TestSessionService_LiveSessionKeepsLock(t *testing.T) {
	svc := newSessionService(t, false)
	ctx := context.Background()
	state, err := svc.Create(ctx)
	require.NoError(t, err)
	_, err = svc.Chat(ctx, state.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, 1, lockEntries(svc))

	require.NoError(t, svc.Delete(ctx, state.ID))
	assert.Zero(t, lockEntries(svc))
}
