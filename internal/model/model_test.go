package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateThreshold(t *testing.T) {
	for _, ok := range []float64{0, 0.25, 1} {
		assert.NoError(t, ValidateThreshold(ok), "threshold %v", ok)
	}
	for _, bad := range []float64{-0.01, 1.01, math.NaN(), math.Inf(1)} {
		err := ValidateThreshold(bad)
		assert.ErrorIs(t, err, ErrInvalidThreshold, "threshold %v", bad)
	}
}

func TestConversationState_SeededGreeting(t *testing.T) {
	s := NewConversationState("abc", "hello there", 0.3)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, RoleAssistant, s.Messages[0].Role)
	assert.Equal(t, "hello there", s.Messages[0].Content)
	assert.Equal(t, 0.3, s.Threshold)
	assert.False(t, s.HasName())
}

func TestConversationState_ResetKeepsNameByDefault(t *testing.T) {
	s := NewConversationState("abc", "hi", DefaultThreshold)
	s.UserName = "Alice"
	s.Append(RoleUser, "hello")

	s.Reset(false)
	assert.Empty(t, s.Messages)
	assert.Equal(t, "Alice", s.UserName)

	s.Reset(true)
	assert.Empty(t, s.UserName)
}

func TestLocalTime_JSON(t *testing.T) {
	ts := time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local)
	b, err := json.Marshal(LocalTime(ts))
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-01 09:30:00"`, string(b))

	var back LocalTime
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, time.Time(back).Equal(ts))
}

func TestMatchResult_NoMatch(t *testing.T) {
	m := NoMatch()
	assert.False(t, m.Matched())
	assert.Equal(t, -1, m.Index)
	assert.Zero(t, m.Score)
}
