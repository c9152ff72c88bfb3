package dialog

import (
	"testing"

	"kb-chatbot-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameExtractor(t *testing.T) {
	cases := []struct {
		text string
		name string
		ok   bool
	}{
		{"my name is Alice", "Alice", true},
		{"MY NAME IS bob", "Bob", true},
		{"Hello, I am CHARLIE.", "Charlie", true},
		{"iam dave", "Dave", true},
		{"I'm mary-jane", "Mary-jane", true},
		{"I am happy", "Happy", true},
		{"what is the tech stack", "", false},
		{"", "", false},
	}
	e := NewNameExtractor()
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			state := model.NewConversationState("s", "hi", 0.25)
			name, ok := e.Extract(state, tc.text)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.name, name)
			assert.Equal(t, tc.name, state.UserName)
		})
	}
}

func TestNameExtractor_FirstRuleWins(t *testing.T) {
	state := model.NewConversationState("s", "hi", 0.25)
	name, ok := NewNameExtractor().Extract(state, "I'm here, my name is Zoe")
	require.True(t, ok)
	assert.Equal(t, "Zoe", name)
}

func TestNameExtractor_NoMatchKeepsPreviousName(t *testing.T) {
	state := model.NewConversationState("s", "hi", 0.25)
	state.UserName = "Alice"
	_, ok := NewNameExtractor().Extract(state, "tell me about the project")
	assert.False(t, ok)
	assert.Equal(t, "Alice", state.UserName)
}

func TestSmallTalk(t *testing.T) {
	s := NewSmallTalk()
	cases := []struct {
		text, name, reply string
		ok                bool
	}{
		{"hi", "", "Hey! How can I help today?", true},
		{"  HELLO there ", "Alice", "Hey Alice! How can I help today?", true},
		{"thank you", "", "You're welcome!", true},
		{"goodbye", "", "Bye! Have a great day 👋", true},
		{"see you later", "", "Bye! Have a great day 👋", true},
		{"what can you do?", "", "I can answer questions from my small knowledge base. Try asking about 'project', 'how it works', or 'tech stack'.", true},
		// 子串匹配："this" 包含 "hi"
		{"is this working", "", "Hey! How can I help today?", true},
		{"xyzzy", "", "", false},
	}
	for _, tc := range cases {
		reply, ok := s.Respond(tc.text, tc.name)
		assert.Equal(t, tc.ok, ok, tc.text)
		assert.Equal(t, tc.reply, reply, tc.text)
	}
}

func TestSmallTalk_RuleOrder(t *testing.T) {
	// 问候优先于感谢
	reply, ok := NewSmallTalk().Respond("hey, thanks!", "")
	require.True(t, ok)
	assert.Equal(t, "Hey! How can I help today?", reply)
}
