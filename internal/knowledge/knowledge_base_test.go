package knowledge

import (
	"context"
	"testing"

	"kb-chatbot-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoKB() *KnowledgeBase {
	return New("demo", []model.KBEntry{
		{Question: "how does this work", Answer: "It uses retrieval."},
		{Question: "what is the tech stack", Answer: "Python and a UI layer."},
	})
}

func TestMatch_ExactQuestion(t *testing.T) {
	res := demoKB().Match("how does this work", model.DefaultThreshold)
	require.True(t, res.Matched())
	assert.Equal(t, "It uses retrieval.", *res.Answer)
	assert.Equal(t, "how does this work", *res.MatchedQuestion)
	assert.InDelta(t, 1.0, res.Score, 1e-9)
	assert.Equal(t, 0, res.Index)
}

func TestMatch_UnknownWords(t *testing.T) {
	res := demoKB().Match("xyzzy plugh", model.DefaultThreshold)
	assert.False(t, res.Matched())
	assert.Nil(t, res.MatchedQuestion)
	assert.Equal(t, 0.0, res.Score)
}

func TestMatch_EmptyOrWhitespaceNeverMatches(t *testing.T) {
	kb := demoKB()
	for _, q := range []string{"", "   ", "\t\n", "the of and"} {
		for _, th := range []float64{0, 0.25, 1} {
			res := kb.Match(q, th)
			assert.False(t, res.Matched(), "query %q threshold %v", q, th)
			assert.Equal(t, 0.0, res.Score)
		}
	}
}

func TestMatch_ThresholdMonotonic(t *testing.T) {
	kb := New("demo", []model.KBEntry{
		{Question: "what is the project about", Answer: "A demo."},
		{Question: "how does retrieval work", Answer: "TF-IDF."},
		{Question: "what is the tech stack", Answer: "Go."},
		{Question: "who maintains the project", Answer: "The team."},
	})
	queries := []string{
		"project", "tech", "retrieval stack", "project tech stack", "work",
		"who maintains it", "hello", "", "project about retrieval",
	}
	thresholds := []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1}
	for i := 1; i < len(thresholds); i++ {
		lo, hi := thresholds[i-1], thresholds[i]
		for _, q := range queries {
			if kb.Match(q, hi).Matched() {
				assert.True(t, kb.Match(q, lo).Matched(), "%q matched at %v but not at %v", q, hi, lo)
			}
		}
	}
}

func TestMatch_TieBreakLowestIndex(t *testing.T) {
	kb := New("dup", []model.KBEntry{
		{Question: "tech stack", Answer: "first"},
		{Question: "tech stack", Answer: "second"},
	})
	for i := 0; i < 5; i++ {
		res := kb.Match("tech stack", 0.25)
		require.True(t, res.Matched())
		assert.Equal(t, "first", *res.Answer)
		assert.Equal(t, 0, res.Index)
	}
}

func TestMatch_Deterministic(t *testing.T) {
	kb := demoKB()
	a := kb.Match("how does the tech stack work", 0.1)
	b := kb.Match("how does the tech stack work", 0.1)
	assert.Equal(t, a, b)
}

func TestMatch_EmptyKnowledgeBase(t *testing.T) {
	kb := New("empty", nil)
	assert.False(t, kb.Match("anything", 0).Matched())
	assert.Equal(t, "", kb.Topics())
}

func TestMatch_BelowThresholdReportsZeroScore(t *testing.T) {
	res := demoKB().Match("tech", 1.0)
	assert.False(t, res.Matched())
	assert.Equal(t, 0.0, res.Score)
}

func TestBuild_SameSourceTwiceIsIdentical(t *testing.T) {
	path := writeFile(t, "kb.csv", "question,answer\nhow does this work,It uses retrieval.\nwhat is the tech stack,Python and a UI layer.\n")
	src := resolve(t, path)

	a, err := Build(context.Background(), src)
	require.NoError(t, err)
	b, err := Build(context.Background(), src)
	require.NoError(t, err)

	for _, q := range []string{"how does this work", "tech stack", "xyzzy", "work stack"} {
		assert.Equal(t, a.Match(q, 0.1), b.Match(q, 0.1), q)
	}
}

func TestTopics(t *testing.T) {
	kb := New("topics", []model.KBEntry{
		{Question: "what is the project"},
		{Question: "how does this work"},
		{Question: "what is the tech stack"},
		{Question: "   "},
	})
	assert.Equal(t, "how, what", kb.Topics())
}

func TestTopics_Truncated(t *testing.T) {
	var entries []model.KBEntry
	for _, w := range []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel",
		"india", "juliett", "kilo", "lima", "mike", "november", "oscar", "papa", "quebec", "romeo"} {
		entries = append(entries, model.KBEntry{Question: w + " question"})
	}
	topics := New("long", entries).Topics()
	assert.Len(t, []rune(topics), 120)
	assert.Contains(t, topics, "alpha, bravo")
}
