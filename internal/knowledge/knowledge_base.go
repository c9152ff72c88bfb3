package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"kb-chatbot-go/internal/model"
	"kb-chatbot-go/pkg/log"
	"kb-chatbot-go/pkg/tfidf"
)

const maxTopicsLen = 120

// KnowledgeBase 是只读的知识库快照：有序条目加上在所有问题上拟合的 TF-IDF 索引。
// 构建完成后不再修改，可被多个会话并发读取。
type KnowledgeBase struct {
	source     string
	entries    []model.KBEntry
	vectorizer *tfidf.Vectorizer
	loadedAt   time.Time
}

// New 在给定条目上拟合索引，第 i 行向量对应第 i 条问答。
func New(source string, entries []model.KBEntry) *KnowledgeBase {
	questions := make([]string, len(entries))
	for i, e := range entries {
		questions[i] = e.Question
	}
	kb := &KnowledgeBase{
		source:     source,
		entries:    append([]model.KBEntry(nil), entries...),
		vectorizer: tfidf.Fit(questions),
		loadedAt:   time.Now(),
	}
	if len(entries) > 0 && kb.vectorizer.VocabularySize() == 0 {
		log.Warnf("[KnowledgeBase] 来源 '%s' 的问题全部由停用词组成，所有查询都不会命中", source)
	}
	return kb
}

// Build 读取来源并构建知识库。
func Build(ctx context.Context, src Source) (*KnowledgeBase, error) {
	entries, err := Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}
	kb := New(src.Identity(), entries)
	log.Infow("knowledge base built",
		"source", src.Identity(),
		"entries", len(entries),
		"terms", kb.vectorizer.VocabularySize(),
	)
	return kb, nil
}

// Match 把 query 投影到冻结的词表空间，与每一行计算余弦相似度，
// 线性扫描保留第一个最大值（平分时下标最小者胜出），score >= threshold 时返回命中。
func (kb *KnowledgeBase) Match(query string, threshold float64) model.MatchResult {
	if len(kb.entries) == 0 {
		return model.NoMatch()
	}
	q := kb.vectorizer.Transform(query)
	best, bestScore := 0, -1.0
	for i, row := range kb.vectorizer.Matrix() {
		if sim := tfidf.Cosine(q, row); sim > bestScore {
			best, bestScore = i, sim
		}
	}
	// 零向量查询与任何行的相似度都是 0，不能被 threshold=0 接受
	if q.IsZero() || bestScore < threshold {
		return model.NoMatch()
	}
	entry := kb.entries[best]
	answer, question := entry.Answer, entry.Question
	return model.MatchResult{
		Answer:          &answer,
		Score:           bestScore,
		MatchedQuestion: &question,
		Index:           best,
	}
}

// Topics 返回每个问题首个单词去重排序后的列表，逗号拼接并截断到 120 个字符。
func (kb *KnowledgeBase) Topics() string {
	seen := make(map[string]struct{})
	var words []string
	for _, e := range kb.entries {
		fields := strings.Fields(e.Question)
		if len(fields) == 0 {
			continue
		}
		if _, ok := seen[fields[0]]; ok {
			continue
		}
		seen[fields[0]] = struct{}{}
		words = append(words, fields[0])
	}
	sort.Strings(words)
	joined := []rune(strings.Join(words, ", "))
	if len(joined) > maxTopicsLen {
		joined = joined[:maxTopicsLen]
	}
	return string(joined)
}

// Len 返回条目数量。
func (kb *KnowledgeBase) Len() int {
	return len(kb.entries)
}

// Source 返回来源标识。
func (kb *KnowledgeBase) Source() string {
	return kb.source
}

// LoadedAt 返回构建时间。
func (kb *KnowledgeBase) LoadedAt() time.Time {
	return kb.loadedAt
}

// Terms 返回词表大小。
func (kb *KnowledgeBase) Terms() int {
	return kb.vectorizer.VocabularySize()
}
