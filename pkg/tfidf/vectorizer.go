// Package tfidf 实现了一个只读的 TF-IDF 向量化器：在语料上拟合一次，之后把任意文本投影到同一词表空间。
package tfidf

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// 与常见实现保持一致：长度不少于 2 的“单词字符”连续串视为一个 token。
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}\p{M}_]+`)

// Vectorizer 保存拟合得到的词表和 idf 权重，拟合后不可变，可被多个 goroutine 并发读取。
type Vectorizer struct {
	vocabulary map[string]int
	terms      []string
	idf        []float64
	matrix     []Vector
}

// Tokenize 将文本小写化、切分并去除停用词。
func Tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		if utf8.RuneCountInString(t) < 2 || IsStopWord(t) {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// Fit 在给定文档上拟合词表与平滑 idf，并生成每篇文档的 L2 归一化向量。
// 当所有文档都只包含停用词时词表为空，此后所有 Transform 均返回零向量。
func Fit(docs []string) *Vectorizer {
	tokenized := make([][]string, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		tokens := Tokenize(doc)
		tokenized[i] = tokens
		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	v := &Vectorizer{
		vocabulary: make(map[string]int, len(terms)),
		terms:      terms,
		idf:        make([]float64, len(terms)),
	}
	n := float64(len(docs))
	for i, t := range terms {
		v.vocabulary[t] = i
		// smooth idf: ln((1+n)/(1+df)) + 1
		v.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	v.matrix = make([]Vector, len(docs))
	for i, tokens := range tokenized {
		v.matrix[i] = v.weigh(tokens)
	}
	return v
}

// Transform 把文本投影到拟合好的词表空间，词表外的词权重为 0。
func (v *Vectorizer) Transform(text string) Vector {
	return v.weigh(Tokenize(text))
}

// Matrix 返回拟合语料的向量，第 i 行对应第 i 篇文档。
func (v *Vectorizer) Matrix() []Vector {
	return v.matrix
}

// VocabularySize 返回词表大小。
func (v *Vectorizer) VocabularySize() int {
	return len(v.terms)
}

// Terms 返回按字典序排列的词表副本。
func (v *Vectorizer) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

func (v *Vectorizer) weigh(tokens []string) Vector {
	counts := make(map[int]int)
	for _, t := range tokens {
		if idx, ok := v.vocabulary[t]; ok {
			counts[idx]++
		}
	}
	vec := Vector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)
	for _, idx := range vec.Indices {
		vec.Values = append(vec.Values, float64(counts[idx])*v.idf[idx])
	}
	return vec.normalized()
}
