// Package model 包含了应用的数据模型定义。
package model

// KBEntry 是知识库中的一条问答，加载后不可变，其在知识库中的下标即为身份。
type KBEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// MatchResult 是一次检索的结果。未命中时 Answer/MatchedQuestion 为 nil，Score 为 0，Index 为 -1。
type MatchResult struct {
	Answer          *string `json:"answer"`
	Score           float64 `json:"score"`
	MatchedQuestion *string `json:"matchedQuestion"`
	Index           int     `json:"-"`
}

// Matched 判断是否命中知识库。
func (m MatchResult) Matched() bool {
	return m.Answer != nil
}

// NoMatch 返回表示未命中的结果。
func NoMatch() MatchResult {
	return MatchResult{Index: -1}
}

// KnowledgeStatus 描述当前加载的知识库快照。
type KnowledgeStatus struct {
	Source   string    `json:"source"`
	Entries  int       `json:"entries"`
	Terms    int       `json:"terms"`
	Topics   string    `json:"topics"`
	LoadedAt LocalTime `json:"loadedAt"`
	Stale    bool      `json:"stale"`
}
