// Package metrics 提供指标埋点接口，默认不记录任何数据，
// 在配置开启后切换为 Prometheus 实现。
package metrics

import (
	"sync"
	"time"
)

// Recorder 定义了各模块使用的指标接口。
type Recorder interface {
	IncReply(source string)
	ObserveMatchScore(score float64)
	ObserveReplySeconds(seconds float64)
	IncKnowledgeLoad(success bool)
}

type noopRecorder struct{}

func (noopRecorder) IncReply(string)             {}
func (noopRecorder) ObserveMatchScore(float64)   {}
func (noopRecorder) ObserveReplySeconds(float64) {}
func (noopRecorder) IncKnowledgeLoad(bool)       {}

var (
	recMu    sync.RWMutex
	recorder Recorder = noopRecorder{}
)

// Default 返回当前生效的 Recorder。
func Default() Recorder {
	recMu.RLock()
	defer recMu.RUnlock()
	return recorder
}

// SetRecorder 替换全局 Recorder，传入 nil 时恢复为空实现。
func SetRecorder(r Recorder) {
	recMu.Lock()
	defer recMu.Unlock()
	if r == nil {
		r = noopRecorder{}
	}
	recorder = r
}

// TimeReply 记录一轮对话的耗时，返回的函数在回复完成时调用。
func TimeReply() func() {
	start := time.Now()
	return func() {
		Default().ObserveReplySeconds(time.Since(start).Seconds())
	}
}
