package metrics

import (
	"net/http"
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PromRecorder 将指标写入独立的 Prometheus registry。
type PromRecorder struct {
	registry     *prom.Registry
	replies      *prom.CounterVec
	matchScore   prom.Histogram
	replySeconds prom.Histogram
	kbLoads      *prom.CounterVec
}

// NewPromRecorder 创建并注册所有指标。
func NewPromRecorder() *PromRecorder {
	p := &PromRecorder{
		registry: prom.NewRegistry(),
		replies: prom.NewCounterVec(prom.CounterOpts{
			Name: "chatbot_replies_total",
			Help: "Total number of replies by fallback layer",
		}, []string{"source"}),
		matchScore: prom.NewHistogram(prom.HistogramOpts{
			Name:    "chatbot_match_score",
			Help:    "Best cosine similarity of accepted knowledge base matches",
			Buckets: prom.LinearBuckets(0, 0.1, 11),
		}),
		replySeconds: prom.NewHistogram(prom.HistogramOpts{
			Name:    "chatbot_reply_seconds",
			Help:    "Chat turn duration in seconds",
			Buckets: prom.DefBuckets,
		}),
		kbLoads: prom.NewCounterVec(prom.CounterOpts{
			Name: "chatbot_knowledge_loads_total",
			Help: "Knowledge base builds and reloads",
		}, []string{"success"}),
	}
	p.registry.MustRegister(p.replies, p.matchScore, p.replySeconds, p.kbLoads)
	return p
}

func (p *PromRecorder) IncReply(source string) {
	p.replies.WithLabelValues(source).Inc()
}

func (p *PromRecorder) ObserveMatchScore(score float64) {
	p.matchScore.Observe(score)
}

func (p *PromRecorder) ObserveReplySeconds(seconds float64) {
	p.replySeconds.Observe(seconds)
}

func (p *PromRecorder) IncKnowledgeLoad(success bool) {
	p.kbLoads.WithLabelValues(strconv.FormatBool(success)).Inc()
}

// Handler 以 Prometheus 文本格式暴露 registry。
func (p *PromRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
