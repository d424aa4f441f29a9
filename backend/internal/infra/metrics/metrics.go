package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registerOnce           sync.Once
	optimizeDecisions      *prometheus.CounterVec
	generationRequests     *prometheus.CounterVec
	generationDuration     *prometheus.HistogramVec
	generationTokens       *prometheus.CounterVec
	ingestedRecords        *prometheus.CounterVec
	abTestTransitions      *prometheus.CounterVec
	defaultDurationBuckets = prometheus.DefBuckets
)

const (
	namespaceMetrics = "adops"
)

// TokenUsage 是各模型客户端 usage 的公共子集。
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// MustRegister 初始化 Prometheus 指标并注册 Go 运行时采样器，需在应用启动阶段调用一次。
func MustRegister() {
	registerOnce.Do(func() {
		optimizeDecisions = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "optimizer",
					Name:      "decisions_total",
					Help:      "探索/利用决策次数，按决策类型统计。",
				},
				[]string{"action"},
			),
		)
		generationRequests = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "generation",
					Name:      "requests_total",
					Help:      "创意生成调用次数，按模式与结果统计。",
				},
				[]string{"mode", "status"},
			),
		)
		generationDuration = registerHistogramVec(
			prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: namespaceMetrics,
					Subsystem: "generation",
					Name:      "duration_seconds",
					Help:      "文本生成模型调用耗时，按供应商区分。",
					Buckets:   defaultDurationBuckets,
				},
				[]string{"provider"},
			),
		)
		generationTokens = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "generation",
					Name:      "tokens_total",
					Help:      "文本生成消耗的 token 数量，按 token 类型拆分。",
				},
				[]string{"token_type"},
			),
		)
		ingestedRecords = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "ingestion",
					Name:      "records_total",
					Help:      "写入的投放表现记录数，按数据来源统计。",
				},
				[]string{"source"},
			),
		)
		abTestTransitions = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "abtest",
					Name:      "transitions_total",
					Help:      "A/B 测试状态流转次数，按目标状态统计。",
				},
				[]string{"status"},
			),
		)

		registerRuntimeCollectors()
	})
}

// RecordDecision 记录一次 explore/exploit 决策。
func RecordDecision(action string) {
	if optimizeDecisions == nil {
		return
	}
	optimizeDecisions.WithLabelValues(normalizeLabel(action, "unknown")).Inc()
}

// RecordGeneration 记录创意生成的结果。
func RecordGeneration(mode, status string) {
	if generationRequests == nil {
		return
	}
	generationRequests.WithLabelValues(normalizeLabel(mode, "unknown"), normalizeLabel(status, "unknown")).Inc()
}

// ObserveModelCall 记录模型调用耗时与 token 消耗。
func ObserveModelCall(provider string, duration time.Duration, usage *TokenUsage) {
	if generationDuration == nil {
		return
	}
	generationDuration.WithLabelValues(normalizeLabel(provider, "unspecified")).Observe(duration.Seconds())

	if generationTokens == nil || usage == nil {
		return
	}
	if usage.PromptTokens > 0 {
		generationTokens.WithLabelValues("prompt").Add(float64(usage.PromptTokens))
	}
	if usage.CompletionTokens > 0 {
		generationTokens.WithLabelValues("completion").Add(float64(usage.CompletionTokens))
	}
	if usage.TotalTokens > 0 {
		generationTokens.WithLabelValues("total").Add(float64(usage.TotalTokens))
	}
}

// RecordIngested 记录某个来源写入的记录数。
func RecordIngested(source string, count int) {
	if ingestedRecords == nil || count <= 0 {
		return
	}
	ingestedRecords.WithLabelValues(normalizeLabel(source, "unknown")).Add(float64(count))
}

// RecordABTestTransition 记录 A/B 测试进入某个状态。
func RecordABTestTransition(status string) {
	if abTestTransitions == nil {
		return
	}
	abTestTransitions.WithLabelValues(normalizeLabel(status, "unknown")).Inc()
}

func normalizeLabel(value string, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func registerCounterVec(vec *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(vec); err != nil {
		if existing := alreadyRegisteredCounterVec(err); existing != nil {
			return existing
		}
		panic(err)
	}
	return vec
}

func registerHistogramVec(vec *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := prometheus.Register(vec); err != nil {
		if existing := alreadyRegisteredHistogramVec(err); existing != nil {
			return existing
		}
		panic(err)
	}
	return vec
}

func registerRuntimeCollectors() {
	if err := prometheus.Register(collectors.NewGoCollector()); err != nil {
		if !isAlreadyRegistered(err) {
			panic(err)
		}
	}
	if err := prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		if !isAlreadyRegistered(err) {
			panic(err)
		}
	}
}

func alreadyRegisteredCounterVec(err error) *prometheus.CounterVec {
	if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
		if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
			return existing
		}
	}
	return nil
}

func alreadyRegisteredHistogramVec(err error) *prometheus.HistogramVec {
	if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
		if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
			return existing
		}
	}
	return nil
}

func isAlreadyRegistered(err error) bool {
	_, ok := err.(prometheus.AlreadyRegisteredError)
	return ok
}
