// Package metrics 定义服务的 Prometheus 指标。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 入库结果标签
const (
	StatusIngested = "ingested"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

// Metrics 持有独立的 registry，测试中可以多次创建
type Metrics struct {
	registry *prometheus.Registry

	ResumesIngested   *prometheus.CounterVec
	IngestDuration    prometheus.Histogram
	StageDuration     *prometheus.HistogramVec
	LLMCalls          *prometheus.CounterVec
	QueriesTotal      *prometheus.CounterVec
	ExportedDocuments prometheus.Counter
	KeywordCache      *prometheus.CounterVec
}

// New 创建并注册全部指标
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ResumesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resumes_ingested_total",
			Help:      "Resume uploads by ingestion outcome.",
		}, []string{"status"}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resume_ingest_duration_seconds",
			Help:      "Time spent ingesting a single resume.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_stage_duration_seconds",
			Help:      "Duration of text and entity extraction stages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		LLMCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Generative model calls by outcome.",
		}, []string{"outcome"}),
		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Search, analysis and triage requests.",
		}, []string{"mode"}),
		ExportedDocuments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exported_documents_total",
			Help:      "Documents written into export archives.",
		}),
		KeywordCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jd_keyword_cache_total",
			Help:      "Job description keyword cache lookups.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ResumesIngested,
		m.IngestDuration,
		m.StageDuration,
		m.LLMCalls,
		m.QueriesTotal,
		m.ExportedDocuments,
		m.KeywordCache,
	)
	return m
}

// RegisterGauge 注册一个按需取值的 gauge，例如活跃会话数
func (m *Metrics) RegisterGauge(namespace, name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// Handler 指标抓取端点
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// 以下方法允许 *Metrics 为 nil，未启用指标时调用方无需判断

// ObserveIngest 记录一次入库结果与耗时
func (m *Metrics) ObserveIngest(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ResumesIngested.WithLabelValues(status).Inc()
	if status == StatusIngested {
		m.IngestDuration.Observe(elapsed.Seconds())
	}
}

// ObserveStage 记录提取阶段耗时
func (m *Metrics) ObserveStage(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// IncLLMCall 记录一次模型调用
func (m *Metrics) IncLLMCall(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.LLMCalls.WithLabelValues(outcome).Inc()
}

// IncQuery 记录一次查询，mode 为 search、analysis 或 triage
func (m *Metrics) IncQuery(mode string) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(mode).Inc()
}

// AddExported 记录写入压缩包的文档数
func (m *Metrics) AddExported(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ExportedDocuments.Add(float64(n))
}

// IncKeywordCache 记录一次 JD 关键词缓存查询，result 为 hit、miss 或 error
func (m *Metrics) IncKeywordCache(result string) {
	if m == nil {
		return
	}
	m.KeywordCache.WithLabelValues(result).Inc()
}
