package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposition(t *testing.T) {
	m := New("triage")
	m.ResumesIngested.WithLabelValues(StatusIngested).Inc()
	m.ResumesIngested.WithLabelValues(StatusIngested).Inc()
	m.ResumesIngested.WithLabelValues(StatusFailed).Inc()
	m.RegisterGauge("triage", "active_sessions", "Active sessions.", func() float64 { return 3 })

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ResumesIngested.WithLabelValues(StatusIngested)))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `triage_resumes_ingested_total{status="failed"} 1`)
	assert.Contains(t, string(body), "triage_active_sessions 3")
}

func TestNewIsIndependent(t *testing.T) {
	// 每个实例使用自己的 registry，重复创建不会冲突
	assert.NotPanics(t, func() {
		New("a")
		New("a")
	})
}

func TestNilMetricsHelpers(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveIngest(StatusIngested, time.Second)
		m.ObserveStage("pdf", time.Second)
		m.IncLLMCall(nil)
		m.IncQuery("search")
		m.AddExported(3)
		m.IncKeywordCache("hit")
	})
}

func TestHelpersRecord(t *testing.T) {
	m := New("t")
	m.ObserveIngest(StatusSkipped, time.Second)
	m.IncLLMCall(errors.New("boom"))
	m.IncLLMCall(nil)
	m.AddExported(3)
	m.AddExported(0)
	m.IncKeywordCache("hit")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ResumesIngested.WithLabelValues(StatusSkipped)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LLMCalls.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LLMCalls.WithLabelValues("ok")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.ExportedDocuments))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.KeywordCache.WithLabelValues("hit")))
}
