package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/sbotchat/ai/format"
)

func TestPrometheusExporter_ObserveFormat(t *testing.T) {
	exporter := NewPrometheusExporter(DefaultConfig())

	exporter.ObserveFormat(format.ContentTable, "assistant", 10*time.Millisecond, false)
	exporter.ObserveFormat(format.ContentTable, "assistant", 20*time.Millisecond, false)
	exporter.ObserveFormat("", "assistant", time.Millisecond, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(exporter.formatRequests.WithLabelValues("table", "assistant", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.formatRequests.WithLabelValues("none", "assistant", "error")))
}

func TestPrometheusExporter_ObserveEnhancement(t *testing.T) {
	exporter := NewPrometheusExporter(DefaultConfig())

	exporter.ObserveEnhancement(format.OutcomeApplied, 300*time.Millisecond)
	exporter.ObserveEnhancement(format.OutcomeIneligible, 0)
	exporter.ObserveEnhancement(format.OutcomeIneligible, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.enhancements.WithLabelValues("applied")))
	assert.Equal(t, 2.0, testutil.ToFloat64(exporter.enhancements.WithLabelValues("ineligible")))
}

func TestPrometheusExporter_CacheAndHTTP(t *testing.T) {
	exporter := NewPrometheusExporter(DefaultConfig())

	exporter.RecordCacheHit("orchestrator")
	exporter.RecordCacheHit("orchestrator")
	exporter.RecordCacheMiss("formatter_config")
	exporter.RecordHTTPRequest("POST", "/api/v1/format", 200, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(exporter.cacheHits.WithLabelValues("orchestrator")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.cacheMisses.WithLabelValues("formatter_config")))
	assert.Equal(t, 1.0, testutil.ToFloat64(exporter.httpRequests.WithLabelValues("POST", "/api/v1/format", "200")))
}

func TestPrometheusExporter_Handler(t *testing.T) {
	exporter := NewPrometheusExporter(Config{})
	exporter.ObserveFormat(format.ContentMarkdown, "assistant", time.Millisecond, false)

	rec := httptest.NewRecorder()
	exporter.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "sbotchat_format_requests_total"))
	assert.True(t, strings.Contains(body, `content_type="markdown"`))
}
