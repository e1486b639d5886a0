package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	return rec.Body.String()
}

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.Mutation("workday", "assign", nil)
	m.Mutation("workday", "assign", nil)
	m.Mutation("workday", "assign", errors.New("boom"))
	m.Export(nil)
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()
	m.ObserveHTTP("GET", "/", 200, 15*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `freelance_mutations_total{entity="workday",op="assign",outcome="ok"} 2`)
	assert.Contains(t, body, `freelance_mutations_total{entity="workday",op="assign",outcome="error"} 1`)
	assert.Contains(t, body, `freelance_report_exports_total{outcome="ok"} 1`)
	assert.Contains(t, body, `freelance_cache_lookups_total{result="miss"} 2`)
	assert.Contains(t, body, `freelance_http_requests_total{code="200",method="GET",route="/"} 1`)
	assert.Contains(t, body, `freelance_http_request_duration_seconds_count{route="/"} 1`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.Mutation("client", "create", nil)
	m.Export(errors.New("x"))
	m.CacheHit()
	m.CacheMiss()
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
}
