package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()
	m.RecordTransition("grade", "ok")
	m.RecordTransition("grade", "ok")
	m.RecordTransition("reject", "invalid_state")
	m.RecordArtifact("TASMI_RESULT", "queued")
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("grade", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("reject", "invalid_state")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.artifacts.WithLabelValues("TASMI_RESULT", "queued")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "tasmi_transitions_total"))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordTransition("grade", "ok")
	m.RecordArtifact("RECAP", "dropped")
	m.ObserveRecap("MONTHLY", time.Second)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
