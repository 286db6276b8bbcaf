package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ativix/ativix/internal/infra/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIMetrics_IndependentRegistries(t *testing.T) {
	// Duas instâncias não colidem no registro
	first := metrics.NewAPIMetrics()
	second := metrics.NewAPIMetrics()

	first.ActivityEvent("create")
	first.ActivityEvent("create")
	second.ActivityEvent("create")

	families, err := first.Registry().Gather()
	require.NoError(t, err)

	var value float64
	for _, f := range families {
		if f.GetName() == "ativix_activity_events_total" {
			value = f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, value)
}

func TestAPIMetrics_Handler(t *testing.T) {
	m := metrics.NewAPIMetrics()
	m.RequestStarted("/atividades", "GET")
	m.RequestCompleted("/atividades", "GET", "200", 10*time.Millisecond, 0, 42)
	m.ReportGenerated("dia", "csv")
	m.LoginAttempt("failure")
	m.VersionConflict()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `ativix_requests_total{method="GET",path="/atividades",status="200"} 1`)
	assert.Contains(t, body, `ativix_reports_generated_total{format="csv",kind="dia"} 1`)
	assert.Contains(t, body, "ativix_version_conflicts_total 1")
}
