package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("GET", "/api/resources", "success", 0.01)
		m.RecordDatabaseOperation("find", "healthResources", true)
		m.RecordMove("health")
		m.RecordOutcome("moved")
		m.RecordCircuitBreakerState("mongo:resources", "open")
	})
}

func TestInitMetrics(t *testing.T) {
	m, err := InitMetrics()
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		m.RecordMove("jobs")
		m.RecordRequest("GET", "/health", "success", 0.002)
	})
}
