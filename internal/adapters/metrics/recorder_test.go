package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTransition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTransferMetrics(reg)

	m.RecordTransition("approve", "ok")
	m.RecordTransition("approve", "ok")
	m.RecordTransition("approve", "conflict")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Transitions.WithLabelValues("approve", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Transitions.WithLabelValues("approve", "conflict")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Transitions))
}

func TestNewTransferMetrics_ExposesMetricName(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTransferMetrics(reg)
	m.RecordTransition("create", "validation")

	expected := `
# HELP assetflow_transfer_transitions_total Transfer gateway transitions by action and outcome
# TYPE assetflow_transfer_transitions_total counter
assetflow_transfer_transitions_total{action="create",outcome="validation"} 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "assetflow_transfer_transitions_total")
	require.NoError(t, err)
}
