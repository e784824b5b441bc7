// Package metrics exposes transfer workflow counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/example/assetflow/internal/ports/secondary"
)

// TransferMetrics holds the counters recorded by the gateway.
type TransferMetrics struct {
	// Transitions counts gateway transitions by action and outcome.
	// Outcome is "ok" or the error kind.
	Transitions *prometheus.CounterVec
}

// NewTransferMetrics registers the transfer counters with reg. A nil reg
// registers with the default registry.
func NewTransferMetrics(reg prometheus.Registerer) *TransferMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &TransferMetrics{
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "assetflow",
				Name:      "transfer_transitions_total",
				Help:      "Transfer gateway transitions by action and outcome",
			},
			[]string{"action", "outcome"},
		),
	}
}

// RecordTransition increments the counter for action and outcome.
func (m *TransferMetrics) RecordTransition(action, outcome string) {
	m.Transitions.WithLabelValues(action, outcome).Inc()
}

var _ secondary.TransitionRecorder = (*TransferMetrics)(nil)
