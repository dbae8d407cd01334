package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestChatMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)
	m.ObserveMessage("general_query", "ok")
	m.ObserveFallback("gemini")
	m.SetPrimaryUp(true)
	m.ObserveMessageLatency("general_query", 0.5)
}

func TestChatMetricsNilSafe(t *testing.T) {
	var m *ChatMetrics
	m.ObserveMessage("general_query", "ok")
	m.ObserveFallback("gemini")
	m.SetPrimaryUp(false)
	m.ObserveMessageLatency("general_query", 0.1)
}
