package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms/gauges for the chat pipeline.
type ChatMetrics struct {
	messagesTotal  *prometheus.CounterVec
	fallbackTotal  *prometheus.CounterVec
	primaryUp      prometheus.Gauge
	messageLatency *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assistant",
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Total chat messages processed",
		}, []string{"intent", "status"}),
		fallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assistant",
			Subsystem: "chat",
			Name:      "model_fallback_total",
			Help:      "Total answers served by a fallback model provider",
		}, []string{"provider"}),
		primaryUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "assistant",
			Subsystem: "inference",
			Name:      "primary_up",
			Help:      "Whether the primary inference service is reachable",
		}),
		messageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "assistant",
			Subsystem: "chat",
			Name:      "message_latency_seconds",
			Help:      "Latency of chat message processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"intent"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.fallbackTotal, m.primaryUp, m.messageLatency)
	return m
}

func (m *ChatMetrics) ObserveMessage(intent, status string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(intent, status).Inc()
}

func (m *ChatMetrics) ObserveFallback(provider string) {
	if m == nil {
		return
	}
	m.fallbackTotal.WithLabelValues(provider).Inc()
}

func (m *ChatMetrics) SetPrimaryUp(up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.primaryUp.Set(v)
}

func (m *ChatMetrics) ObserveMessageLatency(intent string, seconds float64) {
	if m == nil {
		return
	}
	m.messageLatency.WithLabelValues(intent).Observe(seconds)
}
