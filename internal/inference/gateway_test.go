package inference

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthcompass/assistant/internal/llm"
	"github.com/healthcompass/assistant/internal/observability/metrics"
)

type scriptedChat struct {
	responses []llm.Response
	errs      []error
	calls     int
	lastReq   llm.Request
}

func (s *scriptedChat) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	s.lastReq = req
	i := s.calls
	s.calls++
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.responses[i], err
}

func newPrimaryServer(t *testing.T, healthy *atomic.Bool, answer string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/bot/comprehensive", func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "true", r.Header.Get("X-Node-Bridge"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response": "` + answer + `"}`))
	})
	mux.HandleFunc("/api/bot/medicine-schedule", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response": "your schedule for today"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFreeformAnswerUsesPrimaryWhenUp(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := newPrimaryServer(t, &healthy, "drink plenty of water")

	chat := &scriptedChat{responses: []llm.Response{{Text: "fallback answer"}}}
	gw := NewGateway(NewPrimaryClient(srv.URL, time.Second), chat, slog.Default())
	gw.probe()

	require.True(t, gw.PrimaryAvailable())
	text, err := gw.FreeformAnswer(context.Background(), "I have a headache", nil)
	require.NoError(t, err)
	assert.Equal(t, "drink plenty of water", text)
	assert.Equal(t, 0, chat.calls, "fallback must not run while primary is healthy")
}

func TestFreeformAnswerFallsBackWhenPrimaryDown(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(false)
	srv := newPrimaryServer(t, &healthy, "unused")

	chat := &scriptedChat{responses: []llm.Response{{Text: "fallback answer"}}}
	gw := NewGateway(NewPrimaryClient(srv.URL, time.Second), chat, slog.Default())
	gw.probe()

	require.False(t, gw.PrimaryAvailable())
	text, err := gw.FreeformAnswer(context.Background(), "I have a headache", nil)
	require.NoError(t, err)
	assert.Equal(t, "fallback answer", text)
	assert.Equal(t, 1, chat.calls)
	assert.NotEmpty(t, chat.lastReq.System, "fallback carries the assistant system prompt")
}

func TestFailedCallMarksPrimaryDown(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := newPrimaryServer(t, &healthy, "ok")

	chat := &scriptedChat{responses: []llm.Response{{Text: "rescued"}}}
	gw := NewGateway(NewPrimaryClient(srv.URL, time.Second), chat, slog.Default())
	gw.probe()
	require.True(t, gw.PrimaryAvailable())

	// primary starts failing between probes
	healthy.Store(false)
	text, err := gw.FreeformAnswer(context.Background(), "question", nil)
	require.NoError(t, err)
	assert.Equal(t, "rescued", text)
	assert.False(t, gw.PrimaryAvailable(), "failed business call flips the availability flag")

	// recovery is picked up by the next probe
	healthy.Store(true)
	gw.probe()
	assert.True(t, gw.PrimaryAvailable())
}

func TestProbeDrivesAvailabilityGauge(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := newPrimaryServer(t, &healthy, "ok")

	reg := prometheus.NewRegistry()
	m := metrics.NewChatMetrics(reg)
	chat := &scriptedChat{responses: []llm.Response{{Text: "rescued"}}}
	gw := NewGateway(NewPrimaryClient(srv.URL, time.Second), chat, slog.Default(), WithMetrics(m))

	gw.probe()
	assert.Equal(t, 1.0, gaugeValue(t, reg, "assistant_inference_primary_up"))

	healthy.Store(false)
	gw.probe()
	assert.Equal(t, 0.0, gaugeValue(t, reg, "assistant_inference_primary_up"))

	// a failed business call flips the gauge too, not just the probe
	healthy.Store(true)
	gw.probe()
	healthy.Store(false)
	_, err := gw.FreeformAnswer(context.Background(), "question", nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, gaugeValue(t, reg, "assistant_inference_primary_up"))
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() == name {
			require.Len(t, fam.GetMetric(), 1)
			return fam.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("gauge %s not registered", name)
	return 0
}

func TestScheduleLookupForwardsToken(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := newPrimaryServer(t, &healthy, "unused")

	gw := NewGateway(NewPrimaryClient(srv.URL, time.Second), &scriptedChat{responses: []llm.Response{{}}}, slog.Default())
	gw.probe()

	text, err := gw.ScheduleLookup(context.Background(), "what do I take today", "2026-08-31", "token-123")
	require.NoError(t, err)
	assert.Equal(t, "your schedule for today", text)
}

func TestNoPrimaryConfigured(t *testing.T) {
	chat := &scriptedChat{responses: []llm.Response{{Text: "chat only"}}}
	gw := NewGateway(nil, chat, slog.Default())
	gw.Start()
	defer gw.Close()

	assert.False(t, gw.PrimaryAvailable())
	text, err := gw.FreeformAnswer(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "chat only", text)

	_, err = gw.Comprehensive(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrPrimaryUnavailable)
}

func TestFreeformAnswerAllBackendsFail(t *testing.T) {
	chat := &scriptedChat{responses: []llm.Response{{}}, errs: []error{errors.New("llm down")}}
	gw := NewGateway(nil, chat, slog.Default())

	_, err := gw.FreeformAnswer(context.Background(), "hello", nil)
	assert.Error(t, err)
}
