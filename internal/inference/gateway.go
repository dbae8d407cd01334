package inference

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/healthcompass/assistant/internal/llm"
	"github.com/healthcompass/assistant/internal/observability/metrics"
)

// Gateway routes inference calls between the primary comprehensive-AI service
// and the fallback chat chain. A background probe keeps a last-known
// availability flag; business calls read it optimistically and never block on
// probing.
type Gateway struct {
	primary   *PrimaryClient
	chat      llm.Client
	logger    *slog.Logger
	metrics   *metrics.ChatMetrics
	timeout   time.Duration
	interval  time.Duration
	primaryUp atomic.Bool
	probing   atomic.Bool
	stop      chan struct{}
	stopOnce  sync.Once
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithCallTimeout bounds each provider call.
func WithCallTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithProbeInterval sets how often the primary's health endpoint is polled.
func WithProbeInterval(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithMetrics has the gateway drive the primary-availability gauge.
func WithMetrics(m *metrics.ChatMetrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// NewGateway creates a gateway over the primary service and the chat chain.
// primary may be nil, in which case every call uses the chat chain.
func NewGateway(primary *PrimaryClient, chat llm.Client, logger *slog.Logger, opts ...Option) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{
		primary:  primary,
		chat:     chat,
		logger:   logger,
		timeout:  30 * time.Second,
		interval: 30 * time.Second,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Start launches the background health probe. Safe to skip in tests.
func (g *Gateway) Start() {
	if g.primary == nil {
		return
	}
	g.probe()
	go g.probeLoop()
}

// Close stops the probe loop.
func (g *Gateway) Close() {
	g.stopOnce.Do(func() { close(g.stop) })
}

// PrimaryAvailable reports the last-known health of the primary service.
func (g *Gateway) PrimaryAvailable() bool {
	return g.primary != nil && g.primaryUp.Load()
}

func (g *Gateway) probeLoop() {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			g.probe()
		case <-g.stop:
			return
		}
	}
}

// probe runs a single health check. At most one probe is in flight at a time;
// overlapping ticks are dropped.
func (g *Gateway) probe() {
	if !g.probing.CompareAndSwap(false, true) {
		return
	}
	defer g.probing.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := g.primary.Health(ctx)
	was := g.primaryUp.Load()
	now := err == nil
	g.primaryUp.Store(now)
	g.metrics.SetPrimaryUp(now)
	if was != now {
		if now {
			g.logger.Info("primary inference service is available")
		} else {
			g.logger.Warn("primary inference service is unavailable", "error", err)
		}
	}
}

// markPrimaryDown records a failed business call so later callers skip the
// primary until the next successful probe.
func (g *Gateway) markPrimaryDown(err error) {
	if g.primaryUp.Swap(false) {
		g.metrics.SetPrimaryUp(false)
		g.logger.Warn("primary inference call failed, switching to fallback", "error", err)
	}
}

// FreeformAnswer answers a general health question. Primary first when
// available, then the chat chain with the assistant system prompt. The
// returned text is always safe to show; an error means every backend failed.
func (g *Gateway) FreeformAnswer(ctx context.Context, query string, history []llm.ChatMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if g.PrimaryAvailable() {
		text, err := g.primary.Comprehensive(ctx, query)
		if err == nil {
			return CheckResponseSafety(text), nil
		}
		g.markPrimaryDown(err)
	}

	messages := append(append([]llm.ChatMessage{}, history...), llm.ChatMessage{
		Role:    llm.ChatRoleUser,
		Content: query,
	})
	resp, err := g.chat.Complete(ctx, llm.Request{
		System:      []string{AssistantSystemPrompt()},
		Messages:    messages,
		Temperature: 0.4,
		MaxTokens:   900,
	})
	if err != nil {
		return "", err
	}
	return CheckResponseSafety(resp.Text), nil
}

// ScheduleLookup answers a medicine-schedule question through the dedicated
// primary endpoint, falling back to a freeform answer.
func (g *Gateway) ScheduleLookup(ctx context.Context, query, date, userToken string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if g.PrimaryAvailable() {
		text, err := g.primary.MedicineSchedule(ctx, query, date, userToken)
		if err == nil {
			return text, nil
		}
		g.markPrimaryDown(err)
	}

	return g.FreeformAnswer(ctx, query, nil)
}

// Complete forwards a raw completion request to the chat chain. Classification
// and structured extraction build their own prompts on top of this.
func (g *Gateway) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.chat.Complete(ctx, req)
}

// Comprehensive exposes the primary comprehensive endpoint for flows that
// explicitly route detailed record creation to it.
func (g *Gateway) Comprehensive(ctx context.Context, query string) (string, error) {
	if !g.PrimaryAvailable() {
		return "", ErrPrimaryUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	text, err := g.primary.Comprehensive(ctx, query)
	if err != nil {
		g.markPrimaryDown(err)
		return "", err
	}
	return text, nil
}
