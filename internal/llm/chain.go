package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoProviders is returned when a chain is asked to complete with no clients.
var ErrNoProviders = errors.New("llm: no providers configured")

// Chain tries an ordered list of providers until one succeeds. A provider
// failure is logged and the next provider is attempted; only when every
// provider fails does the chain return an error.
type Chain struct {
	clients    []Client
	logger     *slog.Logger
	onFallback func(provider string)
}

// NewChain creates a provider chain. Order matters: clients[0] is tried first.
func NewChain(logger *slog.Logger, clients ...Client) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{clients: clients, logger: logger}
}

func (c *Chain) Name() string { return "chain" }

// OnFallback registers a hook invoked with the provider's name whenever an
// answer is served by any provider other than the first. Call before Complete
// is in use; the hook must be safe for concurrent calls.
func (c *Chain) OnFallback(fn func(provider string)) {
	c.onFallback = fn
}

// Len reports how many providers are configured.
func (c *Chain) Len() int { return len(c.clients) }

// Complete attempts each provider in order.
func (c *Chain) Complete(ctx context.Context, req Request) (Response, error) {
	if len(c.clients) == 0 {
		return Response{}, ErrNoProviders
	}

	var lastErr error
	for i, client := range c.clients {
		resp, err := client.Complete(ctx, req)
		if err == nil {
			if i > 0 {
				c.logger.Info("llm fallback provider succeeded",
					"provider", providerName(client),
					"attempt", i+1)
				if c.onFallback != nil {
					c.onFallback(providerName(client))
				}
			}
			return resp, nil
		}

		lastErr = err
		c.logger.Warn("llm provider failed, trying next",
			"provider", providerName(client),
			"attempt", i+1,
			"remaining", len(c.clients)-i-1,
			"error", err)

		if ctx.Err() != nil {
			return Response{}, fmt.Errorf("llm: chain aborted: %w", ctx.Err())
		}
	}

	c.logger.Error("all llm providers failed", "providers", len(c.clients), "error", lastErr)
	return Response{}, fmt.Errorf("llm: all providers failed: %w", lastErr)
}

func providerName(c Client) string {
	if n, ok := c.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", c)
}
