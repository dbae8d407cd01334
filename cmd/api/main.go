package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/healthcompass/assistant/internal/api/router"
	appconfig "github.com/healthcompass/assistant/internal/config"
	"github.com/healthcompass/assistant/internal/dialog"
	"github.com/healthcompass/assistant/internal/domainapi"
	"github.com/healthcompass/assistant/internal/history"
	"github.com/healthcompass/assistant/internal/http/handlers"
	"github.com/healthcompass/assistant/internal/inference"
	"github.com/healthcompass/assistant/internal/intent"
	"github.com/healthcompass/assistant/internal/llm"
	"github.com/healthcompass/assistant/internal/observability/metrics"
	"github.com/healthcompass/assistant/internal/session"
	"github.com/healthcompass/assistant/internal/slots"
	"github.com/healthcompass/assistant/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	chatMetrics := metrics.NewChatMetrics(prometheus.DefaultRegisterer)

	// Fallback model chain, in configured provider order.
	chain := buildChain(ctx, cfg, logger)
	chain.OnFallback(chatMetrics.ObserveFallback)

	// Primary inference service with health probing.
	primary := inference.NewPrimaryClient(cfg.InferenceBaseURL, cfg.InferenceCallTimeout)
	gateway := inference.NewGateway(primary, chain, logger.Logger,
		inference.WithCallTimeout(cfg.InferenceCallTimeout),
		inference.WithProbeInterval(cfg.InferenceProbeInterval),
		inference.WithMetrics(chatMetrics),
	)
	gateway.Start()
	defer gateway.Close()

	// Conversation state.
	sessions, transcripts := buildStores(cfg, logger)
	defer sessions.Close()
	defer transcripts.Close()

	domain := domainapi.NewClient(cfg.DomainBaseURL, cfg.DomainCallTimeout)

	classifier := intent.NewClassifier(gateway, logger.Logger)
	engine := slots.NewEngine(gateway, domain, logger.Logger)

	limiter := dialog.NewLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	defer limiter.Close()
	svc := dialog.New(classifier, engine, gateway, sessions, transcripts, limiter,
		dialog.WithLogger(logger.Logger),
		dialog.WithMetrics(chatMetrics),
	)

	chatHandler := handlers.NewChatHandler(svc, logger)
	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chatHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.HTTPRatePerSecond,
		RateLimitBurst:     cfg.HTTPRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildChain assembles the fallback model providers that are configured,
// honoring cfg.ProviderOrder. Missing credentials just skip a provider.
func buildChain(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *llm.Chain {
	var clients []llm.Client
	for _, name := range cfg.ProviderOrder {
		switch name {
		case "openai":
			client, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
			if err != nil {
				logger.Warn("openai provider unavailable", "error", err)
				continue
			}
			clients = append(clients, client)
		case "gemini":
			client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
			if err != nil {
				logger.Warn("gemini provider unavailable", "error", err)
				continue
			}
			clients = append(clients, client)
		case "bedrock":
			client, err := buildBedrock(ctx, cfg)
			if err != nil {
				logger.Warn("bedrock provider unavailable", "error", err)
				continue
			}
			clients = append(clients, client)
		default:
			logger.Warn("unknown provider in PROVIDER_ORDER", "provider", name)
		}
	}
	if len(clients) == 0 {
		logger.Warn("no fallback model providers configured; only the primary inference service will answer")
	}
	return llm.NewChain(logger.Logger, clients...)
}

func buildBedrock(ctx context.Context, cfg *appconfig.Config) (*llm.BedrockClient, error) {
	if cfg.BedrockModelID == "" {
		return nil, fmt.Errorf("bedrock model id not configured")
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccess != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccess, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
}

// buildStores picks the session and transcript backends. Redis serves both
// when configured; otherwise everything stays in process.
func buildStores(cfg *appconfig.Config, logger *logging.Logger) (session.Store, history.Store) {
	if cfg.SessionBackend != "redis" {
		logger.Info("using in-memory conversation state")
		return session.NewMemoryStore(cfg.SessionTTL, cfg.SweepInterval), history.NewMemoryStore()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	logger.Info("using redis conversation state", "addr", cfg.RedisAddr)
	return session.NewRedisStore(client, cfg.SessionTTL, nil), history.NewRedisStore(client)
}
