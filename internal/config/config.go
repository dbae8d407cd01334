package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Comprehensive AI service (primary inference provider)
	InferenceBaseURL       string
	InferenceProbeInterval time.Duration
	InferenceCallTimeout   time.Duration

	// Fallback chat providers, tried in ProviderOrder sequence
	ProviderOrder   []string
	OpenAIAPIKey    string
	OpenAIModel     string
	GeminiAPIKey    string
	GeminiModel     string
	AWSRegion       string
	AWSAccessKeyID  string
	AWSSecretAccess string
	BedrockModelID  string

	// Domain service (catalog + record creation)
	DomainBaseURL     string
	DomainCallTimeout time.Duration

	// Session state
	SessionBackend string
	SessionTTL     time.Duration
	SweepInterval  time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool

	// Per-session throttling
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// HTTP surface
	CORSAllowedOrigins []string
	HTTPRatePerSecond  float64
	HTTPRateBurst      int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		InferenceBaseURL:       getEnv("INFERENCE_BASE_URL", "http://127.0.0.1:8000"),
		InferenceProbeInterval: getEnvAsDuration("INFERENCE_PROBE_INTERVAL", 30*time.Second),
		InferenceCallTimeout:   getEnvAsDuration("INFERENCE_CALL_TIMEOUT", 30*time.Second),

		ProviderOrder:   splitList(getEnv("PROVIDER_ORDER", "openai,gemini,bedrock")),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:  getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccess: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		BedrockModelID:  getEnv("BEDROCK_MODEL_ID", ""),

		DomainBaseURL:     getEnv("DOMAIN_BASE_URL", ""),
		DomainCallTimeout: getEnvAsDuration("DOMAIN_CALL_TIMEOUT", 20*time.Second),

		SessionBackend: strings.ToLower(strings.TrimSpace(getEnv("SESSION_BACKEND", "memory"))),
		SessionTTL:     getEnvAsDuration("SESSION_TTL", time.Hour),
		SweepInterval:  getEnvAsDuration("SWEEP_INTERVAL", 5*time.Minute),
		RedisAddr:      getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),

		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 15),
		RateLimitWindow:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		HTTPRatePerSecond:  getEnvAsFloat("HTTP_RATE_PER_SECOND", 10),
		HTTPRateBurst:      getEnvAsInt("HTTP_RATE_BURST", 20),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
