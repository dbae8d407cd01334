// Package history persists chat transcripts so the extraction prompts can see
// the recent exchange and the client can re-render a conversation.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/healthcompass/assistant/internal/llm"
)

const transcriptTTL = 24 * time.Hour

// maxTurns bounds the stored transcript; older turns fall off the front.
const maxTurns = 40

// Entry is one turn of the conversation as the client sees it.
type Entry struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sentAt"`
}

// Store keeps per-chat transcripts.
type Store interface {
	Append(ctx context.Context, chatID string, entries ...Entry) error
	Load(ctx context.Context, chatID string) ([]Entry, error)
	Clear(ctx context.Context, chatID string) error
	Close() error
}

// Recent converts the transcript tail into model messages for prompt context.
func Recent(entries []Entry, n int) []llm.ChatMessage {
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	out := make([]llm.ChatMessage, 0, len(entries))
	for _, e := range entries {
		role := llm.ChatRoleUser
		if e.Role == "bot" {
			role = llm.ChatRoleAssistant
		}
		out = append(out, llm.ChatMessage{Role: role, Content: e.Content})
	}
	return out
}

// RedisStore persists transcripts in redis with a rolling TTL.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewRedisStore creates the redis-backed transcript store.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("history: redis client cannot be nil")
	}
	return &RedisStore{
		redis:  client,
		tracer: otel.Tracer("assistant.internal.history"),
	}
}

func transcriptKey(chatID string) string {
	return fmt.Sprintf("transcript:%s", chatID)
}

func (s *RedisStore) Append(ctx context.Context, chatID string, entries ...Entry) error {
	ctx, span := s.tracer.Start(ctx, "history.append")
	defer span.End()

	existing, err := s.Load(ctx, chatID)
	if err != nil {
		return err
	}
	merged := append(existing, entries...)
	if len(merged) > maxTurns {
		merged = merged[len(merged)-maxTurns:]
	}

	data, err := json.Marshal(merged)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("history: failed to marshal transcript: %w", err)
	}
	if err := s.redis.Set(ctx, transcriptKey(chatID), data, transcriptTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("history: failed to persist transcript: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, chatID string) ([]Entry, error) {
	ctx, span := s.tracer.Start(ctx, "history.load")
	defer span.End()

	data, err := s.redis.Get(ctx, transcriptKey(chatID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("history: failed to load transcript: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("history: failed to decode transcript: %w", err)
	}
	return entries, nil
}

func (s *RedisStore) Clear(ctx context.Context, chatID string) error {
	ctx, span := s.tracer.Start(ctx, "history.clear")
	defer span.End()

	if err := s.redis.Del(ctx, transcriptKey(chatID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("history: failed to clear transcript: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.redis.Close()
}

// MemoryStore keeps transcripts in process, for single-instance deployments
// and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]Entry
}

// NewMemoryStore creates the in-process transcript store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]Entry)}
}

func (s *MemoryStore) Append(_ context.Context, chatID string, entries ...Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := append(s.entries[chatID], entries...)
	if len(merged) > maxTurns {
		merged = merged[len(merged)-maxTurns:]
	}
	s.entries[chatID] = merged
	return nil
}

func (s *MemoryStore) Load(_ context.Context, chatID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.entries[chatID]
	out := make([]Entry, len(stored))
	copy(out, stored)
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, chatID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
