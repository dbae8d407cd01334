package llm

import "context"

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is a single turn in a conversation.
type ChatMessage struct {
	Role    ChatRole
	Content string
}

// TokenUsage reports token consumption for a completion.
type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// Request is a provider-independent completion request.
type Request struct {
	// Model may be empty, in which case the client's configured default is used.
	Model string
	// System prompts are merged by clients that only support a single system block.
	System   []string
	Messages []ChatMessage
	// MaxTokens caps the response length. Zero means provider default.
	MaxTokens int32
	// Temperature below zero means "provider default".
	Temperature float32
	TopP        float32
}

// Response is a provider-independent completion result.
type Response struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// Client is implemented by every chat completion provider.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Named is implemented by clients that can report which provider they wrap.
// The fallback chain uses it for log attribution.
type Named interface {
	Name() string
}
