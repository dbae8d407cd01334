package dialog

import (
	"context"
	"regexp"
	"strings"

	"github.com/healthcompass/assistant/internal/llm"
)

// maxMessageLen caps what one turn will carry into the prompts.
const maxMessageLen = 1000

var tagRe = regexp.MustCompile(`<[^>]*>`)

// Sanitize strips markup, collapses whitespace, and caps the length of an
// incoming message before it reaches any prompt.
func Sanitize(message string) string {
	s := tagRe.ReplaceAllString(message, " ")
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxMessageLen {
		s = s[:maxMessageLen]
	}
	return s
}

// continuation answers must reach the classifier verbatim; rewriting "yes"
// or "2" would detach them from the question they answer
var skipNormalization = map[string]bool{
	"yes": true, "no": true, "ok": true, "okay": true, "sure": true,
	"cancel": true, "stop": true, "exit": true, "continue": true,
	"done": true, "help": true,
}

var digitsOnlyRe = regexp.MustCompile(`^\d{1,3}$`)

// SkipNormalization reports whether a message is a bare continuation answer
// that must not be rephrased.
func SkipNormalization(message string) bool {
	s := strings.ToLower(strings.TrimSpace(message))
	return skipNormalization[s] || digitsOnlyRe.MatchString(s)
}

const normalizePrompt = `Rewrite the user's message as clear English for a health assistant. Fix typos and translate other languages to English. Preserve the meaning, every name, number, date, and time exactly. Respond with ONLY the rewritten message, nothing else.`

// Normalize rewrites a noisy or non-English message via the model chain. Any
// failure returns the original text; normalization is never load-bearing.
func Normalize(ctx context.Context, chat interface {
	Complete(ctx context.Context, req llm.Request) (llm.Response, error)
}, message string) string {
	if SkipNormalization(message) {
		return message
	}
	resp, err := chat.Complete(ctx, llm.Request{
		System:      []string{normalizePrompt},
		Messages:    []llm.ChatMessage{{Role: llm.ChatRoleUser, Content: message}},
		Temperature: 0,
		MaxTokens:   300,
	})
	if err != nil {
		return message
	}
	out := strings.TrimSpace(resp.Text)
	if out == "" || len(out) > 2*len(message)+100 {
		return message
	}
	return out
}
