package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/healthcompass/assistant/internal/llm"
)

const extractMaxAttempts = 2

const reformatPrompt = `Your previous reply was not valid JSON. Respond again with ONLY the JSON object described in the instructions. No explanations, no markdown, no text outside the braces.`

// SliceJSONObject cuts the first top-level {...} block out of a model reply
// that wrapped its JSON in prose or markdown fences.
func SliceJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// DecodeLoose unmarshals raw into out, slicing out the JSON object first when
// the raw text carries surrounding prose.
func DecodeLoose(raw string, out any) error {
	trimmed := strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(trimmed), out); err == nil {
		return nil
	}
	sliced, ok := SliceJSONObject(trimmed)
	if !ok {
		return fmt.Errorf("inference: no JSON object in response")
	}
	if err := json.Unmarshal([]byte(sliced), out); err != nil {
		return fmt.Errorf("inference: malformed JSON object: %w", err)
	}
	return nil
}

// StructuredExtract runs a strict-JSON extraction prompt against the chat
// chain with a bounded retry. On the second attempt the reformat prompt is
// appended as an extra system block. The decoded value is written into out.
func (g *Gateway) StructuredExtract(ctx context.Context, systemPrompt string, history []llm.ChatMessage, out any) error {
	var lastErr error
	for attempt := 0; attempt < extractMaxAttempts; attempt++ {
		system := []string{systemPrompt}
		if attempt > 0 {
			system = append(system, reformatPrompt)
		}

		resp, err := g.Complete(ctx, llm.Request{
			System:      system,
			Messages:    history,
			Temperature: 0,
			MaxTokens:   600,
		})
		if err != nil {
			lastErr = err
			continue
		}

		if err := DecodeLoose(resp.Text, out); err != nil {
			lastErr = err
			g.logger.Warn("structured extraction returned malformed JSON",
				"attempt", attempt+1, "error", err)
			continue
		}
		return nil
	}
	return fmt.Errorf("inference: structured extraction failed after %d attempts: %w", extractMaxAttempts, lastErr)
}
