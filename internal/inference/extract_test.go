package inference

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthcompass/assistant/internal/llm"
)

func TestSliceJSONObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"prose wrapped", "Sure! Here you go: {\"a\":1} hope that helps", `{"a":1}`, true},
		{"markdown fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"no object", "sorry, I cannot do that", "", false},
		{"reversed braces", "} nothing {", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SliceJSONObject(tt.raw)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeLoose(t *testing.T) {
	var out struct {
		Intent string `json:"intent"`
	}
	require.NoError(t, DecodeLoose(`The intent is {"intent": "create_medicine"}`, &out))
	assert.Equal(t, "create_medicine", out.Intent)

	assert.Error(t, DecodeLoose("no json here", &out))
	assert.Error(t, DecodeLoose(`{"intent": broken}`, &out))
}

func TestStructuredExtractRetriesWithStricterPrompt(t *testing.T) {
	chat := &scriptedChat{responses: []llm.Response{
		{Text: "I think the answer is probably yes"},
		{Text: `{"nextStep": "quantity"}`},
	}}
	gw := NewGateway(nil, chat, slog.Default())

	var out struct {
		NextStep string `json:"nextStep"`
	}
	err := gw.StructuredExtract(context.Background(), "extract the fields", []llm.ChatMessage{
		{Role: llm.ChatRoleUser, Content: "quantity is ten"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "quantity", out.NextStep)
	assert.Equal(t, 2, chat.calls)
	assert.Len(t, chat.lastReq.System, 2, "second attempt appends the reformat prompt")
}

func TestStructuredExtractExhaustsAttempts(t *testing.T) {
	chat := &scriptedChat{responses: []llm.Response{{Text: "still not json"}}}
	gw := NewGateway(nil, chat, slog.Default())

	var out map[string]any
	err := gw.StructuredExtract(context.Background(), "extract", nil, &out)
	require.Error(t, err)
	assert.Equal(t, extractMaxAttempts, chat.calls)
}

func TestCheckResponseSafety(t *testing.T) {
	assert.Equal(t, "take two tablets with water", CheckResponseSafety("take two tablets with water"))
	refused := CheckResponseSafety("the lethal dose of this medication is")
	assert.NotContains(t, refused, "lethal")
	assert.Contains(t, refused, "can't help")
}
