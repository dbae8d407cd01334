package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthcompass/assistant/internal/dialog"
	"github.com/healthcompass/assistant/internal/http/middleware"
)

type fakeDialog struct {
	reply    dialog.Reply
	lastReq  dialog.Request
	clearKey string
	clearID  string
	clearErr error
}

func (f *fakeDialog) Handle(_ context.Context, req dialog.Request) dialog.Reply {
	f.lastReq = req
	return f.reply
}

func (f *fakeDialog) ClearCache(_ context.Context, sessionKey, chatID string) error {
	f.clearKey = sessionKey
	f.clearID = chatID
	return f.clearErr
}

func doChat(t *testing.T, h *ChatHandler, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler := middleware.ExtractIdentity(http.HandlerFunc(h.Chat))
	handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return rec, env
}

func TestChatReturnsEnvelope(t *testing.T) {
	svc := &fakeDialog{reply: dialog.Reply{Text: "Hello! How can I help?", Intent: "general_query"}}
	h := NewChatHandler(svc, nil)

	rec, env := doChat(t, h, `{"message": "hi"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)

	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var parsed ChatData
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.NotEmpty(t, parsed.ChatID)
	require.Len(t, parsed.Messages, 2)
	assert.Equal(t, "user", parsed.Messages[0].Role)
	assert.Equal(t, "hi", parsed.Messages[0].Content)
	assert.Equal(t, "Hello! How can I help?", parsed.Messages[1].Content)
}

func TestChatKeepsProvidedChatID(t *testing.T) {
	svc := &fakeDialog{reply: dialog.Reply{Text: "ok"}}
	h := NewChatHandler(svc, nil)

	_, env := doChat(t, h, `{"message": "hi", "chatId": "chat-123"}`)

	data, _ := json.Marshal(env.Data)
	var parsed ChatData
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "chat-123", parsed.ChatID)
	assert.Equal(t, "chat-123", svc.lastReq.ChatID)
	assert.Equal(t, "chat:chat-123", svc.lastReq.SessionKey)
}

func TestAnonymousCallerWithoutChatIDKeepsStableSession(t *testing.T) {
	svc := &fakeDialog{reply: dialog.Reply{Text: "ok"}}
	h := NewChatHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message": "hi"}`))
	req.Header.Set("X-Anonymous-Id", "anon-token-1")
	rec := httptest.NewRecorder()
	middleware.ExtractIdentity(http.HandlerFunc(h.Chat)).ServeHTTP(rec, req)

	assert.Equal(t, "anon:anon-token-1", svc.lastReq.SessionKey,
		"a generated chat id must not shadow the anonymous token")
	assert.NotEmpty(t, svc.lastReq.ChatID)

	// same caller, next turn, still no chatId: the session key repeats
	req = httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message": "again"}`))
	req.Header.Set("X-Anonymous-Id", "anon-token-1")
	middleware.ExtractIdentity(http.HandlerFunc(h.Chat)).ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "anon:anon-token-1", svc.lastReq.SessionKey)
}

func TestUnidentifiedCallerFallsBackToIPKey(t *testing.T) {
	svc := &fakeDialog{reply: dialog.Reply{Text: "ok"}}
	h := NewChatHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message": "hi"}`))
	req.Header.Set("X-Real-Ip", "10.1.2.3")
	middleware.ExtractIdentity(http.HandlerFunc(h.Chat)).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "ip:10.1.2.3", svc.lastReq.SessionKey)
}

func TestChatRejectsEmptyBody(t *testing.T) {
	h := NewChatHandler(&fakeDialog{}, nil)

	rec, env := doChat(t, h, `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", env.Status)
	assert.Contains(t, env.Message, "message or audioUrl")
}

func TestChatRejectsMalformedJSON(t *testing.T) {
	h := NewChatHandler(&fakeDialog{}, nil)

	rec, _ := doChat(t, h, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatAcceptsAudioOnly(t *testing.T) {
	svc := &fakeDialog{reply: dialog.Reply{Text: "heard you"}}
	h := NewChatHandler(svc, nil)

	rec, _ := doChat(t, h, `{"audioUrl": "https://example.com/note.ogg"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://example.com/note.ogg", svc.lastReq.AudioURL)
}

func TestClearCache(t *testing.T) {
	svc := &fakeDialog{}
	h := NewChatHandler(svc, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/chat/cache?chatId=chat-9", nil)
	rec := httptest.NewRecorder()
	middleware.ExtractIdentity(http.HandlerFunc(h.ClearCache)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chat-9", svc.clearID)
	assert.Equal(t, "chat:chat-9", svc.clearKey)
}

func TestClearCacheRequiresChatID(t *testing.T) {
	h := NewChatHandler(&fakeDialog{}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/chat/cache", nil)
	rec := httptest.NewRecorder()
	middleware.ExtractIdentity(http.HandlerFunc(h.ClearCache)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	h := NewChatHandler(&fakeDialog{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Healthz(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}
