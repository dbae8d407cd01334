// Package handlers holds the HTTP endpoints of the assistant API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/healthcompass/assistant/internal/dialog"
	"github.com/healthcompass/assistant/internal/http/middleware"
	"github.com/healthcompass/assistant/internal/session"
	"github.com/healthcompass/assistant/pkg/logging"
)

// chatService is the slice of the dialog layer the handler needs.
type chatService interface {
	Handle(ctx context.Context, req dialog.Request) dialog.Reply
	ClearCache(ctx context.Context, sessionKey, chatID string) error
}

// ChatHandler serves the conversational endpoints.
type ChatHandler struct {
	dialog chatService
	logger *logging.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(svc chatService, logger *logging.Logger) *ChatHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{dialog: svc, logger: logger}
}

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Message  string `json:"message,omitempty"`
	ChatID   string `json:"chatId,omitempty"`
	AudioURL string `json:"audioUrl,omitempty"`
}

// ChatTurn is one message of the returned exchange.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatData is the data block of the chat response envelope.
type ChatData struct {
	ChatID   string     `json:"chatId"`
	Messages []ChatTurn `json:"messages"`
}

// Chat handles one conversational turn.
// POST /api/v1/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	req.AudioURL = strings.TrimSpace(req.AudioURL)
	if req.Message == "" && req.AudioURL == "" {
		jsonError(w, "message or audioUrl is required", http.StatusBadRequest)
		return
	}

	ident := middleware.IdentityFromContext(r.Context())

	// The session key sees only a chat id the caller actually sent; a
	// generated one would shadow the anonymous-token and IP fallbacks and
	// hand anonymous callers a fresh session every turn.
	sessionKey := session.Key(ident.UserID, strings.TrimSpace(req.ChatID), ident.AnonToken, ident.IP)

	chatID := strings.TrimSpace(req.ChatID)
	if chatID == "" {
		chatID = uuid.NewString()
	}

	reply := h.dialog.Handle(r.Context(), dialog.Request{
		Message:    req.Message,
		AudioURL:   req.AudioURL,
		SessionKey: sessionKey,
		ChatID:     chatID,
		UserToken:  ident.Token,
	})

	writeEnvelope(w, http.StatusOK, "Message processed successfully", ChatData{
		ChatID: chatID,
		Messages: []ChatTurn{
			{Role: "user", Content: req.Message},
			{Role: "bot", Content: reply.Text},
		},
	})
}

// ClearCache drops the stored conversation state for a chat.
// DELETE /api/v1/chat/cache?chatId=...
func (h *ChatHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	chatID := strings.TrimSpace(r.URL.Query().Get("chatId"))
	if chatID == "" {
		jsonError(w, "chatId is required", http.StatusBadRequest)
		return
	}

	ident := middleware.IdentityFromContext(r.Context())
	key := session.Key(ident.UserID, chatID, ident.AnonToken, ident.IP)
	if err := h.dialog.ClearCache(r.Context(), key, chatID); err != nil {
		h.logger.Error("cache clear failed", "error", err, "chat_id", chatID)
		jsonError(w, "failed to clear chat cache", http.StatusInternalServerError)
		return
	}

	writeEnvelope(w, http.StatusOK, "Chat cache cleared", ChatData{ChatID: chatID, Messages: []ChatTurn{}})
}

// Healthz reports liveness.
// GET /healthz
func (h *ChatHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
