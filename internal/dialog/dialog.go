// Package dialog is the orchestrator behind the chat endpoint. It sanitizes
// the inbound message, classifies it, routes it to the right flow, persists
// the transcript, and shields the caller from panics in any stage.
package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/healthcompass/assistant/internal/healthscore"
	"github.com/healthcompass/assistant/internal/history"
	"github.com/healthcompass/assistant/internal/intent"
	"github.com/healthcompass/assistant/internal/llm"
	"github.com/healthcompass/assistant/internal/observability/metrics"
	"github.com/healthcompass/assistant/internal/session"
	"github.com/healthcompass/assistant/internal/slots"
)

// classifier decides what one message means.
type classifier interface {
	Classify(ctx context.Context, message string, sess *session.State, lastAssistant string) intent.Classification
}

// slotEngine advances an in-flight creation flow.
type slotEngine interface {
	Step(ctx context.Context, sess *session.State, message string, hist []llm.ChatMessage, token string) slots.StepResult
}

// answerer is the slice of the inference gateway the dialog needs.
type answerer interface {
	FreeformAnswer(ctx context.Context, query string, hist []llm.ChatMessage) (string, error)
	ScheduleLookup(ctx context.Context, query, date, userToken string) (string, error)
	Complete(ctx context.Context, req llm.Request) (llm.Response, error)
}

// Transcriber converts a voice note into text. Optional; without one, audio
// messages are rejected with a friendly reply.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

// Request is one inbound chat turn.
type Request struct {
	Message    string
	AudioURL   string
	SessionKey string
	ChatID     string
	UserToken  string
}

// Reply is the assistant's answer for one turn.
type Reply struct {
	Text   string
	Intent string
}

const (
	technicalIssueReply = "I encountered a technical issue while processing your message. You can:\n" +
		"• Try again in a moment\n" +
		"• Rephrase your question\n" +
		"• Ask me something else"
	offTopicReply = "I'm your health assistant, so I can only help with health, medicines, vaccines, schedules, and wellness. Is there anything health-related I can help you with?"
	rateLimitedReply = "You're sending messages very quickly! Please wait a moment and try again."
	emptyMessageReply = "I didn't catch that. Could you type your question?"
	noAudioReply      = "I can't listen to voice notes yet. Could you type your question instead?"
)

// Service wires the whole pipeline together.
type Service struct {
	classify    classifier
	engine      slotEngine
	gateway     answerer
	sessions    session.Store
	transcripts history.Store
	transcriber Transcriber
	limiter     *Limiter
	metrics     *metrics.ChatMetrics
	logger      *slog.Logger
}

// New creates the dialog service. transcriber and chatMetrics may be nil.
func New(classify classifier, engine slotEngine, gateway answerer, sessions session.Store,
	transcripts history.Store, limiter *Limiter, opts ...ServiceOption) *Service {
	s := &Service{
		classify:    classify,
		engine:      engine,
		gateway:     gateway,
		sessions:    sessions,
		transcripts: transcripts,
		limiter:     limiter,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

func WithTranscriber(t Transcriber) ServiceOption {
	return func(s *Service) { s.transcriber = t }
}

func WithMetrics(m *metrics.ChatMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// Handle processes one turn end to end. It never panics and never returns an
// error; every failure becomes a friendly reply.
func (s *Service) Handle(ctx context.Context, req Request) (reply Reply) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic while handling message", "panic", r, "stack", string(debug.Stack()))
			reply = Reply{Text: technicalIssueReply, Intent: "error"}
		}
		s.metrics.ObserveMessageLatency(reply.Intent, time.Since(started).Seconds())
	}()

	if s.limiter != nil && !s.limiter.Allow(req.SessionKey) {
		s.metrics.ObserveMessage("rate_limited", "rejected")
		return Reply{Text: rateLimitedReply, Intent: "rate_limited"}
	}

	message := req.Message
	if strings.TrimSpace(message) == "" && req.AudioURL != "" {
		message = s.transcribe(ctx, req.AudioURL)
		if message == "" {
			return Reply{Text: noAudioReply, Intent: "audio_unavailable"}
		}
	}
	message = Sanitize(message)
	if message == "" {
		return Reply{Text: emptyMessageReply, Intent: "empty"}
	}

	sess := s.loadSession(ctx, req.SessionKey)
	entries := s.loadTranscript(ctx, req.ChatID)
	lastAssistant := lastBotMessage(entries)
	hist := history.Recent(entries, 10)

	normalized := message
	if !SkipNormalization(message) && !(sess != nil && sess.Phase.Creating()) {
		normalized = Normalize(ctx, s.gateway, message)
	}

	cls := s.classify.Classify(ctx, normalized, sess, lastAssistant)
	reply = s.dispatch(ctx, req, cls, sess, normalized, hist)

	s.appendTranscript(ctx, req.ChatID, message, reply.Text)
	s.metrics.ObserveMessage(reply.Intent, "ok")
	return reply
}

// dispatch routes one classified message and settles the session afterwards.
func (s *Service) dispatch(ctx context.Context, req Request, cls intent.Classification,
	sess *session.State, message string, hist []llm.ChatMessage) Reply {

	it := string(cls.Intent)

	if cls.Intent == intent.IntentBlocked {
		// the draft survives a blocked message so the flow can resume
		return Reply{Text: cls.Response, Intent: it}
	}

	if cls.ClearSession && sess != nil {
		s.evictSession(ctx, req.SessionKey)
		sess = nil
	}

	switch cls.Intent {
	case intent.IntentOutOfScope:
		return Reply{Text: offTopicReply, Intent: it}

	case intent.IntentCheckMedicineSchedule, intent.IntentCheckVaccineSchedule:
		query := message
		if cls.DoseStatus {
			query = "dose status: " + message
		}
		answer, err := s.gateway.ScheduleLookup(ctx, query, cls.Date, req.UserToken)
		if err != nil {
			s.logger.Error("schedule lookup failed", "error", err)
			return Reply{Text: technicalIssueReply, Intent: it}
		}
		return Reply{Text: answer, Intent: it}

	case intent.IntentHealthScore:
		return s.healthScoreTurn(ctx, req, sess, message, it)

	case intent.IntentCreateSupplement, intent.IntentCreateMedicine, intent.IntentCreateVaccine,
		intent.IntentCreateMedicineSchedule, intent.IntentCreateVaccineSchedule:
		phase, _ := intent.PhaseFor(cls.Intent)
		sess = slots.Begin(sess, phase)
		return s.slotTurn(ctx, req, sess, message, hist, it)

	default:
		if sess != nil && sess.Phase == session.PhaseHealthScore {
			return s.healthScoreTurn(ctx, req, sess, message, it)
		}
		if sess != nil && sess.Phase.Creating() && !cls.Escape {
			// mid-flow turns stay in the flow even when classification saw a
			// plain query; a symptom escape gets a direct answer instead,
			// with the draft left intact so the flow can resume
			return s.slotTurn(ctx, req, sess, message, hist, it)
		}
		answer, err := s.gateway.FreeformAnswer(ctx, message, hist)
		if err != nil {
			s.logger.Error("freeform answer failed", "error", err)
			return Reply{Text: technicalIssueReply, Intent: it}
		}
		return Reply{Text: answer, Intent: it}
	}
}

func (s *Service) slotTurn(ctx context.Context, req Request, sess *session.State,
	message string, hist []llm.ChatMessage, it string) Reply {

	res := s.engine.Step(ctx, sess, message, hist, req.UserToken)
	switch {
	case res.Done, res.Cancelled:
		s.evictSession(ctx, req.SessionKey)
	case res.Handoff:
		s.evictSession(ctx, req.SessionKey)
		answer, err := s.gateway.FreeformAnswer(ctx, message, hist)
		if err != nil {
			s.logger.Error("handoff answer failed", "error", err)
			return Reply{Text: technicalIssueReply, Intent: it}
		}
		return Reply{Text: answer, Intent: it}
	default:
		s.saveSession(ctx, req.SessionKey, sess)
	}
	return Reply{Text: res.Ask, Intent: it}
}

func (s *Service) healthScoreTurn(ctx context.Context, req Request, sess *session.State, message string, it string) Reply {
	var res healthscore.Result
	if sess == nil || sess.Phase != session.PhaseHealthScore {
		if sess == nil {
			sess = session.New(session.PhaseHealthScore)
		}
		res = healthscore.Begin(sess)
	} else {
		res = healthscore.Step(sess, message)
	}

	if res.Cancelled {
		s.evictSession(ctx, req.SessionKey)
	} else {
		// the finished session survives so the next run can compare scores
		s.saveSession(ctx, req.SessionKey, sess)
		if res.Done {
			sess.Phase = session.PhaseIdle
			sess.HealthAnswers = nil
			s.saveSession(ctx, req.SessionKey, sess)
		}
	}
	return Reply{Text: res.Reply, Intent: it}
}

// ClearCache drops the session, transcript and rate window for one
// conversation.
func (s *Service) ClearCache(ctx context.Context, sessionKey, chatID string) error {
	if err := s.sessions.Evict(ctx, sessionKey); err != nil {
		return fmt.Errorf("dialog: failed to clear session: %w", err)
	}
	if err := s.transcripts.Clear(ctx, chatID); err != nil {
		return fmt.Errorf("dialog: failed to clear transcript: %w", err)
	}
	if s.limiter != nil {
		s.limiter.Clear(sessionKey)
	}
	return nil
}

func (s *Service) transcribe(ctx context.Context, audioURL string) string {
	if s.transcriber == nil {
		return ""
	}
	text, err := s.transcriber.Transcribe(ctx, audioURL)
	if err != nil {
		s.logger.Warn("transcription failed", "error", err)
		return ""
	}
	return text
}

func (s *Service) loadSession(ctx context.Context, key string) *session.State {
	sess, err := s.sessions.Get(ctx, key)
	if err != nil {
		s.logger.Warn("session load failed, continuing stateless", "error", err)
		return nil
	}
	return sess
}

func (s *Service) saveSession(ctx context.Context, key string, sess *session.State) {
	if err := s.sessions.Save(ctx, key, sess); err != nil {
		s.logger.Error("session save failed", "error", err)
	}
}

func (s *Service) evictSession(ctx context.Context, key string) {
	if err := s.sessions.Evict(ctx, key); err != nil {
		s.logger.Error("session evict failed", "error", err)
	}
}

func (s *Service) loadTranscript(ctx context.Context, chatID string) []history.Entry {
	if chatID == "" {
		return nil
	}
	entries, err := s.transcripts.Load(ctx, chatID)
	if err != nil {
		s.logger.Warn("transcript load failed, continuing without context", "error", err)
		return nil
	}
	return entries
}

func (s *Service) appendTranscript(ctx context.Context, chatID, userMessage, botReply string) {
	if chatID == "" {
		return
	}
	now := time.Now()
	err := s.transcripts.Append(ctx, chatID,
		history.Entry{Role: "user", Content: userMessage, SentAt: now},
		history.Entry{Role: "bot", Content: botReply, SentAt: now},
	)
	if err != nil {
		s.logger.Error("transcript append failed", "error", err)
	}
}

func lastBotMessage(entries []history.Entry) string {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Role == "bot" {
			return entries[i].Content
		}
	}
	return ""
}
