package intent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/healthcompass/assistant/internal/inference"
	"github.com/healthcompass/assistant/internal/llm"
	"github.com/healthcompass/assistant/internal/session"
)

// chatCompleter is the slice of the inference gateway the classifier needs.
type chatCompleter interface {
	Complete(ctx context.Context, req llm.Request) (llm.Response, error)
}

// Classifier runs the priority cascade for one message.
type Classifier struct {
	chat   chatCompleter
	logger *slog.Logger
}

// NewClassifier creates a classifier over the fallback chat chain.
func NewClassifier(chat chatCompleter, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{chat: chat, logger: logger}
}

// Classify runs the cascade. Earlier stages always win over later ones and
// the symptom escape always beats phase stickiness. sess may be nil;
// lastAssistant is the assistant's previous reply, used for stickiness.
func (c *Classifier) Classify(ctx context.Context, message string, sess *session.State, lastAssistant string) Classification {
	// 1. Safety screen. Blocked messages never reach an LLM.
	if severity, response, blocked := CheckSafety(message); blocked {
		c.logger.Warn("message blocked by safety screen", "severity", severity)
		return Classification{Intent: IntentBlocked, Severity: severity, Response: response}
	}

	// 2. Symptom reports are always general queries, even mid-creation.
	if IsSymptomReport(message) {
		return Classification{Intent: IntentGeneralQuery, Escape: true}
	}

	// 3. Schedule super-early detection: schedule lookups win over any
	// in-flight creation flow.
	if looksScheduleish(message) {
		if cls, ok := c.detectScheduleLookup(ctx, message); ok {
			cls.ClearSession = true
			return cls
		}
	}

	// 4. Off-topic messages clear any creation flow.
	if IsOffTopic(message) {
		return Classification{Intent: IntentOutOfScope, ClearSession: true}
	}

	// 5. Early schedule regex, a cheap corroboration before the creation path.
	if it, ok := MatchScheduleLookup(message); ok {
		return Classification{Intent: it, ClearSession: true, DoseStatus: doseStatusRe.MatchString(message)}
	}

	// 6. Creation fast-path. Skipped while a medicine-schedule flow is active
	// so a terse mid-flow answer like "add 2 doses" cannot hijack the flow.
	if sess == nil || sess.Phase != session.PhaseMedicineSchedule {
		if it, ok := MatchCreation(message); ok {
			return Classification{Intent: it}
		}
	}

	if MatchHealthScore(message) {
		return Classification{Intent: IntentHealthScore}
	}

	// 7. LLM general classification, heuristics as the on-error substitute.
	classified := c.classifyWithLLM(ctx, message)

	// 8. Phase stickiness: a pending field prompt keeps terse answers in the
	// active flow. The symptom escape already ran at stage 2.
	if sess != nil && sess.Phase.Creating() && classified == IntentGeneralQuery && AssistantAskedForField(lastAssistant) {
		return Classification{Intent: phaseIntent(sess.Phase), Sticky: true}
	}

	return Classification{Intent: classified}
}

var scheduleishRe = regexp.MustCompile(`(?i)\b(schedule|seduale|shedule|dose|take|taken|missed|upcoming|vaccin)\w*\b`)

func looksScheduleish(message string) bool {
	return scheduleishRe.MatchString(message) && !createVerbRe.MatchString(message)
}

const scheduleDetectPrompt = `You are an intent detector for a health assistant. Decide whether the user's message is a SCHEDULE LOOKUP: asking what medicines or vaccines they must take, or whether they took a dose.

Respond with ONLY this JSON, nothing else:
{"action": "check_schedule" | "check_vaccine_schedule" | "dose_status" | "general_query", "date": "YYYY-MM-DD or empty"}

- "check_schedule": asking about their medicine schedule or doses for a day.
- "check_vaccine_schedule": asking about their vaccination schedule.
- "dose_status": asking whether a dose was taken, missed or skipped.
- "general_query": anything else, including requests to CREATE a schedule.
- "date": the day the user refers to, resolved to YYYY-MM-DD, or "" if none.`

type scheduleDetectResult struct {
	Action string `json:"action"`
	Date   string `json:"date"`
}

// detectScheduleLookup asks the LLM whether the message is a schedule lookup.
// Gateway errors never propagate; they just mean "not detected here" and the
// cascade continues.
func (c *Classifier) detectScheduleLookup(ctx context.Context, message string) (Classification, bool) {
	resp, err := c.chat.Complete(ctx, llm.Request{
		System:      []string{scheduleDetectPrompt},
		Messages:    []llm.ChatMessage{{Role: llm.ChatRoleUser, Content: message}},
		Temperature: 0,
		MaxTokens:   100,
	})
	if err != nil {
		c.logger.Warn("schedule detection call failed, continuing cascade", "error", err)
		return Classification{}, false
	}

	var result scheduleDetectResult
	if err := inference.DecodeLoose(resp.Text, &result); err != nil {
		c.logger.Warn("schedule detection returned malformed JSON", "error", err)
		return Classification{}, false
	}

	switch result.Action {
	case "check_schedule":
		return Classification{Intent: IntentCheckMedicineSchedule, Date: result.Date}, true
	case "check_vaccine_schedule":
		return Classification{Intent: IntentCheckVaccineSchedule, Date: result.Date}, true
	case "dose_status":
		return Classification{Intent: IntentCheckMedicineSchedule, Date: result.Date, DoseStatus: true}, true
	}
	return Classification{}, false
}

const classifyPrompt = `You are an intent classifier for a health assistant. Classify the user's message into exactly one intent:

create_medicine_schedule - wants reminders for when to take a medicine
create_vaccine_schedule - wants to schedule a vaccination
check_medicine_schedule - asking what medicines to take / their schedule
check_vaccine_schedule - asking about their vaccination schedule
create_vaccine - wants to add a vaccine record
create_medicine - wants to add a medicine record
create_supplement - wants to add a supplement record
generate_health_score - wants a health assessment or score
general_query - any other health question

Respond with ONLY this JSON, nothing else:
{"intent": "<one of the intents above>"}`

var intentJSONRe = regexp.MustCompile(`"?intent"?\s*:\s*"([a-z_]+)"`)

// classifyWithLLM is the last cascade stage. Parse order: strict JSON, brace
// slice, bare regex over the raw text, then the deterministic heuristics.
func (c *Classifier) classifyWithLLM(ctx context.Context, message string) Intent {
	resp, err := c.chat.Complete(ctx, llm.Request{
		System:      []string{classifyPrompt},
		Messages:    []llm.ChatMessage{{Role: llm.ChatRoleUser, Content: message}},
		Temperature: 0,
		MaxTokens:   100,
	})
	if err != nil {
		c.logger.Warn("llm classification failed, using heuristics", "error", err)
		return FallbackClassify(message)
	}

	var parsed struct {
		Intent string `json:"intent"`
	}
	if err := inference.DecodeLoose(resp.Text, &parsed); err == nil && Valid(parsed.Intent) {
		return Intent(parsed.Intent)
	}
	if m := intentJSONRe.FindStringSubmatch(resp.Text); m != nil && Valid(m[1]) {
		return Intent(m[1])
	}

	c.logger.Warn("llm classification unparseable, using heuristics",
		"raw", truncateForLog(resp.Text))
	return FallbackClassify(message)
}

func phaseIntent(p session.Phase) Intent {
	switch p {
	case session.PhaseSupplement:
		return IntentCreateSupplement
	case session.PhaseMedicine:
		return IntentCreateMedicine
	case session.PhaseVaccine:
		return IntentCreateVaccine
	case session.PhaseMedicineSchedule:
		return IntentCreateMedicineSchedule
	case session.PhaseVaccineSchedule:
		return IntentCreateVaccineSchedule
	case session.PhaseHealthScore:
		return IntentHealthScore
	}
	return IntentGeneralQuery
}

// PhaseFor maps a creation intent to its session phase.
func PhaseFor(it Intent) (session.Phase, bool) {
	switch it {
	case IntentCreateSupplement:
		return session.PhaseSupplement, true
	case IntentCreateMedicine:
		return session.PhaseMedicine, true
	case IntentCreateVaccine:
		return session.PhaseVaccine, true
	case IntentCreateMedicineSchedule:
		return session.PhaseMedicineSchedule, true
	case IntentCreateVaccineSchedule:
		return session.PhaseVaccineSchedule, true
	case IntentHealthScore:
		return session.PhaseHealthScore, true
	}
	return session.PhaseIdle, false
}

func truncateForLog(s string) string {
	if len(s) <= 120 {
		return s
	}
	return fmt.Sprintf("%s...", s[:120])
}
