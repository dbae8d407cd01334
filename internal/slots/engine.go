// Package slots holds the per-entity slot-filling state machines. Each turn
// consumes one user message, merges whatever the extractor could pull out of
// it, validates the merged draft, and either asks for the next field or
// completes the record against the domain service. A parse failure is never
// fatal: extraction retries once with a stricter prompt, then falls back to
// regex salvage, then to a field-by-field re-ask.
package slots

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/healthcompass/assistant/internal/domainapi"
	"github.com/healthcompass/assistant/internal/llm"
	"github.com/healthcompass/assistant/internal/session"
)

// extractor is the slice of the inference gateway the engines need.
type extractor interface {
	StructuredExtract(ctx context.Context, systemPrompt string, history []llm.ChatMessage, out any) error
	Comprehensive(ctx context.Context, query string) (string, error)
}

// domainService is the slice of the domain client the engines need.
type domainService interface {
	ListMedicines(ctx context.Context, token string) ([]domainapi.CatalogItem, error)
	ListVaccines(ctx context.Context, token string) ([]domainapi.CatalogItem, error)
	CreateMedicine(ctx context.Context, token string, fields map[string]any) error
	CreateVaccine(ctx context.Context, token string, fields map[string]any) error
	CreateMedicineSchedule(ctx context.Context, token string, fields map[string]any) error
	CreateVaccineSchedule(ctx context.Context, token string, fields map[string]any) error
}

// StepResult is one turn's outcome.
type StepResult struct {
	// Ask is the reply to send to the user.
	Ask string
	// Done marks a completed, persisted record; the session is gone.
	Done bool
	// Cancelled marks an explicit cancellation; the session is gone.
	Cancelled bool
	// Handoff asks the orchestrator to re-classify the triggering message
	// with no session active.
	Handoff bool
}

// Engine drives the slot-filling flows.
type Engine struct {
	extract extractor
	domain  domainService
	logger  *slog.Logger
	now     func() time.Time
}

// NewEngine creates the slot-filling engine.
func NewEngine(extract extractor, domain domainService, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{extract: extract, domain: domain, logger: logger, now: time.Now}
}

// Step advances the flow the session is in by one user message. The session
// is mutated in place; the caller persists or evicts it depending on the
// result.
func (e *Engine) Step(ctx context.Context, sess *session.State, message string, history []llm.ChatMessage, token string) StepResult {
	if sess.ExitPending {
		return e.stepExitDialog(ctx, sess, message)
	}

	if isHelpCommand(message) {
		return StepResult{Ask: e.helpMessage(sess)}
	}

	switch sess.Phase {
	case session.PhaseSupplement:
		return e.stepMedicineRecord(ctx, sess, message, history, token, "supplement")
	case session.PhaseMedicine:
		return e.stepMedicineRecord(ctx, sess, message, history, token, "medicine")
	case session.PhaseVaccine:
		return e.stepVaccineRecord(ctx, sess, message, history, token)
	case session.PhaseMedicineSchedule:
		return e.stepMedicineSchedule(ctx, sess, message, history, token)
	case session.PhaseVaccineSchedule:
		return e.stepVaccineSchedule(ctx, sess, message, history, token)
	}

	// an unknown phase cannot be advanced; hand the message back
	return StepResult{Handoff: true}
}

// Begin resets the session to the given phase, discarding any prior draft
// from a different entity so fields never leak across types.
func Begin(sess *session.State, phase session.Phase) *session.State {
	if sess == nil || sess.Phase != phase {
		return session.New(phase)
	}
	return sess
}

const cancelledReply = "Your %s creation has been cancelled. How else can I assist you today?"

var (
	affirmativeRe = regexp.MustCompile(`(?i)^\s*(yes|yeah|yep|y|cancel|stop|quit|1)\s*\.?\s*$`)
	negativeRe    = regexp.MustCompile(`(?i)^\s*(no|nope|n|continue|resume|keep\s+going|2)\s*\.?\s*$`)
	differentRe   = regexp.MustCompile(`(?i)\b(different|something\s+else|other\s+question|change\s+(?:the\s+)?topic|3)\b`)
)

// stepExitDialog resolves the three-way cancellation confirmation opened when
// the extractor saw a topic switch.
func (e *Engine) stepExitDialog(ctx context.Context, sess *session.State, message string) StepResult {
	switch {
	case affirmativeRe.MatchString(message):
		return StepResult{
			Ask:       fmt.Sprintf(cancelledReply, entityName(sess.Phase)),
			Cancelled: true,
		}
	case negativeRe.MatchString(message):
		sess.ExitPending = false
		return StepResult{Ask: "Great, let's continue! " + e.missingFieldsAsk(sess)}
	case differentRe.MatchString(message):
		return StepResult{Handoff: true}
	default:
		// an unrelated message during the confirm counts as a topic switch
		return StepResult{Handoff: true}
	}
}

func isHelpCommand(message string) bool {
	return strings.EqualFold(strings.TrimSpace(message), "help")
}

// helpMessage lists the missing fields without mutating the draft.
func (e *Engine) helpMessage(sess *session.State) string {
	missing := e.missingFields(sess)
	if len(missing) == 0 {
		return "You've provided everything I need! Say \"done\" or confirm to finish, or \"cancel\" to stop."
	}
	labels := make([]string, 0, len(missing))
	for _, f := range missing {
		labels = append(labels, fieldLabel(f))
	}
	return fmt.Sprintf("Here's where we are with your %s: I still need %s. You can also type \"cancel\" to stop.",
		entityName(sess.Phase), strings.Join(labels, ", "))
}

func (e *Engine) missingFieldsAsk(sess *session.State) string {
	missing := e.missingFields(sess)
	if len(missing) == 0 {
		return "I have everything I need."
	}
	labels := make([]string, 0, len(missing))
	for _, f := range missing {
		labels = append(labels, fieldLabel(f))
	}
	return fmt.Sprintf("Please provide: %s.", strings.Join(labels, ", "))
}

// missingFields recomputes the required fields absent from the draft. The
// engine trusts this list, never the extractor's own "done" claim.
func (e *Engine) missingFields(sess *session.State) []string {
	required := requiredFields(sess.Phase)
	missing := make([]string, 0, len(required))
	for _, f := range required {
		if f == fieldDoseTimes {
			if len(sess.DoseTimes) == 0 {
				missing = append(missing, f)
			}
			continue
		}
		if strings.TrimSpace(sess.Collected[f]) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// simple confirmations must not be mined for field values
var confirmationWords = map[string]bool{
	"yes": true, "ok": true, "okay": true, "sure": true, "fine": true,
	"good": true, "medicine": true, "supplement": true, "vaccine": true,
}

func isBareConfirmation(message string) bool {
	return confirmationWords[strings.ToLower(strings.TrimSpace(message))]
}

func parseIntField(v string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func entityName(p session.Phase) string {
	switch p {
	case session.PhaseSupplement:
		return "supplement"
	case session.PhaseMedicine:
		return "medicine"
	case session.PhaseVaccine:
		return "vaccine"
	case session.PhaseMedicineSchedule:
		return "medicine schedule"
	case session.PhaseVaccineSchedule:
		return "vaccine schedule"
	}
	return "record"
}

// extractTurn runs the structured extraction with its bounded retry, then the
// regex salvage, and finally the field-by-field re-ask. It always produces a
// usable payload.
func (e *Engine) extractTurn(ctx context.Context, sess *session.State, message string, history []llm.ChatMessage, prompt string) extractionPayload {
	turn := append(append([]llm.ChatMessage{}, history...), llm.ChatMessage{
		Role:    llm.ChatRoleUser,
		Content: message,
	})

	var payload extractionPayload
	if err := e.extract.StructuredExtract(ctx, prompt, turn, &payload); err == nil {
		return payload
	}

	e.logger.Warn("extraction exhausted retries, salvaging with regex", "phase", sess.Phase)
	if salvaged, ok := salvage(message); ok {
		return salvaged
	}

	return extractionPayload{
		NextStep: firstOrEmpty(e.missingFields(sess)),
		Ask: "I had trouble reading that. Let's go step by step — " +
			strings.TrimSuffix(e.missingFieldsAsk(sess), "."),
	}
}

func firstOrEmpty(fields []string) string {
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
