package slots

import (
	"context"
	"fmt"
	"regexp"

	"github.com/healthcompass/assistant/internal/llm"
	"github.com/healthcompass/assistant/internal/session"
)

// comprehensiveDetailRe spots mid-flow questions asking for the full picture
// of a vaccine (side effects, schedule, efficacy). Those answers come from the
// primary model rather than the slot extractor.
var comprehensiveDetailRe = regexp.MustCompile(
	`(?i)\b(side\s*effects?|tell\s+me\s+(?:everything|more|about)|what\s+(?:is|are|does)|how\s+(?:does|effective|safe)|full\s+details?|all\s+(?:the\s+)?(?:details?|information)|efficacy|safety|risks?\s+of)\b`)

func (e *Engine) stepVaccineRecord(ctx context.Context, sess *session.State, message string, history []llm.ChatMessage, token string) StepResult {
	if isBareConfirmation(message) {
		return StepResult{Ask: e.askNext(sess)}
	}

	if comprehensiveDetailRe.MatchString(message) {
		if answer, err := e.extract.Comprehensive(ctx, message); err == nil && answer != "" {
			return StepResult{Ask: answer + "\n\nNow, back to your vaccine record: " + e.missingFieldsAsk(sess)}
		}
		// the primary is down; keep collecting and let the user re-ask later
	}

	payload := e.extractTurn(ctx, sess, message, history, e.extractionPrompt(sess))
	if payload.NextStep == "exit" {
		return e.openExitDialog(sess, "vaccine")
	}

	collected, _ := payload.normalize()
	sess.MergeCollected(collected)

	if missing := e.missingFields(sess); len(missing) > 0 {
		return e.askOrRelist(message, payload, sess)
	}

	return e.completeVaccineRecord(ctx, sess, token)
}

func (e *Engine) completeVaccineRecord(ctx context.Context, sess *session.State, token string) StepResult {
	fields := map[string]any{
		"name":     sess.Collected[fieldVaccineName],
		"provider": sess.Collected[fieldProvider],
	}
	if v := sess.Collected[fieldDescription]; v != "" {
		fields["description"] = v
	}

	if err := e.domain.CreateVaccine(ctx, token, fields); err != nil {
		return e.createFailed(sess, err, "vaccine")
	}

	return StepResult{
		Done: true,
		Ask: fmt.Sprintf("✅ Your vaccine %q has been added successfully! Would you like to schedule a dose for it?",
			sess.Collected[fieldVaccineName]),
	}
}
