package slots

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/healthcompass/assistant/internal/domainapi"
	"github.com/healthcompass/assistant/internal/llm"
	"github.com/healthcompass/assistant/internal/session"
	"github.com/healthcompass/assistant/internal/validate"
)

// stepMedicineRecord handles both the medicine and supplement creation flows;
// they share a field set and differ only in how the record is labelled.
func (e *Engine) stepMedicineRecord(ctx context.Context, sess *session.State, message string, history []llm.ChatMessage, token, entity string) StepResult {
	if isBareConfirmation(message) {
		return StepResult{Ask: e.askNext(sess)}
	}

	payload := e.extractTurn(ctx, sess, message, history, e.extractionPrompt(sess))
	if payload.NextStep == "exit" {
		return e.openExitDialog(sess, entity)
	}

	collected, _ := payload.normalize()
	rehomeGenericDate(sess.Phase, collected)
	sess.MergeCollected(collected)

	if msg := e.validateMedicineRecord(sess); msg != "" {
		return StepResult{Ask: msg}
	}

	if missing := e.missingFields(sess); len(missing) > 0 {
		if wantsDone(message, payload) {
			// the defaultable trio can be filled in at completion, anything
			// else still has to come from the user
			if onlyDefaultable(missing) {
				return e.completeMedicineRecord(ctx, sess, token, entity)
			}
			return StepResult{Ask: "Almost there! " + e.missingFieldsAsk(sess)}
		}
		return StepResult{Ask: e.askWith(payload, sess)}
	}

	return e.completeMedicineRecord(ctx, sess, token, entity)
}

var doneRe = regexp.MustCompile(`(?i)^\s*(done|that'?s\s+(?:all|it)|finish(?:ed)?|save\s+it|nothing\s+else)\s*\.?!?\s*$`)

// wantsDone reports whether the user asked to finish, either verbatim or via
// the extractor's own judgement. The missing-field list is still recomputed
// here, never taken from the extractor.
func wantsDone(message string, payload extractionPayload) bool {
	return payload.NextStep == "done" || doneRe.MatchString(message)
}

var defaultableFields = map[string]bool{
	fieldSinglePack: true,
	fieldMfgDate:    true,
	fieldExpDate:    true,
}

func onlyDefaultable(missing []string) bool {
	for _, f := range missing {
		if !defaultableFields[f] {
			return false
		}
	}
	return true
}

// validateMedicineRecord checks the merged draft in field order and stops at
// the first violation, clearing the offending field so it is re-collected.
func (e *Engine) validateMedicineRecord(sess *session.State) string {
	now := e.now()

	for _, f := range []string{fieldPrice, fieldQuantity} {
		v := sess.Collected[f]
		if v == "" {
			continue
		}
		if msg := validate.WholeNumber(f, v); msg != "" {
			sess.ClearFields(f)
			return msg
		}
	}

	mfgDate, mfgOK := e.parsedDate(sess, fieldMfgDate)
	if raw := sess.Collected[fieldMfgDate]; raw != "" {
		if !mfgOK {
			sess.ClearFields(fieldMfgDate)
			return unreadableDate(fieldMfgDate, raw)
		}
		if msg := validate.DateNotFuture("manufacturing date", mfgDate, now); msg != "" {
			sess.ClearFields(fieldMfgDate)
			return msg
		}
	}

	if raw := sess.Collected[fieldExpDate]; raw != "" {
		expDate, ok := e.parsedDate(sess, fieldExpDate)
		if !ok {
			sess.ClearFields(fieldExpDate)
			return unreadableDate(fieldExpDate, raw)
		}
		if msg := validate.DateStrictlyFuture("expiry date", expDate, now); msg != "" {
			sess.ClearFields(fieldExpDate)
			return msg
		}
		if mfgOK {
			if msg := validate.DateNotBefore("expiry date", "manufacturing date", expDate, mfgDate); msg != "" {
				sess.ClearFields(fieldExpDate)
				return msg
			}
		}
	}
	return ""
}

// completeMedicineRecord fills the well-known defaults and persists. Defaults
// apply only at completion so an explicit value always wins.
func (e *Engine) completeMedicineRecord(ctx context.Context, sess *session.State, token, entity string) StepResult {
	now := e.now()
	if sess.Collected[fieldSinglePack] == "" {
		sess.Collected[fieldSinglePack] = "1 pack"
	}
	if sess.Collected[fieldMfgDate] == "" {
		sess.Collected[fieldMfgDate] = validate.ISODate(now)
	}
	if sess.Collected[fieldExpDate] == "" {
		sess.Collected[fieldExpDate] = validate.ISODate(now.AddDate(2, 0, 0))
	}

	fields := map[string]any{
		"name":       sess.Collected[fieldMedicineName],
		"dosage":     sess.Collected[fieldDosage],
		"price":      intOrRaw(sess.Collected[fieldPrice]),
		"quantity":   intOrRaw(sess.Collected[fieldQuantity]),
		"singlePack": sess.Collected[fieldSinglePack],
		"mfgDate":    e.isoOrRaw(sess, fieldMfgDate),
		"expDate":    e.isoOrRaw(sess, fieldExpDate),
		"type":       entity,
	}
	for _, opt := range []string{fieldDescription, fieldTakenFor, fieldRisks} {
		if v := sess.Collected[opt]; v != "" {
			fields[opt] = v
		}
	}

	if err := e.domain.CreateMedicine(ctx, token, fields); err != nil {
		return e.createFailed(sess, err, entity)
	}

	return StepResult{
		Done: true,
		Ask: fmt.Sprintf("✅ Your %s %q has been added successfully! Is there anything else I can help you with?",
			entity, sess.Collected[fieldMedicineName]),
	}
}

// createFailed converts a domain-service error into guidance, clearing only
// the colliding fields so everything else the user typed survives the retry.
func (e *Engine) createFailed(sess *session.State, err error, entity string) StepResult {
	kind := domainapi.KindOf(err)
	e.logger.Warn("create call failed", "entity", entity, "kind", string(kind), "error", err)
	if fields := domainapi.CollidingFields(kind, entity); len(fields) > 0 {
		sess.ClearFields(fields...)
		if contains(fields, fieldStartDate) || contains(fields, fieldDate) {
			sess.Resolved = nil
		}
	}
	return StepResult{Ask: domainapi.Guidance(kind, entity)}
}

func (e *Engine) openExitDialog(sess *session.State, entity string) StepResult {
	sess.ExitPending = true
	return StepResult{Ask: fmt.Sprintf("It sounds like you want to stop adding this %s. Would you like to:\n"+
		"1. Cancel the %s creation\n"+
		"2. Continue where we left off\n"+
		"3. Ask about something different", entity, entity)}
}

// askNext produces the default question for the first missing field.
func (e *Engine) askNext(sess *session.State) string {
	missing := e.missingFields(sess)
	if len(missing) == 0 {
		return "I have everything I need. Saving now."
	}
	return fmt.Sprintf("Great! Please provide %s.", fieldLabel(missing[0]))
}

// askOrRelist answers an incomplete turn: a premature "done" gets the
// recomputed missing-field list, anything else gets the next question.
func (e *Engine) askOrRelist(message string, payload extractionPayload, sess *session.State) StepResult {
	if wantsDone(message, payload) {
		return StepResult{Ask: "Almost there! " + e.missingFieldsAsk(sess)}
	}
	return StepResult{Ask: e.askWith(payload, sess)}
}

// askWith prefers the extractor's own phrasing when it supplied one.
func (e *Engine) askWith(payload extractionPayload, sess *session.State) string {
	if ask := strings.TrimSpace(payload.Ask); ask != "" {
		return ask
	}
	return e.askNext(sess)
}

func (e *Engine) parsedDate(sess *session.State, field string) (time.Time, bool) {
	raw := sess.Collected[field]
	if raw == "" {
		return time.Time{}, false
	}
	return validate.ParseDate(raw, e.now())
}

func (e *Engine) isoOrRaw(sess *session.State, field string) string {
	if d, ok := e.parsedDate(sess, field); ok {
		return validate.ISODate(d)
	}
	return sess.Collected[field]
}

func intOrRaw(v string) any {
	if n, ok := parseIntField(v); ok {
		return n
	}
	return v
}

func unreadableDate(field, raw string) string {
	return fmt.Sprintf("⚠️ I couldn't understand the %s %q. Please use a format like \"15 June 2026\" or \"2026-06-15\".",
		fieldLabel(field), raw)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// rehomeGenericDate maps the salvage layer's generic date slot onto the
// phase's real date field so a lone "tomorrow" still lands somewhere useful.
func rehomeGenericDate(phase session.Phase, collected map[string]string) {
	v, ok := collected[fieldDate]
	if !ok || phase == session.PhaseVaccineSchedule {
		return
	}
	delete(collected, fieldDate)
	switch phase {
	case session.PhaseMedicineSchedule:
		if collected[fieldStartDate] == "" {
			collected[fieldStartDate] = v
		}
	case session.PhaseSupplement, session.PhaseMedicine:
		// a bare date on a medicine record is ambiguous between mfg and
		// expiry, so it is dropped rather than guessed
	}
}
