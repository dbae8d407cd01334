package slots

import (
	"context"
	"fmt"
	"strings"

	"github.com/healthcompass/assistant/internal/domainapi"
	"github.com/healthcompass/assistant/internal/llm"
	"github.com/healthcompass/assistant/internal/resolver"
	"github.com/healthcompass/assistant/internal/session"
	"github.com/healthcompass/assistant/internal/validate"
)

func (e *Engine) stepMedicineSchedule(ctx context.Context, sess *session.State, message string, history []llm.ChatMessage, token string) StepResult {
	if isBareConfirmation(message) {
		return StepResult{Ask: e.askNext(sess)}
	}

	payload := e.extractTurn(ctx, sess, message, history, e.extractionPrompt(sess))
	if payload.NextStep == "exit" {
		return e.openExitDialog(sess, "medicine schedule")
	}

	collected, doseTimes := payload.normalize()
	rehomeGenericDate(sess.Phase, collected)
	if collected[fieldMedicineName] != "" && sess.Resolved != nil &&
		!strings.EqualFold(collected[fieldMedicineName], sess.Resolved.Name) {
		sess.Resolved = nil
	}
	if collected[fieldQuantity] != "" {
		sess.QuantityDerived = false
	}
	sess.MergeCollected(collected)
	if msg := e.mergeDoseTimes(sess, doseTimes); msg != "" {
		return StepResult{Ask: msg}
	}

	if msg := e.validateMedicineSchedule(sess); msg != "" {
		return StepResult{Ask: msg}
	}

	e.deriveScheduleQuantity(sess)

	if missing := e.missingFields(sess); len(missing) > 0 {
		return e.askOrRelist(message, payload, sess)
	}

	return e.completeMedicineSchedule(ctx, sess, token)
}

// mergeDoseTimes appends newly supplied times, rejecting vague ones before
// they enter the draft.
func (e *Engine) mergeDoseTimes(sess *session.State, incoming []string) string {
	for _, t := range incoming {
		if validate.IsVagueTime(t) {
			return fmt.Sprintf("⚠️ %q is too vague for a dose time. Please give a specific time like \"9:00 AM\" or \"18:30\".", t)
		}
		normalized := validate.NormalizeClockTime(t)
		if normalized == "" {
			normalized = strings.TrimSpace(t)
		}
		if !containsFold(sess.DoseTimes, normalized) {
			sess.DoseTimes = append(sess.DoseTimes, normalized)
		}
	}
	return ""
}

func (e *Engine) validateMedicineSchedule(sess *session.State) string {
	now := e.now()

	for _, f := range []string{fieldTotalDosesPerDay, fieldQuantity} {
		v := sess.Collected[f]
		if v == "" {
			continue
		}
		if msg := validate.WholeNumber(f, v); msg != "" {
			sess.ClearFields(f)
			return msg
		}
	}

	start, startOK := e.parsedDate(sess, fieldStartDate)
	if raw := sess.Collected[fieldStartDate]; raw != "" {
		if !startOK {
			sess.ClearFields(fieldStartDate)
			return unreadableDate(fieldStartDate, raw)
		}
		if msg := validate.DateNotPast("start date", start, now); msg != "" {
			sess.ClearFields(fieldStartDate)
			return msg
		}
	}

	if raw := sess.Collected[fieldEndDate]; raw != "" {
		end, ok := e.parsedDate(sess, fieldEndDate)
		if !ok {
			sess.ClearFields(fieldEndDate)
			return unreadableDate(fieldEndDate, raw)
		}
		if msg := validate.DateNotPast("end date", end, now); msg != "" {
			sess.ClearFields(fieldEndDate)
			return msg
		}
		if startOK {
			if msg := validate.DateNotBefore("end date", "start date", end, start); msg != "" {
				sess.ClearFields(fieldEndDate)
				return msg
			}
		}
	}

	if startOK {
		for i, t := range sess.DoseTimes {
			if msg := validate.TimeNotPastIfToday("dose time", t, start, now); msg != "" {
				sess.DoseTimes = append(sess.DoseTimes[:i], sess.DoseTimes[i+1:]...)
				return msg
			}
		}
	}
	return ""
}

// deriveScheduleQuantity computes the total dose count from the date span and
// the daily rate when the user did not state it outright. A previously
// derived value is recomputed, so clearing the dates after a duplicate error
// never carries the old span's total into the retry.
func (e *Engine) deriveScheduleQuantity(sess *session.State) {
	if sess.Collected[fieldQuantity] != "" && !sess.QuantityDerived {
		return
	}
	perDay, perDayOK := parseIntField(sess.Collected[fieldTotalDosesPerDay])
	start, startOK := e.parsedDate(sess, fieldStartDate)
	end, endOK := e.parsedDate(sess, fieldEndDate)
	if !perDayOK || !startOK || !endOK {
		if sess.QuantityDerived {
			sess.ClearFields(fieldQuantity)
			sess.QuantityDerived = false
		}
		return
	}
	days := int(validate.Midnight(end).Sub(validate.Midnight(start)).Hours()/24) + 1
	if days <= 0 {
		return
	}
	sess.Collected[fieldQuantity] = fmt.Sprintf("%d", days*perDay)
	sess.QuantityDerived = true
}

func (e *Engine) completeMedicineSchedule(ctx context.Context, sess *session.State, token string) StepResult {
	perDay, _ := parseIntField(sess.Collected[fieldTotalDosesPerDay])
	if msg := validate.DoseCount(sess.DoseTimes, perDay); msg != "" {
		return StepResult{Ask: msg}
	}

	if sess.Resolved == nil {
		result, ask, err := e.resolveCatalog(ctx, token, sess.Collected[fieldMedicineName], "medicine", false)
		if err != nil {
			return e.createFailed(sess, err, "medicine schedule")
		}
		if !result.Resolved() {
			sess.ClearFields(fieldMedicineName)
			return StepResult{Ask: ask}
		}
		sess.Resolved = &session.ResolvedEntity{ID: result.Match.ID, Name: result.Match.Name, Quantity: result.Match.Quantity}
		sess.Collected[fieldMedicineName] = result.Match.Name
	}

	required, _ := parseIntField(sess.Collected[fieldQuantity])
	if required > sess.Resolved.Quantity {
		return StepResult{Ask: fmt.Sprintf(
			"⚠️ This schedule needs %d doses but you only have %d %q in stock. Please shorten the schedule, reduce the doses per day, or restock first.",
			required, sess.Resolved.Quantity, sess.Resolved.Name)}
	}

	fields := map[string]any{
		"medicineId":       sess.Resolved.ID,
		"medicineName":     sess.Resolved.Name,
		"quantity":         required,
		"startDate":        e.isoOrRaw(sess, fieldStartDate),
		"endDate":          e.isoOrRaw(sess, fieldEndDate),
		"doseTimes":        sess.DoseTimes,
		"totalDosesPerDay": intOrRaw(sess.Collected[fieldTotalDosesPerDay]),
	}
	if err := e.domain.CreateMedicineSchedule(ctx, token, fields); err != nil {
		return e.createFailed(sess, err, "medicine schedule")
	}

	return StepResult{
		Done: true,
		Ask: fmt.Sprintf("✅ Your %q schedule has been created: %s doses per day at %s, from %s to %s. I'll keep track of it!",
			sess.Resolved.Name, sess.Collected[fieldTotalDosesPerDay], strings.Join(sess.DoseTimes, ", "),
			e.isoOrRaw(sess, fieldStartDate), e.isoOrRaw(sess, fieldEndDate)),
	}
}

func (e *Engine) stepVaccineSchedule(ctx context.Context, sess *session.State, message string, history []llm.ChatMessage, token string) StepResult {
	if isBareConfirmation(message) {
		return StepResult{Ask: e.askNext(sess)}
	}

	payload := e.extractTurn(ctx, sess, message, history, e.extractionPrompt(sess))
	if payload.NextStep == "exit" {
		return e.openExitDialog(sess, "vaccine schedule")
	}

	collected, doseTimes := payload.normalize()
	if len(doseTimes) > 0 && collected[fieldDoseTime] == "" {
		collected[fieldDoseTime] = doseTimes[0]
	}
	if collected[fieldVaccineName] != "" && sess.Resolved != nil &&
		!strings.EqualFold(collected[fieldVaccineName], sess.Resolved.Name) {
		sess.Resolved = nil
	}
	sess.MergeCollected(collected)

	if msg := e.validateVaccineSchedule(sess); msg != "" {
		return StepResult{Ask: msg}
	}

	if missing := e.missingFields(sess); len(missing) > 0 {
		return e.askOrRelist(message, payload, sess)
	}

	return e.completeVaccineSchedule(ctx, sess, token)
}

func (e *Engine) validateVaccineSchedule(sess *session.State) string {
	now := e.now()

	date, dateOK := e.parsedDate(sess, fieldDate)
	if raw := sess.Collected[fieldDate]; raw != "" {
		if !dateOK {
			sess.ClearFields(fieldDate)
			return unreadableDate(fieldDate, raw)
		}
		if msg := validate.DateNotPast("date", date, now); msg != "" {
			sess.ClearFields(fieldDate)
			return msg
		}
	}

	if raw := sess.Collected[fieldDoseTime]; raw != "" {
		if validate.IsVagueTime(raw) {
			sess.ClearFields(fieldDoseTime)
			return fmt.Sprintf("⚠️ %q is too vague for an appointment time. Please give a specific time like \"10:30 AM\".", raw)
		}
		if normalized := validate.NormalizeClockTime(raw); normalized != "" {
			sess.Collected[fieldDoseTime] = normalized
		}
		if dateOK {
			if msg := validate.TimeNotPastIfToday("dose time", sess.Collected[fieldDoseTime], date, now); msg != "" {
				sess.ClearFields(fieldDoseTime)
				return msg
			}
		}
	}
	return ""
}

func (e *Engine) completeVaccineSchedule(ctx context.Context, sess *session.State, token string) StepResult {
	if sess.Resolved == nil {
		result, ask, err := e.resolveCatalog(ctx, token, sess.Collected[fieldVaccineName], "vaccine", true)
		if err != nil {
			return e.createFailed(sess, err, "vaccine schedule")
		}
		if !result.Resolved() {
			sess.ClearFields(fieldVaccineName)
			return StepResult{Ask: ask}
		}
		sess.Resolved = &session.ResolvedEntity{ID: result.Match.ID, Name: result.Match.Name, Quantity: result.Match.Quantity}
		sess.Collected[fieldVaccineName] = result.Match.Name
	}

	fields := map[string]any{
		"vaccineId":   sess.Resolved.ID,
		"vaccineName": sess.Resolved.Name,
		"date":        e.isoOrRaw(sess, fieldDate),
		"doseTime":    sess.Collected[fieldDoseTime],
	}
	if err := e.domain.CreateVaccineSchedule(ctx, token, fields); err != nil {
		return e.createFailed(sess, err, "vaccine schedule")
	}

	return StepResult{
		Done: true,
		Ask: fmt.Sprintf("✅ Your %q vaccination is scheduled for %s at %s. I'll keep track of it!",
			sess.Resolved.Name, e.isoOrRaw(sess, fieldDate), sess.Collected[fieldDoseTime]),
	}
}

// resolveCatalog matches the user's name against the catalog. Medicines must
// match exactly so doses are never logged against the wrong drug; vaccines may
// fuzzy-match brand spellings.
func (e *Engine) resolveCatalog(ctx context.Context, token, name, kind string, fuzzy bool) (resolver.Result, string, error) {
	var (
		items []resolver.Candidate
		err   error
	)
	if kind == "vaccine" {
		items, err = toCandidates(e.domain.ListVaccines(ctx, token))
	} else {
		items, err = toCandidates(e.domain.ListMedicines(ctx, token))
	}
	if err != nil {
		return resolver.Result{}, "", err
	}

	var result resolver.Result
	if fuzzy {
		result = resolver.ResolveFuzzy(name, items)
	} else {
		result = resolver.ResolveExact(name, items)
	}
	if result.Resolved() {
		return result, "", nil
	}
	return result, resolver.OptionsMessage(kind, result.Options), nil
}

func toCandidates(items []domainapi.CatalogItem, err error) ([]resolver.Candidate, error) {
	if err != nil {
		return nil, err
	}
	out := make([]resolver.Candidate, 0, len(items))
	for _, item := range items {
		out = append(out, resolver.Candidate{ID: item.ID, Name: item.Name, Quantity: item.Quantity})
	}
	return out, nil
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
