package slots

import (
	"fmt"
	"sort"
	"strings"

	"github.com/healthcompass/assistant/internal/session"
)

const extractionContract = `Respond with ONLY a JSON object, no prose, no markdown fences:
{"collected": {<field>: <value>, ...}, "nextStep": "<field name, or done, or exit>", "ask": "<one short friendly question for the user>"}

Rules:
- Put into "collected" ONLY values the user actually stated in their latest message. Never invent or guess values.
- "nextStep" is the first still-missing required field, "done" when every required field is present, or "exit" when the user wants to stop or has changed topic entirely.
- Dates go in as the user said them (e.g. "15 June 2026", "tomorrow"). Do not reformat.
- When the user corrects a value they gave earlier, overwrite it in "collected".`

// extractionPrompt builds the per-entity system prompt for one turn,
// embedding today's date and the draft so far.
func (e *Engine) extractionPrompt(sess *session.State) string {
	var b strings.Builder
	entity := entityName(sess.Phase)
	fmt.Fprintf(&b, "You are a field extractor helping a user record a %s in their health app. Today is %s.\n\n",
		entity, e.now().Format("Monday, 2 January 2006"))

	required := requiredFields(sess.Phase)
	fmt.Fprintf(&b, "Required fields: %s.\n", strings.Join(required, ", "))
	if opt := optionalFields(sess.Phase); len(opt) > 0 {
		fmt.Fprintf(&b, "Optional fields (capture when offered, never ask for them): %s.\n", strings.Join(opt, ", "))
	}

	switch sess.Phase {
	case session.PhaseSupplement, session.PhaseMedicine:
		b.WriteString(`Field hints: price and quantity are whole numbers. dosage looks like "500mg" or "2 tablets". singlePack is a pack description like "1 pack" or "strip of 10".` + "\n")
	case session.PhaseMedicineSchedule:
		b.WriteString(`Field hints: doseTimes is an array of clock times like ["9 AM", "6 PM"]. totalDosesPerDay is a whole number and must equal the number of doseTimes. quantity is the total number of doses for the whole schedule; leave it out unless the user states it.` + "\n")
	case session.PhaseVaccineSchedule:
		b.WriteString("Field hints: doseTime is a single clock time like \"10:30 AM\". Vague times like \"evening\" are not acceptable values; leave them out.\n")
	case session.PhaseVaccine:
		b.WriteString("Field hints: provider is the clinic, hospital, or brand administering the vaccine.\n")
	}

	if draft := formatDraft(sess); draft != "" {
		fmt.Fprintf(&b, "\nAlready collected (do not re-ask for these):\n%s\n", draft)
	}

	b.WriteString("\n" + extractionContract)
	return b.String()
}

func formatDraft(sess *session.State) string {
	if len(sess.Collected) == 0 && len(sess.DoseTimes) == 0 {
		return ""
	}
	keys := make([]string, 0, len(sess.Collected))
	for k := range sess.Collected {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, sess.Collected[k])
	}
	if len(sess.DoseTimes) > 0 {
		fmt.Fprintf(&b, "- %s: %s\n", fieldDoseTimes, strings.Join(sess.DoseTimes, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
