package slots

import (
	"regexp"
	"strings"
)

// Salvage patterns pull individual fields straight out of the user's text
// when structured extraction could not produce valid JSON. Coverage is
// intentionally partial; anything the patterns miss gets re-asked.
var (
	salvageNameRe = regexp.MustCompile(
		`(?i)\b(?:medicine|med|supplement|vaccine)\s+(?:name\s+)?(?:is\s+|called\s+)?([A-Za-z][A-Za-z0-9 -]{1,40}?)(?:\s*(?:,|\.|$|\band\b|\bwith\b|\bfor\b))`)
	salvageQuantityRe = regexp.MustCompile(`(?i)\b(?:quantity|qty)\s*(?:is|of|:)?\s*(\d+)\b`)
	salvagePriceRe    = regexp.MustCompile(`(?i)\b(?:price|costs?|rs\.?|inr|\$)\s*(?:is|:)?\s*(\d+)\b`)
	salvageDosageRe   = regexp.MustCompile(`(?i)\b(\d+\s*(?:mg|mcg|g|ml|iu|tablets?|capsules?|drops?))\b`)
	salvageDateRe     = regexp.MustCompile(
		`(?i)\b(\d{4}-\d{2}-\d{2}|\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{1,2}(?:st|nd|rd|th)?\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*(?:\s+\d{4})?|tomorrow|today|next\s+week)\b`)
	salvageTimeRe = regexp.MustCompile(`(?i)\b(\d{1,2}(?:[:.]\d{2})?\s*(?:am|pm))\b`)
)

// salvage attempts a best-effort field harvest from the raw message. It
// reports false when nothing at all matched so the caller can fall back to a
// field-by-field re-ask.
func salvage(message string) (extractionPayload, bool) {
	collected := map[string]any{}

	if m := salvageNameRe.FindStringSubmatch(message); m != nil {
		name := strings.TrimSpace(m[1])
		if strings.Contains(strings.ToLower(message), "vaccine") {
			collected[fieldVaccineName] = name
		} else {
			collected[fieldMedicineName] = name
		}
	}
	if m := salvageQuantityRe.FindStringSubmatch(message); m != nil {
		collected[fieldQuantity] = m[1]
	}
	if m := salvagePriceRe.FindStringSubmatch(message); m != nil {
		collected[fieldPrice] = m[1]
	}
	if m := salvageDosageRe.FindStringSubmatch(message); m != nil {
		collected[fieldDosage] = strings.TrimSpace(m[1])
	}
	if dates := salvageDateRe.FindAllString(message, 2); len(dates) > 0 {
		// a single date is ambiguous between the date fields, so it lands in
		// the generic slot and the entity step re-homes it
		collected[fieldDate] = strings.TrimSpace(dates[0])
		if len(dates) > 1 {
			collected[fieldStartDate] = strings.TrimSpace(dates[0])
			collected[fieldEndDate] = strings.TrimSpace(dates[1])
			delete(collected, fieldDate)
		}
	}
	if times := salvageTimeRe.FindAllString(message, 6); len(times) > 0 {
		if len(times) == 1 {
			collected[fieldDoseTime] = strings.TrimSpace(times[0])
		} else {
			list := make([]any, 0, len(times))
			for _, t := range times {
				list = append(list, strings.TrimSpace(t))
			}
			collected[fieldDoseTimes] = list
		}
	}

	if len(collected) == 0 {
		return extractionPayload{}, false
	}
	return extractionPayload{Collected: collected}, true
}
