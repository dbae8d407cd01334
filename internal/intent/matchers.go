package intent

import (
	"regexp"
	"strings"
)

// The pure matchers below are the cheap stages of the cascade. Each returns a
// conclusive intent or reports no match, so the priority order lives in one
// place (classifier.go) instead of being scattered across handlers.

var symptomRe = regexp.MustCompile(`(?i)\b(headache|migraine|pain|ache|aching|hurts?|fever|cough|cold|flu\s+symptoms|sore\s+throat|nausea|nauseous|vomit(?:ing)?|dizzy|dizziness|fatigue|tired|rash|itch(?:y|ing)?|swelling|swollen|cramp|diarrhea|constipation|insomnia|can'?t\s+sleep|anxiety|anxious|depress(?:ed|ion)|stress(?:ed)?|burning|bleeding|bruise|infection|allerg(?:y|ic|ies))\b`)

// IsSymptomReport reports whether the user is describing how they feel.
// Symptom reports always classify as general queries and always escape a
// stuck creation flow.
func IsSymptomReport(message string) bool {
	return symptomRe.MatchString(message)
}

var healthTopicRe = regexp.MustCompile(`(?i)\b(health|medic(?:ine|al|ation)s?|supplements?|vitamins?|vaccin(?:e|ation)s?|dose|dosage|tablet|capsule|pill|drug|pharmacy|doctor|symptom|schedule|diet|nutrition|sleep|exercise|workout|hydration|wellness|injur(?:y|ies)|therapy|treatment|prescription|immun(?:e|ity|ization)|allerg(?:y|ic|ies)|pain|fever|body|skin|heart|stomach|blood|score|record|cancel|help|yes|no|ok(?:ay)?|stop|exit|continue|\d+)\b`)

// IsOffTopic reports whether a message has no health-domain vocabulary at
// all. Continuation words (yes/no/cancel/numbers) count as on-topic so a
// mid-flow answer like "30" is never thrown out.
func IsOffTopic(message string) bool {
	return !healthTopicRe.MatchString(message)
}

var (
	scheduleKeywordRe = regexp.MustCompile(`(?i)\b(schedule|seduale|shedule|my\s+doses?|what\s+(?:do|should)\s+i\s+take|when\s+(?:do|should)\s+i\s+take|upcoming\s+(?:dose|medicine|medication|vaccine))\b`)
	scheduleDateRe    = regexp.MustCompile(`(?i)\b(today|tomorrow|yesterday|tonight|this\s+week|next\s+week|monday|tuesday|wednesday|thursday|friday|saturday|sunday|\d{4}-\d{2}-\d{2}|\d{1,2}[/-]\d{1,2})\b`)
	doseStatusRe      = regexp.MustCompile(`(?i)\b(taken|missed|skipped|did\s+i\s+take|have\s+i\s+taken|mark(?:ed)?\s+as)\b`)
	vaccineWordRe     = regexp.MustCompile(`(?i)\b(vaccin(?:e|ation)s?|flu\s+shot|covid|corona|booster|immuni[sz]ation)\b`)
	createVerbRe      = regexp.MustCompile(`(?i)\b(create|make|add|new|set\s*up|register)\b`)
	supplementWordRe  = regexp.MustCompile(`(?i)\b(supplement)s?\b`)
	medicineWordRe    = regexp.MustCompile(`(?i)\b(medicine|medication|tablet|capsule|pill|drug)s?\b`)
	scheduleWordRe    = regexp.MustCompile(`(?i)\b(schedule|seduale|shedule|reminder)s?\b`)
)

// MatchScheduleLookup is the early regex corroboration for schedule queries:
// a schedule keyword together with either a date phrase or a question shape.
// Messages that also carry a creation verb are left for the creation path.
func MatchScheduleLookup(message string) (Intent, bool) {
	if createVerbRe.MatchString(message) {
		return "", false
	}
	if !scheduleKeywordRe.MatchString(message) {
		return "", false
	}
	if !scheduleDateRe.MatchString(message) && !strings.Contains(message, "?") && !doseStatusRe.MatchString(message) {
		return "", false
	}
	if vaccineWordRe.MatchString(message) {
		return IntentCheckVaccineSchedule, true
	}
	return IntentCheckMedicineSchedule, true
}

// MatchCreation is the creation fast-path regex: an explicit create verb plus
// an entity word. Schedule wins over the bare entity when both appear.
func MatchCreation(message string) (Intent, bool) {
	if !createVerbRe.MatchString(message) {
		return "", false
	}
	hasSchedule := scheduleWordRe.MatchString(message)
	switch {
	case vaccineWordRe.MatchString(message) && hasSchedule:
		return IntentCreateVaccineSchedule, true
	case medicineWordRe.MatchString(message) && hasSchedule:
		return IntentCreateMedicineSchedule, true
	case vaccineWordRe.MatchString(message):
		return IntentCreateVaccine, true
	case supplementWordRe.MatchString(message):
		return IntentCreateSupplement, true
	case medicineWordRe.MatchString(message):
		return IntentCreateMedicine, true
	}
	return "", false
}

var healthScoreRe = regexp.MustCompile(`(?i)\b(health\s+(?:score|assessment|check[\s-]?up)|assess\s+my\s+health|score\s+my\s+health)\b`)

// MatchHealthScore detects a request to run the health assessment.
func MatchHealthScore(message string) bool {
	return healthScoreRe.MatchString(message)
}

// askedFieldPhrases are fragments of the assistant's own field prompts. When
// the previous assistant turn asked for a creation field, a terse user answer
// stays in the active flow instead of being re-classified.
var askedFieldPhrases = []string{
	"medicine name",
	"vaccine name",
	"provider name",
	"what's the dosage",
	"what's the price",
	"what's the quantity",
	"package details",
	"single pack",
	"manufacturing date",
	"expiry date",
	"start date",
	"end date",
	"dose time",
	"doses per day",
	"vaccination date",
	"vaccination time",
	"please provide",
	"please share",
}

// AssistantAskedForField reports whether the assistant's last message was a
// slot-filling prompt.
func AssistantAskedForField(lastAssistantMessage string) bool {
	lower := strings.ToLower(lastAssistantMessage)
	for _, phrase := range askedFieldPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// FallbackClassify is the deterministic substitute used when the LLM stage
// errors: pattern heuristics over the same categorical intent set.
func FallbackClassify(message string) Intent {
	if it, ok := MatchScheduleLookup(message); ok {
		return it
	}
	if it, ok := MatchCreation(message); ok {
		return it
	}
	if MatchHealthScore(message) {
		return IntentHealthScore
	}
	return IntentGeneralQuery
}
