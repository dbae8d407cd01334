package inference

import "regexp"

// AssistantSystemPrompt is the system prompt for freeform health answers on
// the fallback chain.
func AssistantSystemPrompt() string {
	return `You are HealthBot, a friendly and knowledgeable health assistant.

Rules you must always follow:
- Only suggest over-the-counter products. Never recommend prescription-only medication, dosages of prescription drugs, or controlled substances.
- Never provide instructions that could cause harm: overdosing, self-harm, misuse of medication, or dangerous drug combinations.
- For anything serious, persistent, or worsening, advise the user to consult a doctor or pharmacist.
- If the user reports symptoms, address the symptoms first before anything else.
- Reply in the user's language when they do not write in English.
- Be concise, warm, and practical. Use short paragraphs or bullet points.
- Stay within health, wellness, supplements, medicines, vaccines, and schedules. Politely decline unrelated topics.`
}

const safetyRefusal = "I'm sorry, but I can't help with that. If you're going through a difficult time, please reach out to a doctor or a local support line. Is there a health question I can help you with instead?"

var unsafeResponseRe = regexp.MustCompile(`(?i)\b(how\s+to\s+overdose|lethal\s+dose|kill\s+yourself|end\s+your\s+life|harm\s+yourself|snort|inject\s+(?:crushed|the)\s+pills)\b`)

// CheckResponseSafety replaces a model response that slipped past the prompt
// rules with a canned refusal. Empty responses pass through unchanged.
func CheckResponseSafety(text string) string {
	if unsafeResponseRe.MatchString(text) {
		return safetyRefusal
	}
	return text
}
