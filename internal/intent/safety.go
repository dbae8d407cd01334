package intent

import "regexp"

// safetyRule pairs a harmful-content pattern with its severity. Matched
// messages are answered with a canned response and never reach an LLM.
type safetyRule struct {
	pattern  *regexp.Regexp
	severity Severity
}

var safetyRules = []safetyRule{
	{regexp.MustCompile(`(?i)\b(kill\s+myself|end\s+my\s+life|suicide|want\s+to\s+die|hurt\s+myself|self[\s-]?harm|cut\s+myself)\b`), SeverityHigh},
	{regexp.MustCompile(`(?i)\b(overdose|how\s+many\s+pills\s+(?:to|would)\s+(?:die|kill)|lethal\s+dose|poison\s+(?:myself|someone))\b`), SeverityHigh},
	{regexp.MustCompile(`(?i)\b(get\s+high|abuse\s+(?:drugs|medication)|recreational\s+(?:dose|use)\s+of|snort(?:ing)?\s+(?:pills|medication)|mix\s+(?:alcohol|drugs)\s+(?:with|and)\s+(?:pills|medication))\b`), SeverityMedium},
	{regexp.MustCompile(`(?i)\b(fake\s+prescription|forge\s+(?:a\s+)?prescription|buy\s+(?:medication|pills)\s+without\s+(?:a\s+)?prescription)\b`), SeverityLow},
}

var safetyResponses = map[Severity]string{
	SeverityHigh:   "I'm really concerned about what you've shared. You don't have to go through this alone — please reach out right now to a doctor, a trusted person, or a crisis helpline in your area. I'm here to help with health questions, but trained people can support you far better with this.",
	SeverityMedium: "I can't help with that. Misusing medication is dangerous and can cause serious harm. If you're struggling, a doctor or pharmacist can help you find a safe path. Is there a health question I can help you with instead?",
	SeverityLow:    "I can't help with that request. Medication should only be obtained with a valid prescription from a licensed provider. If cost or access is the problem, a pharmacist can often suggest legitimate alternatives.",
}

// CheckSafety screens a message against the harmful-content rules. The first
// matching rule decides the severity.
func CheckSafety(message string) (Severity, string, bool) {
	for _, rule := range safetyRules {
		if rule.pattern.MatchString(message) {
			return rule.severity, safetyResponses[rule.severity], true
		}
	}
	return "", "", false
}
