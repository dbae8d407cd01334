// Package intent decides which dialogue flow a message belongs to. The
// classifier is a fixed priority cascade: cheap pure matchers run first and
// the LLM stage is always last, so every stage is independently testable.
package intent

// Intent is the closed set of dialogue flows.
type Intent string

const (
	IntentBlocked                Intent = "blocked"
	IntentOutOfScope             Intent = "out_of_scope"
	IntentCreateMedicineSchedule Intent = "create_medicine_schedule"
	IntentCreateVaccineSchedule  Intent = "create_vaccine_schedule"
	IntentCheckMedicineSchedule  Intent = "check_medicine_schedule"
	IntentCheckVaccineSchedule   Intent = "check_vaccine_schedule"
	IntentCreateVaccine          Intent = "create_vaccine"
	IntentCreateMedicine         Intent = "create_medicine"
	IntentCreateSupplement       Intent = "create_supplement"
	IntentGeneralQuery           Intent = "general_query"
	IntentHealthScore            Intent = "generate_health_score"
)

// Severity grades a blocked message.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Classification is the cascade's verdict for one message.
type Classification struct {
	Intent   Intent
	Severity Severity
	// Response is set for blocked messages: the canned safety reply.
	Response string
	// Date is an optional hint extracted alongside schedule lookups.
	Date string
	// DoseStatus marks a schedule lookup asking about taken/missed doses.
	DoseStatus bool
	// ClearSession tells the orchestrator to drop any in-flight creation
	// session before acting (schedule queries and off-topic always win).
	ClearSession bool
	// Escape marks a symptom report that must be answered directly even
	// while a creation flow is active. The draft is preserved so the flow
	// can resume afterwards.
	Escape bool
	// Sticky marks a classification that was kept on the active phase by the
	// assistant's pending field prompt.
	Sticky bool
}

var validIntents = map[Intent]bool{
	IntentCreateMedicineSchedule: true,
	IntentCreateVaccineSchedule:  true,
	IntentCheckMedicineSchedule:  true,
	IntentCheckVaccineSchedule:   true,
	IntentCreateVaccine:          true,
	IntentCreateMedicine:         true,
	IntentCreateSupplement:       true,
	IntentGeneralQuery:           true,
	IntentHealthScore:            true,
}

// Valid reports whether s is one of the categorical intents the LLM stage may
// return.
func Valid(s string) bool {
	return validIntents[Intent(s)]
}
