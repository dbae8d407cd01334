package slots

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/healthcompass/assistant/internal/session"
)

// Field names shared with the extraction prompts and the domain payloads.
const (
	fieldMedicineName     = "medicineName"
	fieldDosage           = "dosage"
	fieldPrice            = "price"
	fieldQuantity         = "quantity"
	fieldSinglePack       = "singlePack"
	fieldMfgDate          = "mfgDate"
	fieldExpDate          = "expDate"
	fieldDescription      = "description"
	fieldTakenFor         = "takenForSymptoms"
	fieldRisks            = "associatedRisks"
	fieldVaccineName      = "vaccineName"
	fieldProvider         = "provider"
	fieldStartDate        = "startDate"
	fieldEndDate          = "endDate"
	fieldDoseTimes        = "doseTimes"
	fieldTotalDosesPerDay = "totalDosesPerDay"
	fieldDate             = "date"
	fieldDoseTime         = "doseTime"
)

var fieldLabels = map[string]string{
	fieldMedicineName:     "the name",
	fieldDosage:           "the dosage (e.g. 500mg)",
	fieldPrice:            "the price",
	fieldQuantity:         "the quantity (number of units)",
	fieldSinglePack:       "the pack size",
	fieldMfgDate:          "the manufacturing date",
	fieldExpDate:          "the expiry date",
	fieldVaccineName:      "the vaccine name",
	fieldProvider:         "the provider or clinic",
	fieldStartDate:        "the start date",
	fieldEndDate:          "the end date",
	fieldDoseTimes:        "the dose times (e.g. 9 AM, 6 PM)",
	fieldTotalDosesPerDay: "how many doses per day",
	fieldDate:             "the date",
	fieldDoseTime:         "the time",
}

func fieldLabel(f string) string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return f
}

// requiredFields is the completion contract per phase, in ask order.
func requiredFields(p session.Phase) []string {
	switch p {
	case session.PhaseSupplement, session.PhaseMedicine:
		return []string{
			fieldMedicineName, fieldDosage, fieldPrice, fieldQuantity,
			fieldSinglePack, fieldMfgDate, fieldExpDate,
		}
	case session.PhaseVaccine:
		return []string{fieldVaccineName, fieldProvider}
	case session.PhaseMedicineSchedule:
		return []string{
			fieldMedicineName, fieldQuantity, fieldStartDate, fieldEndDate,
			fieldDoseTimes, fieldTotalDosesPerDay,
		}
	case session.PhaseVaccineSchedule:
		return []string{fieldVaccineName, fieldDate, fieldDoseTime}
	}
	return nil
}

func optionalFields(p session.Phase) []string {
	switch p {
	case session.PhaseSupplement, session.PhaseMedicine:
		return []string{fieldDescription, fieldTakenFor, fieldRisks}
	case session.PhaseVaccine:
		return []string{fieldDescription}
	}
	return nil
}

// extractionPayload is the JSON contract the extraction prompts demand.
// Collected values arrive loosely typed; normalize flattens them to strings
// and pulls dose-time arrays out separately.
type extractionPayload struct {
	Collected map[string]any `json:"collected"`
	NextStep  string         `json:"nextStep"`
	Ask       string         `json:"ask"`
}

// normalize converts the loosely typed collected map into trimmed strings
// plus the dose-time list. Numbers lose any ".0" suffix so whole-number
// validation sees them cleanly.
func (p extractionPayload) normalize() (map[string]string, []string) {
	out := make(map[string]string, len(p.Collected))
	var doseTimes []string
	for k, v := range p.Collected {
		if k == fieldDoseTimes {
			doseTimes = toStringList(v)
			continue
		}
		if s := toScalarString(v); s != "" {
			out[k] = s
		}
	}
	return out, doseTimes
}

func toScalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case bool:
		return fmt.Sprintf("%t", t)
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		return ""
	}
}

func toStringList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := toScalarString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return splitTimeList(t)
	default:
		return nil
	}
}

// splitTimeList breaks "9 AM and 6 PM" or "9am, 2pm, 9pm" into entries.
func splitTimeList(s string) []string {
	s = strings.NewReplacer(" and ", ",", " & ", ",", ";", ",").Replace(s)
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
