package domainapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind buckets a failed domain-service call for guidance purposes.
type ErrorKind string

const (
	ErrorDuplicate    ErrorKind = "duplicate"
	ErrorValidation   ErrorKind = "validation"
	ErrorUnauthorized ErrorKind = "unauthorized"
	ErrorNetwork      ErrorKind = "network"
	ErrorUnknown      ErrorKind = "unknown"
)

// CallError is a classified domain-service failure.
type CallError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("domainapi: %s call failed: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("domainapi: %s call failed (%d): %s", e.Kind, e.Status, e.Message)
}

func (e *CallError) Unwrap() error { return e.Err }

// KindOf extracts the error kind from any error chain.
func KindOf(err error) ErrorKind {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ErrorUnknown
}

// classify buckets a non-2xx response by status and message content, the way
// the service actually phrases its failures.
func classify(status int, body []byte) *CallError {
	msg := strings.ToLower(string(body))

	kind := ErrorUnknown
	switch {
	case status == http.StatusConflict,
		strings.Contains(msg, "already exists"),
		strings.Contains(msg, "duplicate"):
		kind = ErrorDuplicate
	case status == http.StatusUnauthorized, status == http.StatusForbidden,
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "token"):
		kind = ErrorUnauthorized
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity,
		strings.Contains(msg, "validation"),
		strings.Contains(msg, "invalid"):
		kind = ErrorValidation
	case status >= 500:
		kind = ErrorNetwork
	}

	return &CallError{Kind: kind, Status: status, Message: truncate(string(body), 300)}
}

// Guidance renders the user-facing advice for a failed create call. The
// duplicate case lists concrete ways out so the session can survive.
func Guidance(kind ErrorKind, entity string) string {
	switch kind {
	case ErrorDuplicate:
		return fmt.Sprintf("⚠️ It looks like this %s already exists. You can:\n"+
			"• Change the date\n"+
			"• Change the time\n"+
			"• Pick a different %s\n"+
			"• Type \"cancel\" to stop\n"+
			"What would you like to do?", entity, entity)
	case ErrorValidation:
		return fmt.Sprintf("⚠️ Some of the %s details were not accepted. Let's fix them together — please re-enter the values I ask for.", entity)
	case ErrorUnauthorized:
		return "⚠️ I couldn't verify your account for this action. Please log in again and retry."
	case ErrorNetwork:
		return fmt.Sprintf("⚠️ I couldn't reach the service to save your %s. Please try again in a moment — your answers are kept.", entity)
	default:
		return fmt.Sprintf("⚠️ Something went wrong while saving your %s. Please try again — your answers are kept.", entity)
	}
}

// CollidingFields names the fields to clear for a retry after a failure of
// the given kind, keeping everything else the user already provided.
func CollidingFields(kind ErrorKind, entity string) []string {
	if kind != ErrorDuplicate {
		return nil
	}
	switch entity {
	case "vaccine schedule":
		return []string{"date", "doseTime"}
	case "medicine schedule":
		return []string{"startDate", "endDate"}
	default:
		return []string{"medicineName", "vaccineName"}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
