// Package validate holds the pure field validators applied to slot-filling
// candidates before a record is considered complete. Every validator returns
// an empty string on success or a user-facing violation message.
package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// WholeNumber checks that raw is a finite positive integer. Rejects decimals
// (3.5), zero, and negatives.
func WholeNumber(field, raw string) string {
	s := strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("⚠️ %s must be a number. Please provide a valid %s.", titleField(field), field)
	}
	if v != math.Trunc(v) {
		return fmt.Sprintf("⚠️ %s must be a whole number (no decimals like 3.5, 8.9). Please provide a valid %s.", titleField(field), field)
	}
	if v <= 0 {
		return fmt.Sprintf("⚠️ %s must be greater than zero. Please provide a valid %s.", titleField(field), field)
	}
	return ""
}

// DateNotPast checks that d is today or later.
func DateNotPast(field string, d, now time.Time) string {
	if Midnight(d).Before(Midnight(now)) {
		return fmt.Sprintf("⚠️ The %s you mentioned is in the past. Please provide a valid future date.", field)
	}
	return ""
}

// DateNotFuture checks that d is today or earlier. Used for manufacture dates.
func DateNotFuture(field string, d, now time.Time) string {
	if Midnight(d).After(Midnight(now)) {
		return fmt.Sprintf("⚠️ The %s cannot be in the future. Please provide today's date or a past date.", field)
	}
	return ""
}

// DateStrictlyFuture checks that d is after today. Used for expiry dates.
func DateStrictlyFuture(field string, d, now time.Time) string {
	if !Midnight(d).After(Midnight(now)) {
		return fmt.Sprintf("⚠️ The %s must be a future date. Please provide a date after today.", field)
	}
	return ""
}

// DateNotBefore checks that d is not earlier than ref, for end/start and
// expiry/manufacture pairs.
func DateNotBefore(field, refField string, d, ref time.Time) string {
	if Midnight(d).Before(Midnight(ref)) {
		return fmt.Sprintf("⚠️ The %s cannot be earlier than the %s. Please provide a valid %s.", field, refField, field)
	}
	return ""
}

// TimeNotPastIfToday enforces "clock time must not have passed" only when the
// paired date is today. Future dates impose no time constraint; past dates are
// rejected by the date validators before this one runs.
func TimeNotPastIfToday(field, raw string, date, now time.Time) string {
	if !SameDay(date, now) && Midnight(date).After(Midnight(now)) {
		return ""
	}
	minutes, ok := ParseClockTime(raw)
	if !ok {
		return fmt.Sprintf("⚠️ I couldn't understand the time %q. Please provide a specific time like \"9:00 AM\" or \"18:30\".", raw)
	}
	current := now.Hour()*60 + now.Minute()
	if minutes < current {
		if SameDay(date, now) {
			return fmt.Sprintf("⚠️ %s %q is in the past for today. Please provide a future time since it is scheduled for today.", titleField(field), raw)
		}
		return fmt.Sprintf("⚠️ %s %q is in the past. Please provide future times only.", titleField(field), raw)
	}
	return ""
}

// DoseCount checks that the number of dose times matches the declared doses
// per day before a schedule can complete.
func DoseCount(times []string, totalPerDay int) string {
	if totalPerDay <= 0 {
		return "⚠️ Total doses per day must be a positive whole number."
	}
	if len(times) < totalPerDay {
		remaining := totalPerDay - len(times)
		return fmt.Sprintf("⚠️ You said %d dose(s) per day but gave %d time(s). Please provide %d more dose time(s).", totalPerDay, len(times), remaining)
	}
	if len(times) > totalPerDay {
		return fmt.Sprintf("⚠️ You gave %d dose times but only %d dose(s) per day. Please keep them matching.", len(times), totalPerDay)
	}
	return ""
}

func titleField(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
