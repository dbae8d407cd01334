package validate

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	twelveHourRe    = regexp.MustCompile(`(?i)^(\d{1,2})(?:[:.](\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)$`)
	twentyFourRe    = regexp.MustCompile(`^(\d{1,2})(?:[:.](\d{2}))?$`)
	vagueTimeRe    = regexp.MustCompile(`(?i)\b(evening|morning|noon|night|afternoon|midnight|dawn|dusk)\b`)
	relativeTimeRe = regexp.MustCompile(`(?i)\b(just\s+past|after|before|around|about|ish)\b`)
)

// IsVagueTime reports whether a time phrase is too imprecise to schedule a
// dose ("evening", "around 6", "after lunch").
func IsVagueTime(raw string) bool {
	s := strings.TrimSpace(raw)
	if s == "" {
		return true
	}
	return vagueTimeRe.MatchString(s) || relativeTimeRe.MatchString(s)
}

// ParseClockTime parses a 12-hour or 24-hour time string and returns minutes
// since midnight. Dot separators are accepted ("18.30").
func ParseClockTime(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || IsVagueTime(s) {
		return 0, false
	}

	if m := twelveHourRe.FindStringSubmatch(s); m != nil {
		hour := atoi(m[1])
		minute := atoi(m[2])
		if hour < 1 || hour > 12 || minute > 59 {
			return 0, false
		}
		period := strings.ToLower(strings.ReplaceAll(m[3], ".", ""))
		if period == "pm" && hour != 12 {
			hour += 12
		}
		if period == "am" && hour == 12 {
			hour = 0
		}
		return hour*60 + minute, true
	}

	if m := twentyFourRe.FindStringSubmatch(s); m != nil {
		hour := atoi(m[1])
		minute := atoi(m[2])
		if hour > 23 || minute > 59 {
			return 0, false
		}
		return hour*60 + minute, true
	}

	return 0, false
}

// NormalizeClockTime rewrites a parseable time phrase into a canonical
// "H:MM AM/PM" or "HH:MM" form. Dotted meridiems ("6 p.m.") and dot
// separators ("18.30") are both accepted, and bare 12-hour times gain
// minutes ("6 PM" -> "6:00 PM").
func NormalizeClockTime(raw string) string {
	s := strings.TrimSpace(raw)

	if m := twelveHourRe.FindStringSubmatch(s); m != nil {
		hour := atoi(m[1])
		minute := atoi(m[2])
		period := "AM"
		if strings.HasPrefix(strings.ToLower(m[3]), "p") {
			period = "PM"
		}
		return fmt.Sprintf("%d:%02d %s", hour, minute, period)
	}

	if m := twentyFourRe.FindStringSubmatch(s); m != nil {
		return fmt.Sprintf("%02d:%02d", atoi(m[1]), atoi(m[2]))
	}

	return s
}
