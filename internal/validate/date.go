package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	slashDateRe = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	monthNameRe = regexp.MustCompile(`(?i)^(?:(\d{1,2})(?:st|nd|rd|th)?\s+)?(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\.?\s*(\d{1,2})?(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?$`)
	weekdayRe   = regexp.MustCompile(`(?i)^(next\s+|this\s+|coming\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)$`)
	inDaysRe    = regexp.MustCompile(`(?i)^in\s+(\d+)\s+day?s?$`)
	inWeeksRe   = regexp.MustCompile(`(?i)^in\s+(\d+)\s+weeks?$`)
	inMonthsRe  = regexp.MustCompile(`(?i)^in\s+(\d+)\s+months?$`)
	inYearsRe   = regexp.MustCompile(`(?i)^in\s+(\d+)\s+years?$`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var weekdaysByName = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// ParseDate turns a user-supplied date phrase into a calendar date.
// Accepts ISO dates, day/month/year, month names, relative phrases
// ("today", "tomorrow", "next friday", "in 2 weeks", "in 1 year").
// The returned time is truncated to midnight in now's location.
func ParseDate(raw string, now time.Time) (time.Time, bool) {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return time.Time{}, false
	}
	today := Midnight(now)

	switch s {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	case "day after tomorrow":
		return today.AddDate(0, 0, 2), true
	case "next week":
		return today.AddDate(0, 0, 7), true
	case "last week":
		return today.AddDate(0, 0, -7), true
	case "next month":
		return today.AddDate(0, 1, 0), true
	case "next year":
		return today.AddDate(1, 0, 0), true
	}

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		return civilDate(atoi(m[1]), atoi(m[2]), atoi(m[3]), now.Location())
	}
	if m := slashDateRe.FindStringSubmatch(s); m != nil {
		// day-first; swap when the first component can only be a month
		day, month := atoi(m[1]), atoi(m[2])
		if day <= 12 && month > 12 {
			day, month = month, day
		}
		return civilDate(atoi(m[3]), month, day, now.Location())
	}
	if m := monthNameRe.FindStringSubmatch(s); m != nil {
		month, ok := monthsByName[strings.ToLower(strings.TrimSuffix(m[2], "."))]
		if !ok {
			return time.Time{}, false
		}
		day := atoi(m[1])
		if day == 0 {
			day = atoi(m[3])
		}
		if day == 0 {
			day = 1
		}
		year := atoi(m[4])
		if year == 0 {
			year = now.Year()
			candidate, ok := civilDate(year, int(month), day, now.Location())
			if ok && candidate.Before(today) {
				year++
			}
		}
		return civilDate(year, int(month), day, now.Location())
	}
	if m := weekdayRe.FindStringSubmatch(s); m != nil {
		// "friday", "next friday", "this friday" all resolve to the soonest
		// future occurrence, never today
		target := weekdaysByName[strings.ToLower(m[2])]
		days := (int(target) - int(today.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return today.AddDate(0, 0, days), true
	}
	if m := inDaysRe.FindStringSubmatch(s); m != nil {
		return today.AddDate(0, 0, atoi(m[1])), true
	}
	if m := inWeeksRe.FindStringSubmatch(s); m != nil {
		return today.AddDate(0, 0, 7*atoi(m[1])), true
	}
	if m := inMonthsRe.FindStringSubmatch(s); m != nil {
		return today.AddDate(0, atoi(m[1]), 0), true
	}
	if m := inYearsRe.FindStringSubmatch(s); m != nil {
		return today.AddDate(atoi(m[1]), 0, 0), true
	}

	return time.Time{}, false
}

// Midnight truncates t to the start of its calendar day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two instants fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func civilDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 || year > 2200 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// reject normalized rollovers like Feb 30
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, false
	}
	return d, true
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// ISODate formats a date as YYYY-MM-DD.
func ISODate(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), t.Month(), t.Day())
}
