package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.August, 31, 14, 30, 0, 0, time.UTC) // a Monday, 2:30 PM

func TestWholeNumber(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"integer", "15", true},
		{"decimal rejected", "3.5", false},
		{"zero rejected", "0", false},
		{"negative rejected", "-2", false},
		{"not a number", "ten-ish", false},
		{"trailing decimal zero", "10.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := WholeNumber("quantity", tt.raw)
			if tt.ok {
				assert.Empty(t, msg)
			} else {
				assert.NotEmpty(t, msg)
			}
		})
	}
}

func TestWholeNumberMessageMentionsDecimals(t *testing.T) {
	msg := WholeNumber("quantity", "3.5")
	assert.Contains(t, msg, "whole number")
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"2026-09-15", "2026-09-15", true},
		{"today", "2026-08-31", true},
		{"tomorrow", "2026-09-01", true},
		{"yesterday", "2026-08-30", true},
		{"next friday", "2026-09-04", true},
		{"15/09/2026", "2026-09-15", true},
		{"september 15", "2026-09-15", true},
		{"15 september 2026", "2026-09-15", true},
		{"in 2 weeks", "2026-09-14", true},
		{"in 1 year", "2027-08-31", true},
		{"next year", "2027-08-31", true},
		{"2026-02-30", "", false},
		{"gibberish", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			d, ok := ParseDate(tt.raw, now)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, ISODate(d))
			}
		})
	}
}

func TestDateValidators(t *testing.T) {
	past := time.Date(2004, time.March, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2027, time.March, 1, 0, 0, 0, 0, time.UTC)
	today := Midnight(now)

	assert.NotEmpty(t, DateNotPast("start date", past, now), "2004 start date must be rejected")
	assert.Empty(t, DateNotPast("start date", today, now), "today is a valid start date")
	assert.Empty(t, DateNotPast("start date", future, now))

	assert.NotEmpty(t, DateNotFuture("manufacturing date", future, now))
	assert.Empty(t, DateNotFuture("manufacturing date", today, now))
	assert.Empty(t, DateNotFuture("manufacturing date", past, now))

	assert.NotEmpty(t, DateStrictlyFuture("expiry date", past, now), "2004 expiry date must be rejected")
	assert.NotEmpty(t, DateStrictlyFuture("expiry date", today, now), "expiry today is not allowed")
	assert.Empty(t, DateStrictlyFuture("expiry date", future, now))

	assert.NotEmpty(t, DateNotBefore("end date", "start date", past, future))
	assert.Empty(t, DateNotBefore("end date", "start date", future, past))
	assert.Empty(t, DateNotBefore("end date", "start date", today, today))
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		raw     string
		minutes int
		ok      bool
	}{
		{"9:00 AM", 540, true},
		{"6 PM", 1080, true},
		{"12 AM", 0, true},
		{"12 PM", 720, true},
		{"18:30", 1110, true},
		{"18.30", 1110, true},
		{"7", 420, true},
		{"25:00", 0, false},
		{"evening", 0, false},
		{"around 6", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			m, ok := ParseClockTime(tt.raw)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.minutes, m)
			}
		})
	}
}

func TestIsVagueTime(t *testing.T) {
	for _, vague := range []string{"evening", "morning", "noon", "night", "afternoon", "just past six", "after lunch", "before dinner"} {
		assert.True(t, IsVagueTime(vague), vague)
	}
	for _, precise := range []string{"9:00 AM", "18:30", "6 PM"} {
		assert.False(t, IsVagueTime(precise), precise)
	}
}

func TestNormalizeClockTime(t *testing.T) {
	assert.Equal(t, "6:00 PM", NormalizeClockTime("6 PM"))
	assert.Equal(t, "6:30 PM", NormalizeClockTime("6.30 pm"))
	assert.Equal(t, "18:30", NormalizeClockTime("18.30"))
	assert.Equal(t, "09:00", NormalizeClockTime("9:00"))
}

func TestNormalizeClockTimeDottedMeridiem(t *testing.T) {
	for raw, want := range map[string]string{
		"6 p.m.":    "6:00 PM",
		"6.30 p.m.": "6:30 PM",
		"11 a.m.":   "11:00 AM",
	} {
		got := NormalizeClockTime(raw)
		assert.Equal(t, want, got)

		// whatever comes out must still be a readable clock time
		_, ok := ParseClockTime(got)
		assert.True(t, ok, "normalized form %q must stay parseable", got)
	}
}

func TestTimeNotPastIfToday(t *testing.T) {
	today := Midnight(now)
	tomorrow := today.AddDate(0, 0, 1)

	// now is 14:30; 9 AM already passed today
	assert.NotEmpty(t, TimeNotPastIfToday("dose time", "9:00 AM", today, now))
	assert.Empty(t, TimeNotPastIfToday("dose time", "6 PM", today, now))

	// same early time is fine for a future date
	assert.Empty(t, TimeNotPastIfToday("dose time", "9:00 AM", tomorrow, now))

	// unparseable time on today's date is rejected, not silently accepted
	assert.NotEmpty(t, TimeNotPastIfToday("dose time", "whenever", today, now))
}

func TestDoseCount(t *testing.T) {
	assert.Empty(t, DoseCount([]string{"9:00 AM", "6:00 PM"}, 2))
	assert.NotEmpty(t, DoseCount([]string{"9:00 AM"}, 2))
	assert.NotEmpty(t, DoseCount([]string{"9:00 AM", "1:00 PM", "6:00 PM"}, 2))
	assert.NotEmpty(t, DoseCount(nil, 0))
}
