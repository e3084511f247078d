package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// clockRe accepts the host's 12-hour time labels: H:MM followed by am/pm,
// case-insensitive, optional space before the meridiem.
var clockRe = regexp.MustCompile(`(?i)\b(1[0-2]|[1-9]):([0-5][0-9])\s*(am|pm)\b`)

// visitCountRe matches the "<N> visits" count badge the host renders next to
// its schedule headers. A badge is never a date.
var visitCountRe = regexp.MustCompile(`(?i)^\s*\d+\s+visits?\s*$`)

// RelativeDate resolves the host's relative-date header against now.
// "tomorrow" and "today" (case-insensitive, anywhere in the text) are the
// only two markers the host is observed to emit; ok is false for anything
// else.
func RelativeDate(header string, now time.Time) (time.Time, bool) {
	h := strings.ToLower(header)
	switch {
	case strings.Contains(h, "tomorrow"):
		return now.AddDate(0, 0, 1), true
	case strings.Contains(h, "today"):
		return now, true
	}
	return time.Time{}, false
}

// HeaderQualifies reports whether a header-like element is worth scanning
// for a relative date: it must mention tomorrow, today, or the word visit,
// and must not be a "<N> visits" count badge.
func HeaderQualifies(text string) bool {
	if visitCountRe.MatchString(text) {
		return false
	}
	l := strings.ToLower(text)
	return strings.Contains(l, "tomorrow") ||
		strings.Contains(l, "today") ||
		strings.Contains(l, "visit")
}

// ParseClock parses a 12-hour clock label like "7:00am" or "2:30 PM" into
// 24-hour components. ok is false for any non-conforming label.
func ParseClock(label string) (hour, minute int, ok bool) {
	m := clockRe.FindStringSubmatch(label)
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if strings.EqualFold(m[3], "pm") && hour != 12 {
		hour += 12
	}
	if strings.EqualFold(m[3], "am") && hour == 12 {
		hour = 0
	}
	return hour, minute, true
}

// Reconstruct combines a relative-date header with a separately located
// 12-hour clock label into a local ISO-8601 datetime string. The empty
// string means no datetime could be reconstructed, a normal outcome, not
// an error.
func Reconstruct(header, clock string, now time.Time) string {
	date, ok := RelativeDate(header, now)
	if !ok {
		return ""
	}
	hour, minute, ok := ParseClock(clock)
	if !ok {
		return ""
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, now.Location()).
		Format("2006-01-02T15:04:05")
}
