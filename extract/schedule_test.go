package extract

import (
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 3, 14, 9, 30, 0, 0, time.Local)

func TestReconstruct_TomorrowMorning(t *testing.T) {
	got := Reconstruct("Tomorrow", "7:00am", fixedNow)
	want := "2024-03-15T07:00:00"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReconstruct_TodayAfternoon(t *testing.T) {
	got := Reconstruct("Today", "2:30pm", fixedNow)
	want := "2024-03-14T14:30:00"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReconstruct_CaseInsensitiveHeader(t *testing.T) {
	got := Reconstruct("Visits TOMORROW", "11:15 AM", fixedNow)
	want := "2024-03-15T11:15:00"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReconstruct_UnparseableTime(t *testing.T) {
	if got := Reconstruct("Tomorrow", "soon", fixedNow); got != "" {
		t.Errorf("got %q, want empty for unparseable time", got)
	}
}

func TestReconstruct_UnrecognizedHeader(t *testing.T) {
	if got := Reconstruct("Next Week", "7:00am", fixedNow); got != "" {
		t.Errorf("got %q, want empty for unrecognized header", got)
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		label        string
		hour, minute int
		ok           bool
	}{
		{"7:00am", 7, 0, true},
		{"2:30pm", 14, 30, true},
		{"12:00pm", 12, 0, true}, // noon stays 12
		{"12:05am", 0, 5, true},  // midnight wraps to 0
		{"11:59 PM", 23, 59, true},
		{"soon", 0, 0, false},
		{"25:00pm", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tc := range cases {
		hour, minute, ok := ParseClock(tc.label)
		if ok != tc.ok || hour != tc.hour || minute != tc.minute {
			t.Errorf("ParseClock(%q): got (%d, %d, %v), want (%d, %d, %v)",
				tc.label, hour, minute, ok, tc.hour, tc.minute, tc.ok)
		}
	}
}

func TestHeaderQualifies(t *testing.T) {
	if !HeaderQualifies("Tomorrow") {
		t.Error("Tomorrow should qualify")
	}
	if !HeaderQualifies("Today's Visits") {
		t.Error("Today's Visits should qualify")
	}
	if !HeaderQualifies("Upcoming visit") {
		t.Error("headers mentioning visit should qualify")
	}
	if HeaderQualifies("3 visits") {
		t.Error("count badge must not qualify")
	}
	if HeaderQualifies("12 Visits") {
		t.Error("count badge must not qualify regardless of case")
	}
	if HeaderQualifies("Schedule") {
		t.Error("unrelated header must not qualify")
	}
}

func TestRelativeDate(t *testing.T) {
	if d, ok := RelativeDate("tomorrow", fixedNow); !ok || d.Day() != 15 {
		t.Errorf("tomorrow: got (%v, %v)", d, ok)
	}
	if d, ok := RelativeDate("Today", fixedNow); !ok || d.Day() != 14 {
		t.Errorf("today: got (%v, %v)", d, ok)
	}
	if _, ok := RelativeDate("yesterday", fixedNow); ok {
		t.Error("yesterday must not resolve")
	}
}
