package menu

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/cpuguy83/ramadanbar/internal/labels"
	"github.com/cpuguy83/ramadanbar/internal/schedule"
	"github.com/cpuguy83/ramadanbar/internal/ui"
)

var dhaka = time.FixedZone("BST", 6*60*60)

func testState() ui.ViewState {
	days := []schedule.DayRecord{
		{Date: "2026-02-28", Ramadan: 10, Day: "Saturday", Sehri: "04:31 AM", Iftar: "06:14 PM"},
		{Date: "2026-03-01", Ramadan: 11, Day: "Sunday", Sehri: "04:30 AM", Iftar: "06:15 PM"},
	}
	return ui.ViewState{
		District: schedule.District{ID: "natore", Name: "Natore", BnName: "নাটোর"},
		Selected: "natore",
		Days:     days,
		Result: schedule.Result{
			CurrentDay: &days[1],
			Next: &schedule.NextEvent{
				Type:   schedule.Iftar,
				Target: time.Date(2026, 3, 1, 18, 15, 0, 0, dhaka),
				Day:    days[1],
			},
		},
		Countdown: "00 : 10 : 00",
	}
}

func TestFormatSummary(t *testing.T) {
	l := labels.For("en")

	lines := formatSummary(testState(), l, "2026-03-01")
	for _, want := range []string{
		"━━━━ Natore ━━━━",
		"  ⏳ Time left until Iftar: 00 : 10 : 00",
		"  Time: 06:15 PM",
		"━━━━ 11 Ramadan · 01 Mar 2026 ━━━━",
		"  Sehri ends: 04:30 AM",
		"  Iftar starts: 06:15 PM",
		"📍 Select a district",
		"📅 Full month schedule",
	} {
		if !slices.Contains(lines, want) {
			t.Errorf("summary missing %q:\n%s", want, strings.Join(lines, "\n"))
		}
	}
}

func TestFormatSummaryEnded(t *testing.T) {
	l := labels.For("en")
	state := testState()
	state.Result = schedule.Result{}

	lines := formatSummary(state, l, "2026-03-02")
	for _, want := range []string{"  Ramadan is over!", "  Eid Mubarak", "━━━━ Ramadan · 02 Mar 2026 ━━━━"} {
		if !slices.Contains(lines, want) {
			t.Errorf("summary missing %q:\n%s", want, strings.Join(lines, "\n"))
		}
	}
}

func TestFormatSummaryError(t *testing.T) {
	l := labels.For("en")
	state := testState()
	state.Err = errors.New("connection refused")

	lines := formatSummary(state, l, "2026-03-01")
	if !slices.Contains(lines, "  ⚠ Schedule unavailable: connection refused") {
		t.Errorf("summary missing error line:\n%s", strings.Join(lines, "\n"))
	}
	for _, line := range lines {
		if strings.Contains(line, "⏳") {
			t.Errorf("countdown shown despite error: %q", line)
		}
	}
}

func TestFormatDistrictList(t *testing.T) {
	l := labels.For("bn")
	districts := []schedule.District{
		{ID: "natore", Name: "Natore", BnName: "নাটোর"},
		{ID: "dhaka", Name: "Dhaka", BnName: "ঢাকা"},
	}

	lines, ids := formatDistrictList(districts, "natore", l)
	if !slices.Contains(lines, "✓ নাটোর") || !slices.Contains(lines, "  ঢাকা") {
		t.Errorf("unexpected lines:\n%s", strings.Join(lines, "\n"))
	}
	if ids["ঢাকা"] != "dhaka" || ids["✓ নাটোর"] != "natore" {
		t.Errorf("ids = %v", ids)
	}
	if !isBackAction(lines[len(lines)-1]) {
		t.Errorf("last line = %q, want back action", lines[len(lines)-1])
	}

	lines, ids = formatDistrictList(nil, "", l)
	if len(ids) != 0 || !slices.Contains(lines, "  "+l.NoDistricts) {
		t.Errorf("empty list lines = %q", lines)
	}
}

func TestFormatScheduleTable(t *testing.T) {
	lines := formatScheduleTable(testState(), labels.For("en"))

	var current []string
	for _, line := range lines {
		if strings.HasPrefix(line, "▶ ") {
			current = append(current, line)
		}
	}
	if len(current) != 1 || !strings.Contains(current[0], "01 Mar 2026") {
		t.Errorf("current rows = %q", current)
	}
	if !strings.Contains(strings.Join(lines, "\n"), "28 Feb 2026") {
		t.Error("table missing first day")
	}
}

func TestIsSeparator(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"━━━━ Natore ━━━━", true},
		{"", true},
		{"  Sehri ends: 04:30 AM", false},
		{backAction, false},
	}
	for _, tt := range tests {
		if got := isSeparator(tt.line); got != tt.want {
			t.Errorf("isSeparator(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestClipboardText(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"  ⏳ Time left until Iftar: 00 : 10 : 00", "Time left until Iftar: 00 : 10 : 00"},
		{"▶ 11   01 Mar 2026", "11   01 Mar 2026"},
		{"  Sehri ends: 04:30 AM", "Sehri ends: 04:30 AM"},
	}
	for _, tt := range tests {
		if got := clipboardText(tt.line); got != tt.want {
			t.Errorf("clipboardText(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
