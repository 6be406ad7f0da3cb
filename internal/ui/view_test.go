package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/cpuguy83/ramadanbar/internal/countdown"
	"github.com/cpuguy83/ramadanbar/internal/labels"
	"github.com/cpuguy83/ramadanbar/internal/schedule"
)

func testDays() []schedule.DayRecord {
	return []schedule.DayRecord{
		{Date: "2026-02-19", Ramadan: 1, Day: "Thursday", Sehri: "05:07 AM", Iftar: "05:52 PM"},
		{Date: "2026-02-20", Ramadan: 2, Day: "Friday", Sehri: "05:06 AM", Iftar: "05:53 PM"},
		{Date: "2026-02-21", Ramadan: 3, Day: "Saturday", Sehri: "05:05 AM", Iftar: "05:53 PM"},
	}
}

func TestViewState(t *testing.T) {
	v := NewView()
	if s := v.State(); !s.Loading || s.Countdown != countdown.Sentinel {
		t.Fatalf("initial state = %+v", s)
	}

	v.SetError(errors.New("offline"))
	days := testDays()
	natore := schedule.District{ID: "natore", Name: "Natore"}
	v.SetSchedule(natore, days, schedule.Result{CurrentDay: &days[1]})
	v.SetCountdown("00 : 00 : 05")

	s := v.State()
	if s.Loading || s.Err != nil {
		t.Errorf("schedule did not clear loading/error: %+v", s)
	}
	if s.Selected != "natore" || len(s.Days) != 3 || s.Countdown != "00 : 00 : 05" {
		t.Errorf("state = %+v", s)
	}
}

func TestRows(t *testing.T) {
	days := testDays()
	rows := Rows(days, &days[1])

	if len(rows) != 3 {
		t.Fatalf("got %d rows", len(rows))
	}
	for i, r := range rows {
		if r.Current != (i == 1) {
			t.Errorf("row %d current = %v", i, r.Current)
		}
	}
	if rows[0].Date != "19 Feb 2026" || rows[0].Weekday != "Thursday" || rows[0].Sehri != "05:07 AM" {
		t.Errorf("row 0 = %+v", rows[0])
	}

	for _, r := range Rows(days, nil) {
		if r.Current {
			t.Errorf("row %d highlighted without a current day", r.Ramadan)
		}
	}
}

func TestTodayHeading(t *testing.T) {
	days := testDays()

	title, date := TodayHeading(schedule.Result{CurrentDay: &days[2]}, labels.For("bn"), "2026-02-21")
	if title != "3 রমজান" || date != "21 Feb 2026" {
		t.Errorf("heading = %q, %q", title, date)
	}

	title, date = TodayHeading(schedule.Result{}, labels.For("en"), "2026-03-25")
	if title != "Ramadan" || date != "25 Mar 2026" {
		t.Errorf("fallback heading = %q, %q", title, date)
	}
}

func TestStatusText(t *testing.T) {
	l := labels.For("en")
	formatErr := &schedule.ScheduleFormatError{Field: schedule.FieldSehri, Value: "4:30", Err: errors.New("bad")}

	tests := []struct {
		name   string
		state  ViewState
		prefix string
	}{
		{"ok", ViewState{}, ""},
		{"loading", ViewState{Loading: true}, "Loading schedule..."},
		{"load failure", ViewState{Loading: true, Err: errors.New("offline")}, "⚠ Schedule unavailable"},
		{"format error", ViewState{Err: formatErr}, "⚠ Invalid schedule record"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StatusText(tt.state, l)
			if tt.prefix == "" {
				if got != "" {
					t.Errorf("StatusText() = %q, want empty", got)
				}
				return
			}
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("StatusText() = %q, want prefix %q", got, tt.prefix)
			}
		})
	}
}
