package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/cpuguy83/ramadanbar/internal/schedule"
)

var dhaka = time.FixedZone("BST", 6*60*60)

var natore = schedule.District{ID: "natore", Name: "Natore", BnName: "নাটোর"}

func testDays() []schedule.DayRecord {
	return []schedule.DayRecord{
		{Date: "2026-02-19", Ramadan: 1, Day: "Thursday", Sehri: "05:07 AM", Iftar: "05:52 PM"},
		{Date: "2026-02-20", Ramadan: 2, Day: "Friday", Sehri: "05:06 AM", Iftar: "05:53 PM"},
	}
}

func TestEvents(t *testing.T) {
	events, err := Events(natore, testDays(), dhaka)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}

	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}

	want := []struct {
		typ   schedule.EventType
		start time.Time
		uid   string
	}{
		{schedule.Sehri, time.Date(2026, 2, 19, 5, 7, 0, 0, dhaka), "natore-2026-02-19-sehri@ramadanbar"},
		{schedule.Iftar, time.Date(2026, 2, 19, 17, 52, 0, 0, dhaka), "natore-2026-02-19-iftar@ramadanbar"},
		{schedule.Sehri, time.Date(2026, 2, 20, 5, 6, 0, 0, dhaka), "natore-2026-02-20-sehri@ramadanbar"},
		{schedule.Iftar, time.Date(2026, 2, 20, 17, 53, 0, 0, dhaka), "natore-2026-02-20-iftar@ramadanbar"},
	}

	for i, w := range want {
		e := events[i]
		if e.Type != w.typ || !e.Start.Equal(w.start) || e.UID != w.uid {
			t.Errorf("event %d = {%v %v %s}, want {%v %v %s}", i, e.Type, e.Start, e.UID, w.typ, w.start, w.uid)
		}
		if e.Duration() != eventLength {
			t.Errorf("event %d duration = %v", i, e.Duration())
		}
	}

	if events[0].Summary != "Sehri ends (Natore)" || events[1].Summary != "Iftar (Natore)" {
		t.Errorf("summaries = %q, %q", events[0].Summary, events[1].Summary)
	}
	if events[2].Description != "Ramadan 2, Friday" {
		t.Errorf("description = %q", events[2].Description)
	}
}

func TestEventsFormatError(t *testing.T) {
	days := testDays()
	days = append(days, schedule.DayRecord{Date: "2026-02-21", Ramadan: 3, Sehri: "05:05 AM", Iftar: "18:16"})

	events, err := Events(natore, days, dhaka)
	var fe *schedule.ScheduleFormatError
	if !errors.As(err, &fe) || fe.Record.Date != "2026-02-21" {
		t.Fatalf("error = %v, want format error for 2026-02-21", err)
	}
	if len(events) != 4 {
		t.Errorf("got %d events, want the 4 from well-formed records", len(events))
	}
}

func TestUpcoming(t *testing.T) {
	events, err := Events(natore, testDays(), dhaka)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"before everything", time.Date(2026, 2, 18, 0, 0, 0, 0, dhaka), 4},
		{"after first sehri", time.Date(2026, 2, 19, 6, 0, 0, 0, dhaka), 3},
		{"exactly at iftar", time.Date(2026, 2, 19, 17, 52, 0, 0, dhaka), 2},
		{"after everything", time.Date(2026, 2, 21, 0, 0, 0, 0, dhaka), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(Upcoming(events, tt.now)); got != tt.want {
				t.Errorf("Upcoming() = %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestIsUpcoming(t *testing.T) {
	e := Event{Start: time.Date(2026, 2, 19, 5, 7, 0, 0, dhaka)}

	tests := []struct {
		name   string
		now    time.Time
		within time.Duration
		want   bool
	}{
		{"inside window", e.Start.Add(-5 * time.Minute), 10 * time.Minute, true},
		{"window edge", e.Start.Add(-10 * time.Minute), 10 * time.Minute, true},
		{"outside window", e.Start.Add(-11 * time.Minute), 10 * time.Minute, false},
		{"already started", e.Start, 10 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.IsUpcoming(tt.now, tt.within); got != tt.want {
				t.Errorf("IsUpcoming() = %v, want %v", got, tt.want)
			}
		})
	}
}
