package tray

import (
	"errors"
	"testing"
	"time"

	"github.com/cpuguy83/ramadanbar/internal/labels"
	"github.com/cpuguy83/ramadanbar/internal/schedule"
	"github.com/cpuguy83/ramadanbar/internal/session"
)

var dhaka = time.FixedZone("BST", 6*60*60)

func loadedSnapshot(target time.Time) session.Snapshot {
	day := schedule.DayRecord{Date: "2026-03-01", Ramadan: 11, Day: "Sunday", Sehri: "04:30 AM", Iftar: "06:15 PM"}
	return session.Snapshot{
		Loaded:    true,
		District:  schedule.District{ID: "natore", Name: "Natore", BnName: "নাটোর"},
		Result:    schedule.Result{CurrentDay: &day, Next: &schedule.NextEvent{Type: schedule.Iftar, Target: target, Day: day}},
		Countdown: "00 : 10 : 00",
	}
}

func TestStateFor(t *testing.T) {
	iftar := time.Date(2026, 3, 1, 18, 15, 0, 0, dhaka)

	tests := []struct {
		name string
		snap session.Snapshot
		now  time.Time
		want State
	}{
		{"loading", session.Snapshot{}, iftar, StateNormal},
		{"load failure", session.Snapshot{Err: errors.New("offline")}, iftar, StateStale},
		{"ended", session.Snapshot{Loaded: true}, iftar, StateEnded},
		{"far away", loadedSnapshot(iftar), iftar.Add(-time.Hour), StateNormal},
		{"imminent", loadedSnapshot(iftar), iftar.Add(-10 * time.Minute), StateImminent},
		{"window edge", loadedSnapshot(iftar), iftar.Add(-15 * time.Minute), StateImminent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StateFor(tt.snap, tt.now, 15*time.Minute); got != tt.want {
				t.Errorf("StateFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTooltip(t *testing.T) {
	iftar := time.Date(2026, 3, 1, 18, 15, 0, 0, dhaka)

	title, body := Tooltip(loadedSnapshot(iftar), labels.For("en"))
	if title != "Ramadan · Natore" {
		t.Errorf("title = %q", title)
	}
	if body != "Time left until Iftar\n00 : 10 : 00\nTime: 06:15 PM" {
		t.Errorf("body = %q", body)
	}

	title, body = Tooltip(session.Snapshot{Loaded: true, District: schedule.District{ID: "natore", BnName: "নাটোর"}}, labels.For("bn"))
	if title != "রমজান · নাটোর" || body != "রমজান শেষ!\nঈদ মোবারক" {
		t.Errorf("ended tooltip = %q / %q", title, body)
	}

	_, body = Tooltip(session.Snapshot{}, labels.For("en"))
	if body != "Loading schedule..." {
		t.Errorf("loading body = %q", body)
	}
}

func TestIconsDiffer(t *testing.T) {
	states := []State{StateNormal, StateImminent, StateEnded, StateStale}
	for i, a := range states {
		if len(iconFor(a)) != iconSize*iconSize*4 {
			t.Fatalf("icon %v has wrong size", a)
		}
		for _, b := range states[i+1:] {
			if string(iconFor(a)) == string(iconFor(b)) {
				t.Errorf("icons for %v and %v are identical", a, b)
			}
		}
	}
}

func TestTrayStatusAndPixmap(t *testing.T) {
	tests := []struct {
		state  State
		status string
	}{
		{StateNormal, "Active"},
		{StateImminent, "NeedsAttention"},
		{StateEnded, "Active"},
		{StateStale, "Active"},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			tr := &Tray{state: tt.state}
			if got := tr.getStatus(); got != tt.status {
				t.Errorf("status = %q, want %q", got, tt.status)
			}
			pixmap := tr.getIconPixmap()
			if len(pixmap) != 1 || pixmap[0].Width != iconSize || string(pixmap[0].Data) != string(iconFor(tt.state)) {
				t.Errorf("pixmap does not match %v icon", tt.state)
			}
		})
	}
}
