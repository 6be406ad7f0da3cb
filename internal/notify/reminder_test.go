package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/cpuguy83/ramadanbar/internal/calendar"
	"github.com/cpuguy83/ramadanbar/internal/labels"
	"github.com/cpuguy83/ramadanbar/internal/schedule"
)

var dhaka = time.FixedZone("BST", 6*60*60)

func testEvents(t *testing.T) []calendar.Event {
	t.Helper()
	days := []schedule.DayRecord{
		{Date: "2026-03-01", Ramadan: 11, Day: "Sunday", Sehri: "04:30 AM", Iftar: "06:15 PM"},
	}
	events, err := calendar.Events(schedule.District{ID: "natore", Name: "Natore"}, days, dhaka)
	if err != nil {
		t.Fatal(err)
	}
	return events
}

func TestDue(t *testing.T) {
	events := testEvents(t)
	before := []time.Duration{30 * time.Minute, 10 * time.Minute}

	tests := []struct {
		name string
		now  time.Time
		want []string
	}{
		{"nothing close", time.Date(2026, 3, 1, 3, 0, 0, 0, dhaka), nil},
		{"thirty minutes out", time.Date(2026, 3, 1, 4, 0, 0, 0, dhaka), []string{"natore-2026-03-01-sehri@ramadanbar/30m0s"}},
		{"ten minutes out", time.Date(2026, 3, 1, 4, 25, 0, 0, dhaka), []string{"natore-2026-03-01-sehri@ramadanbar/10m0s"}},
		{"iftar window", time.Date(2026, 3, 1, 17, 50, 0, 0, dhaka), []string{"natore-2026-03-01-iftar@ramadanbar/30m0s"}},
		{"after everything", time.Date(2026, 3, 1, 19, 0, 0, 0, dhaka), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due := Due(events, tt.now, before)
			var keys []string
			for _, r := range due {
				keys = append(keys, r.Key())
			}
			if strings.Join(keys, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Due() = %v, want %v", keys, tt.want)
			}
		})
	}
}

func TestDueNoLeadTimes(t *testing.T) {
	if due := Due(testEvents(t), time.Date(2026, 3, 1, 4, 25, 0, 0, dhaka), nil); due != nil {
		t.Errorf("Due() = %v, want nil", due)
	}
}

func TestReminderNotification(t *testing.T) {
	events := testEvents(t)
	now := time.Date(2026, 3, 1, 18, 5, 0, 0, dhaka)
	r := Reminder{Event: events[1], Before: 10 * time.Minute}

	n := r.Notification(labels.For("en"), now)
	if n.Summary != "Iftar starts 06:15 PM" {
		t.Errorf("summary = %q", n.Summary)
	}
	if n.Body != "Natore\n00 : 10 : 00" {
		t.Errorf("body = %q", n.Body)
	}
	if n.Urgency != UrgencyCritical || n.Key != r.Key() {
		t.Errorf("notification = %+v", n)
	}
}

func TestDigest(t *testing.T) {
	day := schedule.DayRecord{Date: "2026-03-01", Ramadan: 11, Day: "Sunday", Sehri: "04:30 AM", Iftar: "06:15 PM"}
	res := schedule.Result{CurrentDay: &day, Next: &schedule.NextEvent{Type: schedule.Sehri, Day: day}}

	n, err := Digest("নাটোর", res, dhaka, labels.For("bn"))
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if n.Summary != "11 রমজান · নাটোর" {
		t.Errorf("summary = %q", n.Summary)
	}
	want := "01 Mar 2026\nসেহরি শেষ 04:30 AM\nইফতার শুরু 06:15 PM"
	if n.Body != want {
		t.Errorf("body = %q, want %q", n.Body, want)
	}

	ended, err := Digest("Natore", schedule.Result{}, dhaka, labels.For("en"))
	if err != nil {
		t.Fatal(err)
	}
	if ended.Summary != "Ramadan is over!" || ended.Body != "Eid Mubarak" {
		t.Errorf("ended digest = %+v", ended)
	}
}

func TestNotifierDedup(t *testing.T) {
	n := &Notifier{notified: make(map[string]time.Time)}

	if !n.claim("a") {
		t.Fatal("first claim rejected")
	}
	if n.claim("a") {
		t.Error("duplicate claim accepted")
	}

	n.notified["a"] = time.Now().Add(-48 * time.Hour)
	n.CleanupOldNotifications(24 * time.Hour)
	if !n.claim("a") {
		t.Error("claim rejected after cleanup")
	}
}

func TestSendSkipsClaimedKey(t *testing.T) {
	// No bus connection: a claimed key must return before any D-Bus call.
	n := &Notifier{notified: map[string]time.Time{"natore-2026-03-01-iftar@ramadanbar/10m0s": time.Now()}}

	id, err := n.Send(Notification{Summary: "Iftar starts 06:15 PM", Key: "natore-2026-03-01-iftar@ramadanbar/10m0s"})
	if err != nil || id != 0 {
		t.Errorf("Send = %d, %v; want 0, nil", id, err)
	}
}
