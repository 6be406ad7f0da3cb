package calendar

import (
	"bytes"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cpuguy83/ramadanbar/internal/schedule"
)

func TestWriteReadICS(t *testing.T) {
	events, err := Events(natore, testDays(), dhaka)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "sub", "ramadan.ics")
	if err := WriteICS(path, events); err != nil {
		t.Fatalf("WriteICS: %v", err)
	}

	got, err := ReadICS(path)
	if err != nil {
		t.Fatalf("ReadICS: %v", err)
	}

	if len(got) != len(events) {
		t.Fatalf("read %d events, want %d", len(got), len(events))
	}

	for i := range events {
		want, have := events[i], got[i]
		if have.UID != want.UID || have.Type != want.Type || have.Summary != want.Summary {
			t.Errorf("event %d = %+v, want %+v", i, have, want)
		}
		if !have.Start.Equal(want.Start) || !have.End.Equal(want.End) {
			t.Errorf("event %d times = %v-%v, want %v-%v", i, have.Start, have.End, want.Start, want.End)
		}
		if have.Ramadan != want.Ramadan || have.District != "natore" || have.Location != "Natore" {
			t.Errorf("event %d metadata = %+v", i, have)
		}
	}
}

func TestEncodeUsesUTC(t *testing.T) {
	events, err := Events(natore, testDays()[:1], dhaka)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, events); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	out := buf.String()
	// 05:07 at +06:00 is 23:07 UTC the previous day.
	if !strings.Contains(out, "DTSTART:20260218T230700Z") {
		t.Errorf("missing UTC start in:\n%s", out)
	}
	if !strings.Contains(out, "X-RAMADANBAR-TYPE:sehri") {
		t.Errorf("missing event type in:\n%s", out)
	}
}

func TestParseICSSkipsForeignEvents(t *testing.T) {
	const data = "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"PRODID:-//Other//EN\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:meeting@example.com\r\n" +
		"DTSTAMP:20260201T000000Z\r\n" +
		"DTSTART:20260219T100000Z\r\n" +
		"SUMMARY:Standup\r\n" +
		"END:VEVENT\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:natore-2026-02-19-iftar@ramadanbar\r\n" +
		"DTSTAMP:20260201T000000Z\r\n" +
		"DTSTART:20260219T115200Z\r\n" +
		"SUMMARY:Iftar (Natore)\r\n" +
		"X-RAMADANBAR-TYPE:iftar\r\n" +
		"X-RAMADANBAR-RAMADAN:1\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	events, err := ParseICS(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseICS: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	if e.Type != schedule.Iftar || e.Ramadan != 1 {
		t.Errorf("event = %+v", e)
	}
	if e.Duration() != eventLength {
		t.Errorf("default duration = %v, want %v", e.Duration(), eventLength)
	}
}

func TestWriteICSConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ramadan.ics")

	districts := []schedule.District{natore, {ID: "dhaka", Name: "Dhaka"}}
	errs := make(chan error, len(districts)*5)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		for _, d := range districts {
			d := d
			wg.Add(1)
			go func() {
				defer wg.Done()
				events, err := Events(d, testDays(), dhaka)
				if err == nil {
					err = WriteICS(path, events)
				}
				errs <- err
			}()
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("WriteICS: %v", err)
		}
	}

	got, err := ReadICS(path)
	if err != nil {
		t.Fatalf("ReadICS: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("read %d events, want 4", len(got))
	}
	for _, e := range got {
		if e.District != got[0].District {
			t.Errorf("file mixes districts %s and %s", got[0].District, e.District)
		}
	}

	leftovers, _ := filepath.Glob(path + ".*.tmp")
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}
