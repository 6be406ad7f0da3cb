package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cpuguy83/ramadanbar/internal/countdown"
	"github.com/cpuguy83/ramadanbar/internal/schedule"
)

var dhaka = time.FixedZone("BST", 6*60*60)

type fakeSink struct {
	loading    chan bool
	errs       chan error
	districts  chan []schedule.District
	schedules  chan schedule.Result
	countdowns chan string
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		loading:    make(chan bool, 64),
		errs:       make(chan error, 64),
		districts:  make(chan []schedule.District, 64),
		schedules:  make(chan schedule.Result, 64),
		countdowns: make(chan string, 256),
	}
}

func (f *fakeSink) SetLoading(loading bool) { f.loading <- loading }
func (f *fakeSink) SetError(err error)      { f.errs <- err }
func (f *fakeSink) SetDistricts(d []schedule.District, _ string) {
	f.districts <- d
}
func (f *fakeSink) SetSchedule(_ schedule.District, _ []schedule.DayRecord, res schedule.Result) {
	f.schedules <- res
}
func (f *fakeSink) SetCountdown(text string) { f.countdowns <- text }

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sink update")
		var zero T
		return zero
	}
}

// waitCountdown drains countdown updates until want is seen.
func waitCountdown(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-ch:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for countdown %q", want)
		}
	}
}

func testData() *schedule.Data {
	return &schedule.Data{
		Districts: []schedule.District{
			{ID: "natore", Name: "Natore", BnName: "নাটোর"},
			{ID: "dhaka", Name: "Dhaka", BnName: "ঢাকা"},
			{ID: "broken", Name: "Broken"},
			{ID: "empty", Name: "Empty"},
		},
		Schedule: map[string][]schedule.DayRecord{
			"natore": {{Date: "2026-03-01", Ramadan: 11, Day: "Sunday", Sehri: "04:30 AM", Iftar: "06:15 PM"}},
			"dhaka":  {{Date: "2026-03-01", Ramadan: 11, Day: "Sunday", Sehri: "04:28 AM", Iftar: "06:13 PM"}},
			"broken": {{Date: "2026-03-01", Ramadan: 11, Day: "Sunday", Sehri: "4:30", Iftar: "06:15 PM"}},
		},
	}
}

func start(t *testing.T, now time.Time, district string) (*Session, *fakeSink, *countdown.TestClock) {
	t.Helper()
	clock := countdown.NewTestClock(now)
	sink := newFakeSink()
	s := New(Config{District: district, Tick: time.Second, ExpiryDelay: time.Second, Clock: clock}, sink)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errc
	})

	if !receive(t, sink.loading) {
		t.Fatal("expected loading state on start")
	}
	return s, sink, clock
}

func TestSessionResolvesOnLoad(t *testing.T) {
	s, sink, _ := start(t, time.Date(2026, 3, 1, 3, 0, 0, 0, dhaka), "natore")

	s.Loaded(testData(), nil)

	if receive(t, sink.loading) {
		t.Error("loading not cleared after load")
	}
	if got := receive(t, sink.districts); len(got) != 4 {
		t.Errorf("districts = %d, want 4", len(got))
	}

	res := receive(t, sink.schedules)
	if res.Next == nil || res.Next.Type != schedule.Sehri {
		t.Fatalf("next = %+v, want sehri", res.Next)
	}
	waitCountdown(t, sink.countdowns, "01 : 30 : 00")

	snap := s.Snapshot()
	if !snap.Loaded || snap.District.ID != "natore" || snap.Countdown != "01 : 30 : 00" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestSessionRollsOverOnExpiry(t *testing.T) {
	s, sink, clock := start(t, time.Date(2026, 3, 1, 4, 29, 59, 0, dhaka), "natore")

	s.Loaded(testData(), nil)
	if res := receive(t, sink.schedules); res.Next == nil || res.Next.Type != schedule.Sehri {
		t.Fatalf("first resolution = %+v, want sehri", res.Next)
	}
	waitCountdown(t, sink.countdowns, "00 : 00 : 01")

	clock.Advance(time.Second)
	waitCountdown(t, sink.countdowns, countdown.Sentinel)

	clock.Advance(time.Second)
	res := receive(t, sink.schedules)
	if res.Next == nil || res.Next.Type != schedule.Iftar {
		t.Fatalf("second resolution = %+v, want iftar", res.Next)
	}
	if res.CurrentDay == nil || res.CurrentDay.Date != "2026-03-01" {
		t.Errorf("current day = %+v", res.CurrentDay)
	}
	waitCountdown(t, sink.countdowns, "13 : 44 : 59")
}

func TestSessionEndedState(t *testing.T) {
	s, sink, _ := start(t, time.Date(2026, 3, 1, 19, 0, 0, 0, dhaka), "natore")

	s.Loaded(testData(), nil)
	res := receive(t, sink.schedules)
	if !res.Ended() || res.CurrentDay != nil {
		t.Fatalf("result = %+v, want ended", res)
	}
	waitCountdown(t, sink.countdowns, countdown.Sentinel)

	s.Select("empty")
	if res := receive(t, sink.schedules); !res.Ended() {
		t.Errorf("empty district result = %+v, want ended", res)
	}
}

func TestSessionSelection(t *testing.T) {
	s, sink, _ := start(t, time.Date(2026, 3, 1, 3, 0, 0, 0, dhaka), "natore")

	s.Loaded(testData(), nil)
	receive(t, sink.schedules)

	s.Select("sylhet")
	err := receive(t, sink.errs)
	if !errors.Is(err, schedule.ErrUnknownDistrict) {
		t.Errorf("error = %v, want ErrUnknownDistrict", err)
	}

	s.Select("dhaka")
	res := receive(t, sink.schedules)
	if res.Next == nil || res.Next.Day.Sehri != "04:28 AM" {
		t.Fatalf("next = %+v, want dhaka sehri", res.Next)
	}
	waitCountdown(t, sink.countdowns, "01 : 28 : 00")

	if got := s.Snapshot().State.District; got != "dhaka" {
		t.Errorf("selected = %q, want dhaka", got)
	}
}

func TestSessionSearch(t *testing.T) {
	s, sink, _ := start(t, time.Date(2026, 3, 1, 3, 0, 0, 0, dhaka), "natore")

	s.Loaded(testData(), nil)
	receive(t, sink.districts)

	s.SetDropdownOpen(true)
	s.Search("ঢা")
	got := receive(t, sink.districts)
	if len(got) != 1 || got[0].ID != "dhaka" {
		t.Errorf("search result = %+v, want dhaka", got)
	}

	s.Select("dhaka")
	receive(t, sink.districts)
	receive(t, sink.schedules)

	state := s.Snapshot().State
	if state.Search != "" || state.DropdownOpen {
		t.Errorf("state after selection = %+v, want search cleared and dropdown closed", state)
	}
}

func TestSessionFormatError(t *testing.T) {
	s, sink, clock := start(t, time.Date(2026, 3, 1, 3, 0, 0, 0, dhaka), "broken")

	s.Loaded(testData(), nil)
	err := receive(t, sink.errs)
	if !IsFormatError(err) {
		t.Fatalf("error = %v, want format error", err)
	}
	waitCountdown(t, sink.countdowns, countdown.Sentinel)

	if clock.Tickers() != 0 {
		t.Errorf("countdown started despite format error")
	}
	if snap := s.Snapshot(); snap.Err == nil {
		t.Error("snapshot error not set")
	}
}

func TestSessionUnknownConfiguredDistrict(t *testing.T) {
	s, sink, _ := start(t, time.Date(2026, 3, 1, 3, 0, 0, 0, dhaka), "sylhet")

	s.Loaded(testData(), nil)
	receive(t, sink.schedules)

	if got := s.Snapshot().State.District; got != "natore" {
		t.Errorf("district = %q, want fallback natore", got)
	}
}

func TestSessionLoadFailure(t *testing.T) {
	s, sink, _ := start(t, time.Date(2026, 3, 1, 3, 0, 0, 0, dhaka), "natore")

	s.Loaded(nil, errors.New("connection refused"))
	if err := receive(t, sink.errs); err == nil {
		t.Fatal("expected load error")
	}
	if snap := s.Snapshot(); snap.Loaded || snap.Err == nil {
		t.Errorf("snapshot = %+v, want unloaded with error", snap)
	}

	s.Loaded(testData(), nil)
	receive(t, sink.schedules)
	if snap := s.Snapshot(); !snap.Loaded || snap.Err != nil {
		t.Errorf("snapshot after retry = %+v", snap)
	}
}
