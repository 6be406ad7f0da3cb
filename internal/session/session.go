// Package session owns the selection state and serializes every change that
// can trigger a re-resolution of the schedule.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cpuguy83/ramadanbar/internal/countdown"
	"github.com/cpuguy83/ramadanbar/internal/filter"
	"github.com/cpuguy83/ramadanbar/internal/schedule"
)

// Sink receives everything a display needs to render. Implementations must be
// safe to call from any goroutine.
type Sink interface {
	SetLoading(loading bool)
	SetError(err error)
	SetDistricts(districts []schedule.District, selected string)
	SetSchedule(district schedule.District, days []schedule.DayRecord, res schedule.Result)
	SetCountdown(text string)
}

// State is the user's selection.
type State struct {
	District     string
	Search       string
	DropdownOpen bool
}

// Snapshot is a consistent view of the session for observers.
type Snapshot struct {
	Loaded    bool
	State     State
	District  schedule.District
	Days      []schedule.DayRecord
	Result    schedule.Result
	Countdown string
	Err       error
}

// Config configures a Session.
type Config struct {
	District    string
	Tick        time.Duration
	ExpiryDelay time.Duration
	Clock       countdown.Clock
}

type (
	selectMsg   struct{ id string }
	searchMsg   struct{ query string }
	dropdownMsg struct{ open bool }
	loadMsg     struct {
		data *schedule.Data
		err  error
	}
	expiredMsg struct{ target time.Time }
)

// Session runs the event loop that ties the loader, the resolver, the
// countdown driver and the display together.
type Session struct {
	clock  countdown.Clock
	sink   Sink
	driver *countdown.Driver

	events chan any
	done   chan struct{}

	// Owned by the event loop.
	data *schedule.Data

	mu        sync.Mutex
	snap      Snapshot
	observers []func(Snapshot)
}

// New creates a Session. Run must be called to start processing.
func New(cfg Config, sink Sink) *Session {
	if cfg.Clock == nil {
		cfg.Clock = countdown.RealClock{}
	}

	s := &Session{
		clock:  cfg.Clock,
		sink:   sink,
		events: make(chan any, 16),
		done:   make(chan struct{}),
	}
	s.snap.State.District = cfg.District
	s.snap.Countdown = countdown.Sentinel

	s.driver = countdown.New(countdown.Config{
		Interval:    cfg.Tick,
		ExpiryDelay: cfg.ExpiryDelay,
		Clock:       cfg.Clock,
	}, s.onTick, s.onExpired)

	return s
}

// Observe registers fn to be called with a fresh snapshot after every
// resolution and countdown tick. It must be called before Run.
func (s *Session) Observe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Select requests a district change.
func (s *Session) Select(id string) {
	s.send(selectMsg{id: id})
}

// Search updates the district search query.
func (s *Session) Search(query string) {
	s.send(searchMsg{query: query})
}

// SetDropdownOpen records whether the district picker is open.
func (s *Session) SetDropdownOpen(open bool) {
	s.send(dropdownMsg{open: open})
}

// Loaded delivers the result of a schedule load attempt.
func (s *Session) Loaded(data *schedule.Data, err error) {
	s.send(loadMsg{data: data, err: err})
}

// send queues a message for the event loop. Messages sent after Run returns
// are dropped.
func (s *Session) send(msg any) {
	select {
	case s.events <- msg:
	case <-s.done:
	}
}

// Run processes events until ctx is cancelled. The countdown is stopped on
// every exit path.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	defer s.driver.Stop()

	s.sink.SetLoading(true)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-s.events:
			s.handle(msg)
		}
	}
}

func (s *Session) handle(msg any) {
	switch m := msg.(type) {
	case loadMsg:
		s.handleLoad(m)
	case selectMsg:
		s.handleSelect(m.id)
	case searchMsg:
		s.handleSearch(m.query)
	case dropdownMsg:
		s.update(func(snap *Snapshot) { snap.State.DropdownOpen = m.open })
	case expiredMsg:
		if !s.driver.Target().Equal(m.target) {
			slog.Debug("ignoring stale expiry", "target", m.target)
			return
		}
		s.resolve()
	}
}

func (s *Session) handleLoad(m loadMsg) {
	if m.err != nil {
		slog.Warn("schedule unavailable", "error", m.err)
		if s.data == nil {
			s.update(func(snap *Snapshot) { snap.Err = m.err })
			s.sink.SetError(m.err)
		}
		return
	}

	s.data = m.data
	s.sink.SetLoading(false)

	state := s.Snapshot().State
	if _, err := s.data.District(state.District); err != nil && len(s.data.Districts) > 0 {
		fallback := s.data.Districts[0].ID
		slog.Warn("configured district not found, using first district", "district", state.District, "fallback", fallback)
		state.District = fallback
	}

	s.update(func(snap *Snapshot) {
		snap.Loaded = true
		snap.State.District = state.District
		snap.Err = nil
	})
	s.publishDistricts()
	s.resolve()
}

func (s *Session) handleSelect(id string) {
	if s.data == nil {
		// Applied once the schedule arrives.
		s.update(func(snap *Snapshot) { snap.State.District = id })
		return
	}

	if _, err := s.data.District(id); err != nil {
		slog.Warn("rejecting district selection", "error", err)
		s.sink.SetError(err)
		return
	}

	slog.Info("district selected", "district", id)
	s.update(func(snap *Snapshot) {
		snap.State.District = id
		snap.State.Search = ""
		snap.State.DropdownOpen = false
	})
	s.publishDistricts()
	s.resolve()
}

func (s *Session) handleSearch(query string) {
	s.update(func(snap *Snapshot) { snap.State.Search = query })
	s.publishDistricts()
}

// publishDistricts sends the districts matching the current search.
func (s *Session) publishDistricts() {
	if s.data == nil {
		return
	}
	state := s.Snapshot().State
	s.sink.SetDistricts(filter.Search(s.data.Districts, state.Search), state.District)
}

// resolve recomputes the next event for the selected district and restarts
// the countdown.
func (s *Session) resolve() {
	if s.data == nil {
		return
	}

	id := s.Snapshot().State.District
	district, err := s.data.District(id)
	if err != nil {
		district = schedule.District{ID: id}
	}
	days := s.data.Days(id)

	res, err := schedule.Resolve(days, s.clock.Now())
	if err != nil {
		slog.Error("failed to resolve schedule", "district", id, "error", err)
		s.driver.Stop()
		s.update(func(snap *Snapshot) {
			snap.District = district
			snap.Days = days
			snap.Result = schedule.Result{}
			snap.Countdown = countdown.Sentinel
			snap.Err = err
		})
		s.sink.SetError(err)
		s.sink.SetCountdown(countdown.Sentinel)
		return
	}

	s.update(func(snap *Snapshot) {
		snap.District = district
		snap.Days = days
		snap.Result = res
		snap.Err = nil
	})
	s.sink.SetSchedule(district, days, res)

	if res.Ended() {
		slog.Info("no upcoming events", "district", id)
		s.driver.Stop()
		s.onTick(countdown.Sentinel)
		return
	}

	slog.Debug("next event", "district", id, "event", res.Next.Type, "target", res.Next.Target)
	s.driver.Start(res.Next.Target)
}

// onTick is called by the driver for every rendered countdown value.
func (s *Session) onTick(text string) {
	s.update(func(snap *Snapshot) { snap.Countdown = text })
	s.sink.SetCountdown(text)
}

// onExpired is called by the driver goroutine when a target has passed.
func (s *Session) onExpired(ctx context.Context) {
	target := s.driver.Target()
	select {
	case s.events <- expiredMsg{target: target}:
	case <-ctx.Done():
	case <-s.done:
	}
}

// update mutates the snapshot and notifies observers.
func (s *Session) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	snap := s.snap
	observers := s.observers
	s.mu.Unlock()

	for _, o := range observers {
		o(snap)
	}
}

// IsFormatError reports whether err came from a malformed schedule record.
func IsFormatError(err error) bool {
	var fe *schedule.ScheduleFormatError
	return errors.As(err, &fe)
}
