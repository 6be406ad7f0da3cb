// Package countdown drives the live "time left" display for the next event.
package countdown

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// State is the driver state.
type State int

const (
	// Idle means there is no target to count down to.
	Idle State = iota
	// Counting means the target is in the future and ticks update the display.
	Counting
	// Expired means the target was reached and a re-resolution is pending.
	Expired
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Counting:
		return "counting"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Config configures a Driver.
type Config struct {
	// Interval is the tick period (default: 1s).
	Interval time.Duration

	// ExpiryDelay is how long the sentinel stays up after the target is
	// reached before re-resolution is requested (default: 1s).
	ExpiryDelay time.Duration

	// Clock is the time source (default: RealClock).
	Clock Clock
}

// Driver counts down to a target instant. It owns at most one ticking
// goroutine at a time.
type Driver struct {
	cfg     Config
	display func(string)
	expired func(ctx context.Context)

	// handleMu serializes Start and Stop. It is never taken by the ticking
	// goroutine, so releasing a handle can wait for that goroutine to exit.
	handleMu sync.Mutex
	current  *handle

	mu     sync.Mutex
	state  State
	target time.Time
	last   string
}

// handle is the ownership token for one ticking goroutine.
type handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// release cancels the goroutine and waits for it to exit. Releasing a handle
// more than once is a no-op.
func (h *handle) release() {
	h.cancel()
	<-h.done
}

// New creates a Driver. display receives every rendered countdown value;
// expired is called once per target, from the ticking goroutine, when the
// expiry delay has elapsed. expired must return promptly once ctx is done.
func New(cfg Config, display func(string), expired func(ctx context.Context)) *Driver {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.ExpiryDelay < 0 {
		cfg.ExpiryDelay = 0
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}
	if display == nil {
		display = func(string) {}
	}
	if expired == nil {
		expired = func(context.Context) {}
	}

	return &Driver{
		cfg:     cfg,
		display: display,
		expired: expired,
		last:    Sentinel,
	}
}

// Start begins counting down to target. Any previous countdown is torn down
// before Start returns.
func (d *Driver) Start(target time.Time) {
	d.handleMu.Lock()
	defer d.handleMu.Unlock()

	d.releaseLocked()

	d.mu.Lock()
	d.state = Counting
	d.target = target
	d.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{cancel: cancel, done: make(chan struct{})}
	ticker := d.cfg.Clock.NewTicker(d.cfg.Interval)
	d.current = h

	slog.Debug("countdown started", "target", target)
	go d.run(ctx, h, ticker, target)
}

// Stop tears down the current countdown, if any, and returns to Idle.
func (d *Driver) Stop() {
	d.handleMu.Lock()
	defer d.handleMu.Unlock()

	d.releaseLocked()

	d.mu.Lock()
	d.state = Idle
	d.target = time.Time{}
	d.last = Sentinel
	d.mu.Unlock()
}

// releaseLocked releases the current handle. handleMu must be held.
func (d *Driver) releaseLocked() {
	if d.current == nil {
		return
	}
	d.current.release()
	d.current = nil
}

// State returns the current driver state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Target returns the instant being counted down to (zero when Idle).
func (d *Driver) Target() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.target
}

// Display returns the last rendered countdown value.
func (d *Driver) Display() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// run is the ticking goroutine for one target.
func (d *Driver) run(ctx context.Context, h *handle, ticker Ticker, target time.Time) {
	defer close(h.done)
	defer ticker.Stop()

	expiredAt, expired := d.update(target, d.cfg.Clock.Now())

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}

		now := d.cfg.Clock.Now()
		if !expired {
			expiredAt, expired = d.update(target, now)
			continue
		}

		if now.Sub(expiredAt) >= d.cfg.ExpiryDelay {
			slog.Debug("countdown expired, requesting resolution", "target", target)
			d.expired(ctx)
			return
		}
	}
}

// update recomputes the display from the absolute target. It reports the
// moment of expiry once the remaining time is zero or less.
func (d *Driver) update(target, now time.Time) (time.Time, bool) {
	secs := Remaining(target, now)
	text := formatSeconds(secs)

	d.mu.Lock()
	d.last = text
	if secs <= 0 {
		d.state = Expired
	}
	d.mu.Unlock()

	d.display(text)
	return now, secs <= 0
}
