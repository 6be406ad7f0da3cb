package countdown

import (
	"sync"
	"sync/atomic"
	"time"
)

// Clock provides time to the driver.
// This interface allows time to be mocked in tests.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the subset of *time.Ticker the driver uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock provides actual system time.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// NewTicker returns a ticker backed by time.NewTicker.
func (RealClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// TestClock is a manually advanced clock for tests. Tickers created from it
// fire only when Advance is called.
type TestClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*TestTicker
}

// NewTestClock returns a TestClock set to now.
func NewTestClock(now time.Time) *TestClock {
	return &TestClock{now: now}
}

// Now returns the test time.
func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NewTicker returns a ticker driven by Advance.
func (c *TestClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &TestTicker{c: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

// Set moves the clock to now without delivering ticks.
func (c *TestClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Advance moves the clock forward and delivers one tick to every live ticker.
// Like time.Ticker, a tick is dropped if the previous one was not consumed.
func (c *TestClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	tickers := append([]*TestTicker(nil), c.tickers...)
	c.mu.Unlock()

	for _, t := range tickers {
		if t.Stopped() {
			continue
		}
		select {
		case t.c <- now:
		default:
		}
	}
}

// Ticker returns the i-th ticker created from the clock.
func (c *TestClock) Ticker(i int) *TestTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickers[i]
}

// Tickers returns the number of tickers created so far.
func (c *TestClock) Tickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

// TestTicker is a ticker created by TestClock.
type TestTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func (t *TestTicker) C() <-chan time.Time { return t.c }
func (t *TestTicker) Stop()               { t.stopped.Store(true) }

// Stopped reports whether Stop was called.
func (t *TestTicker) Stopped() bool { return t.stopped.Load() }
