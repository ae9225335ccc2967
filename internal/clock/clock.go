// Package clock implements the countdown that enforces a quiz deadline.
//
// A Clock is not safe for concurrent use. It is meant to be owned by a single
// event loop that selects on C() and calls Advance for every value received;
// a stopped clock returns a nil channel, so once Cancel returns the loop can
// never observe another tick.
package clock

import "time"

const defaultInterval = time.Second

// Ticker is the time source of a Clock.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTicker wraps time.NewTicker.
func NewTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

type Config struct {
	// NewTickerFunc defaults to NewTicker.
	NewTickerFunc func(d time.Duration) Ticker
	// Now defaults to time.Now.
	Now func() time.Time
	// Interval is the length of one countdown step, one second by default.
	Interval time.Duration
}

// Tick is the state of the countdown after one step.
type Tick struct {
	Remaining int
	Total     int
	Fraction  float64
	Expired   bool
}

type Clock struct {
	newTicker func(d time.Duration) Ticker
	now       func() time.Time
	interval  time.Duration

	ticker    Ticker
	deadline  time.Time
	total     int
	remaining int
}

func New(c Config) *Clock {
	cl := &Clock{
		newTicker: c.NewTickerFunc,
		now:       c.Now,
		interval:  c.Interval,
	}
	if cl.newTicker == nil {
		cl.newTicker = NewTicker
	}
	if cl.now == nil {
		cl.now = time.Now
	}
	if cl.interval <= 0 {
		cl.interval = defaultInterval
	}
	return cl
}

// Start begins a countdown of the given number of steps, cancelling any
// running one. It reports true when seconds is not positive: the countdown
// is then already expired and no tick will follow.
func (c *Clock) Start(seconds int) (expired bool) {
	c.Cancel()

	if seconds <= 0 {
		c.total, c.remaining = 0, 0
		return true
	}

	c.total, c.remaining = seconds, seconds
	c.deadline = c.now().Add(time.Duration(seconds) * c.interval)
	c.ticker = c.newTicker(c.interval)
	return false
}

// C is the channel to wait on for the next step. It is nil while the clock is
// not running.
func (c *Clock) C() <-chan time.Time {
	if c.ticker == nil {
		return nil
	}
	return c.ticker.C()
}

// Advance accounts for one value received from C. Every tick takes at least
// one step, and remaining never exceeds the steps left until the deadline set
// by Start, so ticks dropped by a stalled receiver cannot hold the countdown
// back. The tick that reaches zero has Expired set and stops the clock. ok is
// false if the clock was not running, in which case nothing changes.
func (c *Clock) Advance() (tick Tick, ok bool) {
	if c.ticker == nil {
		return c.Tick(), false
	}

	c.remaining--
	if left := c.stepsUntil(c.deadline); left < c.remaining {
		c.remaining = left
	}
	if c.remaining <= 0 {
		c.remaining = 0
		c.Cancel()
		t := c.Tick()
		t.Expired = true
		return t, true
	}
	return c.Tick(), true
}

// stepsUntil rounds the time left until t up to whole steps.
func (c *Clock) stepsUntil(t time.Time) int {
	left := t.Sub(c.now())
	if left <= 0 {
		return 0
	}
	return int((left + c.interval - 1) / c.interval)
}

// Cancel stops the countdown. Remaining time is kept for display.
func (c *Clock) Cancel() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

func (c *Clock) Running() bool {
	return c.ticker != nil
}

// Tick returns the current state without advancing.
func (c *Clock) Tick() Tick {
	t := Tick{Remaining: c.remaining, Total: c.total}
	if c.total > 0 {
		t.Fraction = float64(c.remaining) / float64(c.total)
	}
	return t
}
