package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-portal-client/internal/clock"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.stopped = true }

type tickers struct {
	created []*fakeTicker
}

func (ts *tickers) new(time.Duration) clock.Ticker {
	f := &fakeTicker{ch: make(chan time.Time, 1)}
	ts.created = append(ts.created, f)
	return f
}

func (ts *tickers) last() *fakeTicker {
	return ts.created[len(ts.created)-1]
}

func TestClock_CountsDownAndExpiresOnce(t *testing.T) {
	ts := &tickers{}
	c := clock.New(clock.Config{NewTickerFunc: ts.new})

	require.False(t, c.Start(3))
	require.NotNil(t, c.C())

	tick, ok := c.Advance()
	require.True(t, ok)
	assert.Equal(t, clock.Tick{Remaining: 2, Total: 3, Fraction: 2.0 / 3.0}, tick)

	tick, ok = c.Advance()
	require.True(t, ok)
	assert.Equal(t, 1, tick.Remaining)
	assert.False(t, tick.Expired)

	tick, ok = c.Advance()
	require.True(t, ok)
	assert.True(t, tick.Expired)
	assert.Equal(t, 0, tick.Remaining)
	assert.Equal(t, 0.0, tick.Fraction)

	assert.Nil(t, c.C(), "an expired clock must not expose a channel")
	assert.True(t, ts.last().stopped)

	_, ok = c.Advance()
	assert.False(t, ok, "no tick after expiry")
}

func TestClock_NonPositiveDurationExpiresImmediately(t *testing.T) {
	tests := map[string]int{
		"zero":     0,
		"negative": -5,
	}

	for name, seconds := range tests {
		t.Run(name, func(t *testing.T) {
			ts := &tickers{}
			c := clock.New(clock.Config{NewTickerFunc: ts.new})

			assert.True(t, c.Start(seconds))
			assert.Nil(t, c.C())
			assert.Empty(t, ts.created, "no ticker should be started")
			assert.False(t, c.Running())
		})
	}
}

func TestClock_CancelStopsTicking(t *testing.T) {
	ts := &tickers{}
	c := clock.New(clock.Config{NewTickerFunc: ts.new})

	c.Start(10)
	c.Advance()
	c.Cancel()

	assert.True(t, ts.last().stopped)
	assert.Nil(t, c.C())
	assert.False(t, c.Running())

	_, ok := c.Advance()
	assert.False(t, ok)
	assert.Equal(t, 9, c.Tick().Remaining, "remaining time is kept after cancel")
}

func TestClock_RestartCancelsPrevious(t *testing.T) {
	ts := &tickers{}
	c := clock.New(clock.Config{NewTickerFunc: ts.new})

	c.Start(10)
	first := ts.last()
	c.Start(5)

	require.Len(t, ts.created, 2)
	assert.True(t, first.stopped)
	assert.False(t, ts.last().stopped)
	assert.Equal(t, clock.Tick{Remaining: 5, Total: 5, Fraction: 1}, c.Tick())
}

func TestClock_FollowsDeadlineWhenTicksAreLost(t *testing.T) {
	now := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
	ts := &tickers{}
	c := clock.New(clock.Config{
		NewTickerFunc: ts.new,
		Now:           func() time.Time { return now },
	})

	require.False(t, c.Start(10))

	// one tick delivered after four steps of wall time
	now = now.Add(4 * time.Second)
	tick, ok := c.Advance()
	require.True(t, ok)
	assert.Equal(t, 6, tick.Remaining)
	assert.False(t, tick.Expired)

	// part of a step left is still a step
	now = now.Add(5500 * time.Millisecond)
	tick, _ = c.Advance()
	assert.Equal(t, 1, tick.Remaining)

	// resumed long after the deadline
	now = now.Add(time.Minute)
	tick, ok = c.Advance()
	require.True(t, ok)
	assert.True(t, tick.Expired)
	assert.Equal(t, 0, tick.Remaining)
	assert.Nil(t, c.C())
}

func TestClock_StalledReceiverExpiresOnTime(t *testing.T) {
	c := clock.New(clock.Config{Interval: 10 * time.Millisecond})
	c.Start(3)
	defer c.Cancel()

	time.Sleep(100 * time.Millisecond)
	select {
	case <-c.C():
	case <-time.After(time.Second):
		t.Fatal("ticker did not fire")
	}
	tick, ok := c.Advance()
	require.True(t, ok)
	assert.True(t, tick.Expired)
}

func TestClock_RealTicker(t *testing.T) {
	c := clock.New(clock.Config{Interval: time.Millisecond})
	c.Start(2)
	defer c.Cancel()

	var last clock.Tick
	for c.Running() {
		select {
		case <-c.C():
			last, _ = c.Advance()
		case <-time.After(time.Second):
			t.Fatal("ticker did not fire")
		}
	}
	assert.True(t, last.Expired)
}
