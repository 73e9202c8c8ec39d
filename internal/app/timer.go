package app

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Countdown is the per-session countdown clock. It counts whole seconds
// down from a starting duration, one per tick; the tick cadence is the
// normal interval until panic mode sticks it to the accelerated one.
// Pausing suspends decrements without stopping the ticker.
//
// The countdown itself enforces nothing about session state: callers guard
// pause/panic requests, and the completion callback fires exactly once per
// countdown. All methods are safe for concurrent use.
type Countdown struct {
	clock       clockwork.Clock
	normalEvery time.Duration
	panicEvery  time.Duration

	mu        sync.Mutex
	remaining int
	paused    bool
	panicking bool
	done      bool
	onTick    func(remaining int)
	onDone    func()
	stop      chan struct{} // nil when no tick loop is running
}

// NewCountdown builds a countdown ticking at normalEvery, or panicEvery
// once panic mode is entered.
func NewCountdown(clock clockwork.Clock, normalEvery, panicEvery time.Duration) *Countdown {
	return &Countdown{
		clock:       clock,
		normalEvery: normalEvery,
		panicEvery:  panicEvery,
	}
}

// Start begins a fresh countdown of the given whole seconds. Any countdown
// already running is stopped first. onTick receives each new remaining
// value; onDone fires once when the countdown reaches zero.
func (c *Countdown) Start(seconds int, onTick func(int), onDone func()) {
	c.mu.Lock()
	c.stopLocked()
	c.remaining = seconds
	c.paused = false
	c.panicking = false
	c.done = false
	c.onTick = onTick
	c.onDone = onDone
	c.startLoopLocked(c.normalEvery)
	c.mu.Unlock()
}

// Reset discards the running countdown, clears pause and panic, and
// starts over.
func (c *Countdown) Reset(seconds int, onTick func(int), onDone func()) {
	c.Start(seconds, onTick, onDone)
}

// Stop halts ticking without firing the completion callback. Idempotent.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.stopLocked()
	c.paused = false
	c.panicking = false
	c.mu.Unlock()
}

// TogglePause flips the pause flag and reports the new value. A paused
// countdown keeps ticking but skips the decrement.
func (c *Countdown) TogglePause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = !c.paused
	return c.paused
}

// EnterPanic switches to the accelerated cadence without touching the
// remaining time. Sticky for the rest of the countdown; a no-op if already
// panicking or not running.
func (c *Countdown) EnterPanic() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.panicking || c.stop == nil {
		return false
	}
	c.panicking = true
	c.stopLocked()
	c.startLoopLocked(c.panicEvery)
	return true
}

// Remaining reports the seconds left on the countdown.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running reports whether a tick loop is active.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

func (c *Countdown) stopLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Countdown) startLoopLocked(every time.Duration) {
	stop := make(chan struct{})
	c.stop = stop
	go c.loop(every, stop)
}

func (c *Countdown) loop(every time.Duration, stop chan struct{}) {
	ticker := c.clock.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			if c.tick(stop) {
				return
			}
		}
	}
}

// tick applies one cadence beat. Returns true when this loop must exit,
// either because the countdown completed or because it was superseded.
func (c *Countdown) tick(stop chan struct{}) bool {
	c.mu.Lock()
	if c.stop != stop || c.done {
		c.mu.Unlock()
		return true
	}
	if c.paused {
		c.mu.Unlock()
		return false
	}
	c.remaining--
	rem := c.remaining
	onTick := c.onTick
	var onDone func()
	if rem <= 0 {
		c.done = true
		c.paused = false
		c.panicking = false
		c.stop = nil
		onDone = c.onDone
	}
	c.mu.Unlock()

	// Callbacks run outside the countdown lock so they may call back in.
	if onTick != nil {
		onTick(rem)
	}
	if onDone != nil {
		onDone()
		return true
	}
	return false
}
