package core

import (
	"sync"
	"time"
)

// TimeSource provides the wall clock used by stopwatches. Tests swap it
// for a FakeTimeSource to drive the host loop deterministically.
type TimeSource interface {
	Now() time.Time
}

type systemTimeSource struct{}

func (systemTimeSource) Now() time.Time { return time.Now() }

// SystemTimeSource is the default TimeSource backed by time.Now.
var SystemTimeSource TimeSource = systemTimeSource{}

// FakeTimeSource is a manually advanced TimeSource.
type FakeTimeSource struct {
	mu      sync.Mutex
	current time.Time
}

func NewFakeTimeSource(start time.Time) *FakeTimeSource {
	return &FakeTimeSource{current: start}
}

func (f *FakeTimeSource) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Advance moves the fake clock forward by d.
func (f *FakeTimeSource) Advance(d time.Duration) {
	f.mu.Lock()
	f.current = f.current.Add(d)
	f.mu.Unlock()
}

// Clock is a stopwatch measuring wall time since it was last started.
type Clock struct {
	source    TimeSource
	startTime time.Time
	running   bool
	elapsed   time.Duration
}

func NewClock(source TimeSource) *Clock {
	if source == nil {
		source = SystemTimeSource
	}
	return &Clock{source: source}
}

// Starts the clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = c.source.Now()
	c.running = true
	c.elapsed = 0
}

// Restart is an alias of Start kept for readability at call sites that
// re-baseline a running clock.
func (c *Clock) Restart() {
	c.Start()
}

// Stops the clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.elapsed = c.Elapsed()
	c.running = false
}

// Elapsed returns the time since the last Start. A stopped clock reports the
// value it had when it was stopped.
func (c *Clock) Elapsed() time.Duration {
	if c.running {
		return c.source.Now().Sub(c.startTime)
	}
	return c.elapsed
}

// ElapsedMilliseconds returns Elapsed as fractional milliseconds.
func (c *Clock) ElapsedMilliseconds() float64 {
	return DurationToMilliseconds(c.Elapsed())
}

func (c *Clock) IsRunning() bool {
	return c.running
}

// DurationToMilliseconds converts d to fractional milliseconds.
func DurationToMilliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// MillisecondsToDuration converts fractional milliseconds to a Duration,
// truncating below nanosecond precision.
func MillisecondsToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
