package core

import "time"

// Time is a point-in-time view of simulation timing handed to update and
// draw callbacks.
type Time struct {
	// Time since the previous snapshot.
	Elapsed time.Duration
	// Cumulative time since the tracker was created or last reset.
	Total time.Duration
	// True when the host could not keep up with its target step.
	IsRunningSlowly bool
}

// TimeTracker accumulates elapsed simulation time into a Time snapshot.
// Snapshots are returned by value, so callers may keep them across
// increments. Not safe for concurrent use.
type TimeTracker struct {
	time Time
}

func NewTimeTracker() *TimeTracker {
	return &TimeTracker{}
}

// Reset zeroes the tracker and returns the cleared snapshot.
func (tt *TimeTracker) Reset() Time {
	tt.time = Time{}
	return tt.time
}

// Increment advances the tracker by delta and returns the new snapshot.
func (tt *TimeTracker) Increment(delta time.Duration, runningSlowly bool) Time {
	tt.time.Elapsed = delta
	tt.time.Total += delta
	tt.time.IsRunningSlowly = runningSlowly
	return tt.time
}

// Current returns the last snapshot produced by the tracker.
func (tt *TimeTracker) Current() Time {
	return tt.time
}
