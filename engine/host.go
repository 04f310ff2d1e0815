package engine

import (
	"fmt"
	"time"

	"github.com/spaghettifunk/ultraviolet/engine/core"
	"github.com/spaghettifunk/ultraviolet/engine/math"
)

const (
	DefaultTargetElapsedTime   = time.Second / 60
	DefaultInactiveSleepTime   = 20 * time.Millisecond
	DefaultSlowFrameThreshold  = 1.05
	DefaultMaxCatchUpUpdates   = 10
	DefaultRunningSlowlyFrames = 5
)

// Host is the application driven by a HostCore.
type Host interface {
	// IsActive reports whether the application window has foreground status.
	IsActive() bool
	// Disposed is checked after every Update; a disposed host aborts the tick.
	Disposed() bool
	Update(t core.Time) error
	Draw(t core.Time) error
	// UpdateSuspended is the lightweight update used while fully suspended.
	UpdateSuspended() error
	// ProcessWorkItems runs callbacks queued by other goroutines.
	ProcessWorkItems() error
}

// HostCoreOptions tunes the slow-frame policy of a HostCore. Zero values
// select the defaults.
type HostCoreOptions struct {
	TimeSource core.TimeSource
	Sleep      func(time.Duration)

	// A frame slower than TargetElapsedTime*SlowFrameThreshold marks the
	// host as running slowly.
	SlowFrameThreshold float64
	// Upper bound on catch-up updates run in a single tick.
	MaxCatchUpUpdates int
	// Number of on-time ticks before the running slowly flag clears.
	RunningSlowlyFrames int
}

type tickState uint8

const (
	tickStateIdle tickState = iota
	tickStateCatchingUp
	tickStateSteadyStep
	tickStateDone
)

// HostCore runs one tick of a host at a time, in fixed or variable
// timestep mode. It must only be used from the main simulation thread.
type HostCore struct {
	host Host

	sleep               func(time.Duration)
	slowFrameThreshold  float64
	maxCatchUpUpdates   int
	runningSlowlyFrames int

	tickTimer  *core.Clock
	frameTimer *core.Clock

	updateTimeTracker *core.TimeTracker
	drawTimeTracker   *core.TimeTracker

	tickElapsedResidual float64
	frameElapsedMs      float64

	targetElapsedTime time.Duration
	inactiveSleepTime time.Duration
	isFixedTimeStep   bool

	isRunningSlowly           bool
	runningSlowlyFrameCounter int
}

func NewHostCore(host Host, opts HostCoreOptions) *HostCore {
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if opts.SlowFrameThreshold <= 0 {
		opts.SlowFrameThreshold = DefaultSlowFrameThreshold
	}
	if opts.MaxCatchUpUpdates <= 0 {
		opts.MaxCatchUpUpdates = DefaultMaxCatchUpUpdates
	}
	if opts.RunningSlowlyFrames <= 0 {
		opts.RunningSlowlyFrames = DefaultRunningSlowlyFrames
	}

	hc := &HostCore{
		host:                host,
		sleep:               opts.Sleep,
		slowFrameThreshold:  opts.SlowFrameThreshold,
		maxCatchUpUpdates:   opts.MaxCatchUpUpdates,
		runningSlowlyFrames: opts.RunningSlowlyFrames,
		tickTimer:           core.NewClock(opts.TimeSource),
		frameTimer:          core.NewClock(opts.TimeSource),
		updateTimeTracker:   core.NewTimeTracker(),
		drawTimeTracker:     core.NewTimeTracker(),
		targetElapsedTime:   DefaultTargetElapsedTime,
		inactiveSleepTime:   DefaultInactiveSleepTime,
		isFixedTimeStep:     true,
	}
	hc.tickTimer.Start()
	hc.frameTimer.Start()
	return hc
}

func (hc *HostCore) TargetElapsedTime() time.Duration {
	return hc.targetElapsedTime
}

func (hc *HostCore) SetTargetElapsedTime(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: %s", core.ErrInvalidTargetElapsedTime, d)
	}
	hc.targetElapsedTime = d
	return nil
}

func (hc *HostCore) InactiveSleepTime() time.Duration {
	return hc.inactiveSleepTime
}

// SetInactiveSleepTime sets how long the host sleeps per tick while
// inactive. Zero or negative disables the sleep.
func (hc *HostCore) SetInactiveSleepTime(d time.Duration) {
	hc.inactiveSleepTime = d
}

func (hc *HostCore) IsFixedTimeStep() bool {
	return hc.isFixedTimeStep
}

func (hc *HostCore) SetFixedTimeStep(fixed bool) {
	hc.isFixedTimeStep = fixed
}

func (hc *HostCore) IsRunningSlowly() bool {
	return hc.isRunningSlowly
}

// ResetElapsed re-baselines the wall clocks, e.g. after a pause. The carried
// residual and the last frame time are cleared too, so the next tick does
// not mistake the pause for a slow frame.
func (hc *HostCore) ResetElapsed() {
	hc.tickTimer.Restart()
	hc.frameTimer.Restart()
	hc.tickElapsedResidual = 0
	hc.frameElapsedMs = 0
}

// RunOneTickSuspended advances the host while it is fully suspended.
func (hc *HostCore) RunOneTickSuspended() error {
	if err := hc.host.UpdateSuspended(); err != nil {
		return fmt.Errorf("suspended update: %w", err)
	}
	if hc.inactiveSleepTime > 0 {
		hc.sleep(hc.inactiveSleepTime)
	}
	return nil
}

// RunOneTick advances the host by one tick. Errors from the host's update or
// draw abort the tick and are returned; a host that disposes itself during
// an update ends the tick silently. It never blocks waiting for the next
// step to become due.
func (hc *HostCore) RunOneTick() error {
	if !hc.host.IsActive() && hc.inactiveSleepTime > 0 {
		hc.sleep(hc.inactiveSleepTime)
	}

	if err := hc.host.ProcessWorkItems(); err != nil {
		return fmt.Errorf("processing work items: %w", err)
	}

	if hc.isFixedTimeStep {
		return hc.runFixedTick()
	}
	return hc.runVariableTick()
}

func (hc *HostCore) runFixedTick() error {
	targetMs := core.DurationToMilliseconds(hc.targetElapsedTime)

	state := tickStateIdle
	remaining := 0
	for state != tickStateDone {
		switch state {
		case tickStateIdle:
			elapsedMs := hc.tickElapsedResidual + hc.tickTimer.ElapsedMilliseconds()
			if elapsedMs < targetMs {
				return nil
			}
			hc.tickTimer.Restart()
			hc.tickElapsedResidual = math.Remainder(elapsedMs, targetMs)

			if hc.frameElapsedMs > targetMs*hc.slowFrameThreshold {
				hc.isRunningSlowly = true
				hc.runningSlowlyFrameCounter = hc.runningSlowlyFrames
				remaining = math.Clamp(math.WholeSteps(hc.frameElapsedMs, targetMs), 0, hc.maxCatchUpUpdates)
				state = tickStateCatchingUp
				continue
			}
			if hc.isRunningSlowly {
				hc.runningSlowlyFrameCounter--
				if hc.runningSlowlyFrameCounter <= 0 {
					hc.runningSlowlyFrameCounter = 0
					hc.isRunningSlowly = false
				}
			}
			state = tickStateSteadyStep

		case tickStateCatchingUp:
			if remaining == 0 {
				state = tickStateSteadyStep
				continue
			}
			remaining--
			t := hc.updateTimeTracker.Increment(hc.targetElapsedTime, hc.isRunningSlowly)
			hc.drawTimeTracker.Increment(hc.targetElapsedTime, hc.isRunningSlowly)
			if err := hc.host.Update(t); err != nil {
				return fmt.Errorf("catch-up update: %w", err)
			}
			if hc.host.Disposed() {
				return nil
			}

		case tickStateSteadyStep:
			hc.frameTimer.Restart()

			t := hc.updateTimeTracker.Increment(hc.targetElapsedTime, hc.isRunningSlowly)
			if err := hc.host.Update(t); err != nil {
				return fmt.Errorf("update: %w", err)
			}
			if hc.host.Disposed() {
				return nil
			}

			t = hc.drawTimeTracker.Increment(hc.targetElapsedTime, hc.isRunningSlowly)
			if err := hc.host.Draw(t); err != nil {
				return fmt.Errorf("draw: %w", err)
			}

			hc.frameElapsedMs = hc.frameTimer.ElapsedMilliseconds()
			state = tickStateDone
		}
	}
	return nil
}

func (hc *HostCore) runVariableTick() error {
	elapsed := hc.tickTimer.Elapsed()
	hc.tickTimer.Restart()

	t := hc.updateTimeTracker.Increment(elapsed, false)
	if err := hc.host.Update(t); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if hc.host.Disposed() {
		return nil
	}

	if err := hc.host.Draw(t); err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	return nil
}
