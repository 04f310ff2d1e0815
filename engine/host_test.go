package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ultraviolet/engine/core"
)

type hostCall struct {
	kind string
	time core.Time
}

// fakeHost records the calls a HostCore makes. Hooks run inside the calls so
// tests can advance the fake clock or dispose the host mid-tick.
type fakeHost struct {
	active   bool
	disposed bool
	calls    []hostCall

	onUpdate func(n int, t core.Time) error
	onDraw   func(t core.Time) error
	updates  int
}

func newFakeHost() *fakeHost {
	return &fakeHost{active: true}
}

func (h *fakeHost) IsActive() bool { return h.active }
func (h *fakeHost) Disposed() bool { return h.disposed }

func (h *fakeHost) Update(t core.Time) error {
	h.updates++
	h.calls = append(h.calls, hostCall{kind: "update", time: t})
	if h.onUpdate != nil {
		return h.onUpdate(h.updates, t)
	}
	return nil
}

func (h *fakeHost) Draw(t core.Time) error {
	h.calls = append(h.calls, hostCall{kind: "draw", time: t})
	if h.onDraw != nil {
		return h.onDraw(t)
	}
	return nil
}

func (h *fakeHost) UpdateSuspended() error {
	h.calls = append(h.calls, hostCall{kind: "suspended"})
	return nil
}

func (h *fakeHost) ProcessWorkItems() error {
	h.calls = append(h.calls, hostCall{kind: "work"})
	return nil
}

func (h *fakeHost) kinds() []string {
	kinds := make([]string, 0, len(h.calls))
	for _, c := range h.calls {
		kinds = append(kinds, c.kind)
	}
	return kinds
}

func (h *fakeHost) count(kind string) int {
	n := 0
	for _, c := range h.calls {
		if c.kind == kind {
			n++
		}
	}
	return n
}

func (h *fakeHost) reset() {
	h.calls = nil
}

type sleepRecorder struct {
	sleeps []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.sleeps = append(s.sleeps, d)
}

func newTestHostCore(host Host) (*HostCore, *core.FakeTimeSource, *sleepRecorder) {
	src := core.NewFakeTimeSource(time.Unix(0, 0))
	rec := &sleepRecorder{}
	hc := NewHostCore(host, HostCoreOptions{TimeSource: src, Sleep: rec.sleep})
	_ = hc.SetTargetElapsedTime(16 * time.Millisecond)
	return hc, src, rec
}

func TestHostCoreDefaults(t *testing.T) {
	hc := NewHostCore(newFakeHost(), HostCoreOptions{})

	assert.Equal(t, time.Second/60, hc.TargetElapsedTime())
	assert.Equal(t, 20*time.Millisecond, hc.InactiveSleepTime())
	assert.True(t, hc.IsFixedTimeStep())
	assert.False(t, hc.IsRunningSlowly())

	err := hc.SetTargetElapsedTime(0)
	assert.ErrorIs(t, err, core.ErrInvalidTargetElapsedTime)
	assert.Equal(t, time.Second/60, hc.TargetElapsedTime())
}

func TestRunOneTickNotDueDoesNothing(t *testing.T) {
	host := newFakeHost()
	hc, src, _ := newTestHostCore(host)

	src.Advance(15 * time.Millisecond)
	require.NoError(t, hc.RunOneTick())

	assert.Equal(t, []string{"work"}, host.kinds())
}

func TestRunOneTickSingleStep(t *testing.T) {
	host := newFakeHost()
	hc, src, _ := newTestHostCore(host)

	src.Advance(16 * time.Millisecond)
	require.NoError(t, hc.RunOneTick())

	require.Equal(t, []string{"work", "update", "draw"}, host.kinds())
	assert.Equal(t, 16*time.Millisecond, host.calls[1].time.Elapsed)
	assert.Equal(t, 16*time.Millisecond, host.calls[2].time.Elapsed)
	assert.False(t, host.calls[1].time.IsRunningSlowly)
	assert.False(t, hc.IsRunningSlowly())
}

func TestRunOneTickCarriesResidual(t *testing.T) {
	host := newFakeHost()
	hc, src, _ := newTestHostCore(host)

	// 24ms due: one step, 8ms carried
	src.Advance(24 * time.Millisecond)
	require.NoError(t, hc.RunOneTick())
	assert.Equal(t, 1, host.count("update"))

	// 8ms carried + 8ms elapsed reaches the next step
	src.Advance(8 * time.Millisecond)
	require.NoError(t, hc.RunOneTick())
	assert.Equal(t, 2, host.count("update"))
	assert.Equal(t, 2, host.count("draw"))
}

// slowFirstFrame makes the first drawn frame take 200ms of wall time.
func slowFirstFrame(host *fakeHost, src *core.FakeTimeSource) {
	slowed := false
	host.onDraw = func(core.Time) error {
		if !slowed {
			slowed = true
			src.Advance(200 * time.Millisecond)
		}
		return nil
	}
}

func TestRunOneTickCatchesUpAfterSlowFrame(t *testing.T) {
	host := newFakeHost()
	hc, src, _ := newTestHostCore(host)
	slowFirstFrame(host, src)

	src.Advance(16 * time.Millisecond)
	require.NoError(t, hc.RunOneTick())
	assert.False(t, hc.IsRunningSlowly())
	host.reset()

	require.NoError(t, hc.RunOneTick())

	// min(10, floor(200/16)) catch-up updates, then the regular pair
	expected := []string{"work"}
	for i := 0; i < 10; i++ {
		expected = append(expected, "update")
	}
	expected = append(expected, "update", "draw")
	assert.Equal(t, expected, host.kinds())
	assert.True(t, hc.IsRunningSlowly())

	for _, c := range host.calls[1:] {
		assert.True(t, c.time.IsRunningSlowly)
		assert.Equal(t, 16*time.Millisecond, c.time.Elapsed)
	}

	// catch-up updates advance the draw tracker too
	draw := host.calls[len(host.calls)-1].time
	assert.Equal(t, 12*16*time.Millisecond, draw.Total)
}

func TestRunningSlowlyClearsAfterHysteresis(t *testing.T) {
	host := newFakeHost()
	hc, src, _ := newTestHostCore(host)
	slowFirstFrame(host, src)

	src.Advance(16 * time.Millisecond)
	require.NoError(t, hc.RunOneTick())
	require.NoError(t, hc.RunOneTick())
	require.True(t, hc.IsRunningSlowly())

	for i := 1; i <= 5; i++ {
		host.reset()
		src.Advance(16 * time.Millisecond)
		require.NoError(t, hc.RunOneTick())
		require.Equal(t, []string{"work", "update", "draw"}, host.kinds(), "tick %d", i)
		if i < 5 {
			assert.True(t, hc.IsRunningSlowly(), "tick %d", i)
			assert.True(t, host.calls[1].time.IsRunningSlowly, "tick %d", i)
		}
	}
	assert.False(t, hc.IsRunningSlowly())
	assert.False(t, host.calls[1].time.IsRunningSlowly)
}

func TestCatchUpIsCappedByOptions(t *testing.T) {
	host := newFakeHost()
	src := core.NewFakeTimeSource(time.Unix(0, 0))
	hc := NewHostCore(host, HostCoreOptions{TimeSource: src, Sleep: func(time.Duration) {}, MaxCatchUpUpdates: 3})
	require.NoError(t, hc.SetTargetElapsedTime(16*time.Millisecond))
	slowFirstFrame(host, src)

	src.Advance(16 * time.Millisecond)
	require.NoError(t, hc.RunOneTick())
	host.reset()
	require.NoError(t, hc.RunOneTick())

	assert.Equal(t, 4, host.count("update"))
	assert.Equal(t, 1, host.count("draw"))
}

func TestDisposalDuringCatchUpAbortsTick(t *testing.T) {
	host := newFakeHost()
	hc, src, _ := newTestHostCore(host)
	slowFirstFrame(host, src)

	src.Advance(16 * time.Millisecond)
	require.NoError(t, hc.RunOneTick())
	host.reset()

	host.onUpdate = func(n int, _ core.Time) error {
		// third catch-up update of the second tick
		if n == 4 {
			host.disposed = true
		}
		return nil
	}
	require.NoError(t, hc.RunOneTick())

	assert.Equal(t, 3, host.count("update"))
	assert.Zero(t, host.count("draw"))
}

func TestDisposalDuringRegularUpdateSkipsDraw(t *testing.T) {
	host := newFakeHost()
	hc, src, _ := newTestHostCore(host)
	host.onUpdate = func(int, core.Time) error {
		host.disposed = true
		return nil
	}

	src.Advance(16 * time.Millisecond)
	require.NoError(t, hc.RunOneTick())

	assert.Equal(t, []string{"work", "update"}, host.kinds())
}

func TestUpdateErrorPropagates(t *testing.T) {
	host := newFakeHost()
	hc, src, _ := newTestHostCore(host)
	boom := errors.New("boom")
	host.onUpdate = func(int, core.Time) error { return boom }

	src.Advance(16 * time.Millisecond)
	err := hc.RunOneTick()

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, host.count("draw"))
}

func TestDrawErrorPropagates(t *testing.T) {
	host := newFakeHost()
	hc, src, _ := newTestHostCore(host)
	boom := errors.New("boom")
	host.onDraw = func(core.Time) error { return boom }

	src.Advance(16 * time.Millisecond)
	assert.ErrorIs(t, hc.RunOneTick(), boom)
}

func TestVariableTimeStepSharesSnapshot(t *testing.T) {
	host := newFakeHost()
	hc, src, _ := newTestHostCore(host)
	hc.SetFixedTimeStep(false)

	src.Advance(5 * time.Millisecond)
	require.NoError(t, hc.RunOneTick())
	src.Advance(40 * time.Millisecond)
	require.NoError(t, hc.RunOneTick())

	require.Equal(t, []string{"work", "update", "draw", "work", "update", "draw"}, host.kinds())
	assert.Equal(t, host.calls[1].time, host.calls[2].time)
	assert.Equal(t, host.calls[4].time, host.calls[5].time)

	second := host.calls[4].time
	assert.Equal(t, 40*time.Millisecond, second.Elapsed)
	assert.Equal(t, 45*time.Millisecond, second.Total)
	assert.False(t, second.IsRunningSlowly)
}

func TestVariableTimeStepDisposalSkipsDraw(t *testing.T) {
	host := newFakeHost()
	hc, src, _ := newTestHostCore(host)
	hc.SetFixedTimeStep(false)
	host.onUpdate = func(int, core.Time) error {
		host.disposed = true
		return nil
	}

	src.Advance(5 * time.Millisecond)
	require.NoError(t, hc.RunOneTick())
	assert.Equal(t, []string{"work", "update"}, host.kinds())
}

func TestResetElapsedPreventsCatchUpBurst(t *testing.T) {
	host := newFakeHost()
	hc, src, _ := newTestHostCore(host)
	slowFirstFrame(host, src)

	src.Advance(16 * time.Millisecond)
	require.NoError(t, hc.RunOneTick())

	// a long pause, then the caller re-baselines
	src.Advance(5 * time.Second)
	hc.ResetElapsed()
	host.reset()

	require.NoError(t, hc.RunOneTick())
	assert.Equal(t, []string{"work"}, host.kinds())

	src.Advance(16 * time.Millisecond)
	require.NoError(t, hc.RunOneTick())
	assert.Equal(t, []string{"work", "work", "update", "draw"}, host.kinds())
	assert.False(t, hc.IsRunningSlowly())
}

func TestInactiveHostSleepsButStillTicks(t *testing.T) {
	host := newFakeHost()
	host.active = false
	hc, src, rec := newTestHostCore(host)

	src.Advance(16 * time.Millisecond)
	require.NoError(t, hc.RunOneTick())

	assert.Equal(t, []time.Duration{20 * time.Millisecond}, rec.sleeps)
	assert.Equal(t, []string{"work", "update", "draw"}, host.kinds())

	hc.SetInactiveSleepTime(0)
	require.NoError(t, hc.RunOneTick())
	assert.Len(t, rec.sleeps, 1)
}

func TestRunOneTickSuspended(t *testing.T) {
	host := newFakeHost()
	hc, _, rec := newTestHostCore(host)

	require.NoError(t, hc.RunOneTickSuspended())
	assert.Equal(t, []string{"suspended"}, host.kinds())
	assert.Equal(t, []time.Duration{20 * time.Millisecond}, rec.sleeps)

	hc.SetInactiveSleepTime(0)
	require.NoError(t, hc.RunOneTickSuspended())
	assert.Len(t, rec.sleeps, 1)
}
