package testbed

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"golang.org/x/exp/rand"

	"github.com/spaghettifunk/ultraviolet/engine"
	"github.com/spaghettifunk/ultraviolet/engine/config"
	"github.com/spaghettifunk/ultraviolet/engine/core"
	"github.com/spaghettifunk/ultraviolet/engine/systems"
)

// TestGame is a small orbiting-body simulation used to exercise the host
// loop: fixed updates integrate the bodies, draws report frame metrics and
// a background job checksums the world every few seconds.
type TestGame struct {
	*engine.Game
}

type body struct {
	X, Y   float64
	VX, VY float64
}

type gameState struct {
	bodies []body

	// Chance per drawn frame of stalling for StallDuration, to provoke
	// catch-up updates.
	stallChance   float64
	stallDuration time.Duration
	rng           *rand.Rand

	sinceReport     time.Duration
	sinceCheckpoint time.Duration
	checkpointBusy  bool
	lastChecksum    uint64
	catchUpFrames   int
}

const (
	reportInterval     = time.Second
	checkpointInterval = 5 * time.Second
	gravity            = 4.0
)

func NewTestGame(cfg *config.Config, bodies int, stallChance float64, stallDuration time.Duration) *TestGame {
	state := &gameState{
		stallChance:   stallChance,
		stallDuration: stallDuration,
		rng:           rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
	for i := 0; i < bodies; i++ {
		angle := 2 * math.Pi * float64(i) / float64(bodies)
		radius := 1 + float64(i%5)
		speed := math.Sqrt(gravity / radius)
		state.bodies = append(state.bodies, body{
			X:  radius * math.Cos(angle),
			Y:  radius * math.Sin(angle),
			VX: -speed * math.Sin(angle),
			VY: speed * math.Cos(angle),
		})
	}

	tg := &TestGame{
		Game: &engine.Game{
			Config: cfg,
			State:  state,
		},
	}
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnUpdateSuspended = tg.UpdateSuspended
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize(e *engine.Engine) error {
	core.LogDebug("TestGame Initialize fn....")
	e.Events().Register(core.EVENT_CODE_RUNNING_SLOWLY_CHANGED, g, g.onRunningSlowly)
	return nil
}

func (g *TestGame) Update(e *engine.Engine, t core.Time) error {
	state := g.state()
	dt := t.Elapsed.Seconds()
	if t.IsRunningSlowly {
		state.catchUpFrames++
	}

	// semi-implicit Euler around a point mass at the origin
	for i := range state.bodies {
		b := &state.bodies[i]
		r2 := b.X*b.X + b.Y*b.Y
		if r2 < 1e-9 {
			continue
		}
		inv := gravity / (r2 * math.Sqrt(r2))
		b.VX -= b.X * inv * dt
		b.VY -= b.Y * inv * dt
		b.X += b.VX * dt
		b.Y += b.VY * dt
	}

	state.sinceCheckpoint += t.Elapsed
	if state.sinceCheckpoint >= checkpointInterval && !state.checkpointBusy {
		state.sinceCheckpoint = 0
		return g.submitCheckpoint(e)
	}
	return nil
}

func (g *TestGame) Render(e *engine.Engine, t core.Time) error {
	state := g.state()

	state.sinceReport += t.Elapsed
	if state.sinceReport >= reportInterval {
		state.sinceReport -= reportInterval
		fps, frameMs := e.Metrics().Frame()
		core.LogInfo("sim %s | fps %.0f | frame %.2fms | slow updates %d | bodies %d",
			t.Total.Truncate(time.Millisecond), fps, frameMs, state.catchUpFrames, len(state.bodies))
	}

	if state.stallChance > 0 && state.rng.Float64() < state.stallChance {
		time.Sleep(state.stallDuration)
	}
	return nil
}

func (g *TestGame) UpdateSuspended(e *engine.Engine) error {
	core.LogDebug("testbed suspended, simulation paused")
	return nil
}

func (g *TestGame) Shutdown(e *engine.Engine) error {
	core.LogInfo("testbed shut down, last checksum %x", g.state().lastChecksum)
	return nil
}

// submitCheckpoint hashes a copy of the world on a worker; the result comes
// back on the main thread through the engine's work queue.
func (g *TestGame) submitCheckpoint(e *engine.Engine) error {
	state := g.state()
	snapshot := append([]body(nil), state.bodies...)
	state.checkpointBusy = true

	_, err := e.Jobs().TrySubmit(systems.JobTask{
		InputParams: snapshot,
		OnStart: func(ctx context.Context, params interface{}) (interface{}, error) {
			return checksum(ctx, params.([]body))
		},
		OnComplete: func(result interface{}) {
			state.checkpointBusy = false
			state.lastChecksum = result.(uint64)
			core.LogDebug("checkpoint %x", state.lastChecksum)
		},
		OnFailure: func(err error) {
			state.checkpointBusy = false
			core.LogWarn("checkpoint failed: %s", err)
		},
	})
	if err != nil {
		state.checkpointBusy = false
		if errors.Is(err, systems.ErrJobQueueFull) {
			core.LogWarn("checkpoint skipped, job queue full")
			return nil
		}
		return err
	}
	return nil
}

func checksum(ctx context.Context, bodies []body) (uint64, error) {
	h := fnv.New64a()
	for _, b := range bodies {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		fmt.Fprintf(h, "%.6f,%.6f;", b.X, b.Y)
	}
	return h.Sum64(), nil
}

func (g *TestGame) onRunningSlowly(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	if slow, ok := data.Data.(bool); ok && slow {
		core.LogWarn("testbed falling behind at sim time %s", data.Time.Total.Truncate(time.Millisecond))
	}
	return false
}
