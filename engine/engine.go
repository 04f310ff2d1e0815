package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/ultraviolet/engine/config"
	"github.com/spaghettifunk/ultraviolet/engine/core"
	"github.com/spaghettifunk/ultraviolet/engine/platform"
	"github.com/spaghettifunk/ultraviolet/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every subsystem
	EngineStageShutdown
)

// Engine hosts a Game: it owns the platform, the main thread work queue,
// the job system and the HostCore that paces update and draw.
type Engine struct {
	currentStage Stage
	gameInstance *Game
	cfg          *config.Config
	configPath   string

	platform  platform.Platform
	hostCore  *HostCore
	workQueue *core.WorkQueue
	jobs      *systems.JobSystem
	events    *core.EventSystem
	metrics   *core.FrameMetrics
	watcher   *config.Watcher

	// wall time between two draws, fed to metrics
	frameClock *core.Clock

	isRunning        bool
	isSuspended      bool
	disposed         bool
	wasRunningSlowly bool
	exitRequested    atomic.Bool
}

func New(g *Game, opts ApplicationOptions) (*Engine, error) {
	if g == nil || g.FnUpdate == nil || g.FnRender == nil {
		return nil, errors.New("game must provide update and render callbacks")
	}
	cfg := g.Config
	if cfg == nil {
		cfg = config.Default()
		g.Config = cfg
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	core.SetLogLevel(cfg.Level())

	p := opts.Platform
	if p == nil {
		p = platform.NewHeadless()
	}
	if opts.JobWorkers <= 0 {
		opts.JobWorkers = defaultJobWorkers
	}
	if opts.JobQueueSize <= 0 {
		opts.JobQueueSize = defaultJobQueueSize
	}

	wq := core.NewWorkQueue()
	js, err := systems.NewJobSystem(opts.JobWorkers, opts.JobQueueSize, wq)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		cfg:          cfg,
		configPath:   opts.ConfigPath,
		platform:     p,
		workQueue:    wq,
		jobs:         js,
		events:       core.NewEventSystem(),
		metrics:      core.NewFrameMetrics(),
		frameClock:   core.NewClock(opts.TimeSource),
	}
	e.hostCore = NewHostCore(e, HostCoreOptions{
		TimeSource:          opts.TimeSource,
		Sleep:               opts.Sleep,
		SlowFrameThreshold:  cfg.Timing.SlowFrameThreshold,
		MaxCatchUpUpdates:   cfg.Timing.MaxCatchUpUpdates,
		RunningSlowlyFrames: cfg.Timing.RunningSlowlyFrames,
	})
	if err := e.applyTiming(cfg.Timing); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)

	app := e.cfg.Application
	if err := e.platform.Startup(app.Name, app.StartPosX, app.StartPosY, app.StartWidth, app.StartHeight); err != nil {
		return err
	}

	if e.configPath != "" {
		w, err := config.NewWatcher(e.configPath, e.onConfigReloaded)
		if err != nil {
			return fmt.Errorf("watching config: %w", err)
		}
		e.watcher = w
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// Run ticks the game until it exits, the platform closes or ctx is done.
// Errors from the game abort the loop and are returned.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine cannot run from stage %d", e.currentStage)
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true
	e.hostCore.ResetElapsed()
	e.frameClock.Start()

	for e.isRunning {
		select {
		case <-ctx.Done():
			core.LogInfo("context done, stopping engine.")
			e.dispose()
			return nil
		default:
		}

		if !e.platform.PumpMessages() {
			e.Exit()
		}
		if e.exitRequested.Load() {
			e.dispose()
			break
		}

		e.setSuspended(e.platform.IsMinimized())

		var err error
		if e.isSuspended {
			err = e.hostCore.RunOneTickSuspended()
		} else {
			err = e.hostCore.RunOneTick()
		}
		if err != nil {
			core.LogError("Game tick failed, shutting down: %s", err)
			e.dispose()
			return err
		}
	}

	return nil
}

func (e *Engine) setSuspended(suspended bool) {
	if suspended == e.isSuspended {
		return
	}
	e.isSuspended = suspended
	if suspended {
		core.LogInfo("Window minimized, suspending application.")
		e.events.Fire(core.EVENT_CODE_SUSPENDED, e, core.EventContext{})
		return
	}
	core.LogInfo("Window restored, resuming application.")
	// the time spent suspended must not count as a slow frame
	e.hostCore.ResetElapsed()
	e.events.Fire(core.EVENT_CODE_RESUMED, e, core.EventContext{})
}

// Exit asks the engine to stop. The engine disposes itself at the end of
// the current update, which ends the tick. Safe for concurrent use.
func (e *Engine) Exit() {
	e.exitRequested.Store(true)
}

// dispose stops the loop and rejects further work items. Subsystems are
// released by Shutdown.
func (e *Engine) dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.isRunning = false
	e.currentStage = EngineStageShuttingDown
	e.workQueue.Close()
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.dispose()

	var errs []error
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown(e))
	}
	if e.watcher != nil {
		errs = append(errs, e.watcher.Close())
	}
	errs = append(errs,
		e.jobs.Shutdown(),
		e.events.Shutdown(),
		e.platform.Shutdown(),
	)
	e.currentStage = EngineStageShutdown
	return errors.Join(errs...)
}

// IsActive implements Host.
func (e *Engine) IsActive() bool {
	return e.platform.IsActive()
}

// Disposed implements Host.
func (e *Engine) Disposed() bool {
	return e.disposed
}

// Update implements Host.
func (e *Engine) Update(t core.Time) error {
	if err := e.gameInstance.FnUpdate(e, t); err != nil {
		return err
	}
	if e.exitRequested.Load() {
		e.dispose()
	}
	return nil
}

// Draw implements Host.
func (e *Engine) Draw(t core.Time) error {
	frameTime := e.frameClock.Elapsed()
	e.frameClock.Restart()
	e.metrics.Update(frameTime)

	if t.IsRunningSlowly != e.wasRunningSlowly {
		e.wasRunningSlowly = t.IsRunningSlowly
		if t.IsRunningSlowly {
			core.LogWarn("running slowly: frame budget %s exceeded", e.hostCore.TargetElapsedTime())
		} else {
			core.LogInfo("caught up with the target frame rate")
		}
		e.events.Fire(core.EVENT_CODE_RUNNING_SLOWLY_CHANGED, e, core.EventContext{Time: t, Data: t.IsRunningSlowly})
	}

	return e.gameInstance.FnRender(e, t)
}

// UpdateSuspended implements Host.
func (e *Engine) UpdateSuspended() error {
	if e.gameInstance.FnUpdateSuspended != nil {
		if err := e.gameInstance.FnUpdateSuspended(e); err != nil {
			return err
		}
	}
	if e.exitRequested.Load() {
		e.dispose()
	}
	return nil
}

// ProcessWorkItems implements Host.
func (e *Engine) ProcessWorkItems() error {
	return e.workQueue.ProcessWorkItems()
}

// Post schedules fn on the main thread between two frames. Safe for
// concurrent use.
func (e *Engine) Post(fn core.WorkItem) error {
	return e.workQueue.Post(fn)
}

// Send runs fn on the main thread and waits for its result. Must not be
// called from the main thread.
func (e *Engine) Send(ctx context.Context, fn core.WorkItem) error {
	return e.workQueue.Send(ctx, fn)
}

func (e *Engine) Config() *config.Config {
	return e.cfg
}

func (e *Engine) HostCore() *HostCore {
	return e.hostCore
}

func (e *Engine) Jobs() *systems.JobSystem {
	return e.jobs
}

func (e *Engine) Events() *core.EventSystem {
	return e.events
}

func (e *Engine) Metrics() *core.FrameMetrics {
	return e.metrics
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) applyTiming(t config.TimingConfig) error {
	if err := e.hostCore.SetTargetElapsedTime(t.TargetElapsedTime.Duration); err != nil {
		return err
	}
	e.hostCore.SetInactiveSleepTime(t.InactiveSleepTime.Duration)
	e.hostCore.SetFixedTimeStep(t.FixedTimeStep)
	return nil
}

// onConfigReloaded runs on the watcher goroutine; the new settings are
// applied on the main thread between frames.
func (e *Engine) onConfigReloaded(cfg *config.Config) {
	err := e.Post(func() error {
		if err := e.applyTiming(cfg.Timing); err != nil {
			core.LogError("ignoring reloaded timing: %s", err)
			return nil
		}
		e.cfg.Timing = cfg.Timing
		e.cfg.Application.LogLevel = cfg.Application.LogLevel
		core.SetLogLevel(cfg.Level())
		core.LogInfo("timing reloaded: step %s, fixed %t", cfg.Timing.TargetElapsedTime.Duration, cfg.Timing.FixedTimeStep)
		e.events.Fire(core.EVENT_CODE_CONFIG_RELOADED, e, core.EventContext{Data: e.configPath})
		return nil
	})
	if err != nil {
		core.LogWarn("config reload dropped: %s", err)
	}
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.Exit()
		return true
	}
	return false
}
