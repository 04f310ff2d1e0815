/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spaghettifunk/ultraviolet/engine"
	"github.com/spaghettifunk/ultraviolet/engine/config"
	"github.com/spaghettifunk/ultraviolet/engine/core"
	"github.com/spaghettifunk/ultraviolet/engine/platform"
	"github.com/spaghettifunk/ultraviolet/engine/platform/glfw"
	"github.com/spaghettifunk/ultraviolet/testbed"
)

func main() {
	configPath := flag.String("config", "ultraviolet.toml", "path to the TOML configuration")
	headless := flag.Bool("headless", false, "run without a window")
	bodies := flag.Int("bodies", 64, "number of simulated bodies")
	stallChance := flag.Float64("stall-chance", 0, "probability per frame of an artificial stall")
	stallDuration := flag.Duration("stall", 150*time.Millisecond, "length of an artificial stall")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	watchPath := *configPath
	if errors.Is(err, os.ErrNotExist) {
		core.LogInfo("no config at %s, using defaults", *configPath)
		cfg, err = config.Default(), nil
		watchPath = ""
	}
	if err != nil {
		core.LogFatal("loading config: %s", err)
	}
	if *headless {
		cfg.Application.Headless = true
	}

	var p platform.Platform
	if cfg.Application.Headless {
		p = platform.NewHeadless()
	} else {
		p = glfw.New()
	}

	tb := testbed.NewTestGame(cfg, *bodies, *stallChance, *stallDuration)

	e, err := engine.New(tb.Game, engine.ApplicationOptions{
		Platform:   p,
		ConfigPath: watchPath,
	})
	if err != nil {
		core.LogFatal("creating engine: %s", err)
	}

	if err := e.Initialize(); err != nil {
		core.LogFatal("initializing engine: %s", err)
	}

	// capture sigterm and other system calls here
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	runErr := e.Run(ctx)
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
	if runErr != nil {
		core.LogFatal("engine stopped: %s", runErr)
	}
}
