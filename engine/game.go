package engine

import (
	"github.com/spaghettifunk/ultraviolet/engine/config"
	"github.com/spaghettifunk/ultraviolet/engine/core"
)

// Game is the application plugged into the engine. Every callback receives
// the engine that drives it instead of looking up a global instance.
type Game struct {
	Config            *config.Config
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnUpdateSuspended UpdateSuspended
	FnShutdown        Shutdown
}

type Initialize func(e *Engine) error
type Update func(e *Engine, t core.Time) error
type Render func(e *Engine, t core.Time) error
type UpdateSuspended func(e *Engine) error
type Shutdown func(e *Engine) error
