package engine

import (
	"time"

	"github.com/spaghettifunk/ultraviolet/engine/core"
	"github.com/spaghettifunk/ultraviolet/engine/platform"
)

// ApplicationOptions wires the collaborators of an Engine. Zero values pick
// the production defaults.
type ApplicationOptions struct {
	// Platform to run on. Nil selects a headless platform.
	Platform platform.Platform
	// Path of the TOML config; when set, edits are applied while running.
	ConfigPath string
	// Worker goroutines of the job system.
	JobWorkers int
	// Capacity of the job queue.
	JobQueueSize int

	TimeSource core.TimeSource
	Sleep      func(time.Duration)
}

const (
	defaultJobWorkers   = 4
	defaultJobQueueSize = 64
)
