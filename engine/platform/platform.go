package platform

import (
	"sync/atomic"

	"github.com/spaghettifunk/ultraviolet/engine/core"
)

// Platform is the windowing capability the engine runs on.
type Platform interface {
	Startup(applicationName string, x uint32, y uint32, width uint32, height uint32) error
	Shutdown() error
	// PumpMessages processes pending OS messages. Returns false once the
	// application has been asked to close.
	PumpMessages() bool
	// IsActive reports whether the application has foreground status.
	IsActive() bool
	// IsMinimized reports whether the window is minimised, in which case the
	// engine runs suspended ticks only.
	IsMinimized() bool
}

// Headless is the platform used when no window is wanted: tests, servers and
// tooling. It is always active unless told otherwise.
type Headless struct {
	inactive  atomic.Bool
	minimized atomic.Bool
	closed    atomic.Bool
}

func NewHeadless() *Headless {
	return &Headless{}
}

func (p *Headless) Startup(applicationName string, x uint32, y uint32, width uint32, height uint32) error {
	core.LogInfo("starting headless platform for %s", applicationName)
	p.closed.Store(false)
	return nil
}

func (p *Headless) Shutdown() error {
	p.closed.Store(true)
	return nil
}

func (p *Headless) PumpMessages() bool {
	return !p.closed.Load()
}

func (p *Headless) IsActive() bool {
	return !p.inactive.Load()
}

func (p *Headless) IsMinimized() bool {
	return p.minimized.Load()
}

// SetActive and SetMinimized simulate focus changes. Safe for concurrent use.
func (p *Headless) SetActive(active bool) {
	p.inactive.Store(!active)
}

func (p *Headless) SetMinimized(minimized bool) {
	p.minimized.Store(minimized)
}

// Close makes the next PumpMessages report that the application should exit.
func (p *Headless) Close() {
	p.closed.Store(true)
}
