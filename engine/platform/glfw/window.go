package glfw

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spaghettifunk/ultraviolet/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Window is the desktop platform backed by a GLFW window.
type Window struct {
	window *glfw.Window
}

func New() *Window {
	return &Window{}
}

func (p *Window) Startup(applicationName string, x uint32, y uint32, width uint32, height uint32) error {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		glfw.Terminate()
		return err
	}
	p.window = window

	p.window.SetKeyCallback(keyCallback)
	p.window.SetFocusCallback(focusCallback)
	p.window.SetIconifyCallback(iconifyCallback)
	p.window.SetPos(int(x), int(y))
	p.window.Show()

	return nil
}

func (p *Window) Shutdown() error {
	if p.window != nil {
		p.window.Destroy()
		p.window = nil
	}
	glfw.Terminate()
	return nil
}

func (p *Window) PumpMessages() bool {
	if p.window == nil {
		return false
	}
	glfw.PollEvents()
	return !p.window.ShouldClose()
}

func (p *Window) IsActive() bool {
	return p.window != nil && p.window.GetAttrib(glfw.Focused) == glfw.True
}

func (p *Window) IsMinimized() bool {
	return p.window != nil && p.window.GetAttrib(glfw.Iconified) == glfw.True
}

func keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
}

func focusCallback(w *glfw.Window, focused bool) {
	core.LogDebug("window focus changed: %t", focused)
}

func iconifyCallback(w *glfw.Window, iconified bool) {
	core.LogDebug("window iconified: %t", iconified)
}
