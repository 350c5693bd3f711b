// Copyright 2022 Gustavo C. Viegas. All rights reserved.

//go:build !nowsi

package wsi

import (
	"time"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func initWSI() error {
	if initialized {
		return nil
	}
	if err := glfw.Init(); err != nil {
		return err
	}
	// Presentation is done by the GPU driver.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	initialized = true
	return nil
}

func terminateWSI() {
	if initialized {
		glfw.Terminate()
		initialized = false
	}
}

func pollEvents() { glfw.PollEvents() }

func waitEvents(timeout time.Duration) { glfw.WaitEventsTimeout(timeout.Seconds()) }

func procAddr() unsafe.Pointer { return glfw.GetVulkanGetInstanceProcAddress() }

var newWindow = newWindowGLFW

// windowGLFW implements Window.
type windowGLFW struct {
	win   *glfw.Window
	title string
}

func newWindowGLFW(width, height int, title string) (Window, error) {
	if !initialized {
		return nil, errNotInit
	}
	w, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, err
	}
	win := &windowGLFW{win: w, title: title}
	w.SetCloseCallback(func(*glfw.Window) {
		if windowHandler != nil {
			windowHandler.WindowClose(win)
		}
	})
	w.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if windowHandler != nil {
			windowHandler.WindowResize(win, width, height)
		}
	})
	w.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
		if keyboardHandler == nil || action == glfw.Repeat {
			return
		}
		keyboardHandler.KeyboardKey(keyFrom(key), action == glfw.Press, modFrom(mods))
	})
	w.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if pointerHandler != nil {
			pointerHandler.PointerMotion(x, y)
		}
	})
	w.SetMouseButtonCallback(func(_ *glfw.Window, btn glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if pointerHandler != nil {
			pointerHandler.PointerButton(btnFrom(btn), action == glfw.Press)
		}
	})
	return win, nil
}

// Map makes the window visible.
func (w *windowGLFW) Map() error {
	w.win.Show()
	return nil
}

// Unmap hides the window.
func (w *windowGLFW) Unmap() error {
	w.win.Hide()
	return nil
}

// Resize resizes the window.
func (w *windowGLFW) Resize(width, height int) error {
	w.win.SetSize(width, height)
	return nil
}

// SetTitle sets the window's title.
func (w *windowGLFW) SetTitle(title string) error {
	w.win.SetTitle(title)
	w.title = title
	return nil
}

// Close closes the window.
func (w *windowGLFW) Close() {
	if w.win == nil {
		return
	}
	w.win.Destroy()
	w.win = nil
	closeWindow(w)
}

// Width returns the window's framebuffer width.
func (w *windowGLFW) Width() int {
	width, _ := w.win.GetFramebufferSize()
	return width
}

// Height returns the window's framebuffer height.
func (w *windowGLFW) Height() int {
	_, height := w.win.GetFramebufferSize()
	return height
}

// Title returns the window's title.
func (w *windowGLFW) Title() string { return w.title }

// ShouldClose reports whether closing was requested.
func (w *windowGLFW) ShouldClose() bool { return w.win.ShouldClose() }

// Surface creates a window surface for instance.
func (w *windowGLFW) Surface(instance any) (uintptr, error) {
	return w.win.CreateWindowSurface(instance, nil)
}

// Extensions returns the required instance extensions.
func (w *windowGLFW) Extensions() []string { return w.win.GetRequiredInstanceExtensions() }
