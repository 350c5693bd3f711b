// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package wsi provides window system integration (WSI)
// for GPU drivers.
// It is implemented on top of GLFW, which must be driven
// from the main thread: callers must lock the OS thread
// before calling Init and must call every function of this
// package from that same thread.
// Building with the nowsi tag replaces GLFW with a backend
// whose Init always fails, for headless builds.
package wsi

import (
	"errors"
	"time"
	"unsafe"
)

// Window is the interface that defines a drawable window.
// The purpose of a window is to provide a surface into
// which a GPU can draw.
type Window interface {
	// Map makes the window visible.
	Map() error

	// Unmap hides the window.
	Unmap() error

	// Resize resizes the window.
	Resize(width, height int) error

	// SetTitle sets the window's title.
	SetTitle(title string) error

	// Close closes the window.
	Close()

	// Width returns the window's width in pixels.
	Width() int

	// Height returns the window's height in pixels.
	Height() int

	// Title returns the window's title.
	Title() string

	// ShouldClose reports whether the user requested
	// the window to be closed.
	ShouldClose() bool

	// Surface creates a presentation surface for the
	// given GPU API instance.
	// It returns the surface handle as an integer.
	Surface(instance any) (uintptr, error)

	// Extensions returns the names of the API
	// instance extensions required for presenting
	// on this window.
	Extensions() []string
}

var errNotInit = errors.New("wsi: not initialized")

// NewWindow creates a new window.
func NewWindow(width, height int, title string) (Window, error) {
	if windowCount >= MaxWindows {
		return nil, errors.New("wsi: too many windows")
	}
	win, err := newWindow(width, height, title)
	if err != nil {
		return nil, err
	}
	addWindow(win)
	return win, nil
}

// The maximum number of windows that can exist at any
// given time.
const MaxWindows = 16

// Windows returns all created windows.
// The returned value becomes out of date after calls to
// NewWindow and Window.Close.
func Windows() []Window {
	if windowCount == 0 {
		return nil
	}
	wins := make([]Window, 0, windowCount)
	for i := range createdWindows {
		if createdWindows[i] != nil {
			wins = append(wins, createdWindows[i])
		}
	}
	return wins
}

// InstanceExtensions returns the instance extensions
// required by the created windows.
// It returns nil if no window exists.
func InstanceExtensions() []string {
	var ext []string
	seen := make(map[string]bool)
	for _, win := range Windows() {
		for _, e := range win.Extensions() {
			if !seen[e] {
				seen[e] = true
				ext = append(ext, e)
			}
		}
	}
	return ext
}

// addWindow inserts win into createdWindows and
// increments windowCount.
func addWindow(win Window) {
	for i := range createdWindows {
		if createdWindows[i] == nil {
			createdWindows[i] = win
			windowCount++
			return
		}
	}
}

// closeWindow removes win from createdWindows and
// decrements windowCount.
// It must be called by implementations on win.Close.
// Note that win must be comparable.
func closeWindow(win Window) {
	for i := range createdWindows {
		if createdWindows[i] == win {
			createdWindows[i] = nil
			windowCount--
			return
		}
	}
}

var (
	windowCount    int
	createdWindows [MaxWindows]Window
)

// Key is the type of keyboard keys.
type Key int

// Keyboard keys.
const (
	KeyUnknown Key = iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	Key0
	KeyQ
	KeyW
	KeyE
	KeyR
	KeyT
	KeyY
	KeyU
	KeyI
	KeyO
	KeyP
	KeyA
	KeyS
	KeyD
	KeyF
	KeyG
	KeyH
	KeyJ
	KeyK
	KeyL
	KeyZ
	KeyX
	KeyC
	KeyV
	KeyB
	KeyN
	KeyM
	KeyTab
	KeyReturn
	KeyLShift
	KeyRShift
	KeyLCtrl
	KeyRCtrl
	KeySpace
	KeyEsc
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	// Number of keys.
	KeyCount
)

// Modifier is the type of modifier flags.
type Modifier int

// Modifier flags.
const (
	ModCapsLock Modifier = 1 << iota
	ModShift
	ModCtrl
	ModAlt
)

// Button is the type of pointer buttons.
type Button int

// Pointer buttons.
const (
	BtnUnknown Button = iota
	BtnLeft
	BtnRight
	BtnMiddle
)

// WindowHandler is the interface that defines the methods
// for handling window events.
type WindowHandler interface {
	// WindowClose is called when a window is closed.
	WindowClose(win Window)

	// WindowResize is called when a window's framebuffer
	// is resized.
	WindowResize(win Window, newWidth, newHeight int)
}

// SetWindowHandler sets the global WindowHandler.
func SetWindowHandler(wh WindowHandler) {
	windowHandler = wh
}

var windowHandler WindowHandler

// KeyboardHandler is the interface that defines the methods
// for handling keyboard events.
type KeyboardHandler interface {
	// KeyboardKey is called when a key is pressed/released.
	KeyboardKey(key Key, pressed bool, modMask Modifier)
}

// SetKeyboardHandler sets the global KeyboardHandler.
func SetKeyboardHandler(kh KeyboardHandler) {
	keyboardHandler = kh
}

var keyboardHandler KeyboardHandler

// PointerHandler is the interface that defines the methods
// for handling pointer events.
type PointerHandler interface {
	// PointerMotion is called when the pointer changes position.
	PointerMotion(newX, newY float64)

	// PointerButton is called when a button is pressed/released.
	PointerButton(btn Button, pressed bool)
}

// SetPointerHandler sets the global PointerHandler.
func SetPointerHandler(ph PointerHandler) {
	pointerHandler = ph
}

var pointerHandler PointerHandler

// Init initializes the window system.
// It must be called from the main thread before any
// other function of this package.
func Init() error { return initWSI() }

// Terminate deinitializes the window system.
// Every window is closed.
func Terminate() {
	for _, win := range Windows() {
		win.Close()
	}
	terminateWSI()
}

// Dispatch dispatches queued events.
func Dispatch() {
	if initialized {
		pollEvents()
	}
}

// Wait blocks until events are queued or timeout
// elapses, then dispatches them.
// Without a window system it sleeps for timeout.
func Wait(timeout time.Duration) {
	if initialized {
		waitEvents(timeout)
	} else {
		time.Sleep(timeout)
	}
}

// ProcAddr returns the address of the GPU API's instance
// loader as provided by the window system.
// It returns nil if Init was not called.
func ProcAddr() unsafe.Pointer {
	if !initialized {
		return nil
	}
	return procAddr()
}

var initialized bool
