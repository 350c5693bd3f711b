// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/wsi"
)

// Controller translates window events into camera
// movement and renderer requests.
// It implements wsi.WindowHandler, wsi.KeyboardHandler
// and wsi.PointerHandler.
//
// W, A, S and D move the camera on its plane, Q and E
// move it down and up, and moving the pointer while
// Space is held rotates it. Esc closes the window.
type Controller struct {
	keys    [wsi.KeyCount]bool
	x, y    float64
	moved   bool
	closed  bool
	resized bool
	width   int
	height  int

	// Movement speed in units per second.
	MoveSpeed float32
}

// NewController creates a new Controller.
func NewController(moveSpeed float32) *Controller {
	return &Controller{MoveSpeed: moveSpeed}
}

// WindowClose implements wsi.WindowHandler.
func (c *Controller) WindowClose(wsi.Window) { c.closed = true }

// WindowResize implements wsi.WindowHandler.
func (c *Controller) WindowResize(_ wsi.Window, width, height int) {
	c.resized = true
	c.width, c.height = width, height
}

// KeyboardKey implements wsi.KeyboardHandler.
func (c *Controller) KeyboardKey(key wsi.Key, pressed bool, _ wsi.Modifier) {
	if key <= wsi.KeyUnknown || key >= wsi.KeyCount {
		return
	}
	c.keys[key] = pressed
	if key == wsi.KeyEsc && pressed {
		c.closed = true
	}
}

// PointerMotion implements wsi.PointerHandler.
func (c *Controller) PointerMotion(x, y float64) {
	c.x, c.y = x, y
	c.moved = true
}

// PointerButton implements wsi.PointerHandler.
func (c *Controller) PointerButton(wsi.Button, bool) {}

// Pressed reports whether key is held down.
func (c *Controller) Pressed(key wsi.Key) bool { return c.keys[key] }

// Closed reports whether closing was requested.
func (c *Controller) Closed() bool { return c.closed }

// TakeResize returns the most recent window extent and
// whether it changed since the previous call.
func (c *Controller) TakeResize() (width, height int, ok bool) {
	if !c.resized {
		return
	}
	c.resized = false
	return c.width, c.height, true
}

var moveKeys = [...]struct {
	key wsi.Key
	dir Direction
}{
	{wsi.KeyW, Forward},
	{wsi.KeyS, Backward},
	{wsi.KeyA, Left},
	{wsi.KeyD, Right},
	{wsi.KeyE, Up},
	{wsi.KeyQ, Down},
}

// Update moves and rotates cam according to the input
// received since the previous call.
// dt is the elapsed time in seconds.
func (c *Controller) Update(cam *Camera, dt float32) {
	d := c.MoveSpeed * dt
	for _, x := range moveKeys {
		if c.keys[x.key] {
			cam.Move(x.dir, d)
		}
	}
	if c.keys[wsi.KeySpace] {
		if c.moved {
			cam.MouseRotate(c.x, c.y)
		}
	} else {
		cam.ResetMouse()
	}
	c.moved = false
}
