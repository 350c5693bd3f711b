// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"github.com/chewxy/math32"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/linear"
)

// Direction is the type of camera movement directions.
type Direction int

// Movement directions.
const (
	Forward Direction = iota
	Backward
	Up
	Down
	Left
	Right
)

const (
	deg2rad = math32.Pi / 180
	// Pitch is kept short of the poles so that the
	// right vector is always defined.
	maxPitch = 89
)

var worldUp = linear.V3{0, 1, 0}

// Camera is a perspective camera that remembers the
// view and projection of the previous frame.
// The previous state is used to reproject the history
// image and is updated by Advance.
type Camera struct {
	pos   linear.V3
	fwd   linear.V3
	right linear.V3
	up    linear.V3
	pitch float32
	yaw   float32

	near   float32
	far    float32
	fov    float32
	aspect float32

	locked bool
	target linear.V3

	lastX, lastY float64
	firstMouse   bool

	prevView linear.M4
	prevProj linear.M4
	prevPos  linear.V3

	// Mouse sensitivity in degrees per unit
	// of pointer motion.
	LookSpeed float32
}

// NewCamera creates a new camera at pos looking at
// target.
// fov is the vertical field of view in degrees.
// The previous state is set to the initial state.
func NewCamera(pos, target linear.V3, near, far, fov float32) *Camera {
	c := &Camera{
		pos:        pos,
		near:       near,
		far:        far,
		fov:        fov,
		aspect:     16.0 / 9.0,
		firstMouse: true,
		LookSpeed:  0.1,
	}
	c.LookAt(&target)
	c.prevView = c.View()
	c.prevProj = c.Proj()
	c.prevPos = pos
	return c
}

// orient recomputes the right and up vectors, and the
// pitch and yaw angles, from the forward vector.
func (c *Camera) orient() {
	c.right.Cross(&c.fwd, &worldUp)
	if c.right.Len() < 1e-6 {
		c.right = linear.V3{1, 0, 0}
	}
	c.right.Norm(&c.right)
	c.up.Cross(&c.right, &c.fwd)
	c.up.Norm(&c.up)
	c.pitch = math32.Asin(max(-1, min(1, c.fwd[1]))) / deg2rad
	c.yaw = math32.Atan2(c.fwd[2], c.fwd[0]) / deg2rad
}

// LookAt points the camera at target.
// target must differ from the camera's position.
func (c *Camera) LookAt(target *linear.V3) {
	var d linear.V3
	d.Sub(target, &c.pos)
	if d.Len() == 0 {
		return
	}
	c.fwd.Norm(&d)
	c.orient()
}

// SetPosition moves the camera to p.
func (c *Camera) SetPosition(p *linear.V3) {
	c.pos = *p
	if c.locked {
		c.LookAt(&c.target)
	}
}

// BeginTarget locks the camera onto target, so that
// it keeps looking at it while moving.
func (c *Camera) BeginTarget(target *linear.V3) {
	c.locked = true
	c.target = *target
	c.LookAt(target)
}

// EndTarget unlocks the camera.
func (c *Camera) EndTarget() { c.locked = false }

// Move moves the camera delta units in the given
// direction.
// Up and Down move along the world's vertical axis.
func (c *Camera) Move(dir Direction, delta float32) {
	var v linear.V3
	switch dir {
	case Forward:
		v.Scale(delta, &c.fwd)
	case Backward:
		v.Scale(-delta, &c.fwd)
	case Right:
		v.Scale(delta, &c.right)
	case Left:
		v.Scale(-delta, &c.right)
	case Up:
		v.Scale(delta, &worldUp)
	case Down:
		v.Scale(-delta, &worldUp)
	default:
		panic("invalid camera direction")
	}
	c.pos.Add(&c.pos, &v)
	if c.locked {
		c.LookAt(&c.target)
	}
}

// rotate rotates the forward vector by delta degrees
// about axis.
func (c *Camera) rotate(delta float32, axis *linear.V3) {
	if c.locked || delta == 0 {
		return
	}
	var q linear.Q
	q.Rotate(delta*deg2rad, axis)
	var fwd linear.V3
	q.Apply(&fwd, &c.fwd)
	fwd.Norm(&fwd)
	if math32.Abs(fwd[1]) > math32.Sin((maxPitch+0.5)*deg2rad) {
		return
	}
	c.fwd = fwd
	c.orient()
}

// AddPitch rotates the camera by delta degrees about
// its right vector.
// The resulting pitch is clamped to (-90, 90).
func (c *Camera) AddPitch(delta float32) {
	p := max(-maxPitch, min(maxPitch, c.pitch+delta))
	axis := c.right
	c.rotate(p-c.pitch, &axis)
}

// AddYaw rotates the camera by delta degrees about the
// world's vertical axis.
func (c *Camera) AddYaw(delta float32) {
	// Positive yaw turns right.
	axis := linear.V3{0, -1, 0}
	c.rotate(delta, &axis)
}

// AddYawLocal rotates the camera by delta degrees about
// its up vector.
func (c *Camera) AddYawLocal(delta float32) {
	var axis linear.V3
	axis.Scale(-1, &c.up)
	c.rotate(delta, &axis)
}

// MouseRotate rotates the camera according to the
// pointer motion since the previous call.
// The first call after NewCamera or ResetMouse only
// records the pointer position.
func (c *Camera) MouseRotate(x, y float64) {
	if c.firstMouse {
		c.lastX, c.lastY = x, y
		c.firstMouse = false
		return
	}
	dx := float32(x-c.lastX) * c.LookSpeed
	dy := float32(c.lastY-y) * c.LookSpeed
	c.lastX, c.lastY = x, y
	c.AddYaw(dx)
	c.AddPitch(dy)
}

// ResetMouse makes the next MouseRotate call record the
// pointer position without rotating.
func (c *Camera) ResetMouse() { c.firstMouse = true }

// SetAspect sets the aspect ratio from the given
// extent.
// A zero-area extent is ignored.
func (c *Camera) SetAspect(width, height int) {
	if width > 0 && height > 0 {
		c.aspect = float32(width) / float32(height)
	}
}

// SetFOV sets the vertical field of view in degrees.
func (c *Camera) SetFOV(fov float32) { c.fov = fov }

// SetFrustum sets the near and far planes and the
// vertical field of view.
func (c *Camera) SetFrustum(near, far, fov float32) {
	c.near, c.far, c.fov = near, far, fov
}

// View returns the view matrix.
func (c *Camera) View() (m linear.M4) {
	var center linear.V3
	if c.locked {
		center = c.target
	} else {
		center.Add(&c.pos, &c.fwd)
	}
	m.LookAt(&c.pos, &center, &worldUp)
	return
}

// Proj returns the projection matrix.
// Depth is in [0, 1] and Y points up; renderers that
// need Y pointing down must flip it.
func (c *Camera) Proj() (m linear.M4) {
	m.Perspective(c.fov*deg2rad, c.aspect, c.near, c.far)
	return
}

// ViewProj returns Proj() ⋅ View().
func (c *Camera) ViewProj() (m linear.M4) {
	v, p := c.View(), c.Proj()
	m.Mul(&p, &v)
	return
}

// Advance stores the current view, projection and
// position as the previous ones.
// It must be called once per frame.
func (c *Camera) Advance() {
	c.prevView = c.View()
	c.prevProj = c.Proj()
	c.prevPos = c.pos
}

// Position returns the camera's position.
func (c *Camera) Position() linear.V3 { return c.pos }

// Forward returns the normalized view direction.
func (c *Camera) Forward() linear.V3 { return c.fwd }

// Pitch returns the pitch in degrees.
func (c *Camera) Pitch() float32 { return c.pitch }

// Yaw returns the yaw in degrees.
func (c *Camera) Yaw() float32 { return c.yaw }

// PrevView returns the view matrix of the previous
// frame.
func (c *Camera) PrevView() linear.M4 { return c.prevView }

// PrevProj returns the projection matrix of the
// previous frame.
func (c *Camera) PrevProj() linear.M4 { return c.prevProj }

// PrevPosition returns the position of the previous
// frame.
func (c *Camera) PrevPosition() linear.V3 { return c.prevPos }

// Aspect returns the aspect ratio.
func (c *Camera) Aspect() float32 { return c.aspect }

// FOV returns the vertical field of view in degrees.
func (c *Camera) FOV() float32 { return c.fov }

// Near returns the distance of the near plane.
func (c *Camera) Near() float32 { return c.near }

// Far returns the distance of the far plane.
func (c *Camera) Far() float32 { return c.far }

// HTanFov returns the tangent of half the vertical
// field of view.
func (c *Camera) HTanFov() float32 { return math32.Tan(0.5 * deg2rad * c.fov) }
