// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/linear"
)

const eps = 1e-4

func newTestCamera() *Camera {
	return NewCamera(linear.V3{0, 1, 1}, linear.V3{-1, 1, 0}, 0.1, 1000, 45)
}

func assertV3(t *testing.T, want, have linear.V3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], have[i], eps, "component %d of %v", i, have)
	}
}

func TestNewCamera(t *testing.T) {
	c := newTestCamera()
	s := 1 / math32.Sqrt(2)
	assertV3(t, linear.V3{-s, 0, -s}, c.Forward())
	assert.InDelta(t, 0, c.Pitch(), eps)
	assert.InDelta(t, -135, c.Yaw(), eps)
	assert.Equal(t, linear.V3{0, 1, 1}, c.Position())
	assert.Equal(t, c.View(), c.PrevView())
	assert.Equal(t, c.Proj(), c.PrevProj())
	assert.Equal(t, c.Position(), c.PrevPosition())
	assert.InDelta(t, math32.Tan(22.5*deg2rad), c.HTanFov(), eps)
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(1000), c.Far())
	assert.Equal(t, float32(45), c.FOV())

	// The target is in front of the camera.
	v := c.View()
	var p linear.V4
	tgt := linear.V4{-1, 1, 0, 1}
	p.Mul(&v, &tgt)
	assert.InDelta(t, 0, p[0], eps)
	assert.InDelta(t, 0, p[1], eps)
	assert.Less(t, p[2], float32(0))
}

func TestCameraMove(t *testing.T) {
	c := newTestCamera()
	fwd := c.Forward()
	for _, x := range [...]struct {
		dir  Direction
		want linear.V3
	}{
		{Forward, linear.V3{fwd[0], 1, 1 + fwd[2]}},
		{Backward, linear.V3{0, 1, 1}},
		{Up, linear.V3{0, 2, 1}},
		{Down, linear.V3{0, 1, 1}},
		{Right, linear.V3{c.right[0], 1, 1 + c.right[2]}},
		{Left, linear.V3{0, 1, 1}},
	} {
		c.Move(x.dir, 1)
		assertV3(t, x.want, c.Position())
	}
	assert.Panics(t, func() { c.Move(Direction(-1), 1) })
}

func TestCameraRotate(t *testing.T) {
	c := NewCamera(linear.V3{}, linear.V3{0, 0, -1}, 0.1, 100, 60)
	c.AddYaw(90)
	assertV3(t, linear.V3{1, 0, 0}, c.Forward())
	assert.InDelta(t, 0, c.Yaw(), eps)
	c.AddYaw(-90)
	assertV3(t, linear.V3{0, 0, -1}, c.Forward())

	c.AddPitch(30)
	assert.InDelta(t, 30, c.Pitch(), eps)
	assert.Greater(t, c.Forward()[1], float32(0))
	// Pitch is clamped.
	c.AddPitch(120)
	assert.InDelta(t, maxPitch, c.Pitch(), 1e-2)
	assertV3(t, linear.V3{1, 0, 0}, c.right)
	c.AddPitch(-200)
	assert.InDelta(t, -maxPitch, c.Pitch(), 1e-2)
}

func TestCameraMouseRotate(t *testing.T) {
	c := NewCamera(linear.V3{}, linear.V3{0, 0, -1}, 0.1, 100, 60)
	c.LookSpeed = 1
	fwd := c.Forward()
	c.MouseRotate(100, 100)
	// First event only latches.
	assert.Equal(t, fwd, c.Forward())
	c.MouseRotate(190, 100)
	assertV3(t, linear.V3{1, 0, 0}, c.Forward())
	c.ResetMouse()
	c.MouseRotate(0, 0)
	assertV3(t, linear.V3{1, 0, 0}, c.Forward())
	c.MouseRotate(0, -10)
	assert.InDelta(t, 10, c.Pitch(), eps)
}

func TestCameraTarget(t *testing.T) {
	c := NewCamera(linear.V3{0, 0, 5}, linear.V3{0, 0, 0}, 0.1, 100, 60)
	tgt := linear.V3{0, 0, 0}
	c.BeginTarget(&tgt)
	c.Move(Right, 5)
	assertV3(t, linear.V3{5, 0, 5}, c.Position())
	s := 1 / math32.Sqrt(2)
	assertV3(t, linear.V3{-s, 0, -s}, c.Forward())
	// Rotation is ignored while locked.
	c.AddYaw(45)
	assertV3(t, linear.V3{-s, 0, -s}, c.Forward())
	c.EndTarget()
	c.AddYaw(45)
	assertV3(t, linear.V3{0, 0, -1}, c.Forward())
}

func TestCameraAdvance(t *testing.T) {
	c := newTestCamera()
	v0, p0, pos0 := c.View(), c.Proj(), c.Position()
	c.Move(Forward, 2)
	c.SetAspect(800, 600)
	require.Equal(t, v0, c.PrevView())
	require.Equal(t, p0, c.PrevProj())
	require.Equal(t, pos0, c.PrevPosition())
	require.NotEqual(t, c.View(), c.PrevView())

	c.Advance()
	assert.Equal(t, c.View(), c.PrevView())
	assert.Equal(t, c.Proj(), c.PrevProj())
	assert.Equal(t, c.Position(), c.PrevPosition())
	assert.InDelta(t, 800.0/600.0, c.Aspect(), eps)

	// Zero-area extents are ignored.
	c.SetAspect(0, 600)
	assert.InDelta(t, 800.0/600.0, c.Aspect(), eps)

	vp := c.ViewProj()
	v, p := c.View(), c.Proj()
	var m linear.M4
	m.Mul(&p, &v)
	assert.Equal(t, m, vp)
}
