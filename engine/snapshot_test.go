// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/engine/internal/shader"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/engine/param"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/linear"
)

func newTestBuilder() (*Builder, *param.Store, *Camera, *Sky) {
	p := param.NewCloudDefaults()
	c := newTestCamera()
	s := NewSky()
	return NewBuilder(p, c, s, [3]float32{100, 1, 100}), p, c, s
}

// f32 reads the i-th float32 of b.
func f32(b []byte, i int) float32 {
	return math.Float32frombits(binary.NativeEndian.Uint32(b[i*4:]))
}

func TestBuild(t *testing.T) {
	b, p, c, _ := newTestBuilder()
	v0, p0 := c.View(), c.Proj()

	s, err := b.Build(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.Version)
	assert.Equal(t, v0, s.Camera.View)
	assert.Equal(t, -p0[1][1], s.Camera.Proj[1][1])
	assert.Equal(t, p0[0][0], s.Camera.Proj[0][0])
	assert.Equal(t, s.Camera.View, s.PrevCamera.View)
	assert.Equal(t, linear.V3{0, 1, 1}, s.Camera.Position)
	assert.InDelta(t, c.HTanFov(), s.Camera.HTanFov, eps)

	var m, it linear.M4
	m.Scale(100, 1, 100)
	it.Scale(0.01, 1, 0.01)
	assert.Equal(t, m, s.Model.Model)
	for i := range it {
		for j := range it[i] {
			assert.InDelta(t, it[i][j], s.Model.InvTranspose[i][j], 1e-6)
		}
	}

	assert.Equal(t, float32(0.85), s.Cloud.Coverage)
	assert.Equal(t, float32(1), s.Cloud.Erosion)
	assert.Equal(t, float32(1.2), s.Cloud.Extinction)
	assert.Equal(t, float32(0.5), s.Cloud.TempFloat)
	assert.Equal(t, p.Vector(param.CirrusWind), s.Cloud.Wind)
	assert.Equal(t, linear.V4{20, 0, 1, 1}, s.Cloud.Info[2])
	assert.Equal(t, linear.V4{0, 1500, 1500, 0}, s.Cloud.TempVector)
	assert.Equal(t, linear.V4{1, 0.05, 1, 0}, s.Sky.Wind)
	assert.Equal(t, float32(0.8), s.Sky.MieG)
	assert.Equal(t, 1, s.Sun.Counter)

	// The second frame sees the first as previous.
	c.Move(Forward, 3)
	v1 := c.View()
	s2, err := b.Build(10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), s2.Version)
	assert.Equal(t, v1, s2.Camera.View)
	assert.Equal(t, s.Camera.View, s2.PrevCamera.View)
	assert.Equal(t, s.Camera.Position, s2.PrevCamera.Position)
	assert.Equal(t, 2, s2.Sun.Counter)
	assert.InDelta(t, 10*windRate, s2.Sky.Wind[3], 1e-6)
	assert.Equal(t, float32(100), s2.Sky.Time)
	assert.Equal(t, v1, c.PrevView())
}

func TestBuildCounterWraps(t *testing.T) {
	b, _, _, _ := newTestBuilder()
	for i := 1; i <= 33; i++ {
		s, err := b.Build(float32(i))
		require.NoError(t, err)
		assert.Equal(t, i%16, s.Sun.Counter)
		assert.Equal(t, uint64(i), s.Version)
	}
}

func TestBuildSunIntensity(t *testing.T) {
	b, p, _, sky := newTestBuilder()
	s, err := b.Build(1)
	require.NoError(t, err)
	assert.Equal(t, sky.SunIntensity(), s.Sun.Intensity)

	p.CreateFloat(param.SunIntensity, 0.5)
	s, err = b.Build(1)
	require.NoError(t, err)
	assert.InDelta(t, sky.SunIntensity()*0.5, s.Sun.Intensity, eps)
}

func TestBuildNonFinite(t *testing.T) {
	for _, x := range [...]struct {
		set  func(*param.Store)
		name string
	}{
		{func(p *param.Store) { p.SetFloat(param.Coverage, math32.NaN()) }, param.Coverage},
		{func(p *param.Store) { p.SetFloat(param.Extinction, math32.Inf(1)) }, param.Extinction},
		{func(p *param.Store) { p.SetVector(param.CloudInfo3, linear.V4{0, math32.Inf(-1), 0, 0}) }, param.CloudInfo3},
		{func(p *param.Store) { p.SetVector(param.Wind, linear.V4{math32.NaN(), 0, 0, 0}) }, "sky wind"},
		{func(p *param.Store) { p.CreateFloat(param.SunIntensity, math32.NaN()) }, "sun intensity"},
	} {
		b, p, _, _ := newTestBuilder()
		x.set(p)
		s, err := b.Build(1)
		assert.Nil(t, s)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNonFinite), "%v", err)
		assert.Contains(t, err.Error(), x.name)
	}

	b, _, c, _ := newTestBuilder()
	c.SetFrustum(0.1, 1000, 0)
	_, err := b.Build(1)
	assert.ErrorIs(t, err, ErrNonFinite)
	assert.Contains(t, err.Error(), "camera projection")
}

func TestBuildNonFiniteKeepsState(t *testing.T) {
	b, p, c, sky := newTestBuilder()
	_, err := b.Build(1)
	require.NoError(t, err)
	c.Move(Forward, 3)
	prev, wind, counter := c.PrevView(), sky.Wind(), sky.Counter()

	p.SetFloat(param.Coverage, math32.NaN())
	p.SetVector(param.Wind, linear.V4{math32.Inf(1), 0, 0, 0})
	_, err = b.Build(5)
	require.ErrorIs(t, err, ErrNonFinite)
	assert.Equal(t, prev, c.PrevView())
	assert.Equal(t, wind, sky.Wind())
	assert.Equal(t, counter, sky.Counter())
	assert.Equal(t, float32(10), sky.Time())

	p.SetFloat(param.Coverage, 0.5)
	p.SetVector(param.Wind, linear.V4{1, 0, 0, 0})
	s, err := b.Build(5)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), s.Version)
	assert.Equal(t, counter+1, s.Sun.Counter)
	assert.Equal(t, prev, s.PrevCamera.View)
	assert.Equal(t, c.View(), c.PrevView())
	assert.Equal(t, float32(50), sky.Time())
}

func TestBuildConcurrentApply(t *testing.T) {
	b, p, _, _ := newTestBuilder()
	apply := func(v float32) {
		p.Apply(&param.Values{
			Floats:  map[string]float32{param.Coverage: v},
			Vectors: map[string]linear.V4{param.CloudInfo1: {v, v, v, v}},
		})
	}
	apply(1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 2000 {
			apply(float32(i%100) / 100)
		}
	}()
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		s, err := b.Build(1)
		require.NoError(t, err)
		require.Equal(t, s.Cloud.Coverage, s.Cloud.Info[0][0], "torn snapshot at version %d", s.Version)
	}
}

func TestSnapshotLayout(t *testing.T) {
	b, _, _, _ := newTestBuilder()
	s, err := b.Build(3)
	require.NoError(t, err)

	for _, c := range []shader.Const{
		shader.CameraConst,
		shader.PrevCameraConst,
		shader.ModelConst,
		shader.SunConst,
		shader.SkyConst,
		shader.CloudConst,
	} {
		assert.Equal(t, c.Size(), int64(len(s.layout(c))), "%v", c)
	}
	assert.Panics(t, func() { s.layout(shader.Const(-1)) })

	cam := s.layout(shader.CameraConst)
	assert.Equal(t, s.Camera.Proj[1][1], f32(cam, 16+5))
	assert.Equal(t, s.Camera.Position[2], f32(cam, 34))
	assert.Equal(t, float32(1), f32(cam, 35))
	assert.Equal(t, s.Camera.Aspect, f32(cam, 36))
	assert.Equal(t, s.Camera.HTanFov, f32(cam, 37))

	sun := s.layout(shader.SunConst)
	assert.Equal(t, float32(s.Sun.Counter), f32(sun, 7))
	assert.Equal(t, s.Sun.Intensity, f32(sun, 8))
	assert.Equal(t, s.Sun.Position[1], f32(sun, 13))

	sky := s.layout(shader.SkyConst)
	assert.Equal(t, s.Sky.Wind[3], f32(sky, 11))
	assert.Equal(t, s.Sky.Time, f32(sky, 14))

	cloud := s.layout(shader.CloudConst)
	assert.Equal(t, float32(0.85), f32(cloud, 0))
	assert.Equal(t, float32(180), f32(cloud, 8+3*4+2))
	assert.Equal(t, float32(1500), f32(cloud, 29))
}
