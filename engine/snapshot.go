// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/engine/internal/shader"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/engine/param"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/linear"
)

// CameraUniform is the camera data of a frame.
// Proj has its Y axis flipped.
type CameraUniform struct {
	View     linear.M4
	Proj     linear.M4
	Position linear.V3
	Aspect   float32
	HTanFov  float32
}

// ModelUniform is the terrain transform.
type ModelUniform struct {
	Model        linear.M4
	InvTranspose linear.M4
}

// SunUniform is the sun data of a frame.
type SunUniform struct {
	Direction linear.V4
	Color     linear.V3
	// Selects which pixel of each 4x4 block the
	// cloud simulation updates.
	Counter   int
	Intensity float32
	Position  linear.V4
}

// SkyUniform is the atmosphere data of a frame.
type SkyUniform struct {
	BetaR   linear.V4
	BetaV   linear.V4
	Wind    linear.V4
	MieG    float32
	SunFade float32
	Time    float32
}

// CloudUniform is the cloud rendering data of a frame.
type CloudUniform struct {
	Coverage   float32
	Erosion    float32
	Extinction float32
	TempFloat  float32
	Wind       linear.V4
	Info       [5]linear.V4
	TempVector linear.V4
}

// Snapshot is the uniform data consumed by every stage
// in a single frame.
type Snapshot struct {
	Version    uint64
	Camera     CameraUniform
	PrevCamera CameraUniform
	Model      ModelUniform
	Sun        SunUniform
	Sky        SkyUniform
	Cloud      CloudUniform

	camera     shader.CameraLayout
	prevCamera shader.CameraLayout
	model      shader.ModelLayout
	sun        shader.SunLayout
	sky        shader.SkyLayout
	cloud      shader.CloudLayout
}

// Builder builds one Snapshot per frame.
type Builder struct {
	params  *param.Store
	camera  *Camera
	sky     *Sky
	scale   [3]float32
	version uint64
}

// NewBuilder creates a new Builder.
// scale is the terrain scale.
func NewBuilder(params *param.Store, camera *Camera, sky *Sky, scale [3]float32) *Builder {
	return &Builder{
		params: params,
		camera: camera,
		sky:    sky,
		scale:  scale,
	}
}

// Build builds the snapshot for the given elapsed time
// in seconds.
// Parameters are read from a single copy of the store.
// The camera's previous state is captured and then
// advanced, and the sky's counter steps, exactly once
// per successful call.
// It fails with ErrNonFinite if any value is NaN or
// infinite, in which case neither the camera nor the sky
// changes.
func (b *Builder) Build(elapsed float32) (*Snapshot, error) {
	vals := b.params.Snapshot()
	s := &Snapshot{}
	c := b.camera
	s.PrevCamera = CameraUniform{
		View:     c.PrevView(),
		Proj:     flipY(c.PrevProj()),
		Position: c.PrevPosition(),
		Aspect:   c.Aspect(),
		HTanFov:  c.HTanFov(),
	}
	s.Camera = CameraUniform{
		View:     c.View(),
		Proj:     flipY(c.Proj()),
		Position: c.Position(),
		Aspect:   c.Aspect(),
		HTanFov:  c.HTanFov(),
	}

	s.Model.Model.Scale(b.scale[0], b.scale[1], b.scale[2])
	var inv linear.M4
	inv.Invert(&s.Model.Model)
	s.Model.InvTranspose.Transpose(&inv)

	// Committed to b.sky only if s is valid.
	sky := *b.sky
	sky.Update(elapsed)
	wind := vals.Vector(param.Wind)
	xyz := wind.XYZ()
	sky.SetWind(&xyz)
	intensity := sky.SunIntensity()
	if x, ok := vals.Floats[param.SunIntensity]; ok {
		intensity *= x
	}
	s.Sun = SunUniform{
		Direction: sky.SunDirection(),
		Color:     sky.SunColor(),
		Counter:   sky.Step(),
		Intensity: intensity,
		Position:  sky.SunPosition(),
	}
	s.Sky = SkyUniform{
		BetaR:   sky.BetaR(),
		BetaV:   sky.BetaV(),
		Wind:    sky.Wind(),
		MieG:    sky.MieG,
		SunFade: sky.SunFade(),
		Time:    sky.Time(),
	}

	s.Cloud = CloudUniform{
		Coverage:   vals.Float(param.Coverage),
		Erosion:    vals.Float(param.Erosion),
		Extinction: vals.Float(param.Extinction),
		TempFloat:  vals.Float(param.TempFloat),
		Wind:       vals.Vector(param.CirrusWind),
		Info: [5]linear.V4{
			vals.Vector(param.CloudInfo1),
			vals.Vector(param.CloudInfo2),
			vals.Vector(param.CloudInfo3),
			vals.Vector(param.CloudInfo4),
			vals.Vector(param.CloudInfo5),
		},
		TempVector: vals.Vector(param.TempVector),
	}

	if err := s.check(); err != nil {
		return nil, err
	}
	*b.sky = sky
	c.Advance()
	b.version++
	s.Version = b.version
	s.encode()
	return s, nil
}

func flipY(m linear.M4) linear.M4 {
	m[1][1] *= -1
	return m
}

// check checks that every value of s is finite.
func (s *Snapshot) check() error {
	finite := func(x ...float32) bool {
		for _, v := range x {
			if math32.IsNaN(v) || math32.IsInf(v, 0) {
				return false
			}
		}
		return true
	}
	for _, x := range [...]struct {
		name string
		ok   bool
	}{
		{"camera view", s.Camera.View.IsFinite()},
		{"camera projection", s.Camera.Proj.IsFinite()},
		{"camera position", s.Camera.Position.IsFinite()},
		{"camera parameters", finite(s.Camera.Aspect, s.Camera.HTanFov)},
		{"previous camera view", s.PrevCamera.View.IsFinite()},
		{"previous camera projection", s.PrevCamera.Proj.IsFinite()},
		{"previous camera position", s.PrevCamera.Position.IsFinite()},
		{"model", s.Model.Model.IsFinite()},
		{"model inverse-transpose", s.Model.InvTranspose.IsFinite()},
		{"sun direction", s.Sun.Direction.IsFinite()},
		{"sun color", s.Sun.Color.IsFinite()},
		{"sun intensity", finite(s.Sun.Intensity)},
		{"sun position", s.Sun.Position.IsFinite()},
		{"sky betaR", s.Sky.BetaR.IsFinite()},
		{"sky betaV", s.Sky.BetaV.IsFinite()},
		{"sky wind", s.Sky.Wind.IsFinite()},
		{"sky scalars", finite(s.Sky.MieG, s.Sky.SunFade, s.Sky.Time)},
		{param.Coverage, finite(s.Cloud.Coverage)},
		{param.Erosion, finite(s.Cloud.Erosion)},
		{param.Extinction, finite(s.Cloud.Extinction)},
		{param.TempFloat, finite(s.Cloud.TempFloat)},
		{param.CirrusWind, s.Cloud.Wind.IsFinite()},
		{param.CloudInfo1, s.Cloud.Info[0].IsFinite()},
		{param.CloudInfo2, s.Cloud.Info[1].IsFinite()},
		{param.CloudInfo3, s.Cloud.Info[2].IsFinite()},
		{param.CloudInfo4, s.Cloud.Info[3].IsFinite()},
		{param.CloudInfo5, s.Cloud.Info[4].IsFinite()},
		{param.TempVector, s.Cloud.TempVector.IsFinite()},
	} {
		if !x.ok {
			return fmt.Errorf("%w: %s", ErrNonFinite, x.name)
		}
	}
	return nil
}

// encode writes s's values into the shader layouts.
func (s *Snapshot) encode() {
	encodeCamera := func(l *shader.CameraLayout, c *CameraUniform) {
		l.SetView(&c.View)
		l.SetProj(&c.Proj)
		l.SetPosition(&c.Position)
		l.SetParams(c.Aspect, c.HTanFov)
	}
	encodeCamera(&s.camera, &s.Camera)
	encodeCamera(&s.prevCamera, &s.PrevCamera)

	s.model.SetModel(&s.Model.Model)
	s.model.SetInvTranspose(&s.Model.InvTranspose)

	s.sun.SetDirection(&s.Sun.Direction)
	s.sun.SetColor(&s.Sun.Color)
	s.sun.SetCounter(s.Sun.Counter)
	s.sun.SetIntensity(s.Sun.Intensity)
	s.sun.SetPosition(&s.Sun.Position)

	s.sky.SetBetaR(&s.Sky.BetaR)
	s.sky.SetBetaV(&s.Sky.BetaV)
	s.sky.SetWind(&s.Sky.Wind)
	s.sky.SetMieG(s.Sky.MieG)
	s.sky.SetSunFade(s.Sky.SunFade)
	s.sky.SetTime(s.Sky.Time)

	cl := &s.Cloud
	s.cloud.SetScalars(cl.Coverage, cl.Erosion, cl.Extinction, cl.TempFloat)
	s.cloud.SetWind(&cl.Wind)
	for i := range cl.Info {
		s.cloud.SetInfo(i, &cl.Info[i])
	}
	s.cloud.SetTempVector(&cl.TempVector)
}

// layout returns the encoded constant block c.
func (s *Snapshot) layout(c shader.Const) []byte {
	switch c {
	case shader.CameraConst:
		return shader.Bytes(&s.camera)
	case shader.PrevCameraConst:
		return shader.Bytes(&s.prevCamera)
	case shader.ModelConst:
		return shader.Bytes(&s.model)
	case shader.SunConst:
		return shader.Bytes(&s.sun)
	case shader.SkyConst:
		return shader.Bytes(&s.sky)
	case shader.CloudConst:
		return shader.Bytes(&s.cloud)
	}
	panic("invalid constant block")
}
