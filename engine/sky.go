// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"github.com/chewxy/math32"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/linear"
)

// Atmosphere constants.
const (
	sunDistance  = 400000
	sunEE        = 1000
	sunCutoff    = math32.Pi / 1.95
	sunSteepness = 1.5
	windRate     = 0.01
	// The number of pixels in the block that the
	// cloud simulation updates one at a time.
	counterPeriod = 16
)

// Rayleigh coefficients for the primaries at sea level.
var totalRayleigh = linear.V3{5.804542996261093e-6, 1.3562911419845635e-5, 3.0265902468824876e-5}

// Mie constants for the primaries, for a Junge exponent
// of 4.
var mieConst = linear.V3{1.8399918514433978e14, 2.7798023919660528e14, 4.0790479543861094e14}

// Sky evolves the sun and the atmosphere over time.
// Its state is a deterministic function of the elapsed
// time given to Update, except for the pixel counter,
// which advances once per Step.
type Sky struct {
	Turbidity      float32
	Rayleigh       float32
	MieCoefficient float32
	MieG           float32

	sunDir    linear.V4
	sunPos    linear.V4
	sunColor  linear.V3
	intensity float32
	sunFade   float32
	betaR     linear.V4
	betaV     linear.V4
	wind      linear.V4
	time      float32
	counter   int
}

// NewSky creates a new sky at time 0.
func NewSky() *Sky {
	s := &Sky{
		Turbidity:      10,
		Rayleigh:       2,
		MieCoefficient: 0.005,
		MieG:           0.8,
	}
	s.Update(0)
	return s
}

// Update sets the sky state for the given elapsed time
// in seconds.
// The sun oscillates slowly between low and high
// elevations at a fixed azimuth.
func (s *Sky) Update(t float32) {
	interp := math32.Sin(0.025 * t)
	s.setSun(interp*0.5, 0.25)
	s.time = t * 10
	s.wind[3] = t * windRate
}

// setSun places the sun from normalized inclination and
// azimuth and rebuilds the scattering coefficients.
func (s *Sky) setSun(inclination, azimuth float32) {
	theta := math32.Pi * (inclination - 0.5)
	phi := 2 * math32.Pi * (azimuth - 0.5)
	sp, cp := math32.Sincos(phi)
	st, ct := math32.Sincos(theta)
	dir := linear.V3{cp, sp * st, sp * ct}
	dir.Norm(&dir)
	s.sunDir = linear.V4{dir[0], dir[1], dir[2], 0}
	s.sunPos = linear.V4{dir[0] * sunDistance, dir[1] * sunDistance, dir[2] * sunDistance, 1}

	zenith := max(-1, min(1, dir[1]))
	s.intensity = sunEE * max(0, 1-math32.Exp(-((sunCutoff-math32.Acos(zenith))/sunSteepness)))
	s.sunFade = 1 - max(0, min(1, 1-math32.Exp(s.sunPos[1]/450000)))

	// Warmer near the horizon.
	k := max(0, zenith)
	s.sunColor = linear.V3{1, 0.55 + 0.45*k, 0.3 + 0.7*k}

	var br linear.V3
	br.Scale(s.Rayleigh-(1-s.sunFade), &totalRayleigh)
	s.betaR = linear.V4{br[0], br[1], br[2], 0}
	var bv linear.V3
	c := (0.2 * s.Turbidity) * 10e-18
	bv.Scale(0.434*c*s.MieCoefficient, &mieConst)
	s.betaV = linear.V4{bv[0], bv[1], bv[2], 0}
}

// Step advances the pixel update counter and returns
// its new value, in the range [0, 16).
func (s *Sky) Step() int {
	s.counter = (s.counter + 1) % counterPeriod
	return s.counter
}

// SetWind sets the wind direction, keeping the wind
// offset that Update computes.
func (s *Sky) SetWind(dir *linear.V3) {
	s.wind[0], s.wind[1], s.wind[2] = dir[0], dir[1], dir[2]
}

// SunDirection returns the normalized direction towards
// the sun (w = 0).
func (s *Sky) SunDirection() linear.V4 { return s.sunDir }

// SunPosition returns the position of the sun (w = 1).
func (s *Sky) SunPosition() linear.V4 { return s.sunPos }

// SunColor returns the color of the sun.
func (s *Sky) SunColor() linear.V3 { return s.sunColor }

// SunIntensity returns the intensity of the sun.
func (s *Sky) SunIntensity() float32 { return s.intensity }

// SunFade returns how much the sun fades near the
// horizon, in the range [0, 1].
func (s *Sky) SunFade() float32 { return s.sunFade }

// BetaR returns the Rayleigh scattering coefficients.
func (s *Sky) BetaR() linear.V4 { return s.betaR }

// BetaV returns the Mie scattering coefficients.
func (s *Sky) BetaV() linear.V4 { return s.betaV }

// Wind returns the wind direction (xyz) and offset (w).
func (s *Sky) Wind() linear.V4 { return s.wind }

// Time returns the sky time.
func (s *Sky) Time() float32 { return s.time }

// Counter returns the pixel update counter.
func (s *Sky) Counter() int { return s.counter }
