// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package main

import (
	"math/rand/v2"
	"runtime"

	"github.com/chewxy/math32"
	"golang.org/x/sync/errgroup"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/engine"
)

// lattice is a periodic grid of random values and
// feature points.
type lattice struct {
	n     int
	value []float32
	point [][3]float32
}

func newLattice(n int, rng *rand.Rand) *lattice {
	l := &lattice{
		n:     n,
		value: make([]float32, n*n*n),
		point: make([][3]float32, n*n*n),
	}
	for i := range l.value {
		l.value[i] = rng.Float32()
		l.point[i] = [3]float32{rng.Float32(), rng.Float32(), rng.Float32()}
	}
	return l
}

func (l *lattice) index(x, y, z int) int {
	wrap := func(i int) int { return ((i % l.n) + l.n) % l.n }
	return (wrap(z)*l.n+wrap(y))*l.n + wrap(x)
}

// valueAt returns smoothly interpolated value noise at
// p, which is in lattice units.
func (l *lattice) valueAt(p [3]float32) float32 {
	x0, y0, z0 := int(math32.Floor(p[0])), int(math32.Floor(p[1])), int(math32.Floor(p[2]))
	fx, fy, fz := fade(p[0]-float32(x0)), fade(p[1]-float32(y0)), fade(p[2]-float32(z0))
	var c [8]float32
	for i := range c {
		c[i] = l.value[l.index(x0+i&1, y0+i>>1&1, z0+i>>2&1)]
	}
	x00 := lerp(c[0], c[1], fx)
	x10 := lerp(c[2], c[3], fx)
	x01 := lerp(c[4], c[5], fx)
	x11 := lerp(c[6], c[7], fx)
	return lerp(lerp(x00, x10, fy), lerp(x01, x11, fy), fz)
}

// worleyAt returns the distance from p to the nearest
// feature point, clamped to [0, 1].
func (l *lattice) worleyAt(p [3]float32) float32 {
	x0, y0, z0 := int(math32.Floor(p[0])), int(math32.Floor(p[1])), int(math32.Floor(p[2]))
	d := float32(1)
	for k := z0 - 1; k <= z0+1; k++ {
		for j := y0 - 1; j <= y0+1; j++ {
			for i := x0 - 1; i <= x0+1; i++ {
				fp := l.point[l.index(i, j, k)]
				dx := float32(i) + fp[0] - p[0]
				dy := float32(j) + fp[1] - p[1]
				dz := float32(k) + fp[2] - p[2]
				d = min(d, math32.Sqrt(dx*dx+dy*dy+dz*dz))
			}
		}
	}
	return d
}

func fade(t float32) float32 { return t * t * t * (t*(t*6-15) + 10) }

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

func clamp01(x float32) float32 { return max(0, min(1, x)) }

// noiseVolume generates an RGBA8 volume of n³ texels
// that tiles in every direction.
// Cloud shapes store Perlin-Worley noise in R and
// Worley noise of increasing frequency in GBA.
// SDF shapes store a noisy sphere distance in R,
// remapped so that 0.5 is the surface.
func noiseVolume(n int, seed uint64, sdf bool) engine.TexData {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	const base = 4
	oct := [4]*lattice{
		newLattice(base, rng),
		newLattice(base*2, rng),
		newLattice(base*4, rng),
		newLattice(base*8, rng),
	}
	data := make([]byte, n*n*n*4)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for z := range n {
		g.Go(func() error {
			for y := range n {
				for x := range n {
					u := [3]float32{
						(float32(x) + 0.5) / float32(n),
						(float32(y) + 0.5) / float32(n),
						(float32(z) + 0.5) / float32(n),
					}
					at := func(l *lattice) [3]float32 {
						s := float32(l.n)
						return [3]float32{u[0] * s, u[1] * s, u[2] * s}
					}
					var fbm, amp float32 = 0, 1
					for _, l := range oct {
						fbm += l.valueAt(at(l)) * amp
						amp *= 0.5
					}
					fbm /= 1.875
					texel := data[((z*n+y)*n+x)*4:][:4]
					if sdf {
						dx, dy, dz := u[0]-0.5, u[1]-0.5, u[2]-0.5
						d := math32.Sqrt(dx*dx+dy*dy+dz*dz) - 0.3 + (fbm-0.5)*0.15
						r := clamp01(0.5 - d)
						texel[0] = byte(r * 255)
						texel[1] = byte(fbm * 255)
						texel[2] = 0
						texel[3] = 255
						continue
					}
					w := [3]float32{
						1 - oct[1].worleyAt(at(oct[1])),
						1 - oct[2].worleyAt(at(oct[2])),
						1 - oct[3].worleyAt(at(oct[3])),
					}
					pw := clamp01(fbm + w[0]*0.5 - 0.25)
					texel[0] = byte(pw * 255)
					texel[1] = byte(clamp01(w[0]) * 255)
					texel[2] = byte(clamp01(w[1]) * 255)
					texel[3] = byte(clamp01(w[2]) * 255)
				}
			}
			return nil
		})
	}
	g.Wait()

	return engine.TexData{
		TexParam: engine.TexParam{
			PixelFmt: driver.RGBA8un,
			Dim3D:    driver.Dim3D{Width: n, Height: n, Depth: n},
		},
		Data: data,
	}
}
