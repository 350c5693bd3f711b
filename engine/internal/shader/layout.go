// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package shader

import (
	"unsafe"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/linear"
)

// CameraLayout is the layout of camera data.
// It is defined as follows:
//
//	[0:16]  | view matrix
//	[16:32] | projection matrix (Y flipped)
//	[32:36] | position (w = 1)
//	[36]    | aspect ratio
//	[37]    | tangent of half the vertical FOV
//	[38:40] | (unused)
type CameraLayout [40]float32

// SetView sets the view matrix.
func (l *CameraLayout) SetView(m *linear.M4) { copyM4(l[:16], m) }

// SetProj sets the projection matrix.
func (l *CameraLayout) SetProj(m *linear.M4) { copyM4(l[16:32], m) }

// SetPosition sets the position.
func (l *CameraLayout) SetPosition(p *linear.V3) { l[32], l[33], l[34], l[35] = p[0], p[1], p[2], 1 }

// SetParams sets the aspect ratio and the tangent of
// half the vertical field of view.
func (l *CameraLayout) SetParams(aspect, htanfov float32) { l[36], l[37] = aspect, htanfov }

func copyM4(dst []float32, m *linear.M4) {
	copy(dst, unsafe.Slice((*float32)(unsafe.Pointer(m)), 16))
}

// ModelLayout is the layout of model data.
// It is defined as follows:
//
//	[0:16]  | model matrix
//	[16:32] | inverse-transpose of the model matrix
type ModelLayout [32]float32

// SetModel sets the model matrix.
func (l *ModelLayout) SetModel(m *linear.M4) { copyM4(l[:16], m) }

// SetInvTranspose sets the inverse-transpose matrix.
func (l *ModelLayout) SetInvTranspose(m *linear.M4) { copyM4(l[16:32], m) }

// SunLayout is the layout of sun data.
// It is defined as follows:
//
//	[0:4]   | direction
//	[4:7]   | color
//	[7]     | pixel update counter
//	[8]     | intensity
//	[9:12]  | (unused)
//	[12:16] | position
//
// The counter selects which pixel of each 4x4 block the
// cloud simulation updates in a given frame.
type SunLayout [16]float32

// SetDirection sets the direction.
func (l *SunLayout) SetDirection(d *linear.V4) { copy(l[:4], d[:]) }

// SetColor sets the color.
func (l *SunLayout) SetColor(c *linear.V3) { l[4], l[5], l[6] = c[0], c[1], c[2] }

// SetCounter sets the pixel update counter.
func (l *SunLayout) SetCounter(n int) { l[7] = float32(n) }

// SetIntensity sets the intensity.
func (l *SunLayout) SetIntensity(i float32) { l[8] = i }

// SetPosition sets the position.
func (l *SunLayout) SetPosition(p *linear.V4) { copy(l[12:16], p[:]) }

// SkyLayout is the layout of atmosphere data.
// It is defined as follows:
//
//	[0:4]   | Rayleigh scattering coefficients
//	[4:8]   | Mie scattering coefficients
//	[8:12]  | wind (xyz = direction, w = offset)
//	[12]    | Mie directional G
//	[13]    | sun fade
//	[14]    | time
//	[15]    | (unused)
type SkyLayout [16]float32

// SetBetaR sets the Rayleigh coefficients.
func (l *SkyLayout) SetBetaR(b *linear.V4) { copy(l[:4], b[:]) }

// SetBetaV sets the Mie coefficients.
func (l *SkyLayout) SetBetaV(b *linear.V4) { copy(l[4:8], b[:]) }

// SetWind sets the wind.
func (l *SkyLayout) SetWind(w *linear.V4) { copy(l[8:12], w[:]) }

// SetMieG sets the Mie directional G.
func (l *SkyLayout) SetMieG(g float32) { l[12] = g }

// SetSunFade sets the sun fade.
func (l *SkyLayout) SetSunFade(f float32) { l[13] = f }

// SetTime sets the time.
func (l *SkyLayout) SetTime(t float32) { l[14] = t }

// CloudLayout is the layout of cloud rendering data.
// It is defined as follows:
//
//	[0]     | coverage rate
//	[1]     | erosion rate
//	[2]     | extinction
//	[3]     | tempfloat
//	[4:8]   | cirrus wind direction
//	[8:28]  | cloudinfo1 through cloudinfo5
//	[28:32] | tempVector
type CloudLayout [32]float32

// SetScalars sets coverage, erosion, extinction and
// tempfloat.
func (l *CloudLayout) SetScalars(coverage, erosion, extinction, temp float32) {
	l[0], l[1], l[2], l[3] = coverage, erosion, extinction, temp
}

// SetWind sets the cirrus wind direction.
func (l *CloudLayout) SetWind(w *linear.V4) { copy(l[4:8], w[:]) }

// SetInfo sets the cloudinfo vector of index i.
// i must be in the range [0, 5).
func (l *CloudLayout) SetInfo(i int, v *linear.V4) {
	if uint(i) >= 5 {
		panic("cloud info index out of bounds")
	}
	copy(l[8+i*4:12+i*4], v[:])
}

// SetTempVector sets tempVector.
func (l *CloudLayout) SetTempVector(v *linear.V4) { copy(l[28:32], v[:]) }

// Layout is the constraint satisfied by layout types.
type Layout interface {
	CameraLayout | ModelLayout | SunLayout | SkyLayout | CloudLayout
}

// Bytes returns the memory of l as a byte slice.
func Bytes[T Layout](l *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(l)), unsafe.Sizeof(*l))
}
