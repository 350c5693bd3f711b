// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

const texPrefix = "texture: "

// Texture wraps a driver.Image and its only view.
type Texture struct {
	img    driver.Image
	view   driver.ImageView
	usage  driver.Usage
	param  TexParam
	layout driver.Layout
}

// TexParam describes parameters of a texture.
// Depth must be 0 for two-dimensional textures.
type TexParam struct {
	driver.PixelFmt
	driver.Dim3D
}

const (
	tex2D = iota
	tex3D
	texStorage
	texTarget
)

// newTexture creates a driver.Image from param/usage
// and the view that Texture expects.
// It assumes that the parameters are valid.
func newTexture(gpu driver.GPU, param *TexParam, usage driver.Usage, texType int) (*Texture, error) {
	img, err := gpu.NewImage(param.PixelFmt, param.Dim3D, 1, 1, 1, usage)
	if err != nil {
		return nil, err
	}
	typ := driver.IView2D
	if texType == tex3D {
		typ = driver.IView3D
	}
	view, err := img.NewView(typ, 0, 1, 0, 1)
	if err != nil {
		img.Destroy()
		return nil, err
	}
	return &Texture{img, view, usage, *param, driver.LUndefined}, nil
}

// validate checks whether param is valid for a texture
// of the given type.
func validate(param *TexParam, limits *driver.Limits, texType int) error {
	var reason string
	switch {
	case param == nil:
		reason = "nil param"
	case param.Width < 1, param.Height < 1:
		reason = "invalid size"
	case texType == tex3D && param.Depth < 2:
		reason = "invalid depth"
	case texType != tex3D && param.Depth != 0:
		reason = "invalid size"
	case texType == tex3D && (param.Width > limits.MaxImage3D ||
		param.Height > limits.MaxImage3D || param.Depth > limits.MaxImage3D):
		reason = "size too big"
	case texType != tex3D && (param.Width > limits.MaxImage2D || param.Height > limits.MaxImage2D):
		reason = "size too big"
	case texType == texTarget && (param.Width > limits.MaxFBSize[0] || param.Height > limits.MaxFBSize[1]):
		reason = "size too big"
	case texType == texStorage && param.PixelFmt.IsDepth():
		reason = "depth format for storage"
	default:
		return nil
	}
	return errors.New(texPrefix + reason)
}

// New2D creates a 2D texture to be sampled in shaders.
func New2D(gpu driver.GPU, param *TexParam) (*Texture, error) {
	limits := gpu.Limits()
	if err := validate(param, &limits, tex2D); err != nil {
		return nil, err
	}
	return newTexture(gpu, param, driver.UCopyDst|driver.UShaderSample, tex2D)
}

// New3D creates a 3D texture to be sampled in shaders.
func New3D(gpu driver.GPU, param *TexParam) (*Texture, error) {
	limits := gpu.Limits()
	if err := validate(param, &limits, tex3D); err != nil {
		return nil, err
	}
	return newTexture(gpu, param, driver.UCopyDst|driver.UShaderSample, tex3D)
}

// NewStorage creates a 2D texture that compute shaders
// write and other shaders sample.
func NewStorage(gpu driver.GPU, param *TexParam) (*Texture, error) {
	limits := gpu.Limits()
	if err := validate(param, &limits, texStorage); err != nil {
		return nil, err
	}
	usage := driver.UShaderRead | driver.UShaderWrite | driver.UShaderSample
	return newTexture(gpu, param, usage, texStorage)
}

// NewTarget creates a new render target texture.
// Color targets can also be sampled in shaders.
func NewTarget(gpu driver.GPU, param *TexParam) (*Texture, error) {
	limits := gpu.Limits()
	if err := validate(param, &limits, texTarget); err != nil {
		return nil, err
	}
	usage := driver.URenderTarget
	if !param.PixelFmt.IsDepth() {
		usage |= driver.UShaderSample
	}
	return newTexture(gpu, param, usage, texTarget)
}

// upload stages data for copying into t.
// The copy executes when s is committed.
// len(data) must equal t.Size().
func (t *Texture) upload(s *stagingBuffer, data []byte) error {
	if t.usage&driver.UCopyDst == 0 {
		return errors.New(texPrefix + "cannot copy data to non-sampled texture")
	}
	if len(data) != t.Size() {
		return errors.New(texPrefix + "data size mismatch")
	}
	off, err := s.stage(data)
	if err != nil {
		return err
	}
	return s.copyToTexture(t, off)
}

// Image returns the driver.Image of t.
func (t *Texture) Image() driver.Image { return t.img }

// View returns the driver.ImageView of t.
func (t *Texture) View() driver.ImageView { return t.view }

// Layout returns the current layout of t.
// It is only updated when staged commands complete.
func (t *Texture) Layout() driver.Layout { return t.layout }

// Usage returns the driver.Usage of t.
func (t *Texture) Usage() driver.Usage { return t.usage }

// PixelFmt returns the driver.PixelFmt of t.
func (t *Texture) PixelFmt() driver.PixelFmt { return t.param.PixelFmt }

// Width returns the width of t.
func (t *Texture) Width() int { return t.param.Width }

// Height returns the height of t.
func (t *Texture) Height() int { return t.param.Height }

// Depth returns the depth of t, which is 0 for 2D
// textures.
func (t *Texture) Depth() int { return t.param.Depth }

// Size returns the size in bytes of t's data.
func (t *Texture) Size() int {
	return t.param.PixelFmt.Size() * t.param.Width * t.param.Height * max(1, t.param.Depth)
}

// Destroy invalidates t and destroys the driver.Image
// and the driver.ImageView.
// The caller is responsible for ensuring that the GPU
// is no longer using t.
func (t *Texture) Destroy() {
	if t.view != nil {
		t.view.Destroy()
		t.img.Destroy()
	}
	*t = Texture{}
}

// TexData is the decoded data of a texture.
type TexData struct {
	TexParam
	Data []byte
}

// newSampler creates a linear sampler that uses addr
// in every direction.
func newSampler(gpu driver.GPU, addr driver.AddrMode) (driver.Sampler, error) {
	return gpu.NewSampler(&driver.Sampling{
		Min:      driver.FLinear,
		Mag:      driver.FLinear,
		Mipmap:   driver.FNoMipmap,
		AddrU:    addr,
		AddrV:    addr,
		AddrW:    addr,
		MaxAniso: 1,
		MaxLOD:   1,
	})
}
