// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

// hdrFormat is the pixel format of offscreen color
// targets.
const hdrFormat = driver.RGBA32f

// depthFormats lists depth formats in order of
// preference.
var depthFormats = [...]driver.PixelFmt{driver.D32f, driver.D32fS8ui, driver.D24unS8ui}

// depthFormat returns the first depth format that gpu
// supports as render target.
func depthFormat(gpu driver.GPU) (driver.PixelFmt, error) {
	for _, pf := range depthFormats {
		if gpu.FormatSupported(pf, driver.URenderTarget) {
			return pf, nil
		}
	}
	return 0, newRendErr("no supported depth format")
}

// OffscreenFramebuffer is a color and depth target pair
// and the framebuffer that renders to them.
type OffscreenFramebuffer struct {
	Color *Texture
	Depth *Texture
	FB    driver.Framebuf
}

func (f *OffscreenFramebuffer) destroy() {
	if f.FB != nil {
		f.FB.Destroy()
	}
	if f.Depth != nil {
		f.Depth.Destroy()
	}
	if f.Color != nil {
		f.Color.Destroy()
	}
	*f = OffscreenFramebuffer{}
}

// OffscreenDraws is what an OffscreenChain records.
type OffscreenDraws struct {
	Background *Stage
	GodRay     *Stage
	RadialBlur *Stage
	Mesh       *Stage
	Quad       *Geometry
	Terrain    *Geometry
}

// OffscreenChain renders the sky and the terrain into
// three HDR framebuffers.
// The first pass draws the background, the second pass
// adds god rays to it and the third blurs the result
// and draws the terrain on top.
type OffscreenChain struct {
	gpu      driver.GPU
	pass     driver.RenderPass
	depthFmt driver.PixelFmt
	sampler  driver.Sampler
	fbs      [MaxOffscreen]OffscreenFramebuffer
	width    int
	height   int
}

// NewOffscreenChain creates a new OffscreenChain whose
// framebuffers are width by height.
func NewOffscreenChain(gpu driver.GPU, width, height int) (*OffscreenChain, error) {
	depth, err := depthFormat(gpu)
	if err != nil {
		return nil, err
	}
	c := &OffscreenChain{gpu: gpu, depthFmt: depth}
	c.pass, err = gpu.NewRenderPass(
		[]driver.Attachment{
			{
				Format:  hdrFormat,
				Samples: 1,
				Load:    driver.LClear,
				Store:   driver.SStore,
				Initial: driver.LUndefined,
				Final:   driver.LShaderRead,
			},
			{
				Format:  depth,
				Samples: 1,
				Load:    driver.LClear,
				Store:   driver.SDontCare,
				Initial: driver.LUndefined,
				Final:   driver.LDSTarget,
			},
		},
		[]driver.Subpass{{Color: []int{0}, DS: 1}},
		[]driver.Dependency{
			// The previous pass' output is sampled by
			// this pass' fragment shader.
			{
				Src: driver.External,
				Dst: 0,
				Barrier: driver.Barrier{
					SyncBefore:   driver.SColorOutput,
					SyncAfter:    driver.SFragmentShading | driver.SColorOutput,
					AccessBefore: driver.AColorWrite,
					AccessAfter:  driver.AShaderRead | driver.AColorWrite,
				},
			},
			{
				Src: 0,
				Dst: driver.External,
				Barrier: driver.Barrier{
					SyncBefore:   driver.SColorOutput,
					SyncAfter:    driver.SFragmentShading,
					AccessBefore: driver.AColorWrite,
					AccessAfter:  driver.AShaderRead,
				},
			},
		},
	)
	if err != nil {
		return nil, err
	}
	if c.sampler, err = newSampler(gpu, driver.AClamp); err != nil {
		c.Destroy()
		return nil, err
	}
	if err = c.Rebuild(width, height); err != nil {
		c.Destroy()
		return nil, err
	}
	return c, nil
}

// Rebuild destroys the framebuffers and creates new
// ones that are width by height.
// The GPU must not be using the framebuffers.
func (c *OffscreenChain) Rebuild(width, height int) error {
	if width < 1 || height < 1 {
		return errors.New("offscreen: invalid extent")
	}
	c.release()
	for i := range c.fbs {
		if err := c.newFramebuffer(&c.fbs[i], width, height); err != nil {
			c.release()
			return err
		}
	}
	c.width, c.height = width, height
	return nil
}

func (c *OffscreenChain) newFramebuffer(f *OffscreenFramebuffer, width, height int) (err error) {
	size := driver.Dim3D{Width: width, Height: height}
	if f.Color, err = NewTarget(c.gpu, &TexParam{hdrFormat, size}); err != nil {
		return
	}
	if f.Depth, err = NewTarget(c.gpu, &TexParam{c.depthFmt, size}); err != nil {
		f.destroy()
		return
	}
	iv := []driver.ImageView{f.Color.View(), f.Depth.View()}
	if f.FB, err = c.pass.NewFB(iv, width, height, 1); err != nil {
		f.destroy()
	}
	return
}

// release destroys the framebuffers in reverse creation
// order.
func (c *OffscreenChain) release() {
	for i := len(c.fbs) - 1; i >= 0; i-- {
		c.fbs[i].destroy()
	}
	c.width, c.height = 0, 0
}

// Pass returns the render pass.
func (c *OffscreenChain) Pass() driver.RenderPass { return c.pass }

// Sampler returns the clamping sampler used to read the
// offscreen images.
func (c *OffscreenChain) Sampler() driver.Sampler { return c.sampler }

// DepthFormat returns the depth format in use.
func (c *OffscreenChain) DepthFormat() driver.PixelFmt { return c.depthFmt }

// Framebuffer returns the i-th framebuffer.
func (c *OffscreenChain) Framebuffer(i int) *OffscreenFramebuffer { return &c.fbs[i] }

// Color returns the color view of the i-th framebuffer.
func (c *OffscreenChain) Color(i int) driver.ImageView { return c.fbs[i].Color.View() }

// Extent returns the size of the framebuffers.
func (c *OffscreenChain) Extent() (width, height int) { return c.width, c.height }

var offscreenClear = []driver.ClearValue{{Color: [4]float32{0, 0, 0, 1}}, {Depth: 1}}

// Record records the offscreen passes into cb, which
// must be recording.
// The background reads the history image selected by
// f.History.
func (c *OffscreenChain) Record(cb driver.CmdBuffer, f *Frame, d *OffscreenDraws) {
	post := [MaxOffscreen]*Stage{d.Background, d.GodRay, d.RadialBlur}
	for i := range c.fbs {
		cb.BeginPass(c.pass, c.fbs[i].FB, offscreenClear)
		setViewport(cb, c.width, c.height)
		post[i].Bind(cb, f)
		d.Quad.Draw(cb)
		if i == MaxOffscreen-1 {
			d.Mesh.Bind(cb, f)
			d.Terrain.Draw(cb)
		}
		cb.EndPass()
	}
}

// setViewport sets a viewport and scissor covering
// width by height.
func setViewport(cb driver.CmdBuffer, width, height int) {
	cb.SetViewport([]driver.Viewport{{
		Width:  float32(width),
		Height: float32(height),
		Zfar:   1,
	}})
	cb.SetScissor([]driver.Scissor{{Width: width, Height: height}})
}

// Destroy destroys the framebuffers, the sampler and
// the render pass.
func (c *OffscreenChain) Destroy() {
	c.release()
	if c.sampler != nil {
		c.sampler.Destroy()
	}
	if c.pass != nil {
		c.pass.Destroy()
	}
	*c = OffscreenChain{}
}
