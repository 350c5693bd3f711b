// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

// compositeTarget renders into the swapchain images.
// The render pass outlives swapchain recreation, while
// the depth target and the per-image framebuffers are
// rebuilt.
type compositeTarget struct {
	gpu      driver.GPU
	pass     driver.RenderPass
	depthFmt driver.PixelFmt
	depth    *Texture
	fbs      []driver.Framebuf
	width    int
	height   int
}

// newCompositeTarget creates the render pass of a
// compositeTarget. Call build to create framebuffers.
func newCompositeTarget(gpu driver.GPU, color, depth driver.PixelFmt) (*compositeTarget, error) {
	pass, err := gpu.NewRenderPass(
		[]driver.Attachment{
			{
				Format:  color,
				Samples: 1,
				Load:    driver.LClear,
				Store:   driver.SStore,
				Initial: driver.LUndefined,
				Final:   driver.LPresent,
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
		[]driver.Dependency{{
			Src: driver.External,
			Dst: 0,
			Barrier: driver.Barrier{
				SyncBefore:   driver.SColorOutput,
				SyncAfter:    driver.SColorOutput,
				AccessBefore: driver.ANone,
				AccessAfter:  driver.AColorWrite,
			},
		}},
	)
	if err != nil {
		return nil, err
	}
	return &compositeTarget{gpu: gpu, pass: pass, depthFmt: depth}, nil
}

// build creates the depth target and one framebuffer
// per swapchain view.
func (c *compositeTarget) build(views []driver.ImageView, width, height int) (err error) {
	c.release()
	size := driver.Dim3D{Width: width, Height: height}
	if c.depth, err = NewTarget(c.gpu, &TexParam{c.depthFmt, size}); err != nil {
		return
	}
	c.fbs = make([]driver.Framebuf, 0, len(views))
	for _, v := range views {
		var fb driver.Framebuf
		if fb, err = c.pass.NewFB([]driver.ImageView{v, c.depth.View()}, width, height, 1); err != nil {
			c.release()
			return
		}
		c.fbs = append(c.fbs, fb)
	}
	c.width, c.height = width, height
	return
}

// release destroys the framebuffers and the depth
// target.
func (c *compositeTarget) release() {
	for i := len(c.fbs) - 1; i >= 0; i-- {
		c.fbs[i].Destroy()
	}
	c.fbs = nil
	if c.depth != nil {
		c.depth.Destroy()
		c.depth = nil
	}
	c.width, c.height = 0, 0
}

var compositeClear = []driver.ClearValue{{Color: [4]float32{0, 0, 0, 1}}, {Depth: 1}}

// record records the tone mapping pass into the given
// swapchain image.
// cb must be recording.
func (c *compositeTarget) record(cb driver.CmdBuffer, image int, f *Frame, tonemap *Stage, quad *Geometry) {
	cb.BeginPass(c.pass, c.fbs[image], compositeClear)
	setViewport(cb, c.width, c.height)
	tonemap.Bind(cb, f)
	quad.Draw(cb)
	cb.EndPass()
}

// Destroy destroys everything, including the render
// pass.
func (c *compositeTarget) Destroy() {
	c.release()
	if c.pass != nil {
		c.pass.Destroy()
	}
	*c = compositeTarget{}
}
