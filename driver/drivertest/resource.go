// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package drivertest

import (
	"errors"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

// RenderPass implements driver.RenderPass.
type RenderPass struct {
	object
	Att []driver.Attachment
	Sub []driver.Subpass
	Dep []driver.Dependency
}

// NewRenderPass creates a new render pass.
func (g *GPU) NewRenderPass(att []driver.Attachment, sub []driver.Subpass, dep []driver.Dependency) (driver.RenderPass, error) {
	if len(att) == 0 || len(sub) == 0 {
		return nil, errors.New("drivertest: render pass with no attachments or subpasses")
	}
	o, err := g.newObject(KRenderPass)
	if err != nil {
		return nil, err
	}
	return &RenderPass{
		object: o,
		Att:    append([]driver.Attachment(nil), att...),
		Sub:    append([]driver.Subpass(nil), sub...),
		Dep:    append([]driver.Dependency(nil), dep...),
	}, nil
}

// Framebuf implements driver.Framebuf.
type Framebuf struct {
	object
	Pass          *RenderPass
	Views         []driver.ImageView
	Width, Height int
}

// NewFB creates a new framebuffer.
func (p *RenderPass) NewFB(iv []driver.ImageView, width, height, layers int) (driver.Framebuf, error) {
	if len(iv) != len(p.Att) {
		return nil, errors.New("drivertest: framebuffer view count mismatch")
	}
	if width <= 0 || height <= 0 || layers <= 0 {
		return nil, errors.New("drivertest: invalid framebuffer size")
	}
	o, err := p.gpu.newObject(KFramebuf)
	if err != nil {
		return nil, err
	}
	return &Framebuf{
		object: o,
		Pass:   p,
		Views:  append([]driver.ImageView(nil), iv...),
		Width:  width,
		Height: height,
	}, nil
}

// ShaderCode implements driver.ShaderCode.
type ShaderCode struct {
	object
	Data []byte
}

// NewShaderCode creates a new shader code.
func (g *GPU) NewShaderCode(data []byte) (driver.ShaderCode, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, errors.New("drivertest: invalid shader code size")
	}
	o, err := g.newObject(KShaderCode)
	if err != nil {
		return nil, err
	}
	return &ShaderCode{o, append([]byte(nil), data...)}, nil
}

// Write is a recorded descriptor update.
// Res holds the driver.Buffer, driver.ImageView or
// driver.Sampler values written, in that order of
// precedence.
type Write struct {
	Copy, Nr, Start int
	Res             []any
}

// DescHeap implements driver.DescHeap.
type DescHeap struct {
	object
	Desc   []driver.Descriptor
	count  int
	writes []Write
}

// NewDescHeap creates a new descriptor heap.
func (g *GPU) NewDescHeap(ds []driver.Descriptor) (driver.DescHeap, error) {
	o, err := g.newObject(KDescHeap)
	if err != nil {
		return nil, err
	}
	return &DescHeap{object: o, Desc: append([]driver.Descriptor(nil), ds...)}, nil
}

// New sets the number of heap copies.
func (h *DescHeap) New(n int) error {
	if n == h.count {
		return nil
	}
	h.gpu.mu.Lock()
	err := h.gpu.fail["descheap.new"]
	delete(h.gpu.fail, "descheap.new")
	h.gpu.mu.Unlock()
	if err != nil {
		return err
	}
	h.count = n
	h.writes = h.writes[:0]
	return nil
}

func (h *DescHeap) desc(nr int) *driver.Descriptor {
	for i := range h.Desc {
		if h.Desc[i].Nr == nr {
			return &h.Desc[i]
		}
	}
	return nil
}

func (h *DescHeap) write(cpy, nr, start int, typ []driver.DescType, res []any) {
	if cpy < 0 || cpy >= h.count {
		panic("drivertest: heap copy out of range")
	}
	d := h.desc(nr)
	if d == nil {
		panic("drivertest: no such descriptor")
	}
	ok := false
	for _, t := range typ {
		ok = ok || d.Type == t
	}
	if !ok {
		panic("drivertest: descriptor type mismatch")
	}
	if start+len(res) > d.Len {
		panic("drivertest: descriptor range out of bounds")
	}
	h.writes = append(h.writes, Write{cpy, nr, start, res})
}

// SetBuffer records the update.
func (h *DescHeap) SetBuffer(cpy, nr, start int, buf []driver.Buffer, off, size []int64) {
	res := make([]any, len(buf))
	for i := range buf {
		res[i] = buf[i]
	}
	h.write(cpy, nr, start, []driver.DescType{driver.DBuffer, driver.DConstant}, res)
}

// SetImage records the update.
func (h *DescHeap) SetImage(cpy, nr, start int, iv []driver.ImageView) {
	res := make([]any, len(iv))
	for i := range iv {
		res[i] = iv[i]
	}
	h.write(cpy, nr, start, []driver.DescType{driver.DImage, driver.DTexture}, res)
}

// SetSampler records the update.
func (h *DescHeap) SetSampler(cpy, nr, start int, splr []driver.Sampler) {
	res := make([]any, len(splr))
	for i := range splr {
		res[i] = splr[i]
	}
	h.write(cpy, nr, start, []driver.DescType{driver.DSampler}, res)
}

// SetCombined records the update.
// Only the image views are kept in Write.Res.
func (h *DescHeap) SetCombined(cpy, nr, start int, iv []driver.ImageView, splr []driver.Sampler) {
	if len(iv) != len(splr) {
		panic("drivertest: SetCombined length mismatch")
	}
	res := make([]any, len(iv))
	for i := range iv {
		res[i] = iv[i]
	}
	h.write(cpy, nr, start, []driver.DescType{driver.DCombined}, res)
}

// Count returns the number of heap copies.
func (h *DescHeap) Count() int { return h.count }

// Writes returns the recorded updates.
func (h *DescHeap) Writes() []Write { return h.writes }

// Bound returns the resources most recently written to
// the given descriptor of the given heap copy.
func (h *DescHeap) Bound(cpy, nr int) []any {
	var res []any
	for _, w := range h.writes {
		if w.Copy != cpy || w.Nr != nr {
			continue
		}
		if n := w.Start + len(w.Res); n > len(res) {
			res = append(res, make([]any, n-len(res))...)
		}
		copy(res[w.Start:], w.Res)
	}
	return res
}

// DescTable implements driver.DescTable.
type DescTable struct {
	object
	Heaps []driver.DescHeap
}

// NewDescTable creates a new descriptor table.
func (g *GPU) NewDescTable(dh []driver.DescHeap) (driver.DescTable, error) {
	o, err := g.newObject(KDescTable)
	if err != nil {
		return nil, err
	}
	return &DescTable{o, append([]driver.DescHeap(nil), dh...)}, nil
}

// Pipeline implements driver.Pipeline.
// State is a copy of the *driver.GraphState or
// *driver.CompState used to create it.
type Pipeline struct {
	object
	State any
}

// NewPipeline creates a new pipeline.
func (g *GPU) NewPipeline(state any) (driver.Pipeline, error) {
	switch s := state.(type) {
	case *driver.GraphState:
		if s.Pass == nil || s.Desc == nil {
			return nil, errors.New("drivertest: incomplete GraphState")
		}
		c := *s
		state = &c
	case *driver.CompState:
		if s.Desc == nil || s.Func.Code == nil {
			return nil, errors.New("drivertest: incomplete CompState")
		}
		c := *s
		state = &c
	default:
		return nil, errors.New("drivertest: invalid pipeline state")
	}
	o, err := g.newObject(KPipeline)
	if err != nil {
		return nil, err
	}
	return &Pipeline{o, state}, nil
}

// Buffer implements driver.Buffer.
type Buffer struct {
	object
	Usage   driver.Usage
	visible bool
	data    []byte
	size    int64
}

// NewBuffer creates a new buffer.
func (g *GPU) NewBuffer(size int64, visible bool, usg driver.Usage) (driver.Buffer, error) {
	if size <= 0 {
		return nil, errors.New("drivertest: invalid buffer size")
	}
	o, err := g.newObject(KBuffer)
	if err != nil {
		return nil, err
	}
	b := &Buffer{object: o, Usage: usg, visible: visible, size: size}
	if visible {
		b.data = make([]byte, size)
	}
	return b, nil
}

// Visible returns whether the buffer is host visible.
func (b *Buffer) Visible() bool { return b.visible }

// Bytes returns the buffer's memory.
func (b *Buffer) Bytes() []byte { return b.data }

// Cap returns the buffer's size.
func (b *Buffer) Cap() int64 { return b.size }

// Image implements driver.Image.
type Image struct {
	object
	Format  driver.PixelFmt
	Size    driver.Dim3D
	Layers  int
	Levels  int
	Samples int
	Usage   driver.Usage
}

// NewImage creates a new image.
func (g *GPU) NewImage(pf driver.PixelFmt, size driver.Dim3D, layers, levels, samples int, usg driver.Usage) (driver.Image, error) {
	if size.Width <= 0 || size.Height <= 0 || layers <= 0 || levels <= 0 || samples <= 0 {
		return nil, errors.New("drivertest: invalid image parameters")
	}
	if g.unsupported[pf] {
		return nil, errors.New("drivertest: unsupported pixel format")
	}
	o, err := g.newObject(KImage)
	if err != nil {
		return nil, err
	}
	return &Image{o, pf, size, layers, levels, samples, usg}, nil
}

// ImageView implements driver.ImageView.
type ImageView struct {
	object
	Image *Image
	Type  driver.ViewType
}

// NewView creates a new image view.
func (m *Image) NewView(typ driver.ViewType, layer, layers, level, levels int) (driver.ImageView, error) {
	if layer+layers > m.Layers || level+levels > m.Levels {
		return nil, errors.New("drivertest: view out of image bounds")
	}
	if typ == driver.IView3D && m.Size.Depth <= 1 {
		return nil, errors.New("drivertest: 3D view of non-3D image")
	}
	o, err := m.gpu.newObject(KImageView)
	if err != nil {
		return nil, err
	}
	return &ImageView{o, m, typ}, nil
}

// Sampler implements driver.Sampler.
type Sampler struct {
	object
	Sampling driver.Sampling
}

// NewSampler creates a new sampler.
func (g *GPU) NewSampler(spln *driver.Sampling) (driver.Sampler, error) {
	o, err := g.newObject(KSampler)
	if err != nil {
		return nil, err
	}
	return &Sampler{o, *spln}, nil
}
