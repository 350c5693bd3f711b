// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"errors"

	vk "github.com/goki/vulkan"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

// renderPass implements driver.RenderPass.
type renderPass struct {
	d    *Driver
	pass vk.RenderPass
	att  []driver.Attachment
	// Color count is needed when defining the color blend state.
	ncolor []int
}

// NewRenderPass creates a new render pass.
func (d *Driver) NewRenderPass(att []driver.Attachment, sub []driver.Subpass, dep []driver.Dependency) (driver.RenderPass, error) {
	if len(sub) == 0 {
		return nil, errors.New("vk: render pass has no subpasses")
	}
	atts := make([]vk.AttachmentDescription, len(att))
	for i := range att {
		final := convLayout(att[i].Final)
		if final == vk.ImageLayoutUndefined {
			final = vk.ImageLayoutGeneral
		}
		atts[i] = vk.AttachmentDescription{
			Format:         convPixelFmt(att[i].Format),
			Samples:        convSamples(att[i].Samples),
			LoadOp:         convLoadOp(att[i].Load),
			StoreOp:        convStoreOp(att[i].Store),
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  convLayout(att[i].Initial),
			FinalLayout:    final,
		}
		if att[i].Format.HasStencil() {
			atts[i].StencilLoadOp = atts[i].LoadOp
			atts[i].StencilStoreOp = atts[i].StoreOp
		}
	}

	subs := make([]vk.SubpassDescription, len(sub))
	for i := range sub {
		subs[i] = vk.SubpassDescription{PipelineBindPoint: vk.PipelineBindPointGraphics}
		if n := len(sub[i].Color); n > 0 {
			refs := make([]vk.AttachmentReference, n)
			for j, k := range sub[i].Color {
				if k < 0 || k >= len(att) {
					return nil, errors.New("vk: color attachment index out of range")
				}
				refs[j] = vk.AttachmentReference{
					Attachment: uint32(k),
					Layout:     vk.ImageLayoutColorAttachmentOptimal,
				}
			}
			subs[i].ColorAttachmentCount = uint32(n)
			subs[i].PColorAttachments = refs
		}
		if k := sub[i].DS; k >= 0 && k < len(att) {
			subs[i].PDepthStencilAttachment = &vk.AttachmentReference{
				Attachment: uint32(k),
				Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
			}
		}
	}

	deps := make([]vk.SubpassDependency, 0, len(dep)+len(sub)-1)
	for i := range dep {
		deps = append(deps, vk.SubpassDependency{
			SrcSubpass:    subpassIndex(dep[i].Src),
			DstSubpass:    subpassIndex(dep[i].Dst),
			SrcStageMask:  convSync(dep[i].SyncBefore, vk.PipelineStageTopOfPipeBit),
			DstStageMask:  convSync(dep[i].SyncAfter, vk.PipelineStageBottomOfPipeBit),
			SrcAccessMask: convAccess(dep[i].AccessBefore),
			DstAccessMask: convAccess(dep[i].AccessAfter),
		})
	}
	// Consecutive subpasses are ordered implicitly.
	for i := 1; i < len(sub); i++ {
		deps = append(deps, vk.SubpassDependency{
			SrcSubpass:    uint32(i - 1),
			DstSubpass:    uint32(i),
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageAllGraphicsBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageAllGraphicsBit),
			SrcAccessMask: vk.AccessFlags(vk.AccessMemoryWriteBit),
			DstAccessMask: vk.AccessFlags(vk.AccessMemoryReadBit | vk.AccessMemoryWriteBit),
		})
	}

	info := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(atts)),
		PAttachments:    atts,
		SubpassCount:    uint32(len(subs)),
		PSubpasses:      subs,
		DependencyCount: uint32(len(deps)),
		PDependencies:   deps,
	}
	var pass vk.RenderPass
	if err := checkResult(vk.CreateRenderPass(d.dev, &info, nil, &pass)); err != nil {
		return nil, err
	}
	ncolor := make([]int, len(sub))
	for i := range ncolor {
		ncolor[i] = len(sub[i].Color)
	}
	return &renderPass{
		d:      d,
		pass:   pass,
		att:    append([]driver.Attachment(nil), att...),
		ncolor: ncolor,
	}, nil
}

// subpassIndex converts a dependency index, which may
// be driver.External.
func subpassIndex(i int) uint32 {
	if i == driver.External {
		return vk.SubpassExternal
	}
	return uint32(i)
}

// Destroy destroys the render pass.
func (p *renderPass) Destroy() {
	if p == nil {
		return
	}
	if p.d != nil {
		vk.DestroyRenderPass(p.d.dev, p.pass, nil)
	}
	*p = renderPass{}
}

// framebuf implements driver.Framebuf.
type framebuf struct {
	p      *renderPass
	fb     vk.Framebuffer
	width  uint32
	height uint32
}

// NewFB creates a new framebuffer.
func (p *renderPass) NewFB(iv []driver.ImageView, width, height, layers int) (driver.Framebuf, error) {
	views := make([]vk.ImageView, len(iv))
	for i := range iv {
		v, _ := iv[i].(*imageView)
		if v == nil {
			return nil, errors.New("vk: nil image view")
		}
		views[i] = v.view
	}
	info := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      p.pass,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           uint32(width),
		Height:          uint32(height),
		Layers:          uint32(max(layers, 1)),
	}
	var fb vk.Framebuffer
	if err := checkResult(vk.CreateFramebuffer(p.d.dev, &info, nil, &fb)); err != nil {
		return nil, err
	}
	return &framebuf{
		p:      p,
		fb:     fb,
		width:  uint32(width),
		height: uint32(height),
	}, nil
}

// Destroy destroys the framebuffer.
func (f *framebuf) Destroy() {
	if f == nil {
		return
	}
	if f.p != nil {
		vk.DestroyFramebuffer(f.p.d.dev, f.fb, nil)
	}
	*f = framebuf{}
}
