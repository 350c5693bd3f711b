// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/goki/vulkan"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

// cmdBuffer implements driver.CmdBuffer.
type cmdBuffer struct {
	d     *Driver
	qfam  uint32
	pool  vk.CommandPool
	cb    vk.CommandBuffer
	begun bool
}

// NewCmdBuffer creates a new command buffer.
// The command buffer handle is allocated from an
// exclusive command pool of q's family.
func (d *Driver) NewCmdBuffer(q driver.Queue) (driver.CmdBuffer, error) {
	qfam := q.(*queue).fam
	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: qfam,
	}
	var pool vk.CommandPool
	if err := checkResult(vk.CreateCommandPool(d.dev, &poolInfo, nil, &pool)); err != nil {
		return nil, err
	}
	cbInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	cbs := make([]vk.CommandBuffer, 1)
	if err := checkResult(vk.AllocateCommandBuffers(d.dev, &cbInfo, cbs)); err != nil {
		vk.DestroyCommandPool(d.dev, pool, nil)
		return nil, err
	}
	return &cmdBuffer{
		d:    d,
		qfam: qfam,
		pool: pool,
		cb:   cbs[0],
	}, nil
}

// Begin prepares the command buffer for recording.
func (cb *cmdBuffer) Begin() error {
	if cb.begun {
		if err := cb.Reset(); err != nil {
			return err
		}
	}
	info := vk.CommandBufferBeginInfo{SType: vk.StructureTypeCommandBufferBeginInfo}
	if err := checkResult(vk.BeginCommandBuffer(cb.cb, &info)); err != nil {
		return err
	}
	cb.begun = true
	return nil
}

// BeginPass begins the first subpass of a render pass.
func (cb *cmdBuffer) BeginPass(pass driver.RenderPass, fb driver.Framebuf, clear []driver.ClearValue) {
	rp := pass.(*renderPass)
	f := fb.(*framebuf)
	var clr []vk.ClearValue
	if n := min(len(clear), len(rp.att)); n > 0 {
		clr = make([]vk.ClearValue, n)
		for i := range clr {
			if rp.att[i].Format.IsDepth() {
				clr[i].SetDepthStencil(clear[i].Depth, clear[i].Stencil)
			} else {
				clr[i].SetColor(clear[i].Color[:])
			}
		}
	}
	info := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.pass,
		Framebuffer: f.fb,
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{Width: f.width, Height: f.height},
		},
		ClearValueCount: uint32(len(clr)),
		PClearValues:    clr,
	}
	vk.CmdBeginRenderPass(cb.cb, &info, vk.SubpassContentsInline)
}

// EndPass ends the current render pass.
func (cb *cmdBuffer) EndPass() {
	vk.CmdEndRenderPass(cb.cb)
}

// SetPipeline sets the pipeline.
func (cb *cmdBuffer) SetPipeline(pl driver.Pipeline) {
	p := pl.(*pipeline)
	vk.CmdBindPipeline(cb.cb, p.bindPt, p.pl)
}

// SetViewport sets the bounds of one or more viewports.
func (cb *cmdBuffer) SetViewport(vp []driver.Viewport) {
	if len(vp) == 0 {
		return
	}
	vps := make([]vk.Viewport, len(vp))
	for i := range vp {
		vps[i] = vk.Viewport{
			X:        vp[i].X,
			Y:        vp[i].Y,
			Width:    vp[i].Width,
			Height:   vp[i].Height,
			MinDepth: vp[i].Znear,
			MaxDepth: vp[i].Zfar,
		}
	}
	vk.CmdSetViewport(cb.cb, 0, uint32(len(vps)), vps)
}

// SetScissor sets the rectangles of one or more viewport
// scissors.
func (cb *cmdBuffer) SetScissor(sciss []driver.Scissor) {
	if len(sciss) == 0 {
		return
	}
	rs := make([]vk.Rect2D, len(sciss))
	for i := range sciss {
		rs[i] = vk.Rect2D{
			Offset: vk.Offset2D{X: int32(sciss[i].X), Y: int32(sciss[i].Y)},
			Extent: vk.Extent2D{Width: uint32(sciss[i].Width), Height: uint32(sciss[i].Height)},
		}
	}
	vk.CmdSetScissor(cb.cb, 0, uint32(len(rs)), rs)
}

// SetVertexBuf sets one or more vertex buffers.
func (cb *cmdBuffer) SetVertexBuf(start int, buf []driver.Buffer, off []int64) {
	if len(buf) == 0 {
		return
	}
	bufs := make([]vk.Buffer, len(buf))
	offs := make([]vk.DeviceSize, len(buf))
	for i := range buf {
		bufs[i] = buf[i].(*buffer).buf
		offs[i] = vk.DeviceSize(off[i])
	}
	vk.CmdBindVertexBuffers(cb.cb, uint32(start), uint32(len(bufs)), bufs, offs)
}

// SetIndexBuf sets the index buffer.
func (cb *cmdBuffer) SetIndexBuf(format driver.IndexFmt, buf driver.Buffer, off int64) {
	vk.CmdBindIndexBuffer(cb.cb, buf.(*buffer).buf, vk.DeviceSize(off), convIndexFmt(format))
}

// setDescTable binds descriptor sets of table.
func (cb *cmdBuffer) setDescTable(bp vk.PipelineBindPoint, table driver.DescTable, start int, heapCopy []int) {
	if len(heapCopy) == 0 {
		return
	}
	t := table.(*descTable)
	sets := make([]vk.DescriptorSet, len(heapCopy))
	for i, cpy := range heapCopy {
		sets[i] = t.h[start+i].sets[cpy]
	}
	vk.CmdBindDescriptorSets(cb.cb, bp, t.layout, uint32(start), uint32(len(sets)), sets, 0, nil)
}

// SetDescTableGraph sets a descriptor table range for
// graphics pipelines.
func (cb *cmdBuffer) SetDescTableGraph(table driver.DescTable, start int, heapCopy []int) {
	cb.setDescTable(vk.PipelineBindPointGraphics, table, start, heapCopy)
}

// SetDescTableComp sets a descriptor table range for
// compute pipelines.
func (cb *cmdBuffer) SetDescTableComp(table driver.DescTable, start int, heapCopy []int) {
	cb.setDescTable(vk.PipelineBindPointCompute, table, start, heapCopy)
}

// Draw draws primitives.
func (cb *cmdBuffer) Draw(vertCount, instCount, baseVert, baseInst int) {
	vk.CmdDraw(cb.cb, uint32(vertCount), uint32(instCount), uint32(baseVert), uint32(baseInst))
}

// DrawIndexed draws indexed primitives.
func (cb *cmdBuffer) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int) {
	vk.CmdDrawIndexed(cb.cb, uint32(idxCount), uint32(instCount), uint32(baseIdx), int32(vertOff), uint32(baseInst))
}

// Dispatch dispatches compute thread groups.
func (cb *cmdBuffer) Dispatch(grpCountX, grpCountY, grpCountZ int) {
	vk.CmdDispatch(cb.cb, uint32(grpCountX), uint32(grpCountY), uint32(grpCountZ))
}

// CopyBufToImg copies data from a buffer to an image.
// The image must be in the LCopyDst layout.
func (cb *cmdBuffer) CopyBufToImg(param *driver.BufImgCopy) {
	img := param.Img.(*image)
	depth := max(param.Size.Depth, 1)
	layers := uint32(1)
	if img.typ != vk.ImageType3d {
		layers = uint32(depth)
		depth = 1
	}
	cpy := vk.BufferImageCopy{
		BufferOffset:      vk.DeviceSize(param.BufOff),
		BufferRowLength:   uint32(param.Stride[0]),
		BufferImageHeight: uint32(param.Stride[1]),
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     aspectOf(img.pf),
			MipLevel:       uint32(param.Level),
			BaseArrayLayer: uint32(param.Layer),
			LayerCount:     layers,
		},
		ImageOffset: vk.Offset3D{
			X: int32(param.ImgOff.X),
			Y: int32(param.ImgOff.Y),
			Z: int32(param.ImgOff.Z),
		},
		ImageExtent: vk.Extent3D{
			Width:  uint32(param.Size.Width),
			Height: uint32(param.Size.Height),
			Depth:  uint32(depth),
		},
	}
	vk.CmdCopyBufferToImage(cb.cb, param.Buf.(*buffer).buf, img.img, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{cpy})
}

// Barrier inserts a number of global barriers in the
// command buffer.
func (cb *cmdBuffer) Barrier(b []driver.Barrier) {
	if len(b) == 0 {
		return
	}
	var stg1, stg2 vk.PipelineStageFlags
	mbs := make([]vk.MemoryBarrier, len(b))
	for i := range b {
		stg1 |= convSync(b[i].SyncBefore, vk.PipelineStageTopOfPipeBit)
		stg2 |= convSync(b[i].SyncAfter, vk.PipelineStageBottomOfPipeBit)
		mbs[i] = vk.MemoryBarrier{
			SType:         vk.StructureTypeMemoryBarrier,
			SrcAccessMask: convAccess(b[i].AccessBefore),
			DstAccessMask: convAccess(b[i].AccessAfter),
		}
	}
	vk.CmdPipelineBarrier(cb.cb, stg1, stg2, 0, uint32(len(mbs)), mbs, 0, nil, 0, nil)
}

// Transition inserts a number of image layout transitions
// in the command buffer.
func (cb *cmdBuffer) Transition(t []driver.Transition) {
	if len(t) == 0 {
		return
	}
	var stg1, stg2 vk.PipelineStageFlags
	imbs := make([]vk.ImageMemoryBarrier, len(t))
	for i := range t {
		stg1 |= convSync(t[i].SyncBefore, vk.PipelineStageTopOfPipeBit)
		stg2 |= convSync(t[i].SyncAfter, vk.PipelineStageBottomOfPipeBit)
		iv := t[i].IView.(*imageView)
		imbs[i] = vk.ImageMemoryBarrier{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       convAccess(t[i].AccessBefore),
			DstAccessMask:       convAccess(t[i].AccessAfter),
			OldLayout:           convLayout(t[i].LayoutBefore),
			NewLayout:           convLayout(t[i].LayoutAfter),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               iv.img,
			SubresourceRange:    iv.subres,
		}
	}
	vk.CmdPipelineBarrier(cb.cb, stg1, stg2, 0, 0, nil, 0, nil, uint32(len(imbs)), imbs)
}

// End ends command recording.
func (cb *cmdBuffer) End() error {
	if !cb.begun {
		return nil
	}
	cb.begun = false
	return checkResult(vk.EndCommandBuffer(cb.cb))
}

// Reset discards all recorded commands.
func (cb *cmdBuffer) Reset() error {
	if err := checkResult(vk.ResetCommandBuffer(cb.cb, 0)); err != nil {
		return err
	}
	cb.begun = false
	return nil
}

// Destroy destroys the command buffer.
func (cb *cmdBuffer) Destroy() {
	if cb == nil {
		return
	}
	if cb.d != nil {
		vk.FreeCommandBuffers(cb.d.dev, cb.pool, 1, []vk.CommandBuffer{cb.cb})
		vk.DestroyCommandPool(cb.d.dev, cb.pool, nil)
	}
	*cb = cmdBuffer{}
}
