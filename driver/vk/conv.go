// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/goki/vulkan"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

// convPixelFmt converts a driver.PixelFmt to a vk.Format.
func convPixelFmt(pf driver.PixelFmt) vk.Format {
	switch pf {
	case driver.RGBA8un:
		return vk.FormatR8g8b8a8Unorm
	case driver.RGBA8sRGB:
		return vk.FormatR8g8b8a8Srgb
	case driver.BGRA8un:
		return vk.FormatB8g8r8a8Unorm
	case driver.BGRA8sRGB:
		return vk.FormatB8g8r8a8Srgb
	case driver.R8un:
		return vk.FormatR8Unorm
	case driver.RGBA16f:
		return vk.FormatR16g16b16a16Sfloat
	case driver.RGBA32f:
		return vk.FormatR32g32b32a32Sfloat
	case driver.R32f:
		return vk.FormatR32Sfloat
	case driver.D16un:
		return vk.FormatD16Unorm
	case driver.D32f:
		return vk.FormatD32Sfloat
	case driver.D24unS8ui:
		return vk.FormatD24UnormS8Uint
	case driver.D32fS8ui:
		return vk.FormatD32SfloatS8Uint
	}
	return vk.FormatUndefined
}

// pixelFmtFrom converts a vk.Format to a driver.PixelFmt.
// It returns false if f has no driver counterpart.
func pixelFmtFrom(f vk.Format) (driver.PixelFmt, bool) {
	for pf := driver.RGBA8un; pf <= driver.D32fS8ui; pf++ {
		if convPixelFmt(pf) == f {
			return pf, true
		}
	}
	return 0, false
}

// aspectOf returns the image aspects of pf.
func aspectOf(pf driver.PixelFmt) vk.ImageAspectFlags {
	switch {
	case pf.HasStencil():
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit)
	case pf.IsDepth():
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	return vk.ImageAspectFlags(vk.ImageAspectColorBit)
}

// convFormatFeature converts a driver.Usage to the
// vk.FormatFeatureFlags that images of format pf
// require.
func convFormatFeature(pf driver.PixelFmt, usg driver.Usage) (flags vk.FormatFeatureFlags) {
	if usg&(driver.UShaderRead|driver.UShaderSample) != 0 {
		flags |= vk.FormatFeatureFlags(vk.FormatFeatureSampledImageBit)
	}
	if usg&driver.UShaderWrite != 0 {
		flags |= vk.FormatFeatureFlags(vk.FormatFeatureStorageImageBit)
	}
	if usg&driver.URenderTarget != 0 {
		if pf.IsDepth() {
			flags |= vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
		} else {
			flags |= vk.FormatFeatureFlags(vk.FormatFeatureColorAttachmentBit)
		}
	}
	if usg&driver.UCopySrc != 0 {
		flags |= vk.FormatFeatureFlags(vk.FormatFeatureTransferSrcBit)
	}
	if usg&driver.UCopyDst != 0 {
		flags |= vk.FormatFeatureFlags(vk.FormatFeatureTransferDstBit)
	}
	return
}

// convImageUsage converts a driver.Usage to a
// vk.ImageUsageFlags.
func convImageUsage(pf driver.PixelFmt, usg driver.Usage) (flags vk.ImageUsageFlags) {
	if usg&(driver.UShaderRead|driver.UShaderSample) != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageSampledBit)
	}
	if usg&driver.UShaderWrite != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageStorageBit)
	}
	if usg&driver.URenderTarget != 0 {
		if pf.IsDepth() {
			flags |= vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
		} else {
			flags |= vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
		}
	}
	if usg&driver.UCopySrc != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit)
	}
	if usg&driver.UCopyDst != 0 {
		flags |= vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	}
	return
}

// usageFrom converts a vk.ImageUsageFlags to a
// driver.Usage.
func usageFrom(flags vk.ImageUsageFlags) (usg driver.Usage) {
	if flags&vk.ImageUsageFlags(vk.ImageUsageSampledBit) != 0 {
		usg |= driver.UShaderRead | driver.UShaderSample
	}
	if flags&vk.ImageUsageFlags(vk.ImageUsageStorageBit) != 0 {
		usg |= driver.UShaderWrite
	}
	if flags&vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit|vk.ImageUsageDepthStencilAttachmentBit) != 0 {
		usg |= driver.URenderTarget
	}
	if flags&vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit) != 0 {
		usg |= driver.UCopySrc
	}
	if flags&vk.ImageUsageFlags(vk.ImageUsageTransferDstBit) != 0 {
		usg |= driver.UCopyDst
	}
	return
}

// convBufferUsage converts a driver.Usage to a
// vk.BufferUsageFlags.
func convBufferUsage(usg driver.Usage) (flags vk.BufferUsageFlags) {
	if usg&(driver.UShaderRead|driver.UShaderWrite) != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit)
	}
	if usg&driver.UShaderConst != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit)
	}
	if usg&driver.UVertexData != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)
	}
	if usg&driver.UIndexData != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit)
	}
	if usg&driver.UCopySrc != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	}
	if usg&driver.UCopyDst != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	}
	return
}

// convSync converts a driver.Sync to a
// vk.PipelineStageFlags.
// none is used when s is driver.SNone.
func convSync(s driver.Sync, none vk.PipelineStageFlagBits) (flags vk.PipelineStageFlags) {
	if s == driver.SNone {
		return vk.PipelineStageFlags(none)
	}
	if s&driver.SAll != 0 {
		return vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)
	}
	if s&driver.SDraw != 0 {
		flags |= vk.PipelineStageFlags(vk.PipelineStageAllGraphicsBit)
	}
	if s&driver.SVertexInput != 0 {
		flags |= vk.PipelineStageFlags(vk.PipelineStageVertexInputBit)
	}
	if s&driver.SVertexShading != 0 {
		flags |= vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit)
	}
	if s&driver.SFragmentShading != 0 {
		flags |= vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	}
	if s&driver.SComputeShading != 0 {
		flags |= vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)
	}
	if s&driver.SColorOutput != 0 {
		flags |= vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	}
	if s&driver.SDSOutput != 0 {
		flags |= vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
	}
	if s&driver.SCopy != 0 {
		flags |= vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	}
	return
}

// convAccess converts a driver.Access to a
// vk.AccessFlags.
func convAccess(a driver.Access) (flags vk.AccessFlags) {
	for _, x := range [...]struct {
		a driver.Access
		f vk.AccessFlagBits
	}{
		{driver.AVertexBufRead, vk.AccessVertexAttributeReadBit},
		{driver.AIndexBufRead, vk.AccessIndexReadBit},
		{driver.AColorRead, vk.AccessColorAttachmentReadBit},
		{driver.AColorWrite, vk.AccessColorAttachmentWriteBit},
		{driver.ADSRead, vk.AccessDepthStencilAttachmentReadBit},
		{driver.ADSWrite, vk.AccessDepthStencilAttachmentWriteBit},
		{driver.ACopyRead, vk.AccessTransferReadBit},
		{driver.ACopyWrite, vk.AccessTransferWriteBit},
		{driver.AShaderRead, vk.AccessShaderReadBit | vk.AccessUniformReadBit},
		{driver.AShaderWrite, vk.AccessShaderWriteBit},
		{driver.AAnyRead, vk.AccessMemoryReadBit},
		{driver.AAnyWrite, vk.AccessMemoryWriteBit},
	} {
		if a&x.a != 0 {
			flags |= vk.AccessFlags(x.f)
		}
	}
	return
}

// convLayout converts a driver.Layout to a vk.ImageLayout.
func convLayout(l driver.Layout) vk.ImageLayout {
	switch l {
	case driver.LCommon:
		return vk.ImageLayoutGeneral
	case driver.LColorTarget:
		return vk.ImageLayoutColorAttachmentOptimal
	case driver.LDSTarget:
		return vk.ImageLayoutDepthStencilAttachmentOptimal
	case driver.LDSRead:
		return vk.ImageLayoutDepthStencilReadOnlyOptimal
	case driver.LCopySrc:
		return vk.ImageLayoutTransferSrcOptimal
	case driver.LCopyDst:
		return vk.ImageLayoutTransferDstOptimal
	case driver.LShaderRead:
		return vk.ImageLayoutShaderReadOnlyOptimal
	case driver.LPresent:
		return vk.ImageLayoutPresentSrc
	}
	return vk.ImageLayoutUndefined
}

// convStage converts a driver.Stage to a
// vk.ShaderStageFlags.
func convStage(stg driver.Stage) (flags vk.ShaderStageFlags) {
	if stg&driver.SVertex != 0 {
		flags |= vk.ShaderStageFlags(vk.ShaderStageVertexBit)
	}
	if stg&driver.SFragment != 0 {
		flags |= vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	}
	if stg&driver.SCompute != 0 {
		flags |= vk.ShaderStageFlags(vk.ShaderStageComputeBit)
	}
	return
}

// convDescType converts a driver.DescType to a
// vk.DescriptorType.
func convDescType(t driver.DescType) vk.DescriptorType {
	switch t {
	case driver.DBuffer:
		return vk.DescriptorTypeStorageBuffer
	case driver.DImage:
		return vk.DescriptorTypeStorageImage
	case driver.DConstant:
		return vk.DescriptorTypeUniformBuffer
	case driver.DTexture:
		return vk.DescriptorTypeSampledImage
	case driver.DSampler:
		return vk.DescriptorTypeSampler
	}
	return vk.DescriptorTypeCombinedImageSampler
}

// descLayout returns the layout in which images of the
// given descriptor are accessed.
func descLayout(d *driver.Descriptor) vk.ImageLayout {
	if d.Layout != driver.LUndefined {
		return convLayout(d.Layout)
	}
	if d.Type == driver.DImage {
		return vk.ImageLayoutGeneral
	}
	return vk.ImageLayoutShaderReadOnlyOptimal
}

// convVertexFmt converts a driver.VertexFmt to a vk.Format.
func convVertexFmt(f driver.VertexFmt) vk.Format {
	switch f {
	case driver.Float32:
		return vk.FormatR32Sfloat
	case driver.Float32x2:
		return vk.FormatR32g32Sfloat
	case driver.Float32x3:
		return vk.FormatR32g32b32Sfloat
	}
	return vk.FormatR32g32b32a32Sfloat
}

// convTopology converts a driver.Topology to a
// vk.PrimitiveTopology.
func convTopology(t driver.Topology) vk.PrimitiveTopology {
	if t == driver.TTriStrip {
		return vk.PrimitiveTopologyTriangleStrip
	}
	return vk.PrimitiveTopologyTriangleList
}

// convCullMode converts a driver.CullMode to a
// vk.CullModeFlags.
func convCullMode(m driver.CullMode) vk.CullModeFlags {
	switch m {
	case driver.CFront:
		return vk.CullModeFlags(vk.CullModeFrontBit)
	case driver.CBack:
		return vk.CullModeFlags(vk.CullModeBackBit)
	}
	return vk.CullModeFlags(vk.CullModeNone)
}

// convCmpFunc converts a driver.CmpFunc to a vk.CompareOp.
func convCmpFunc(f driver.CmpFunc) vk.CompareOp {
	switch f {
	case driver.CLess:
		return vk.CompareOpLess
	case driver.CEqual:
		return vk.CompareOpEqual
	case driver.CLessEqual:
		return vk.CompareOpLessOrEqual
	case driver.CGreater:
		return vk.CompareOpGreater
	case driver.CNotEqual:
		return vk.CompareOpNotEqual
	case driver.CGreaterEqual:
		return vk.CompareOpGreaterOrEqual
	case driver.CAlways:
		return vk.CompareOpAlways
	}
	return vk.CompareOpNever
}

// convIndexFmt converts a driver.IndexFmt to a vk.IndexType.
func convIndexFmt(f driver.IndexFmt) vk.IndexType {
	if f == driver.Index16 {
		return vk.IndexTypeUint16
	}
	return vk.IndexTypeUint32
}

// convLoadOp converts a driver.LoadOp to a
// vk.AttachmentLoadOp.
func convLoadOp(op driver.LoadOp) vk.AttachmentLoadOp {
	switch op {
	case driver.LClear:
		return vk.AttachmentLoadOpClear
	case driver.LLoad:
		return vk.AttachmentLoadOpLoad
	}
	return vk.AttachmentLoadOpDontCare
}

// convStoreOp converts a driver.StoreOp to a
// vk.AttachmentStoreOp.
func convStoreOp(op driver.StoreOp) vk.AttachmentStoreOp {
	if op == driver.SStore {
		return vk.AttachmentStoreOpStore
	}
	return vk.AttachmentStoreOpDontCare
}

// convFilter converts a driver.Filter to a vk.Filter.
func convFilter(f driver.Filter) vk.Filter {
	if f == driver.FLinear {
		return vk.FilterLinear
	}
	return vk.FilterNearest
}

// convMipmap converts a driver.Filter to a
// vk.SamplerMipmapMode.
func convMipmap(f driver.Filter) vk.SamplerMipmapMode {
	if f == driver.FLinear {
		return vk.SamplerMipmapModeLinear
	}
	return vk.SamplerMipmapModeNearest
}

// convAddrMode converts a driver.AddrMode to a
// vk.SamplerAddressMode.
func convAddrMode(m driver.AddrMode) vk.SamplerAddressMode {
	switch m {
	case driver.AMirror:
		return vk.SamplerAddressModeMirroredRepeat
	case driver.AClamp:
		return vk.SamplerAddressModeClampToEdge
	}
	return vk.SamplerAddressModeRepeat
}

// convViewType converts a driver.ViewType to a
// vk.ImageViewType.
func convViewType(t driver.ViewType) vk.ImageViewType {
	switch t {
	case driver.IView3D:
		return vk.ImageViewType3d
	case driver.IView2DArray:
		return vk.ImageViewType2dArray
	}
	return vk.ImageViewType2d
}
