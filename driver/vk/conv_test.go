// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

func TestPixelFmt(t *testing.T) {
	seen := make(map[vk.Format]bool)
	for pf := driver.RGBA8un; pf <= driver.D32fS8ui; pf++ {
		f := convPixelFmt(pf)
		require.NotEqual(t, vk.FormatUndefined, f, "convPixelFmt(%d)", pf)
		assert.False(t, seen[f], "convPixelFmt(%d) is not unique", pf)
		seen[f] = true
		back, ok := pixelFmtFrom(f)
		require.True(t, ok)
		assert.Equal(t, pf, back)
	}
	_, ok := pixelFmtFrom(vk.FormatR8g8Unorm)
	assert.False(t, ok)
}

func TestAspect(t *testing.T) {
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectColorBit), aspectOf(driver.RGBA16f))
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit), aspectOf(driver.D32f))
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit|vk.ImageAspectStencilBit), aspectOf(driver.D24unS8ui))
}

func TestImageUsage(t *testing.T) {
	usg := driver.UShaderRead | driver.UShaderWrite | driver.URenderTarget | driver.UCopyDst
	flags := convImageUsage(driver.RGBA8un, usg)
	assert.NotZero(t, flags&vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit))
	assert.Zero(t, flags&vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit))
	assert.Equal(t, usg|driver.UShaderSample, usageFrom(flags))

	flags = convImageUsage(driver.D16un, driver.URenderTarget)
	assert.Equal(t, vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit), flags)
	assert.Zero(t, convImageUsage(driver.RGBA8un, driver.UVertexData))
}

func TestFormatFeature(t *testing.T) {
	assert.Equal(t, vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit),
		convFormatFeature(driver.D32f, driver.URenderTarget))
	assert.Equal(t, vk.FormatFeatureFlags(vk.FormatFeatureColorAttachmentBit|vk.FormatFeatureStorageImageBit),
		convFormatFeature(driver.RGBA16f, driver.URenderTarget|driver.UShaderWrite))
}

func TestBufferUsage(t *testing.T) {
	flags := convBufferUsage(driver.UShaderConst | driver.UVertexData | driver.UCopySrc)
	assert.Equal(t, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit|vk.BufferUsageVertexBufferBit|vk.BufferUsageTransferSrcBit), flags)
	assert.Equal(t, vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit), convBufferUsage(driver.UShaderWrite))
}

func TestSync(t *testing.T) {
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		convSync(driver.SNone, vk.PipelineStageTopOfPipeBit))
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		convSync(driver.SNone, vk.PipelineStageBottomOfPipeBit))
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
		convSync(driver.SAll|driver.SCopy, vk.PipelineStageTopOfPipeBit))
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit|vk.PipelineStageFragmentShaderBit),
		convSync(driver.SComputeShading|driver.SFragmentShading, vk.PipelineStageTopOfPipeBit))
}

func TestAccess(t *testing.T) {
	assert.Zero(t, convAccess(driver.ANone))
	assert.Equal(t, vk.AccessFlags(vk.AccessShaderWriteBit), convAccess(driver.AShaderWrite))
	assert.Equal(t, vk.AccessFlags(vk.AccessShaderReadBit|vk.AccessUniformReadBit|vk.AccessTransferWriteBit),
		convAccess(driver.AShaderRead|driver.ACopyWrite))
}

func TestLayout(t *testing.T) {
	for _, x := range [...]struct {
		l    driver.Layout
		want vk.ImageLayout
	}{
		{driver.LUndefined, vk.ImageLayoutUndefined},
		{driver.LCommon, vk.ImageLayoutGeneral},
		{driver.LColorTarget, vk.ImageLayoutColorAttachmentOptimal},
		{driver.LDSTarget, vk.ImageLayoutDepthStencilAttachmentOptimal},
		{driver.LShaderRead, vk.ImageLayoutShaderReadOnlyOptimal},
		{driver.LCopyDst, vk.ImageLayoutTransferDstOptimal},
		{driver.LPresent, vk.ImageLayoutPresentSrc},
	} {
		assert.Equal(t, x.want, convLayout(x.l))
	}
}

func TestDescLayout(t *testing.T) {
	assert.Equal(t, vk.ImageLayoutGeneral, descLayout(&driver.Descriptor{Type: driver.DImage}))
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, descLayout(&driver.Descriptor{Type: driver.DTexture}))
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, descLayout(&driver.Descriptor{Type: driver.DCombined}))
	assert.Equal(t, vk.ImageLayoutGeneral, descLayout(&driver.Descriptor{Type: driver.DCombined, Layout: driver.LCommon}))
	assert.Equal(t, vk.DescriptorTypeCombinedImageSampler, convDescType(driver.DCombined))
	assert.Equal(t, vk.DescriptorTypeStorageImage, convDescType(driver.DImage))
}

func TestVersion(t *testing.T) {
	v := uint32(vk.MakeVersion(1, 3, 250))
	assert.Equal(t, 1, versionMajor(v))
	assert.Equal(t, 3, versionMinor(v))
	assert.Equal(t, 250, versionPatch(v))
	assert.False(t, isVariant(v))
	assert.True(t, isVariant(v|1<<29))
}

func TestSelectExts(t *testing.T) {
	from := []string{"VK_KHR_surface", "VK_KHR_xcb_surface"}
	names, err := selectExts([]string{"VK_KHR_surface"}, from)
	require.NoError(t, err)
	assert.Equal(t, []string{"VK_KHR_surface\x00"}, names)
	_, err = selectExts([]string{"VK_KHR_wayland_surface"}, from)
	assert.ErrorIs(t, err, errNoExtension)
	assert.Equal(t, "main\x00", cstr("main"))
	assert.Equal(t, "main\x00", cstr("main\x00"))
}

func TestCheckResult(t *testing.T) {
	assert.NoError(t, checkResult(vk.Success))
	assert.NoError(t, checkResult(vk.Suboptimal))
	assert.ErrorIs(t, checkResult(vk.ErrorOutOfDate), driver.ErrSwapchain)
	assert.ErrorIs(t, checkResult(vk.ErrorDeviceLost), driver.ErrFatal)
	assert.ErrorIs(t, checkResult(vk.ErrorOutOfDeviceMemory), driver.ErrNoDeviceMemory)
	assert.ErrorIs(t, checkResult(vk.ErrorValidationFailed), errUnknown)
}
