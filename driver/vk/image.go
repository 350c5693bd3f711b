// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/goki/vulkan"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

// image implements driver.Image.
type image struct {
	d   *Driver
	m   *memory // nil for swapchain images.
	img vk.Image
	typ vk.ImageType
	pf  driver.PixelFmt
	// Full subresource range.
	subres vk.ImageSubresourceRange
}

// NewImage creates a new image.
// A size.Depth greater than one creates a 3D image.
func (d *Driver) NewImage(pf driver.PixelFmt, size driver.Dim3D, layers, levels, samples int, usg driver.Usage) (driver.Image, error) {
	format := convPixelFmt(pf)
	if format == vk.FormatUndefined {
		return nil, errUnsupportedFormat
	}
	typ := vk.ImageType2d
	extent := vk.Extent3D{
		Width:  uint32(size.Width),
		Height: uint32(max(size.Height, 1)),
		Depth:  1,
	}
	if size.Depth > 1 {
		typ = vk.ImageType3d
		extent.Depth = uint32(size.Depth)
		layers = 1
	}
	layers = max(layers, 1)
	levels = max(levels, 1)
	scount := convSamples(samples)
	usage := convImageUsage(pf, usg)
	if usage == 0 {
		panic("cannot create image without a valid usage")
	}

	var prop vk.ImageFormatProperties
	res := vk.GetPhysicalDeviceImageFormatProperties(d.pdev, format, typ, vk.ImageTilingOptimal, usage, 0, &prop)
	if err := checkResult(res); err != nil {
		return nil, err
	}
	prop.Deref()
	prop.MaxExtent.Deref()
	if extent.Width > prop.MaxExtent.Width || extent.Height > prop.MaxExtent.Height || extent.Depth > prop.MaxExtent.Depth ||
		uint32(layers) > prop.MaxArrayLayers || uint32(levels) > prop.MaxMipLevels ||
		vk.SampleCountFlags(scount)&prop.SampleCounts == 0 {
		return nil, errUnsupportedFormat
	}

	mode, fams := d.resourceSharing()
	info := vk.ImageCreateInfo{
		SType:                 vk.StructureTypeImageCreateInfo,
		ImageType:             typ,
		Format:                format,
		Extent:                extent,
		MipLevels:             uint32(levels),
		ArrayLayers:           uint32(layers),
		Samples:               scount,
		Tiling:                vk.ImageTilingOptimal,
		Usage:                 usage,
		SharingMode:           mode,
		QueueFamilyIndexCount: uint32(len(fams)),
		PQueueFamilyIndices:   fams,
		InitialLayout:         vk.ImageLayoutUndefined,
	}
	var img vk.Image
	if err := checkResult(vk.CreateImage(d.dev, &info, nil, &img)); err != nil {
		return nil, err
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.dev, img, &req)
	m, err := d.newMemory(req, false)
	if err != nil {
		vk.DestroyImage(d.dev, img, nil)
		return nil, err
	}
	if err = checkResult(vk.BindImageMemory(d.dev, img, m.mem, 0)); err != nil {
		m.free()
		vk.DestroyImage(d.dev, img, nil)
		return nil, err
	}

	return &image{
		d:   d,
		m:   m,
		img: img,
		typ: typ,
		pf:  pf,
		subres: vk.ImageSubresourceRange{
			AspectMask: aspectOf(pf),
			LevelCount: uint32(levels),
			LayerCount: uint32(layers),
		},
	}, nil
}

// Destroy destroys the image.
func (im *image) Destroy() {
	if im == nil {
		return
	}
	if im.m != nil {
		vk.DestroyImage(im.d.dev, im.img, nil)
		im.m.free()
	}
	*im = image{}
}

// imageView implements driver.ImageView.
type imageView struct {
	d      *Driver
	img    vk.Image
	view   vk.ImageView
	subres vk.ImageSubresourceRange
}

// NewView creates a new image view.
func (im *image) NewView(typ driver.ViewType, layer, layers, level, levels int) (driver.ImageView, error) {
	return im.d.newView(im.img, im.pf, convViewType(typ), layer, layers, level, levels)
}

// newView creates a view of img.
func (d *Driver) newView(img vk.Image, pf driver.PixelFmt, typ vk.ImageViewType, layer, layers, level, levels int) (*imageView, error) {
	subres := vk.ImageSubresourceRange{
		AspectMask:     aspectOf(pf),
		BaseMipLevel:   uint32(level),
		LevelCount:     uint32(levels),
		BaseArrayLayer: uint32(layer),
		LayerCount:     uint32(layers),
	}
	info := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img,
		ViewType: typ,
		Format:   convPixelFmt(pf),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: subres,
	}
	var view vk.ImageView
	if err := checkResult(vk.CreateImageView(d.dev, &info, nil, &view)); err != nil {
		return nil, err
	}
	return &imageView{
		d:      d,
		img:    img,
		view:   view,
		subres: subres,
	}, nil
}

// Destroy destroys the image view.
func (v *imageView) Destroy() {
	if v == nil {
		return
	}
	if v.d != nil {
		vk.DestroyImageView(v.d.dev, v.view, nil)
	}
	*v = imageView{}
}

// convSamples converts a sample count to a
// vk.SampleCountFlagBits.
func convSamples(samples int) vk.SampleCountFlagBits {
	switch samples {
	case 2:
		return vk.SampleCount2Bit
	case 4:
		return vk.SampleCount4Bit
	case 8:
		return vk.SampleCount8Bit
	case 16:
		return vk.SampleCount16Bit
	}
	return vk.SampleCount1Bit
}
