// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"errors"
	"sync"

	vk "github.com/goki/vulkan"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/wsi"
)

// swapchain implements driver.Swapchain.
type swapchain struct {
	d     *Driver
	win   wsi.Window
	sf    vk.Surface
	sc    vk.Swapchain
	pf    driver.PixelFmt
	fmt   vk.SurfaceFormat
	usg   driver.Usage
	nimg  int
	w, h  int
	views []driver.ImageView
	mu    sync.Mutex
}

// NewSwapchain creates a new swapchain.
func (d *Driver) NewSwapchain(win wsi.Window, imageCount int) (driver.Swapchain, error) {
	if !d.exts[extSurface] || !d.exts[extSwapchain] {
		return nil, driver.ErrCannotPresent
	}
	p, err := win.Surface(d.inst)
	if err != nil {
		return nil, errors.Join(driver.ErrWindow, err)
	}
	s := &swapchain{
		d:    d,
		win:  win,
		sf:   vk.SurfaceFromPointer(p),
		nimg: imageCount,
	}
	if err := d.selectPresentQueue(s.sf); err != nil {
		vk.DestroySurface(d.inst, s.sf, nil)
		return nil, err
	}
	if err := s.initFormat(); err != nil {
		vk.DestroySurface(d.inst, s.sf, nil)
		return nil, err
	}
	if err := s.initSwapchain(); err != nil {
		if s.sc != nil {
			vk.DestroySwapchain(d.dev, s.sc, nil)
		}
		vk.DestroySurface(d.inst, s.sf, nil)
		return nil, err
	}
	return s, nil
}

// selectPresentQueue ensures that d.ques[driver.QPresent]
// can present to sf.
// The graphics queue is preferred.
func (d *Driver) selectPresentQueue(sf vk.Surface) error {
	supports := func(fam uint32) bool {
		var ok vk.Bool32
		res := vk.GetPhysicalDeviceSurfaceSupport(d.pdev, fam, sf, &ok)
		return res == vk.Success && ok == vk.True
	}
	if supports(d.ques[driver.QPresent].fam) {
		return nil
	}
	if supports(d.gfam) {
		d.ques[driver.QPresent] = d.newQueue(driver.QPresent, d.gfam, d.ques[driver.QGraphics].mu)
		return nil
	}
	for i := range queueFamilies(d.pdev) {
		fam := uint32(i)
		if !supports(fam) {
			continue
		}
		var mu *sync.Mutex
		for _, q := range d.ques {
			if q.fam == fam {
				mu = q.mu
				break
			}
		}
		d.ques[driver.QPresent] = d.newQueue(driver.QPresent, fam, mu)
		return nil
	}
	return driver.ErrCannotPresent
}

// initFormat selects the surface format.
// 8-bit UNORM formats are preferred over sRGB ones.
func (s *swapchain) initFormat() error {
	var n uint32
	if err := checkResult(vk.GetPhysicalDeviceSurfaceFormats(s.d.pdev, s.sf, &n, nil)); err != nil {
		return err
	}
	fmts := make([]vk.SurfaceFormat, n)
	if err := checkResult(vk.GetPhysicalDeviceSurfaceFormats(s.d.pdev, s.sf, &n, fmts)); err != nil {
		return err
	}
	for i := range fmts {
		fmts[i].Deref()
	}
	for _, pf := range [...]driver.PixelFmt{driver.BGRA8un, driver.RGBA8un, driver.BGRA8sRGB, driver.RGBA8sRGB} {
		for _, f := range fmts[:n] {
			if f.Format == convPixelFmt(pf) {
				s.pf = pf
				s.fmt = f
				return nil
			}
		}
	}
	return errUnsupportedFormat
}

// initSwapchain creates the swapchain and its views.
// The previous swapchain, if any, is retired.
func (s *swapchain) initSwapchain() error {
	var capab vk.SurfaceCapabilities
	if err := checkResult(vk.GetPhysicalDeviceSurfaceCapabilities(s.d.pdev, s.sf, &capab)); err != nil {
		return err
	}
	capab.Deref()
	capab.CurrentExtent.Deref()
	capab.MaxImageExtent.Deref()

	nimg := uint32(s.nimg)
	if capab.MinImageCount > nimg {
		nimg = capab.MinImageCount
	} else if capab.MaxImageCount != 0 && capab.MaxImageCount < nimg {
		nimg = capab.MaxImageCount
	}

	extent := capab.CurrentExtent
	if extent.Width == ^uint32(0) {
		extent.Width = uint32(s.win.Width())
		extent.Height = uint32(s.win.Height())
	}
	if extent.Width == 0 || extent.Height == 0 {
		// Minimized windows cannot be presented to.
		return driver.ErrWindow
	}

	calpha := vk.CompositeAlphaOpaqueBit
	if vk.CompositeAlphaFlags(calpha)&capab.SupportedCompositeAlpha == 0 {
		for b := vk.CompositeAlphaFlagBits(1); b != 0 && b <= vk.CompositeAlphaInheritBit; b <<= 1 {
			if vk.CompositeAlphaFlags(b)&capab.SupportedCompositeAlpha != 0 {
				calpha = b
				break
			}
		}
	}

	usage := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	for _, b := range [...]vk.ImageUsageFlagBits{vk.ImageUsageTransferDstBit, vk.ImageUsageStorageBit} {
		if vk.ImageUsageFlags(b)&capab.SupportedUsageFlags != 0 {
			usage |= vk.ImageUsageFlags(b)
		}
	}

	mode, fams := s.d.swapchainSharing()
	info := vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               s.sf,
		MinImageCount:         nimg,
		ImageFormat:           s.fmt.Format,
		ImageColorSpace:       s.fmt.ColorSpace,
		ImageExtent:           extent,
		ImageArrayLayers:      1,
		ImageUsage:            usage,
		ImageSharingMode:      mode,
		QueueFamilyIndexCount: uint32(len(fams)),
		PQueueFamilyIndices:   fams,
		PreTransform:          capab.CurrentTransform,
		CompositeAlpha:        calpha,
		PresentMode:           vk.PresentModeFifo,
		Clipped:               vk.True,
		OldSwapchain:          s.sc,
	}
	var sc vk.Swapchain
	if err := checkResult(vk.CreateSwapchain(s.d.dev, &info, nil, &sc)); err != nil {
		return err
	}
	if s.sc != nil {
		vk.DestroySwapchain(s.d.dev, s.sc, nil)
	}
	s.sc = sc
	s.usg = usageFrom(usage)
	s.w = int(extent.Width)
	s.h = int(extent.Height)
	return s.newViews()
}

// newViews creates an image view for every image of
// the swapchain.
func (s *swapchain) newViews() error {
	var n uint32
	if err := checkResult(vk.GetSwapchainImages(s.d.dev, s.sc, &n, nil)); err != nil {
		return err
	}
	imgs := make([]vk.Image, n)
	if err := checkResult(vk.GetSwapchainImages(s.d.dev, s.sc, &n, imgs)); err != nil {
		return err
	}
	views := make([]driver.ImageView, 0, n)
	for _, img := range imgs[:n] {
		v, err := s.d.newView(img, s.pf, vk.ImageViewType2d, 0, 1, 0, 1)
		if err != nil {
			for _, v := range views {
				v.Destroy()
			}
			return err
		}
		views = append(views, v)
	}
	s.views = views
	return nil
}

// destroyViews destroys the swapchain's views.
// The images themselves are owned by the swapchain.
func (s *swapchain) destroyViews() {
	for _, v := range s.views {
		v.Destroy()
	}
	s.views = nil
}

// Views returns the list of image views that comprises
// the swapchain.
func (s *swapchain) Views() []driver.ImageView { return s.views }

// Next returns the index of the next writable image view.
func (s *swapchain) Next(signal driver.Semaphore) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var idx uint32
	res := vk.AcquireNextImage(s.d.dev, s.sc, vk.MaxUint64, signal.(*semaphore).sem, vk.NullFence, &idx)
	switch res {
	case vk.Success:
		return int(idx), false, nil
	case vk.Suboptimal:
		return int(idx), true, nil
	}
	return -1, false, checkResult(res)
}

// Present presents the image view identified by index.
func (s *swapchain) Present(index int, wait []driver.Semaphore) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sems := make([]vk.Semaphore, len(wait))
	for i := range wait {
		sems[i] = wait[i].(*semaphore).sem
	}
	info := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(sems)),
		PWaitSemaphores:    sems,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{s.sc},
		PImageIndices:      []uint32{uint32(index)},
	}
	q := s.d.ques[driver.QPresent]
	q.mu.Lock()
	res := vk.QueuePresent(q.q, &info)
	q.mu.Unlock()
	if res == vk.Suboptimal {
		return true, nil
	}
	return false, checkResult(res)
}

// Recreate recreates the swapchain using the current
// size of the window.
func (s *swapchain) Recreate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.d.WaitIdle(); err != nil {
		return err
	}
	s.destroyViews()
	return s.initSwapchain()
}

// Format returns the image views' PixelFmt.
func (s *swapchain) Format() driver.PixelFmt { return s.pf }

// Usage returns the image views' Usage.
func (s *swapchain) Usage() driver.Usage { return s.usg }

// Extent returns the size of the image views.
func (s *swapchain) Extent() (int, int) { return s.w, s.h }

// Destroy destroys the swapchain.
func (s *swapchain) Destroy() {
	if s == nil {
		return
	}
	if s.d != nil {
		s.d.WaitIdle()
		s.destroyViews()
		if s.sc != nil {
			vk.DestroySwapchain(s.d.dev, s.sc, nil)
		}
		vk.DestroySurface(s.d.inst, s.sf, nil)
	}
	*s = swapchain{}
}
