// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package drivertest

import (
	"errors"
	"fmt"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/wsi"
)

// Swapchain implements driver.Swapchain.
// Its images are owned by the swapchain and counted as
// KImage and KImageView objects.
type Swapchain struct {
	object
	win        wsi.Window
	n          int
	width      int
	height     int
	pendW      int
	pendH      int
	images     []driver.Image
	views      []driver.ImageView
	next       int
	outOfDate  int
	suboptimal bool
	presentOOD bool
	recreated  int
}

// NewSwapchain creates a swapchain whose extent follows
// the size of win.
func (g *GPU) NewSwapchain(win wsi.Window, imageCount int) (driver.Swapchain, error) {
	if win == nil {
		return nil, driver.ErrWindow
	}
	s, err := g.NewTestSwapchain(win.Width(), win.Height(), imageCount)
	if err != nil {
		return nil, err
	}
	s.win = win
	return s, nil
}

// NewTestSwapchain creates a swapchain that is not tied
// to a window. Its extent changes through Resize.
func (g *GPU) NewTestSwapchain(width, height, imageCount int) (*Swapchain, error) {
	if imageCount < 2 {
		return nil, errors.New("drivertest: swapchain needs at least two images")
	}
	o, err := g.newObject(KSwapchain)
	if err != nil {
		return nil, err
	}
	s := &Swapchain{object: o, n: imageCount, width: width, height: height, pendW: width, pendH: height}
	if err := s.newViews(); err != nil {
		s.object.Destroy()
		return nil, err
	}
	return s, nil
}

func (s *Swapchain) newViews() error {
	for i := 0; i < s.n; i++ {
		img, err := s.gpu.NewImage(driver.BGRA8un, driver.Dim3D{Width: s.width, Height: s.height, Depth: 1}, 1, 1, 1, driver.URenderTarget)
		if err != nil {
			s.freeViews()
			return err
		}
		view, err := img.NewView(driver.IView2D, 0, 1, 0, 1)
		if err != nil {
			img.Destroy()
			s.freeViews()
			return err
		}
		s.images = append(s.images, img)
		s.views = append(s.views, view)
	}
	return nil
}

func (s *Swapchain) freeViews() {
	for i := range s.views {
		s.views[i].Destroy()
		s.images[i].Destroy()
	}
	s.views = s.views[:0]
	s.images = s.images[:0]
}

// Resize sets the extent that the next Recreate call
// will use, and makes the swapchain out of date.
func (s *Swapchain) Resize(width, height int) {
	s.pendW, s.pendH = width, height
	s.outOfDate = 1
}

// FailNext makes the next n calls to Next report that
// the swapchain is out of date.
func (s *Swapchain) FailNext(n int) { s.outOfDate = n }

// SetSuboptimal sets whether Next reports a suboptimal
// swapchain.
func (s *Swapchain) SetSuboptimal(v bool) { s.suboptimal = v }

// FailPresent makes the next call to Present report
// that the swapchain is out of date.
func (s *Swapchain) FailPresent() { s.presentOOD = true }

// Recreated returns how many times Recreate succeeded.
func (s *Swapchain) Recreated() int { return s.recreated }

// Views returns the swapchain's image views.
func (s *Swapchain) Views() []driver.ImageView { return s.views }

// Next acquires the next image.
func (s *Swapchain) Next(signal driver.Semaphore) (int, bool, error) {
	if s.outOfDate > 0 {
		s.outOfDate--
		return -1, false, driver.ErrSwapchain
	}
	g := s.gpu
	g.mu.Lock()
	defer g.mu.Unlock()
	sem := signal.(*Semaphore)
	if g.signaled[sem] {
		return -1, false, fmt.Errorf("drivertest: acquire signals semaphore %d that is already signaled", sem.id)
	}
	g.signaled[sem] = true
	idx := s.next
	s.next = (s.next + 1) % s.n
	g.events = append(g.events, Event{Op: OpAcquire, Queue: driver.QPresent, Image: idx, Signal: signal})
	return idx, s.suboptimal, nil
}

// Present presents the image.
func (s *Swapchain) Present(index int, wait []driver.Semaphore) (bool, error) {
	if index < 0 || index >= s.n {
		return false, errors.New("drivertest: invalid swapchain index")
	}
	g := s.gpu
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, w := range wait {
		sem := w.(*Semaphore)
		if !g.signaled[sem] {
			return false, fmt.Errorf("drivertest: present waits on unsignaled semaphore %d", sem.id)
		}
	}
	for _, w := range wait {
		g.signaled[w.(*Semaphore)] = false
	}
	g.events = append(g.events, Event{
		Op:    OpPresent,
		Queue: driver.QPresent,
		Image: index,
		Wait:  append([]driver.Semaphore(nil), wait...),
	})
	if s.presentOOD {
		s.presentOOD = false
		return false, driver.ErrSwapchain
	}
	return s.suboptimal, nil
}

// Recreate recreates the image views using the pending
// extent (or the window's size).
func (s *Swapchain) Recreate() error {
	if s.win != nil {
		s.pendW, s.pendH = s.win.Width(), s.win.Height()
	}
	s.freeViews()
	s.width, s.height = s.pendW, s.pendH
	s.next = 0
	s.outOfDate = 0
	s.suboptimal = false
	if err := s.newViews(); err != nil {
		return err
	}
	s.recreated++
	return nil
}

// Format returns driver.BGRA8un.
func (s *Swapchain) Format() driver.PixelFmt { return driver.BGRA8un }

// Usage returns driver.URenderTarget.
func (s *Swapchain) Usage() driver.Usage { return driver.URenderTarget }

// Extent returns the size of the image views.
func (s *Swapchain) Extent() (int, int) { return s.width, s.height }

// Destroy destroys the swapchain and its views.
func (s *Swapchain) Destroy() {
	s.freeViews()
	s.object.Destroy()
}
