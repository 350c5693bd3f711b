// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import (
	"errors"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/wsi"
)

// ErrCannotPresent means that the driver and/or device do not
// support presentation.
var ErrCannotPresent = errors.New("driver: presentation not supported")

// ErrWindow represents an error related to a specific window.
// This error usually indicates that a window misconfiguration
// is preventing correct operation. For instance, the driver
// may require a visible window to create a swapchain.
var ErrWindow = errors.New("driver: window-related error")

// ErrSwapchain means that the swapchain is out of date.
// Changes to the window or compositor made the swapchain
// unusable, and Swapchain.Recreate must be called before
// further use.
var ErrSwapchain = errors.New("driver: swapchain out of date")

// Presenter is the interface that a GPU may implement
// to enable presentation on a display.
type Presenter interface {
	// NewSwapchain creates a new swapchain.
	// Only one swapchain can be associated with a specific
	// wsi.Window at a time.
	NewSwapchain(win wsi.Window, imageCount int) (Swapchain, error)
}

// Swapchain is the interface that defines a n-buffered
// swapchain for presentation.
// To present, one calls Next to obtain the index of an
// image view to target, submits commands that render to
// this view (waiting on the semaphore that Next signals)
// and then calls Present, waiting on semaphores signaled
// by these commands.
type Swapchain interface {
	Destroyer

	// Views returns the list of image views that
	// comprises the swapchain.
	// This value remains unchanged as long as the
	// swapchain's Destroy or Recreate methods are
	// not called.
	Views() []ImageView

	// Next returns the index of the next writable
	// image view.
	// signal is signaled when the view is ready to
	// be written.
	// suboptimal reports that the swapchain still
	// works but no longer matches the surface.
	// If the swapchain is out of date, the error
	// is ErrSwapchain.
	Next(signal Semaphore) (index int, suboptimal bool, err error)

	// Present presents the image view identified
	// by index once every semaphore in wait is
	// signaled.
	// The results have the same meaning as in Next.
	Present(index int, wait []Semaphore) (suboptimal bool, err error)

	// Recreate recreates the swapchain using the
	// current size of the window.
	// It is meant to be called in response to a
	// ErrSwapchain error or a suboptimal result.
	Recreate() error

	// Format returns the image views' PixelFmt.
	Format() PixelFmt

	// Usage returns the image views' Usage.
	// URenderTarget is guaranteed to be set.
	Usage() Usage

	// Extent returns the size of the image views.
	Extent() (width, height int)
}
