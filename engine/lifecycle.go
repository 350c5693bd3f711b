// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

// extentTarget is what a Lifecycle rebuilds.
type extentTarget interface {
	// release destroys every resource that depends on
	// the swapchain images or extent.
	release()
	// rebuild recreates the resources that release
	// destroyed for the given extent and re-records
	// the command buffers.
	rebuild(width, height int) error
}

// Lifecycle recreates the swapchain and the resources
// that depend on it.
type Lifecycle struct {
	gpu    driver.GPU
	sc     driver.Swapchain
	target extentTarget
	dirty  bool
	width  int
	height int
}

// newLifecycle creates a new Lifecycle whose current
// extent is the swapchain's.
func newLifecycle(gpu driver.GPU, sc driver.Swapchain, target extentTarget) *Lifecycle {
	w, h := sc.Extent()
	return &Lifecycle{
		gpu:    gpu,
		sc:     sc,
		target: target,
		width:  w,
		height: h,
	}
}

// MarkDirty forces the next Recreate call to recreate
// the swapchain even if the extent did not change.
func (l *Lifecycle) MarkDirty() { l.dirty = true }

// Dirty reports whether recreation is pending.
func (l *Lifecycle) Dirty() bool { return l.dirty }

// Extent returns the current extent.
func (l *Lifecycle) Extent() (width, height int) { return l.width, l.height }

// Recreate recreates the swapchain and rebuilds the
// target for the given window extent.
// It does nothing if the extent is unchanged and l is
// not dirty. A zero-area extent defers recreation,
// leaving l dirty.
// It reports whether recreation took place.
func (l *Lifecycle) Recreate(width, height int) (bool, error) {
	if width <= 0 || height <= 0 {
		l.dirty = true
		return false, nil
	}
	if !l.dirty && width == l.width && height == l.height {
		return false, nil
	}
	if err := l.gpu.WaitIdle(); err != nil {
		return false, wrapRendErr("wait idle failed", err)
	}
	l.target.release()
	if err := l.sc.Recreate(); err != nil {
		return false, wrapRendErr("swapchain recreation failed", err)
	}
	width, height = l.sc.Extent()
	if width <= 0 || height <= 0 {
		l.dirty = true
		return false, nil
	}
	if err := l.target.rebuild(width, height); err != nil {
		return false, err
	}
	l.dirty = false
	l.width, l.height = width, height
	return true, nil
}
