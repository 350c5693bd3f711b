// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

// PingPong selects which of two history images is
// written in a given frame.
// The zero value selects the first image for writing.
type PingPong struct {
	v bool
}

// Value returns the current value.
func (p *PingPong) Value() bool { return p.v }

// Toggle flips the current value.
func (p *PingPong) Toggle() { p.v = !p.v }

// Pair is a pair of resources used in ping-pong
// fashion.
// Write(v) and Read(v) never return the same element,
// and Write(v) equals Read(!v).
type Pair[T any] struct {
	A, B T
}

// Write returns the element that is written when the
// ping-pong value is v.
func (p *Pair[T]) Write(v bool) T {
	if v {
		return p.B
	}
	return p.A
}

// Read returns the element that is read when the
// ping-pong value is v.
func (p *Pair[T]) Read(v bool) T {
	if v {
		return p.A
	}
	return p.B
}

// b2i converts b to an index.
func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Frame is the per-frame context.
// History is captured once, when the frame begins, and
// is what every stage reads when binding its resources.
type Frame struct {
	History  bool
	Snapshot *Snapshot
	// Image is the index of the acquired swapchain
	// image, or -1 before acquisition.
	Image int
	// Extent of the swapchain at frame start.
	Width, Height int
}

// Begin returns a new Frame capturing the current value
// of p.
func (p *PingPong) Begin(width, height int) *Frame {
	return &Frame{
		History: p.v,
		Image:   -1,
		Width:   width,
		Height:  height,
	}
}
