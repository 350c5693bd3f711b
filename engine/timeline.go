// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

// State is a point reached by Timeline.Draw.
type State int

// States, in the order they are reached.
const (
	StateIdle State = iota
	StateComputeSubmitted
	StateImageAcquired
	StateOffscreenSubmitted
	StateCompositeSubmitted
	StatePresented
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateComputeSubmitted:
		return "compute submitted"
	case StateImageAcquired:
		return "image acquired"
	case StateOffscreenSubmitted:
		return "offscreen submitted"
	case StateCompositeSubmitted:
		return "composite submitted"
	case StatePresented:
		return "presented"
	}
	return "!engine.State"
}

// Observer is called whenever a Timeline reaches a new
// State.
type Observer func(f *Frame, s State)

// Overlay records user interface commands drawn over
// the composited image.
type Overlay interface {
	// Record records commands that draw into the
	// given swapchain image.
	// cb is recording when Record is called.
	Record(cb driver.CmdBuffer, image int) error
}

// Timeline owns the command buffers and semaphores of a
// frame and submits them in order.
//
// Every frame, the compute work selected by the frame's
// history value runs on the compute queue and signals
// computeComplete. The offscreen work runs on the
// graphics queue after both computeComplete and
// imageAvailable are signaled, and the composite and
// overlay work follow it. Presentation waits for all of
// them, and Draw waits for the presentation queue to be
// idle before returning, so at most one frame is in
// flight.
type Timeline struct {
	gpu driver.GPU
	sc  driver.Swapchain
	pp  *PingPong

	computeComplete   driver.Semaphore
	imageAvailable    driver.Semaphore
	offscreenComplete driver.Semaphore
	renderFinished    driver.Semaphore
	uiComplete        driver.Semaphore

	compute   [MaxHistory]driver.CmdBuffer
	offscreen [MaxHistory]driver.CmdBuffer
	composite []driver.CmdBuffer
	ui        driver.CmdBuffer

	overlay  Overlay
	observer Observer

	needsRecreate bool
}

// NewTimeline creates a new Timeline.
// Composite command buffers are created by NewComposite.
func NewTimeline(gpu driver.GPU, sc driver.Swapchain, pp *PingPong) (*Timeline, error) {
	t := &Timeline{gpu: gpu, sc: sc, pp: pp}
	if err := t.init(); err != nil {
		t.Destroy()
		return nil, err
	}
	return t, nil
}

func (t *Timeline) init() (err error) {
	for _, s := range []*driver.Semaphore{
		&t.computeComplete,
		&t.imageAvailable,
		&t.offscreenComplete,
		&t.renderFinished,
		&t.uiComplete,
	} {
		if *s, err = t.gpu.NewSemaphore(); err != nil {
			return
		}
	}
	cq := t.gpu.Queue(driver.QCompute)
	gq := t.gpu.Queue(driver.QGraphics)
	for i := range t.compute {
		if t.compute[i], err = t.gpu.NewCmdBuffer(cq); err != nil {
			return
		}
	}
	for i := range t.offscreen {
		if t.offscreen[i], err = t.gpu.NewCmdBuffer(gq); err != nil {
			return
		}
	}
	t.ui, err = t.gpu.NewCmdBuffer(gq)
	return
}

// NewComposite replaces the composite command buffers
// with n new ones, one per swapchain image.
func (t *Timeline) NewComposite(n int) error {
	t.FreeComposite()
	gq := t.gpu.Queue(driver.QGraphics)
	for range n {
		cb, err := t.gpu.NewCmdBuffer(gq)
		if err != nil {
			t.FreeComposite()
			return err
		}
		t.composite = append(t.composite, cb)
	}
	return nil
}

// FreeComposite destroys the composite command buffers.
func (t *Timeline) FreeComposite() {
	for i := len(t.composite) - 1; i >= 0; i-- {
		t.composite[i].Destroy()
	}
	t.composite = nil
}

// Compute returns the compute command buffer that is
// submitted when the frame's history value is h.
func (t *Timeline) Compute(h bool) driver.CmdBuffer { return t.compute[b2i(h)] }

// Offscreen returns the offscreen command buffer that is
// submitted when the frame's history value is h.
// Since the ping-pong value is toggled between the
// compute and offscreen submissions, this is the command
// buffer recorded for the toggled value.
func (t *Timeline) Offscreen(h bool) driver.CmdBuffer { return t.offscreen[b2i(!h)] }

// Composite returns the composite command buffer of the
// given swapchain image.
func (t *Timeline) Composite(image int) driver.CmdBuffer { return t.composite[image] }

// CompositeLen returns the number of composite command
// buffers.
func (t *Timeline) CompositeLen() int { return len(t.composite) }

// SetOverlay sets the overlay.
// A nil overlay submits no overlay commands.
func (t *Timeline) SetOverlay(o Overlay) { t.overlay = o }

// SetObserver sets the function called on every state
// transition.
func (t *Timeline) SetObserver(o Observer) { t.observer = o }

// NeedsRecreate reports whether the swapchain was found
// to be suboptimal or out of date.
func (t *Timeline) NeedsRecreate() bool { return t.needsRecreate }

// ClearRecreate clears the NeedsRecreate flag.
func (t *Timeline) ClearRecreate() { t.needsRecreate = false }

func (t *Timeline) reach(f *Frame, s State) State {
	if t.observer != nil {
		t.observer(f, s)
	}
	return s
}

// Draw submits the work of frame f and presents it.
// It returns the last state reached.
// If the swapchain is out of date at acquisition, the
// frame is abandoned and the error is ErrOutOfDate.
// Suboptimal or out-of-date results at presentation
// only set NeedsRecreate.
func (t *Timeline) Draw(f *Frame) (State, error) {
	st := StateIdle
	h := f.History
	cq := t.gpu.Queue(driver.QCompute)
	gq := t.gpu.Queue(driver.QGraphics)

	err := cq.Submit([]driver.Batch{{
		Cmd:    []driver.CmdBuffer{t.Compute(h)},
		Signal: []driver.Semaphore{t.computeComplete},
	}})
	if err != nil {
		return st, wrapRendErr("compute submission failed", err)
	}
	st = t.reach(f, StateComputeSubmitted)

	t.pp.Toggle()

	idx, suboptimal, err := t.sc.Next(t.imageAvailable)
	switch {
	case errors.Is(err, driver.ErrSwapchain):
		t.needsRecreate = true
		// computeComplete must not stay signaled.
		err = gq.Submit([]driver.Batch{{
			Wait: []driver.Wait{{Sem: t.computeComplete, Sync: driver.SComputeShading}},
		}})
		if err != nil {
			return st, wrapRendErr("graphics submission failed", err)
		}
		return st, ErrOutOfDate
	case err != nil:
		return st, wrapRendErr("image acquisition failed", err)
	}
	if suboptimal {
		t.needsRecreate = true
	}
	f.Image = idx
	st = t.reach(f, StateImageAcquired)

	err = gq.Submit([]driver.Batch{{
		Wait: []driver.Wait{
			{Sem: t.imageAvailable, Sync: driver.SColorOutput},
			{Sem: t.computeComplete, Sync: driver.SFragmentShading},
		},
		Cmd:    []driver.CmdBuffer{t.Offscreen(h)},
		Signal: []driver.Semaphore{t.offscreenComplete},
	}})
	if err != nil {
		return st, wrapRendErr("offscreen submission failed", err)
	}
	st = t.reach(f, StateOffscreenSubmitted)

	var ui []driver.CmdBuffer
	if t.overlay != nil {
		if err = t.recordOverlay(idx); err != nil {
			return st, wrapRendErr("overlay recording failed", err)
		}
		ui = []driver.CmdBuffer{t.ui}
	}
	err = gq.Submit([]driver.Batch{
		{
			Wait:   []driver.Wait{{Sem: t.offscreenComplete, Sync: driver.SFragmentShading}},
			Cmd:    []driver.CmdBuffer{t.composite[idx]},
			Signal: []driver.Semaphore{t.renderFinished},
		},
		{
			Wait:   []driver.Wait{{Sem: t.renderFinished, Sync: driver.SColorOutput}},
			Cmd:    ui,
			Signal: []driver.Semaphore{t.uiComplete},
		},
	})
	if err != nil {
		return st, wrapRendErr("composite submission failed", err)
	}
	st = t.reach(f, StateCompositeSubmitted)

	suboptimal, err = t.sc.Present(idx, []driver.Semaphore{t.uiComplete})
	switch {
	case errors.Is(err, driver.ErrSwapchain):
		t.needsRecreate = true
	case err != nil:
		return st, wrapRendErr("presentation failed", err)
	case suboptimal:
		t.needsRecreate = true
	}
	st = t.reach(f, StatePresented)

	if err = t.gpu.Queue(driver.QPresent).WaitIdle(); err != nil {
		return st, wrapRendErr("presentation queue wait failed", err)
	}
	return st, nil
}

func (t *Timeline) recordOverlay(image int) error {
	if err := t.ui.Begin(); err != nil {
		return err
	}
	if err := t.overlay.Record(t.ui, image); err != nil {
		t.ui.Reset()
		return err
	}
	return t.ui.End()
}

// Destroy destroys the command buffers and semaphores.
// The GPU must be idle.
func (t *Timeline) Destroy() {
	t.FreeComposite()
	for _, d := range []driver.Destroyer{
		t.ui,
		t.offscreen[1], t.offscreen[0],
		t.compute[1], t.compute[0],
		t.uiComplete,
		t.renderFinished,
		t.offscreenComplete,
		t.imageAvailable,
		t.computeComplete,
	} {
		if d != nil {
			d.Destroy()
		}
	}
	*t = Timeline{}
}
