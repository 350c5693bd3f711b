// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver/drivertest"
)

type timelineFixture struct {
	gpu *drivertest.GPU
	sc  *drivertest.Swapchain
	pp  PingPong
	tl  *Timeline
}

func endCmd(t *testing.T, cb driver.CmdBuffer) {
	require.NoError(t, cb.Begin())
	require.NoError(t, cb.End())
}

func newTimelineFixture(t *testing.T) *timelineFixture {
	f := &timelineFixture{gpu: drivertest.New()}
	var err error
	f.sc, err = f.gpu.NewTestSwapchain(800, 600, 3)
	require.NoError(t, err)
	f.tl, err = NewTimeline(f.gpu, f.sc, &f.pp)
	require.NoError(t, err)
	require.NoError(t, f.tl.NewComposite(len(f.sc.Views())))
	for _, h := range []bool{false, true} {
		endCmd(t, f.tl.Compute(h))
		endCmd(t, f.tl.Offscreen(h))
	}
	for i := range f.tl.CompositeLen() {
		endCmd(t, f.tl.Composite(i))
	}
	return f
}

func (f *timelineFixture) semaphores() []driver.Semaphore {
	return []driver.Semaphore{
		f.tl.computeComplete,
		f.tl.imageAvailable,
		f.tl.offscreenComplete,
		f.tl.renderFinished,
		f.tl.uiComplete,
	}
}

func (f *timelineFixture) draw() (*Frame, State, error) {
	w, h := f.sc.Extent()
	fr := f.pp.Begin(w, h)
	st, err := f.tl.Draw(fr)
	return fr, st, err
}

func TestTimelineOrder(t *testing.T) {
	f := newTimelineFixture(t)
	var states []State
	f.tl.SetObserver(func(_ *Frame, s State) { states = append(states, s) })

	fr, st, err := f.draw()
	require.NoError(t, err)
	assert.Equal(t, StatePresented, st)
	assert.Equal(t, []State{
		StateComputeSubmitted,
		StateImageAcquired,
		StateOffscreenSubmitted,
		StateCompositeSubmitted,
		StatePresented,
	}, states)
	assert.Equal(t, 0, fr.Image)
	assert.True(t, f.pp.Value(), "toggled once")

	ev := f.gpu.Events()
	require.Len(t, ev, 6)
	ops := make([]drivertest.Op, len(ev))
	for i := range ev {
		ops[i] = ev[i].Op
	}
	assert.Equal(t, []drivertest.Op{
		drivertest.OpSubmit,
		drivertest.OpAcquire,
		drivertest.OpSubmit,
		drivertest.OpSubmit,
		drivertest.OpPresent,
		drivertest.OpQueueWaitIdle,
	}, ops)

	tl := f.tl
	comp := ev[0]
	assert.Equal(t, driver.QCompute, comp.Queue)
	require.Len(t, comp.Batches, 1)
	assert.Empty(t, comp.Batches[0].Wait)
	assert.Equal(t, []driver.CmdBuffer{tl.compute[0]}, comp.Batches[0].Cmd)
	assert.Equal(t, []driver.Semaphore{tl.computeComplete}, comp.Batches[0].Signal)

	assert.Equal(t, tl.imageAvailable, ev[1].Signal)

	off := ev[2]
	assert.Equal(t, driver.QGraphics, off.Queue)
	require.Len(t, off.Batches, 1)
	assert.Equal(t, []driver.Wait{
		{Sem: tl.imageAvailable, Sync: driver.SColorOutput},
		{Sem: tl.computeComplete, Sync: driver.SFragmentShading},
	}, off.Batches[0].Wait)
	// Recorded for the toggled value.
	assert.Equal(t, []driver.CmdBuffer{tl.offscreen[1]}, off.Batches[0].Cmd)
	assert.Equal(t, []driver.Semaphore{tl.offscreenComplete}, off.Batches[0].Signal)

	comps := ev[3]
	require.Len(t, comps.Batches, 2)
	assert.Equal(t, tl.offscreenComplete, comps.Batches[0].Wait[0].Sem)
	assert.Equal(t, []driver.CmdBuffer{tl.composite[0]}, comps.Batches[0].Cmd)
	assert.Equal(t, []driver.Semaphore{tl.renderFinished}, comps.Batches[0].Signal)
	assert.Equal(t, tl.renderFinished, comps.Batches[1].Wait[0].Sem)
	assert.Empty(t, comps.Batches[1].Cmd)
	assert.Equal(t, []driver.Semaphore{tl.uiComplete}, comps.Batches[1].Signal)

	assert.Equal(t, []driver.Semaphore{tl.uiComplete}, ev[4].Wait)
	assert.Equal(t, 0, ev[4].Image)
	assert.Equal(t, driver.QPresent, ev[5].Queue)

	for _, s := range f.semaphores() {
		assert.False(t, f.gpu.Signaled(s))
	}
	assert.False(t, tl.NeedsRecreate())
}

func TestTimelineAlternation(t *testing.T) {
	f := newTimelineFixture(t)
	for n := 0; n < 8; n++ {
		f.gpu.ClearEvents()
		fr, _, err := f.draw()
		require.NoError(t, err, "frame %d", n)
		assert.Equal(t, n%2 == 1, fr.History)
		ev := f.gpu.Events()
		comp := ev[0].Batches[0].Cmd[0]
		off := ev[2].Batches[0].Cmd[0]
		assert.Same(t, f.tl.compute[b2i(fr.History)], comp)
		// The offscreen work reads Read(!h), which is
		// Write(h), what the compute work just wrote.
		assert.Same(t, f.tl.offscreen[b2i(!fr.History)], off)
		assert.Equal(t, n%3, fr.Image)
	}
	assert.Equal(t, 8, f.tl.compute[0].(*drivertest.CmdBuffer).Submits()+f.tl.compute[1].(*drivertest.CmdBuffer).Submits())
	assert.Equal(t, 4, f.tl.offscreen[0].(*drivertest.CmdBuffer).Submits())
}

func TestTimelineOutOfDate(t *testing.T) {
	f := newTimelineFixture(t)
	var states []State
	f.tl.SetObserver(func(_ *Frame, s State) { states = append(states, s) })
	f.sc.FailNext(1)
	fr, st, err := f.draw()
	assert.ErrorIs(t, err, ErrOutOfDate)
	assert.Equal(t, StateComputeSubmitted, st)
	assert.Equal(t, []State{StateComputeSubmitted}, states)
	assert.Equal(t, -1, fr.Image)
	assert.True(t, f.tl.NeedsRecreate())
	assert.True(t, f.pp.Value())
	for _, s := range f.semaphores() {
		assert.False(t, f.gpu.Signaled(s))
	}
	for _, e := range f.gpu.Events() {
		assert.NotEqual(t, drivertest.OpPresent, e.Op)
	}

	// The next frame can proceed.
	f.tl.ClearRecreate()
	_, st, err = f.draw()
	require.NoError(t, err)
	assert.Equal(t, StatePresented, st)
	assert.False(t, f.tl.NeedsRecreate())
}

func TestTimelineSuboptimal(t *testing.T) {
	f := newTimelineFixture(t)
	f.sc.SetSuboptimal(true)
	_, st, err := f.draw()
	require.NoError(t, err)
	assert.Equal(t, StatePresented, st)
	assert.True(t, f.tl.NeedsRecreate())

	f.tl.ClearRecreate()
	f.sc.SetSuboptimal(false)
	f.sc.FailPresent()
	_, st, err = f.draw()
	require.NoError(t, err)
	assert.Equal(t, StatePresented, st)
	assert.True(t, f.tl.NeedsRecreate())
	for _, s := range f.semaphores() {
		assert.False(t, f.gpu.Signaled(s))
	}
}

type testOverlay struct {
	images []int
	err    error
}

func (o *testOverlay) Record(cb driver.CmdBuffer, image int) error {
	o.images = append(o.images, image)
	cb.Barrier([]driver.Barrier{{SyncBefore: driver.SColorOutput, SyncAfter: driver.SColorOutput}})
	return o.err
}

func TestTimelineOverlay(t *testing.T) {
	f := newTimelineFixture(t)
	o := &testOverlay{}
	f.tl.SetOverlay(o)
	for range 2 {
		_, _, err := f.draw()
		require.NoError(t, err)
	}
	assert.Equal(t, []int{0, 1}, o.images)
	ui := f.tl.ui.(*drivertest.CmdBuffer)
	assert.Equal(t, 2, ui.Submits())
	ev := f.gpu.Events()
	var batches []driver.Batch
	for _, e := range ev {
		if e.Op == drivertest.OpSubmit && len(e.Batches) == 2 {
			batches = append(batches, e.Batches[1])
		}
	}
	require.Len(t, batches, 2)
	assert.Equal(t, []driver.CmdBuffer{ui}, batches[1].Cmd)

	o.err = errors.New("overlay failed")
	_, st, err := f.draw()
	assert.ErrorIs(t, err, o.err)
	assert.Equal(t, StateOffscreenSubmitted, st)
}

func TestTimelineSubmitError(t *testing.T) {
	f := newTimelineFixture(t)
	require.NoError(t, f.tl.Compute(false).Begin())
	_, st, err := f.draw()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrOutOfDate)
	assert.Equal(t, StateIdle, st)
	assert.False(t, f.pp.Value(), "not toggled")
}

func TestTimelineDestroy(t *testing.T) {
	f := newTimelineFixture(t)
	assert.Equal(t, 5, f.gpu.Live(drivertest.KSemaphore))
	assert.Equal(t, 2*MaxHistory+1+3, f.gpu.Live(drivertest.KCmdBuffer))
	require.NoError(t, f.tl.NewComposite(2))
	assert.Equal(t, 3, f.gpu.Destroyed(drivertest.KCmdBuffer))
	f.tl.Destroy()
	f.sc.Destroy()
	assert.Empty(t, f.gpu.Leaks())
	assert.Zero(t, f.gpu.DoubleDestroys())

	for _, k := range []string{drivertest.KSemaphore, drivertest.KCmdBuffer} {
		gpu := drivertest.New()
		sc, err := gpu.NewTestSwapchain(4, 4, 2)
		require.NoError(t, err)
		gpu.FailNext(k)
		var pp PingPong
		tl, err := NewTimeline(gpu, sc, &pp)
		assert.Nil(t, tl)
		assert.ErrorIs(t, err, drivertest.ErrInjected)
		sc.Destroy()
		assert.Empty(t, gpu.Leaks())
	}
}
