// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
	"github.com/iamlivehaha/Project-VolumetricCloudRendering/internal/bitm"
)

// stagingBuffer is used to copy image data
// from the CPU to the GPU.
// Copies are recorded into a single command buffer
// and executed by commit, which blocks until the
// graphics queue is idle.
type stagingBuffer struct {
	gpu       driver.GPU
	cb        driver.CmdBuffer
	recording bool
	buf       driver.Buffer
	bm        bitm.Bitm[uint32]
	pend      []pendingCopy
}

// pendingCopy is used to track textures that have
// a pending copy or layout transition.
type pendingCopy struct {
	tex *Texture
	// The layout that will be set
	// after the commands execute.
	layout driver.Layout
}

// Use a large block size since textures usually
// need large allocations.
// 256x256 RGBA8 textures will take two blocks
// with this configuration.
const (
	stagingBlock = 131072
	stagingNBit  = 32
)

// newStaging creates a new stagingBuffer.
// The buffer memory is allocated on first use.
func newStaging(gpu driver.GPU) (*stagingBuffer, error) {
	cb, err := gpu.NewCmdBuffer(gpu.Queue(driver.QGraphics))
	if err != nil {
		return nil, err
	}
	return &stagingBuffer{gpu: gpu, cb: cb}, nil
}

// begin begins recording if not recording already.
func (s *stagingBuffer) begin() error {
	if s.recording {
		return nil
	}
	if err := s.cb.Begin(); err != nil {
		s.bm.Clear()
		return err
	}
	s.recording = true
	return nil
}

// copyToTexture records a copy command that copies
// data from s's buffer into t.
// off must have been returned by a previous call
// to s.reserve.
// After the copy, t is made readable by shaders.
func (s *stagingBuffer) copyToTexture(t *Texture, off int64) error {
	if off%stagingBlock != 0 {
		panic("stagingBuffer.copyToTexture: misaligned off")
	}
	if off+int64(t.Size()) > s.buf.Cap() {
		return errors.New(texPrefix + "not enough buffer capacity for copying")
	}
	if err := s.begin(); err != nil {
		return err
	}

	// The current layout is not relevant
	// because the whole image is going to
	// be overwritten by this command.
	s.cb.Transition([]driver.Transition{{
		Barrier: driver.Barrier{
			SyncBefore:   driver.SNone,
			SyncAfter:    driver.SCopy,
			AccessBefore: driver.ANone,
			AccessAfter:  driver.ACopyWrite,
		},
		LayoutBefore: driver.LUndefined,
		LayoutAfter:  driver.LCopyDst,
		IView:        t.view,
	}})
	s.cb.CopyBufToImg(&driver.BufImgCopy{
		Buf:    s.buf,
		BufOff: off,
		Stride: [2]int64{int64(t.param.Width), int64(t.param.Height)},
		Img:    t.img,
		Size:   t.param.Dim3D,
	})
	s.cb.Transition([]driver.Transition{{
		Barrier: driver.Barrier{
			SyncBefore:   driver.SCopy,
			SyncAfter:    driver.SFragmentShading | driver.SComputeShading,
			AccessBefore: driver.ACopyWrite,
			AccessAfter:  driver.AShaderRead,
		},
		LayoutBefore: driver.LCopyDst,
		LayoutAfter:  driver.LShaderRead,
		IView:        t.view,
	}})
	s.pend = append(s.pend, pendingCopy{t, driver.LShaderRead})
	return nil
}

// transition records a layout transition of t.
// It is used for images that are written on the
// GPU and never copied to.
func (s *stagingBuffer) transition(t *Texture, layout driver.Layout, barrier driver.Barrier) error {
	if layout == driver.LUndefined {
		panic("layout is driver.LUndefined")
	}
	if err := s.begin(); err != nil {
		return err
	}
	s.cb.Transition([]driver.Transition{{
		Barrier:      barrier,
		LayoutBefore: t.layout,
		LayoutAfter:  layout,
		IView:        t.view,
	}})
	s.pend = append(s.pend, pendingCopy{t, layout})
	return nil
}

// stage writes CPU data to s's buffer.
// It may need to commit pending copy commands to
// grow the buffer.
// It returns an offset from the start of s.buf
// identifying where data was copied to.
func (s *stagingBuffer) stage(data []byte) (off int64, err error) {
	if off, err = s.reserve(len(data)); err == nil {
		copy(s.buf.Bytes()[off:], data)
	}
	return
}

// reserve reserves a contiguous range of n bytes
// within s.buf.
// It may need to commit pending copy commands to
// grow the buffer.
// It returns an offset from the start of s.buf
// identifying where the range starts.
func (s *stagingBuffer) reserve(n int) (off int64, err error) {
	if n <= 0 {
		panic("stagingBuffer.reserve: n <= 0")
	}
	n = (n + stagingBlock - 1) / stagingBlock
	idx, ok := 0, false
	if s.buf != nil {
		idx, ok = s.bm.SearchRange(n)
	}
	if !ok {
		if err = s.commit(); err != nil {
			return
		}
		// Nothing staged is pending at this
		// point, so the whole buffer is free.
		s.bm.Clear()
		idx = 0
		if d := n - s.bm.Len(); d > 0 || s.buf == nil {
			s.bm.Grow(max(1, (d+stagingNBit-1)/stagingNBit))
			if s.buf != nil {
				s.buf.Destroy()
			}
			size := int64(s.bm.Len()) * stagingBlock
			if s.buf, err = s.gpu.NewBuffer(size, true, driver.UCopySrc); err != nil {
				s.buf = nil
				s.bm = bitm.Bitm[uint32]{}
				return
			}
		}
	}
	for i := 0; i < n; i++ {
		s.bm.Set(idx + i)
	}
	off = int64(idx) * stagingBlock
	return
}

// commit commits the recorded commands for execution.
// It blocks until execution completes.
func (s *stagingBuffer) commit() (err error) {
	if !s.recording {
		if len(s.pend) != 0 {
			// This should never happen.
			panic("stagingBuffer.commit: pending copies while not recording")
		}
		return
	}
	s.recording = false
	s.bm.Clear()
	if err = s.cb.End(); err != nil {
		s.drainPending(true)
		return
	}
	q := s.gpu.Queue(driver.QGraphics)
	if err = q.Submit([]driver.Batch{{Cmd: []driver.CmdBuffer{s.cb}}}); err == nil {
		err = q.WaitIdle()
	}
	s.drainPending(err != nil)
	return
}

// drainPending removes every element from s.pend
// and updates the textures accordingly.
// If failed is true, then the layouts are set to
// driver.LUndefined instead.
func (s *stagingBuffer) drainPending(failed bool) {
	for _, x := range s.pend {
		if failed {
			x.tex.layout = driver.LUndefined
		} else {
			x.tex.layout = x.layout
		}
	}
	s.pend = s.pend[:0]
}

// Destroy destroys the driver resources.
// Pending commands are discarded.
func (s *stagingBuffer) Destroy() {
	if s.cb != nil {
		s.cb.Destroy()
	}
	if s.buf != nil {
		s.buf.Destroy()
	}
	s.drainPending(true)
	*s = stagingBuffer{}
}
