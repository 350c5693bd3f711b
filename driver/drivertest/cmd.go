// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package drivertest

import (
	"errors"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

// Cmd is a recorded command.
// Args holds the command's arguments in call order.
type Cmd struct {
	Name string
	Args []any
}

const (
	cbInitial = iota
	cbRecording
	cbEnded
)

// CmdBuffer implements driver.CmdBuffer.
type CmdBuffer struct {
	object
	queue   driver.Queue
	state   int
	inPass  bool
	cmds    []Cmd
	submits int
	err     error
}

// NewCmdBuffer creates a new command buffer.
func (g *GPU) NewCmdBuffer(q driver.Queue) (driver.CmdBuffer, error) {
	o, err := g.newObject(KCmdBuffer)
	if err != nil {
		return nil, err
	}
	return &CmdBuffer{object: o, queue: q}, nil
}

// Queue returns the queue that cb was created for.
func (cb *CmdBuffer) Queue() driver.Queue { return cb.queue }

// Commands returns the recorded commands.
func (cb *CmdBuffer) Commands() []Cmd { return cb.cmds }

// Submits returns how many times cb was submitted.
func (cb *CmdBuffer) Submits() int { return cb.submits }

// Find returns the recorded commands named name.
func (cb *CmdBuffer) Find(name string) []Cmd {
	var c []Cmd
	for i := range cb.cmds {
		if cb.cmds[i].Name == name {
			c = append(c, cb.cmds[i])
		}
	}
	return c
}

// Names returns the name of every recorded command.
func (cb *CmdBuffer) Names() []string {
	s := make([]string, len(cb.cmds))
	for i := range cb.cmds {
		s[i] = cb.cmds[i].Name
	}
	return s
}

func (cb *CmdBuffer) record(name string, args ...any) {
	if cb.state != cbRecording && cb.err == nil {
		cb.err = errors.New("drivertest: " + name + " recorded outside of Begin/End")
	}
	cb.cmds = append(cb.cmds, Cmd{name, args})
}

// Begin prepares cb for recording.
func (cb *CmdBuffer) Begin() error {
	if cb.state == cbRecording {
		return errors.New("drivertest: Begin called twice")
	}
	cb.state = cbRecording
	cb.cmds = cb.cmds[:0]
	cb.err = nil
	return nil
}

// BeginPass records the command.
func (cb *CmdBuffer) BeginPass(pass driver.RenderPass, fb driver.Framebuf, clear []driver.ClearValue) {
	if cb.inPass && cb.err == nil {
		cb.err = errors.New("drivertest: nested BeginPass")
	}
	cb.inPass = true
	cb.record("BeginPass", pass, fb, clear)
}

// EndPass records the command.
func (cb *CmdBuffer) EndPass() {
	cb.inPass = false
	cb.record("EndPass")
}

// SetPipeline records the command.
func (cb *CmdBuffer) SetPipeline(pl driver.Pipeline) { cb.record("SetPipeline", pl) }

// SetViewport records the command.
func (cb *CmdBuffer) SetViewport(vp []driver.Viewport) { cb.record("SetViewport", vp) }

// SetScissor records the command.
func (cb *CmdBuffer) SetScissor(sciss []driver.Scissor) { cb.record("SetScissor", sciss) }

// SetVertexBuf records the command.
func (cb *CmdBuffer) SetVertexBuf(start int, buf []driver.Buffer, off []int64) {
	cb.record("SetVertexBuf", start, buf, off)
}

// SetIndexBuf records the command.
func (cb *CmdBuffer) SetIndexBuf(format driver.IndexFmt, buf driver.Buffer, off int64) {
	cb.record("SetIndexBuf", format, buf, off)
}

// SetDescTableGraph records the command.
func (cb *CmdBuffer) SetDescTableGraph(table driver.DescTable, start int, heapCopy []int) {
	cb.record("SetDescTableGraph", table, start, append([]int(nil), heapCopy...))
}

// SetDescTableComp records the command.
func (cb *CmdBuffer) SetDescTableComp(table driver.DescTable, start int, heapCopy []int) {
	cb.record("SetDescTableComp", table, start, append([]int(nil), heapCopy...))
}

// Draw records the command.
func (cb *CmdBuffer) Draw(vertCount, instCount, baseVert, baseInst int) {
	if !cb.inPass && cb.err == nil {
		cb.err = errors.New("drivertest: Draw outside of render pass")
	}
	cb.record("Draw", vertCount, instCount, baseVert, baseInst)
}

// DrawIndexed records the command.
func (cb *CmdBuffer) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int) {
	if !cb.inPass && cb.err == nil {
		cb.err = errors.New("drivertest: DrawIndexed outside of render pass")
	}
	cb.record("DrawIndexed", idxCount, instCount, baseIdx, vertOff, baseInst)
}

// Dispatch records the command.
func (cb *CmdBuffer) Dispatch(grpCountX, grpCountY, grpCountZ int) {
	if cb.inPass && cb.err == nil {
		cb.err = errors.New("drivertest: Dispatch inside of render pass")
	}
	cb.record("Dispatch", grpCountX, grpCountY, grpCountZ)
}

// CopyBufToImg records the command.
func (cb *CmdBuffer) CopyBufToImg(param *driver.BufImgCopy) {
	p := *param
	cb.record("CopyBufToImg", &p)
}

// Barrier records the command.
func (cb *CmdBuffer) Barrier(b []driver.Barrier) { cb.record("Barrier", b) }

// Transition records the command.
func (cb *CmdBuffer) Transition(t []driver.Transition) { cb.record("Transition", t) }

// End ends recording.
// It fails if a recording rule was broken.
func (cb *CmdBuffer) End() error {
	if cb.state != cbRecording {
		return errors.New("drivertest: End called without Begin")
	}
	if cb.inPass && cb.err == nil {
		cb.err = errors.New("drivertest: End called during render pass")
	}
	if cb.err != nil {
		cb.state = cbInitial
		cb.inPass = false
		return cb.err
	}
	cb.state = cbEnded
	return nil
}

// Reset discards the recorded commands.
func (cb *CmdBuffer) Reset() error {
	cb.state = cbInitial
	cb.inPass = false
	cb.cmds = cb.cmds[:0]
	cb.err = nil
	return nil
}
