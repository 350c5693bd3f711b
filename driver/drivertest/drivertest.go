// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package drivertest implements an in-memory driver.GPU
// for testing code that records and submits GPU work.
//
// Submissions execute immediately and in order. Binary
// semaphore rules are enforced: waiting on a semaphore
// that has no pending signal, or signaling one that is
// already signaled, is reported as an error. Every object
// creation and destruction is counted so that tests can
// check for leaks and double destruction.
package drivertest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

// Object kinds, as used by the counting and failure
// injection methods.
const (
	KSemaphore  = "semaphore"
	KCmdBuffer  = "cmdbuffer"
	KRenderPass = "renderpass"
	KFramebuf   = "framebuf"
	KShaderCode = "shadercode"
	KDescHeap   = "descheap"
	KDescTable  = "desctable"
	KPipeline   = "pipeline"
	KBuffer     = "buffer"
	KImage      = "image"
	KImageView  = "imageview"
	KSampler    = "sampler"
	KSwapchain  = "swapchain"
)

// ErrInjected is the error returned by a creation method
// that was made to fail through FailNext.
var ErrInjected = errors.New("drivertest: injected failure")

// Op identifies a recorded queue operation.
type Op int

// Queue operations.
const (
	OpSubmit Op = iota
	OpAcquire
	OpPresent
	OpQueueWaitIdle
	OpDeviceWaitIdle
)

func (o Op) String() string {
	switch o {
	case OpSubmit:
		return "submit"
	case OpAcquire:
		return "acquire"
	case OpPresent:
		return "present"
	case OpQueueWaitIdle:
		return "queue wait idle"
	case OpDeviceWaitIdle:
		return "device wait idle"
	}
	return "invalid"
}

// Event is a recorded queue operation.
type Event struct {
	Op      Op
	Queue   driver.QueueKind
	Batches []driver.Batch
	// Image is the swapchain image index of
	// OpAcquire and OpPresent.
	Image int
	// Wait holds the semaphores that OpPresent
	// waited on.
	Wait []driver.Semaphore
	// Signal is the semaphore signaled by OpAcquire.
	Signal driver.Semaphore
}

// Option configures a GPU.
type Option func(*GPU)

// WithSharedQueue makes the compute queue alias the
// graphics queue.
func WithSharedQueue() Option {
	return func(g *GPU) { g.shared = true }
}

// WithUnsupported makes FormatSupported report false
// for the given formats.
func WithUnsupported(pf ...driver.PixelFmt) Option {
	return func(g *GPU) {
		for _, f := range pf {
			g.unsupported[f] = true
		}
	}
}

// GPU implements driver.GPU and driver.Presenter.
type GPU struct {
	mu          sync.Mutex
	shared      bool
	unsupported map[driver.PixelFmt]bool
	queues      [3]*Queue
	events      []Event
	created     map[string]int
	destroyed   map[string]int
	double      int
	fail        map[string]error
	signaled    map[*Semaphore]bool
	nextID      int
}

// New creates a new GPU.
func New(opts ...Option) *GPU {
	g := &GPU{
		unsupported: make(map[driver.PixelFmt]bool),
		created:     make(map[string]int),
		destroyed:   make(map[string]int),
		fail:        make(map[string]error),
		signaled:    make(map[*Semaphore]bool),
	}
	for _, o := range opts {
		o(g)
	}
	gfx := &Queue{gpu: g, kind: driver.QGraphics, family: 0}
	g.queues[driver.QGraphics] = gfx
	if g.shared {
		g.queues[driver.QCompute] = &Queue{gpu: g, kind: driver.QCompute, family: 0}
	} else {
		g.queues[driver.QCompute] = &Queue{gpu: g, kind: driver.QCompute, family: 1}
	}
	g.queues[driver.QPresent] = &Queue{gpu: g, kind: driver.QPresent, family: 0}
	return g
}

// Driver returns nil, since the GPU is not registered.
func (g *GPU) Driver() driver.Driver { return nil }

// Queue returns the queue of the given kind.
func (g *GPU) Queue(kind driver.QueueKind) driver.Queue { return g.queues[kind] }

// FailNext makes the next creation of the given kind fail
// with ErrInjected.
func (g *GPU) FailNext(kind string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail[kind] = ErrInjected
}

// Events returns a copy of the recorded queue operations.
func (g *GPU) Events() []Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Event(nil), g.events...)
}

// ClearEvents discards the recorded queue operations.
func (g *GPU) ClearEvents() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = g.events[:0]
}

// Created returns the number of objects of the given
// kind that were created.
func (g *GPU) Created(kind string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.created[kind]
}

// Destroyed returns the number of objects of the given
// kind that were destroyed.
func (g *GPU) Destroyed(kind string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.destroyed[kind]
}

// Live returns the number of objects of the given kind
// that were created and not yet destroyed.
func (g *GPU) Live(kind string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.created[kind] - g.destroyed[kind]
}

// Leaks returns the number of live objects per kind.
// Kinds with no live objects are omitted.
func (g *GPU) Leaks() map[string]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := make(map[string]int)
	for k, n := range g.created {
		if d := n - g.destroyed[k]; d != 0 {
			m[k] = d
		}
	}
	return m
}

// DoubleDestroys returns the number of Destroy calls made
// on objects that were already destroyed.
func (g *GPU) DoubleDestroys() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.double
}

// object is embedded in every GPU object.
type object struct {
	gpu  *GPU
	kind string
	id   int
	dead bool
}

// ID returns a number that uniquely identifies the
// object within its GPU.
func (o *object) ID() int { return o.id }

// Destroyed reports whether Destroy was called.
func (o *object) Destroyed() bool {
	o.gpu.mu.Lock()
	defer o.gpu.mu.Unlock()
	return o.dead
}

// Destroy destroys the object.
func (o *object) Destroy() {
	if o == nil || o.gpu == nil {
		return
	}
	o.gpu.mu.Lock()
	defer o.gpu.mu.Unlock()
	if o.dead {
		o.gpu.double++
		return
	}
	o.dead = true
	o.gpu.destroyed[o.kind]++
}

// newObject creates the object base for the given kind,
// honoring FailNext.
func (g *GPU) newObject(kind string) (object, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail[kind]; err != nil {
		delete(g.fail, kind)
		return object{}, err
	}
	g.nextID++
	g.created[kind]++
	return object{gpu: g, kind: kind, id: g.nextID}, nil
}

// Queue implements driver.Queue.
type Queue struct {
	gpu    *GPU
	kind   driver.QueueKind
	family int
}

// Kind returns the queue kind.
func (q *Queue) Kind() driver.QueueKind { return q.kind }

// Family returns the queue family.
func (q *Queue) Family() int { return q.family }

// Submit executes the batches immediately.
// It fails if a command buffer was not ended or if a
// semaphore rule is broken. In that case, nothing is
// recorded.
func (q *Queue) Submit(b []driver.Batch) error {
	g := q.gpu
	g.mu.Lock()
	defer g.mu.Unlock()
	state := make(map[*Semaphore]bool, len(g.signaled))
	for k, v := range g.signaled {
		state[k] = v
	}
	for i := range b {
		for _, w := range b[i].Wait {
			s := w.Sem.(*Semaphore)
			if s.dead {
				return fmt.Errorf("drivertest: batch %d waits on destroyed semaphore %d", i, s.id)
			}
			if !state[s] {
				return fmt.Errorf("drivertest: batch %d waits on unsignaled semaphore %d", i, s.id)
			}
			state[s] = false
		}
		for _, c := range b[i].Cmd {
			cb := c.(*CmdBuffer)
			if cb.dead || cb.state != cbEnded {
				return fmt.Errorf("drivertest: batch %d submits command buffer %d that is not ended", i, cb.id)
			}
		}
		for _, x := range b[i].Signal {
			s := x.(*Semaphore)
			if state[s] {
				return fmt.Errorf("drivertest: batch %d signals semaphore %d that is already signaled", i, s.id)
			}
			state[s] = true
		}
	}
	g.signaled = state
	for i := range b {
		for _, c := range b[i].Cmd {
			c.(*CmdBuffer).submits++
		}
	}
	g.events = append(g.events, Event{
		Op:      OpSubmit,
		Queue:   q.kind,
		Batches: copyBatches(b),
	})
	return nil
}

func copyBatches(b []driver.Batch) []driver.Batch {
	c := make([]driver.Batch, len(b))
	for i := range b {
		c[i] = driver.Batch{
			Wait:   append([]driver.Wait(nil), b[i].Wait...),
			Cmd:    append([]driver.CmdBuffer(nil), b[i].Cmd...),
			Signal: append([]driver.Semaphore(nil), b[i].Signal...),
		}
	}
	return c
}

// WaitIdle records the wait.
func (q *Queue) WaitIdle() error {
	q.gpu.mu.Lock()
	defer q.gpu.mu.Unlock()
	q.gpu.events = append(q.gpu.events, Event{Op: OpQueueWaitIdle, Queue: q.kind})
	return nil
}

// WaitIdle records the wait.
func (g *GPU) WaitIdle() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, Event{Op: OpDeviceWaitIdle})
	return nil
}

// Semaphore implements driver.Semaphore.
type Semaphore struct{ object }

// NewSemaphore creates a new semaphore.
func (g *GPU) NewSemaphore() (driver.Semaphore, error) {
	o, err := g.newObject(KSemaphore)
	if err != nil {
		return nil, err
	}
	return &Semaphore{o}, nil
}

// Signaled reports whether s has a pending signal.
func (g *GPU) Signaled(s driver.Semaphore) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.signaled[s.(*Semaphore)]
}

// FormatSupported reports whether pf was not made
// unsupported with WithUnsupported.
func (g *GPU) FormatSupported(pf driver.PixelFmt, _ driver.Usage) bool {
	return !g.unsupported[pf]
}

// Limits returns fixed limits.
func (g *GPU) Limits() driver.Limits {
	return driver.Limits{
		MaxImage2D:      16384,
		MaxImage3D:      2048,
		MaxDescHeaps:    8,
		MaxColorTargets: 8,
		MaxFBSize:       [2]int{16384, 16384},
		MaxDispatch:     [3]int{65535, 65535, 65535},
	}
}

var (
	_ driver.GPU        = (*GPU)(nil)
	_ driver.Presenter  = (*GPU)(nil)
	_ driver.Queue      = (*Queue)(nil)
	_ driver.Semaphore  = (*Semaphore)(nil)
	_ driver.CmdBuffer  = (*CmdBuffer)(nil)
	_ driver.RenderPass = (*RenderPass)(nil)
	_ driver.Framebuf   = (*Framebuf)(nil)
	_ driver.ShaderCode = (*ShaderCode)(nil)
	_ driver.DescHeap   = (*DescHeap)(nil)
	_ driver.DescTable  = (*DescTable)(nil)
	_ driver.Pipeline   = (*Pipeline)(nil)
	_ driver.Buffer     = (*Buffer)(nil)
	_ driver.Image      = (*Image)(nil)
	_ driver.ImageView  = (*ImageView)(nil)
	_ driver.Sampler    = (*Sampler)(nil)
	_ driver.Swapchain  = (*Swapchain)(nil)
)
