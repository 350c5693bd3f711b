// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"sync"

	vk "github.com/goki/vulkan"

	"github.com/iamlivehaha/Project-VolumetricCloudRendering/driver"
)

// queue implements driver.Queue.
// Queues of the same family share a mutex, since they
// refer to the same vk.Queue.
type queue struct {
	d    *Driver
	kind driver.QueueKind
	fam  uint32
	q    vk.Queue
	mu   *sync.Mutex
}

// newQueue obtains the first queue of family fam.
// If mu is nil, a new mutex is created.
func (d *Driver) newQueue(kind driver.QueueKind, fam uint32, mu *sync.Mutex) *queue {
	var q vk.Queue
	vk.GetDeviceQueue(d.dev, fam, 0, &q)
	if mu == nil {
		mu = new(sync.Mutex)
	}
	return &queue{d: d, kind: kind, fam: fam, q: q, mu: mu}
}

// Kind returns the queue kind.
func (q *queue) Kind() driver.QueueKind { return q.kind }

// Family returns the queue family index.
func (q *queue) Family() int { return int(q.fam) }

// Submit submits a number of batches for execution.
func (q *queue) Submit(b []driver.Batch) error {
	if len(b) == 0 {
		return nil
	}
	infos := make([]vk.SubmitInfo, len(b))
	for i := range b {
		info := vk.SubmitInfo{SType: vk.StructureTypeSubmitInfo}
		if n := len(b[i].Wait); n > 0 {
			sems := make([]vk.Semaphore, n)
			stgs := make([]vk.PipelineStageFlags, n)
			for j, w := range b[i].Wait {
				sems[j] = w.Sem.(*semaphore).sem
				stgs[j] = convSync(w.Sync, vk.PipelineStageTopOfPipeBit)
			}
			info.WaitSemaphoreCount = uint32(n)
			info.PWaitSemaphores = sems
			info.PWaitDstStageMask = stgs
		}
		if n := len(b[i].Cmd); n > 0 {
			cbs := make([]vk.CommandBuffer, n)
			for j, cb := range b[i].Cmd {
				cbs[j] = cb.(*cmdBuffer).cb
			}
			info.CommandBufferCount = uint32(n)
			info.PCommandBuffers = cbs
		}
		if n := len(b[i].Signal); n > 0 {
			sems := make([]vk.Semaphore, n)
			for j, s := range b[i].Signal {
				sems[j] = s.(*semaphore).sem
			}
			info.SignalSemaphoreCount = uint32(n)
			info.PSignalSemaphores = sems
		}
		infos[i] = info
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return checkResult(vk.QueueSubmit(q.q, uint32(len(infos)), infos, vk.NullFence))
}

// WaitIdle blocks until the queue is idle.
func (q *queue) WaitIdle() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return checkResult(vk.QueueWaitIdle(q.q))
}

// semaphore implements driver.Semaphore.
type semaphore struct {
	d   *Driver
	sem vk.Semaphore
}

// NewSemaphore creates a new binary semaphore.
func (d *Driver) NewSemaphore() (driver.Semaphore, error) {
	info := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	var sem vk.Semaphore
	if err := checkResult(vk.CreateSemaphore(d.dev, &info, nil, &sem)); err != nil {
		return nil, err
	}
	return &semaphore{d: d, sem: sem}, nil
}

// Destroy destroys the semaphore.
func (s *semaphore) Destroy() {
	if s == nil {
		return
	}
	if s.d != nil {
		vk.DestroySemaphore(s.d.dev, s.sem, nil)
	}
	*s = semaphore{}
}
