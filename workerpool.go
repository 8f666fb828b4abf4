// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockcore

import (
	"runtime"
	"strconv"
	"sync"

	"code.hybscloud.com/atomix"
)

// UnmanagedWorker is the logical worker index reported for a goroutine
// that was not spawned by the WorkerPool it's asking about.
const UnmanagedWorker = -1

const defaultQueueCapacity = 4096

// WorkerPool is a fixed-size pool of goroutines draining one shared
// [BoundedQueue] of [WorkerSlot]s, with parent/child task ordering
// tracked through a [SearchTree] keyed by task id.
//
// The pool spawns exactly NumThreads goroutines at construction and
// never resizes them; SetCapacity only resizes the task queue and id
// tree. There is no OS-thread-id concept in Go, so "logical worker
// index" is tracked with a goroutine-id-to-index map populated by each
// worker on startup, rather than the native-thread-id binary search a
// C++ implementation would use — the externally observable contract
// (detect whether the calling goroutine is a managed worker, and if so
// which one) is the same either way.
type WorkerPool struct {
	queue         *BoundedQueue[WorkerSlot]
	tasks         *SearchTree
	pendingSlots  *AtomicWord
	nextTaskID    atomix.Int64
	activeWorkers atomix.Int32 // slots dequeued but not yet finished running
	numThreads    int

	workerIndexMu sync.RWMutex
	workerIndex   map[uint64]int

	closing atomix.Bool
	wg      sync.WaitGroup
}

// NewWorkerPool creates a pool of numThreads goroutines, each of which
// registers its logical index and then blocks until construction
// finishes. numThreads <= 0 uses runtime.GOMAXPROCS(0).
func NewWorkerPool(numThreads int) *WorkerPool {
	if numThreads <= 0 {
		numThreads = runtime.GOMAXPROCS(0)
	}
	p := &WorkerPool{
		queue:        NewBoundedQueue[WorkerSlot](defaultQueueCapacity),
		tasks:        NewSearchTree(defaultQueueCapacity),
		pendingSlots: NewAtomicWord(-1),
		numThreads:   numThreads,
		workerIndex:  make(map[uint64]int, numThreads),
	}

	var started sync.WaitGroup
	started.Add(numThreads)
	p.wg.Add(numThreads)
	for i := 0; i < numThreads; i++ {
		i := i
		go func() {
			defer p.wg.Done()
			p.registerWorker(i)
			started.Done()
			p.pendingSlots.Wait(-1)
			p.runLoop(i)
		}()
	}
	started.Wait()

	p.pendingSlots.Store(0)
	p.pendingSlots.NotifyAll()
	return p
}

// NumThreads returns the fixed number of worker goroutines.
func (p *WorkerPool) NumThreads() int {
	return p.numThreads
}

// Capacity returns the task queue's current capacity.
func (p *WorkerPool) Capacity() int {
	return p.queue.Capacity()
}

// SetCapacity replaces the task queue with an empty one of the given
// capacity (rounded up to a power of two) and grows the id tree,
// resetting it. Not concurrency-safe: only call when the pool is known
// quiescent (no in-flight tasks).
func (p *WorkerPool) SetCapacity(capacity int) {
	p.queue = NewBoundedQueue[WorkerSlot](capacity)
	p.tasks.SetCapacity(capacity)
}

// Clear discards every queued slot and tracked task id. Not
// concurrency-safe.
func (p *WorkerPool) Clear() {
	p.queue.Clear()
	p.tasks.Clear()
}

// Close unblocks every worker, waits for them to exit, and releases the
// pool's goroutines. A worker that is not parked keeps dequeuing and
// running queued slots until it finds the queue empty, then exits; a
// parked worker exits as soon as it wakes.
func (p *WorkerPool) Close() {
	p.closing.StoreRelease(true)
	p.pendingSlots.Store(-1)
	p.pendingSlots.NotifyAll()
	p.wg.Wait()
}

// WaitForCompletion blocks until every submitted task has completed and
// the queue is empty. activeWorkers covers the window between a slot
// being dequeued and its task finishing running — pendingSlots alone
// reaches zero the instant the last slot is dequeued, while the task it
// carries may still be executing (or parked in waitForParent).
func (p *WorkerPool) WaitForCompletion() {
	for p.queue.Size() > 0 || p.pendingSlots.Load() > 0 || p.activeWorkers.LoadAcquire() > 0 {
		runtime.Gosched()
	}
}

// Enqueue submits a scalar task. parentID should be [NoTask] for an
// independent task, [AllPrecedences] to wait until it is the pool's
// oldest live task, or a concrete task id to wait for that task's
// completion.
//
// Enqueue is a package-level generic function, not a WorkerPool method:
// Go forbids type parameters on methods, and WorkerPool itself must
// stay non-generic to hold tasks of differing result types in one
// queue.
func Enqueue[R any](p *WorkerPool, parentID int64, fn func(workerIndex int) R) (*Future[R], error) {
	id := p.issueTaskID()
	if id == 0 {
		parentID = NoTask
	}
	p.tasks.Add(float64(id))

	task := &Task{id: id, parentID: parentID}
	task.scalar = func(workerIndex int) {
		task.cell.value = fn(workerIndex)
	}

	p.pendingSlots.Add(1)
	if err := p.queue.Enqueue(WorkerSlot{task: task}); err != nil {
		p.pendingSlots.Add(-1)
		p.tasks.Remove(float64(id))
		return nil, &OverflowError{task: task, beginOffset: 0, numIterations: 1}
	}
	p.pendingSlots.NotifyOne()
	return &Future[R]{pool: p, id: id, cell: &task.cell, valid: true}, nil
}

// EnqueueLoop submits begin..end-1 as N independent offsets of one loop
// task. If the queue fills partway through, offsets already enqueued
// still run to completion; the returned error reports the first
// unscheduled offset and how many were missed.
func EnqueueLoop(p *WorkerPool, parentID int64, begin, end int64, fn func(workerIndex int, offset int64)) (*Future[struct{}], error) {
	n := end - begin
	id := p.issueTaskID()
	if id == 0 {
		parentID = NoTask
	}
	p.tasks.Add(float64(id))

	task := &Task{id: id, parentID: parentID, loopFn: fn}
	task.remaining.StoreRelease(n)

	for i := int64(0); i < n; i++ {
		p.pendingSlots.Add(1)
		if err := p.queue.Enqueue(WorkerSlot{task: task, offset: begin + i}); err != nil {
			p.pendingSlots.Add(-1)
			missed := n - i
			task.remaining.AddAcqRel(-missed)
			return nil, &OverflowError{task: task, beginOffset: i, numIterations: missed}
		}
		p.pendingSlots.NotifyOne()
	}
	return &Future[struct{}]{pool: p, id: id, cell: &task.cell, valid: true}, nil
}

// issueTaskID hands out the next monotonically increasing task id.
func (p *WorkerPool) issueTaskID() int64 {
	return p.nextTaskID.AddAcqRel(1) - 1
}

// runLoop is the body every worker goroutine runs from construction
// until Close.
func (p *WorkerPool) runLoop(index int) {
	for {
		slot, err := p.queue.Dequeue()
		if err == nil {
			p.activeWorkers.AddAcqRel(1)
			p.pendingSlots.Add(-1)
			p.execute(slot, index)
			p.activeWorkers.AddAcqRel(-1)
			continue
		}

		if p.pendingSlots.Load() > 0 {
			// A producer just published but we lost the race to see it.
			runtime.Gosched()
			continue
		}

		if p.closing.LoadAcquire() {
			return
		}
		p.pendingSlots.Wait(0)
		if p.closing.LoadAcquire() {
			return
		}
	}
}

// helpOnce dequeues and runs one task if one is available, used by a
// managed worker's Future.Wait so it never idles while holding a worker
// slot the rest of the pool could be depending on.
func (p *WorkerPool) helpOnce() {
	slot, err := p.queue.Dequeue()
	if err != nil {
		runtime.Gosched()
		return
	}
	p.activeWorkers.AddAcqRel(1)
	p.pendingSlots.Add(-1)
	p.execute(slot, p.logicalWorkerIndex())
	p.activeWorkers.AddAcqRel(-1)
}

// execute runs one slot after applying parent/child ordering, then
// publishes completion if this was the task's last slot.
func (p *WorkerPool) execute(slot WorkerSlot, workerIndex int) {
	task := slot.task
	p.waitForParent(task.id, task.parentID)
	if task.run(workerIndex, slot.offset) {
		task.cell.ready.StoreRelease(true)
		p.tasks.Remove(float64(task.id))
	}
}

// waitForParent cooperatively yields until task's ordering precondition
// is satisfied.
func (p *WorkerPool) waitForParent(taskID, parentID int64) {
	switch parentID {
	case NoTask:
		return
	case AllPrecedences:
		for {
			min, ok := p.tasks.FindMin()
			if !ok || min == float64(taskID) {
				return
			}
			runtime.Gosched()
		}
	default:
		for p.tasks.Contains(float64(parentID)) {
			runtime.Gosched()
		}
	}
}

// registerWorker publishes the calling goroutine's logical index so
// logicalWorkerIndex can find it later, including from inside a nested
// Future.Wait.
func (p *WorkerPool) registerWorker(index int) {
	gid := currentGoroutineID()
	p.workerIndexMu.Lock()
	p.workerIndex[gid] = index
	p.workerIndexMu.Unlock()
}

// logicalWorkerIndex returns the calling goroutine's worker index, or
// UnmanagedWorker if it isn't one of this pool's workers.
func (p *WorkerPool) logicalWorkerIndex() int {
	gid := currentGoroutineID()
	p.workerIndexMu.RLock()
	idx, ok := p.workerIndex[gid]
	p.workerIndexMu.RUnlock()
	if !ok {
		return UnmanagedWorker
	}
	return idx
}

// currentGoroutineID extracts the calling goroutine's runtime id from
// its stack trace header ("goroutine 123 [running]:"). Go exposes no
// public goroutine-id API; this is the standard workaround used where a
// goroutine needs to recognize itself across call boundaries, the same
// role a native thread id plays in the original construction.
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[len("goroutine "):n]
	i := 0
	for i < len(b) && b[i] != ' ' {
		i++
	}
	id, _ := strconv.ParseUint(string(b[:i]), 10, 64)
	return id
}
