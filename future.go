// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockcore

import (
	"runtime"

	"code.hybscloud.com/atomix"
)

// futureCell is the shared completion cell a Task publishes into on its
// last completing slot and a Future observes. value is untyped because
// Task itself is not generic — Future[R] narrows it back on Get.
type futureCell struct {
	ready atomix.Bool
	value any
}

// Future is a handle to a submitted task's eventual completion. The
// zero Future is invalid: Wait is a no-op and Get returns the zero R.
type Future[R any] struct {
	pool  *WorkerPool
	id    int64
	cell  *futureCell
	valid bool
}

// Valid reports whether this Future refers to a real submitted task.
func (f *Future[R]) Valid() bool {
	return f.valid
}

// ID returns the task id this Future refers to, or InvalidTaskID.
func (f *Future[R]) ID() int64 {
	if !f.valid {
		return InvalidTaskID
	}
	return f.id
}

// Wait blocks until the task completes.
//
// If the calling goroutine is itself a managed worker, Wait helps drain
// the shared queue instead of idling: a worker that enqueued a subtask
// and then waits on its Future must make progress on other queued work,
// or the pool could deadlock waiting on itself. A non-worker caller
// just yields.
func (f *Future[R]) Wait() {
	if !f.valid {
		return
	}
	for !f.cell.ready.LoadAcquire() {
		if f.pool.logicalWorkerIndex() != UnmanagedWorker {
			f.pool.helpOnce()
		} else {
			runtime.Gosched()
		}
	}
}

// Get waits for the task to complete and returns its result. For a
// Future obtained from EnqueueLoop, R is struct{} and the value carries
// no information beyond completion.
func (f *Future[R]) Get() R {
	f.Wait()
	var zero R
	if f.cell == nil {
		return zero
	}
	if v, ok := f.cell.value.(R); ok {
		return v
	}
	return zero
}
