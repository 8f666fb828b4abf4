// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockcore

import "code.hybscloud.com/atomix"

// Task id sentinels used for parent/child ordering in
// [Enqueue]/[EnqueueLoop].
const (
	// NoTask means a task has no parent to wait for.
	NoTask int64 = 1<<63 - 1
	// AllPrecedences means a task must wait until it is the oldest live
	// task in the pool (the HOBST's minimum key equals its own id).
	AllPrecedences int64 = -1
	// InvalidTaskID is returned by Future.ID for an invalid Future.
	InvalidTaskID int64 = -1 << 63
)

// WorkerSlot is one unit of queued work: a task plus the loop offset it
// should run (ignored for scalar tasks).
type WorkerSlot struct {
	task   *Task
	offset int64
}

// Task is a unit of submitted work: either a scalar closure run once, or
// one offset of a loop closure run N times across the pool, plus the
// bookkeeping needed for parent/child ordering and Future completion.
//
// A loop task's N slots share one Task; remaining counts slots not yet
// run, and the worker whose atomic decrement drives it to zero is the
// one that completes the task: it publishes the Future's result and
// removes the task id from the HOBST.
type Task struct {
	id        int64
	parentID  int64
	scalar    func(workerIndex int)
	loopFn    func(workerIndex int, offset int64)
	remaining atomix.Int64
	cell      futureCell
}

// run executes this task's behavior for one slot and reports whether
// this was the slot that completed the task.
func (t *Task) run(workerIndex int, offset int64) (isLast bool) {
	if t.loopFn != nil {
		t.loopFn(workerIndex, offset)
		return t.remaining.AddAcqRel(-1) == 0
	}
	t.scalar(workerIndex)
	return true
}
