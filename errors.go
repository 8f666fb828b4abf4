// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockcore

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrOverflow indicates a bounded structure was at capacity.
//
// Returned by [BoundedQueue.Enqueue] when the queue is full and by
// [Enqueue]/[EnqueueLoop] (wrapped in an [OverflowError]) when the task
// queue could not accept every slot.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency: a
// full queue is a control-flow signal, not a failure, and the caller is
// expected to retry or drain rather than treat it as an error condition.
var ErrOverflow = iox.ErrWouldBlock

// ErrEmpty indicates a bounded structure had nothing to dequeue.
//
// Returned by [BoundedQueue.Dequeue] when nothing was available.
// [RingIndexBuffer.Dequeue] reports the same case with [RingInvalidID].
var ErrEmpty = iox.ErrWouldBlock

// ErrCapacityExceeded is returned by [RingIndexBuffer.SetSize] when the
// requested capacity exceeds [RingIndexBuffer.CapacityMax], and is the
// panic value of [NewRingIndexBuffer] in that case.
// [SearchTree.SetCapacity] and [WorkerPool.SetCapacity] return no error;
// an oversize capacity makes them panic.
var ErrCapacityExceeded = errors.New("lockcore: requested capacity exceeds maximum")

// IsOverflow reports whether err indicates a bounded structure was full.
// Delegates to [iox.IsWouldBlock] for wrapped-error support.
func IsOverflow(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsEmpty reports whether err indicates a bounded structure was empty.
func IsEmpty(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal, not a failure.
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}

// OverflowError is returned by [Enqueue] and [EnqueueLoop] when the
// underlying task queue could not
// accept every requested iteration slot. It carries the task back to the
// caller along with the range of iterations that were never scheduled,
// so the caller can retry those offsets or drain the pool.
//
// Offsets [0, BeginOffset) were already enqueued and will run to
// completion; they are not re-runnable and not included here.
type OverflowError struct {
	task        *Task
	beginOffset int64
	numIterations int64
}

// Error implements the error interface.
func (e *OverflowError) Error() string {
	return fmt.Sprintf("lockcore: worker pool queue overflow: task %d, offsets [%d, %d) not scheduled",
		e.task.id, e.beginOffset, e.beginOffset+e.numIterations)
}

// Unwrap exposes [ErrOverflow] for errors.Is(err, lockcore.ErrOverflow).
func (e *OverflowError) Unwrap() error {
	return ErrOverflow
}

// Task returns the task that could not be fully scheduled.
func (e *OverflowError) Task() *Task {
	return e.task
}

// BeginOffset returns the first iteration offset that was not scheduled.
func (e *OverflowError) BeginOffset() int64 {
	return e.beginOffset
}

// NumIterations returns the number of unscheduled iterations starting at
// BeginOffset.
func (e *OverflowError) NumIterations() int64 {
	return e.numIterations
}
