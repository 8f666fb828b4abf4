// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockcore

// BoundedQueue is a generic MPMC bounded value queue built from a pair of
// [RingIndexBuffer]s: freeSlots hands out slot indices to producers,
// readySlots hands the same indices to consumers once a value has been
// written. Neither ring buffer ever sees a T — they only move indices —
// so BoundedQueue adds no atomics of its own beyond what the two ring
// buffers already provide.
//
// Capacity rounds up to the next power of 2, like every other queue in
// this package.
type BoundedQueue[T any] struct {
	freeSlots  *RingIndexBuffer
	readySlots *RingIndexBuffer
	slots      []T
}

// NewBoundedQueue creates a bounded queue of the given capacity.
func NewBoundedQueue[T any](capacity int) *BoundedQueue[T] {
	n := roundToPow2(capacity)
	q := &BoundedQueue[T]{
		freeSlots:  NewRingIndexBuffer(n),
		readySlots: NewRingIndexBuffer(n),
		slots:      make([]T, n),
	}
	q.freeSlots.Full()
	return q
}

// Capacity returns the queue's rounded capacity.
func (q *BoundedQueue[T]) Capacity() int {
	return q.freeSlots.Capacity()
}

// Size returns the number of values currently held. Approximate under
// concurrent mutation.
func (q *BoundedQueue[T]) Size() int {
	return q.readySlots.Size()
}

// Enqueue reserves a free slot, writes v into it, then publishes the
// slot to consumers. Returns [ErrOverflow] if the queue was full.
func (q *BoundedQueue[T]) Enqueue(v T) error {
	idx := q.freeSlots.Dequeue(true)
	if idx == RingOverflowID {
		return ErrOverflow
	}
	q.slots[idx] = v
	q.readySlots.Enqueue(idx, false)
	return nil
}

// Dequeue removes and returns the oldest published value. Returns
// [ErrEmpty] if the queue was empty.
func (q *BoundedQueue[T]) Dequeue() (T, error) {
	var zero T
	idx := q.readySlots.Dequeue(false)
	if idx == RingInvalidID {
		return zero, ErrEmpty
	}
	v := q.slots[idx]
	q.slots[idx] = zero
	q.freeSlots.Enqueue(idx, true)
	return v, nil
}

// Clear discards every pending value and restores the queue to empty,
// with every slot available for reuse. Not concurrency-safe: callers
// must ensure no other goroutine is enqueuing or dequeuing.
func (q *BoundedQueue[T]) Clear() {
	var zero T
	for i := range q.slots {
		q.slots[i] = zero
	}
	q.readySlots.Clear()
	q.freeSlots.Full()
}
