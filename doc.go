// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lockcore provides the concurrent, bounded, lock-free core of a
// systems utility library:
//
//   - [RingIndexBuffer]: an MPMC bounded lock-free allocator of u64 slot
//     indices, based on Nikolaev's Scalable Circular Queue (SCQ) algorithm.
//   - [BoundedQueue]: a generic MPMC bounded FIFO built by pairing two
//     RingIndexBuffers with a slot array.
//   - [SearchTree]: a help-optimal lock-free ordered set of float64 keys,
//     with per-key stable handle allocation drawn from RingIndexBuffers.
//   - [AtomicWord]: a portable atomic int64 with blocking wait/notify.
//   - [WorkerPool]: a fixed-size worker pool layered over a BoundedQueue
//     (task queue) and a SearchTree (live-task id set for parent/child
//     ordering), exposing scalar and data-parallel loop task submission.
//
// # Quick start
//
//	pool := lockcore.NewWorkerPool(4)
//	defer pool.Close()
//
//	fut, err := lockcore.Enqueue(pool, lockcore.NoTask, func(workerID int) int { return workerID })
//	result := fut.Get()
//
// # Thread safety
//
// Every exported type's public methods are safe for concurrent use by
// multiple goroutines, subject to the access-pattern notes on each type.
// There is no external lock protecting any of these structures.
// RingIndexBuffer, BoundedQueue and SearchTree synchronize only through
// atomics with explicit memory ordering; AtomicWord uses a mutex and
// condition variable for its blocking wait, and WorkerPool guards its
// worker-index map with a read-write mutex.
//
// # Race detection
//
// Go's race detector tracks explicit synchronization primitives (mutex,
// channel, WaitGroup) but cannot observe happens-before relationships
// established purely through acquire/release atomics on separate memory
// locations. [RingIndexBuffer], [SearchTree] and [WorkerPool] rely on such
// orderings, so the race detector can false-positive on otherwise-correct
// concurrent use. [RaceEnabled] reports whether the race detector is
// active; the package's own stress tests do not consult it and are
// skipped only in -short mode.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic, non-failure
// control-flow errors, [code.hybscloud.com/atomix] for atomic primitives
// with explicit memory ordering, and [code.hybscloud.com/spin] for the
// spin-then-pause backoff in RingIndexBuffer's CAS retry loops.
package lockcore
