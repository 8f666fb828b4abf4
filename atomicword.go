// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockcore

import (
	"sync"

	"code.hybscloud.com/atomix"
)

// AtomicWord is a portable atomic int64 with a blocking wait/notify pair,
// used as the worker pool's one suspension point (pending_slots).
//
// Platforms with a native futex-like wait (Linux, Windows) could back
// this directly; nothing in the example corpus this package is built
// from wires such a primitive, so AtomicWord always uses the portable
// fallback: an internal mutex and condition variable guarding a plain
// atomix.Int64. The observable contract — wait blocks exactly while the
// value equals the expected one, notify_one/notify_all wake waiters,
// wake observes acquire semantics — is identical either way.
type AtomicWord struct {
	mu    sync.Mutex
	cond  sync.Cond
	value atomix.Int64
}

// NewAtomicWord creates an AtomicWord holding the given initial value.
func NewAtomicWord(value int64) *AtomicWord {
	w := &AtomicWord{}
	w.cond.L = &w.mu
	w.value.StoreRelease(value)
	return w
}

// Load returns the current value with acquire ordering.
func (w *AtomicWord) Load() int64 {
	return w.value.LoadAcquire()
}

// Store sets the value with release ordering and wakes every waiter, so
// that a waiter blocked on a now-stale expected value re-observes it.
func (w *AtomicWord) Store(value int64) {
	w.mu.Lock()
	w.value.StoreRelease(value)
	w.cond.Broadcast()
	w.mu.Unlock()
}

// Add atomically adds delta and returns the new value, waking waiters.
func (w *AtomicWord) Add(delta int64) int64 {
	w.mu.Lock()
	v := w.value.AddAcqRel(delta)
	w.cond.Broadcast()
	w.mu.Unlock()
	return v
}

// CompareAndSwap atomically replaces old with new if the current value
// equals old, waking waiters on success.
func (w *AtomicWord) CompareAndSwap(old, new int64) bool {
	w.mu.Lock()
	ok := w.value.CompareAndSwapAcqRel(old, new)
	if ok {
		w.cond.Broadcast()
	}
	w.mu.Unlock()
	return ok
}

// Wait blocks the calling goroutine while the observed value equals
// expected. Returns once the value has changed; the caller must re-check
// it, since spurious wake-ups are permitted. The value observed on
// return carries acquire ordering relative to any Store/Add/CompareAndSwap
// that changed it.
func (w *AtomicWord) Wait(expected int64) {
	w.mu.Lock()
	for w.value.LoadAcquire() == expected {
		w.cond.Wait()
	}
	w.mu.Unlock()
}

// NotifyOne wakes one goroutine blocked in Wait, if any.
func (w *AtomicWord) NotifyOne() {
	w.mu.Lock()
	w.cond.Signal()
	w.mu.Unlock()
}

// NotifyAll wakes every goroutine blocked in Wait.
func (w *AtomicWord) NotifyAll() {
	w.mu.Lock()
	w.cond.Broadcast()
	w.mu.Unlock()
}
