// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockcore

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// RingInvalidID is the sentinel returned by [RingIndexBuffer.Dequeue] when
// the buffer was observed empty, and the internal "cell has no element
// from any prior cycle" marker every cell is initialized to.
const RingInvalidID = ^uint64(0)

// RingOverflowID is the sentinel returned by [RingIndexBuffer.Dequeue]
// when nonempty was requested but no element was actually available —
// signals queue-full to a caller that had already reserved a slot.
const RingOverflowID = RingInvalidID - 1

// ringCapacityMax bounds RingIndexBuffer capacity to keep 2*capacity well
// inside the u64 cell-index domain and inside the bit budget HOBST node
// ids reserve for the arena index (spec's "N < 2^62").
const ringCapacityMax = uint64(1) << 61

// RingIndexBuffer is the Scalable Circular Ring-Index Buffer (SCRB): an
// MPMC bounded lock-free allocator of u64 slot indices in [0, capacity),
// based on Nikolaev's Scalable Circular Queue (SCQ) algorithm.
//
// It is an index allocator, not a value queue — see [BoundedQueue] for a
// generic value queue built on top of a pair of these.
//
// The state of the buffer is determined exclusively by its atomic
// counters and cell array; no mutex protects it. All public operations
// are wait-free on the fast path and spin-bounded under contention (at
// most 4096 attempts before falling back to a catch-up path).
type RingIndexBuffer struct {
	_            pad
	head         atomix.Uint64
	_            pad
	tail         atomix.Uint64
	_            pad
	threshold    atomix.Int64
	_            pad
	cells        []atomix.Uint64 // len == 2*capacity
	capacity     uint64          // N
	cellCount    uint64          // 2N
	order        uint64          // log2(cellCount), used by permuteIndex
	permuteShift uint64
}

// NewRingIndexBuffer creates a buffer of the given capacity, rounded up
// to the next power of two. Panics if capacity exceeds CapacityMax;
// callers that need to handle that case should use SetSize directly.
func NewRingIndexBuffer(capacity int) *RingIndexBuffer {
	r := &RingIndexBuffer{}
	if err := r.SetSize(capacity); err != nil {
		panic(err)
	}
	return r
}

// SetSize (re)allocates the backing cell array for the given capacity,
// rounded up to the next power of two, and clears the buffer to empty.
// This is the only fallible operation in the buffer's lifecycle: it
// returns [ErrCapacityExceeded] if the rounded capacity exceeds
// [RingIndexBuffer.CapacityMax] and leaves the buffer unchanged.
func (r *RingIndexBuffer) SetSize(capacity int) error {
	n := uint64(roundToPow2(capacity))
	if n > ringCapacityMax {
		return ErrCapacityExceeded
	}
	cellCount := n * 2
	r.cells = make([]atomix.Uint64, cellCount)
	r.capacity = n
	r.cellCount = cellCount
	r.order = log2(cellCount)

	const cellBits = 3 // log2(sizeof(u64))
	cacheLineBits := log2(cacheLineSize)
	r.permuteShift = 0
	if cellBits < cacheLineBits {
		r.permuteShift = cacheLineBits - cellBits
	}

	r.Clear()
	return nil
}

// Capacity returns N, the number of distinct indices the buffer can hold
// live at once.
func (r *RingIndexBuffer) Capacity() int {
	return int(r.capacity)
}

// CapacityMax returns the maximum possible capacity this buffer type
// supports on this platform.
func (r *RingIndexBuffer) CapacityMax() uint64 {
	return ringCapacityMax
}

// Size returns the number of indices currently live (enqueued but not
// yet dequeued). Approximate under concurrent mutation.
func (r *RingIndexBuffer) Size() int {
	h := r.head.LoadAcquire()
	t := r.tail.LoadAcquire()
	if seqLess(h, t) {
		return int(t - h)
	}
	return 0
}

// Clear reinitializes the buffer to empty: every cell is marked as
// holding no element from any prior cycle, and head/tail/threshold are
// reset.
func (r *RingIndexBuffer) Clear() {
	for i := range r.cells {
		r.cells[i].StoreRelease(RingInvalidID)
	}
	r.head.StoreRelease(0)
	r.threshold.StoreRelease(-1)
	r.tail.StoreRelease(0)
}

// Full preloads the buffer with every index in [0, capacity) as
// available, as if each had just been enqueued in logical order. Used
// to seed a free-id pool (spec's "filled"/"full" lifecycle state).
func (r *RingIndexBuffer) Full() {
	n := r.cellCount
	half := n >> 1
	for i := uint64(0); i < n; i++ {
		idx := r.permuteIndex(i)
		if i < half {
			r.cells[idx].StoreRelease(encodeInitialEntry(i, n))
		} else {
			r.cells[idx].StoreRelease(RingInvalidID)
		}
	}
	r.head.StoreRelease(0)
	r.threshold.StoreRelease(threshold3(half))
	r.tail.StoreRelease(half)
}

// Fill preloads indices [s, e) as available and indices [0, s) as
// already-consumed-once, then sets head=s, tail=e. An administrative
// operation; not concurrency-safe, used only while the buffer is
// quiescent.
func (r *RingIndexBuffer) Fill(s, e uint64) {
	n := r.cellCount
	for i := uint64(0); i < n; i++ {
		idx := r.permuteIndex(i)
		switch {
		case i < s:
			r.cells[idx].StoreRelease((i << 1) | (2*n - 1))
		case i < e:
			r.cells[idx].StoreRelease(encodeInitialEntry(i, n))
		default:
			r.cells[idx].StoreRelease(RingInvalidID)
		}
	}
	r.head.StoreRelease(s)
	r.threshold.StoreRelease(threshold3(n >> 1))
	r.tail.StoreRelease(e)
}

// encodeInitialEntry returns the cell value that a normal Enqueue of
// logical position i (cycle i/n relative to a 2n-cell array) would have
// written, so Full/Fill can seed cells without going through the CAS
// path while staying bit-exact with what Dequeue expects to observe.
func encodeInitialEntry(i, n uint64) uint64 {
	tailCycle := (i << 1) | (2*n - 1)
	entryIndex := i ^ (n - 1)
	return tailCycle ^ entryIndex
}

// Enqueue publishes idx (< capacity) as a new element at the tail.
// Spins internally until it wins a CAS on the target cell; always
// eventually succeeds. If nonempty is true, the caller guarantees this
// enqueue immediately follows a slot it reserved itself, and the
// threshold is not refreshed (used by [BoundedQueue] when it returns a
// slot index to its free list after a ready-slot dequeue).
func (r *RingIndexBuffer) Enqueue(idx uint64, nonempty bool) bool {
	sw := spin.Wait{}
	n := r.cellCount
	var tailp, tailCycle, tailIndex, entry uint64
	retry := false
	for {
		if !retry {
			tailp = r.tail.AddAcqRel(1) - 1
			tailCycle = (tailp << 1) | (2*n - 1)
			tailIndex = r.permuteIndex(tailp)
			entry = r.cells[tailIndex].LoadAcquire()
		}
		retry = false

		entryCycle := entry | (2*n - 1)
		if seqLess(entryCycle, tailCycle) &&
			(entry == entryCycle ||
				(entry == (entryCycle^n) && seqLessEqual(r.head.LoadAcquire(), tailp))) {
			entryIndex := idx ^ (n - 1)
			if !r.cells[tailIndex].CompareAndSwapAcqRel(entry, tailCycle^entryIndex) {
				retry = true
				sw.Once()
				continue
			}
			half := n >> 1
			th3 := threshold3(half)
			if !nonempty && r.threshold.LoadAcquire() != th3 {
				r.threshold.StoreRelease(th3)
			}
			return true
		}
		sw.Once()
	}
}

// Dequeue removes and returns the head element. Returns RingInvalidID if
// the buffer was observed empty (only possible when nonempty is false),
// or RingOverflowID if nonempty was true but no element was actually
// available. Never blocks.
func (r *RingIndexBuffer) Dequeue(nonempty bool) uint64 {
	n := r.cellCount
	index := RingInvalidID
	flag := nonempty || r.threshold.LoadAcquire() >= 0
	var headp, tailp, headCycle, headIndex uint64
	attempt := 0
	again := false

	// Cautious dequeue: an aggressive producer must not drive head past
	// tail when the caller already reserved a slot via a prior enqueue.
	if h, t := r.head.LoadAcquire(), r.tail.LoadAcquire(); nonempty && seqLessEqual(t, h) {
		return RingOverflowID
	}

	sw := spin.Wait{}
	for flag {
		if !again {
			headp = r.head.AddAcqRel(1) - 1
			headCycle = (headp << 1) | (2*n - 1)
			headIndex = r.permuteIndex(headp)
			attempt = 0
		}
		again = false

		entry := r.cells[headIndex].LoadAcquire()
		for {
			entryCycle := entry | (2*n - 1)
			flag = entryCycle != headCycle
			if !flag {
				fetchOrAcqRel(&r.cells[headIndex], n-1)
				index = entry & (n - 1)
				break
			}

			var entryNew uint64
			if (entry|n) != entryCycle {
				entryNew = entry &^ n
				if entry == entryNew {
					break
				}
			} else {
				const attemptMask = 1<<8 - 1
				const attemptMax = 1 << 12
				if attempt&attemptMask == 0 {
					tailp = r.tail.LoadAcquire()
				}
				attempt++
				again = attempt <= attemptMax && seqGreaterEqual(tailp, headp+1)
				if again {
					break
				}
				entryNew = headCycle ^ (^entry & n)
			}

			if !seqLess(entryCycle, headCycle) {
				break
			}
			if r.cells[headIndex].CompareAndSwapAcqRel(entry, entryNew) {
				break
			}
			entry = r.cells[headIndex].LoadAcquire()
		}

		if flag && !again && !nonempty {
			tailp = r.tail.LoadAcquire()
			flag = seqGreater(tailp, headp+1)
			if flag {
				flag = r.threshold.AddAcqRel(-1) > 0
				if !flag {
					index = RingInvalidID
				}
			} else {
				r.catchUp(tailp, headp+1)
				r.threshold.AddAcqRel(-1)
				index = RingInvalidID
			}
		}

		if flag || again {
			sw.Once()
		}
	}
	return index
}

// catchUp restores tail's monotonicity after a dequeue observes that the
// producer side has fallen behind the consumer side.
func (r *RingIndexBuffer) catchUp(tailp, headp uint64) {
	for {
		if r.tail.CompareAndSwapAcqRel(tailp, headp) {
			return
		}
		headp = r.head.LoadAcquire()
		tailp = r.tail.LoadAcquire()
		if seqGreaterEqual(tailp, headp) {
			return
		}
	}
}

// permuteIndex remaps a logical position into a physical cell index so
// that consecutive logical slots land on distinct cache lines.
func (r *RingIndexBuffer) permuteIndex(i uint64) uint64 {
	n := r.cellCount
	o := r.order
	idx := i
	if r.permuteShift < o {
		upper := i << r.permuteShift
		lower := (i & (n - 1)) >> (o - r.permuteShift)
		idx = upper | lower
	}
	return idx & (n - 1)
}

// threshold3 computes the livelock-prevention threshold used whenever a
// buffer transitions from possibly-empty to known-nonempty.
func threshold3(half uint64) int64 {
	return int64(3*half - 1)
}

// fetchOrAcqRel atomically ORs mask into cell with acquire-release
// ordering. atomix does not expose a native fetch-or, so this is a
// bounded CAS retry loop — the same pattern RingIndexBuffer already uses
// for every other RMW it cannot express as a single atomix primitive.
func fetchOrAcqRel(cell *atomix.Uint64, mask uint64) {
	sw := spin.Wait{}
	for {
		old := cell.LoadAcquire()
		if cell.CompareAndSwapAcqRel(old, old|mask) {
			return
		}
		sw.Once()
	}
}

// seqLess, seqLessEqual, seqGreater and seqGreaterEqual compare two u64
// sequence numbers under wraparound arithmetic, matching the signed
// 64-bit subtraction comparisons the SCQ algorithm relies on throughout.
func seqLess(lhs, rhs uint64) bool         { return int64(lhs-rhs) < 0 }
func seqLessEqual(lhs, rhs uint64) bool    { return int64(lhs-rhs) <= 0 }
func seqGreater(lhs, rhs uint64) bool      { return int64(lhs-rhs) > 0 }
func seqGreaterEqual(lhs, rhs uint64) bool { return int64(lhs-rhs) >= 0 }
