// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockcore

// cacheLineSize is the compile-time constant governing permuteIndex's
// shift (spec.md §6) and the cache-line isolation of hot atomic fields.
// Typical for x86-64 and arm64 L1 lines; changing it changes throughput,
// never correctness.
const cacheLineSize = 64

// pad is cache-line padding placed between hot atomic fields to prevent
// false sharing between producers and consumers.
type pad [cacheLineSize]byte

// padShort pads a structure that already holds one 8-byte field out to
// a full cache line.
type padShort [cacheLineSize - 8]byte

// roundToPow2 rounds n up to the next power of 2. Values below 2,
// including zero and negative values, round to 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// log2 returns the base-2 logarithm of n, which must be a power of 2.
func log2(n uint64) uint64 {
	var o uint64
	for (uint64(1) << o) < n {
		o++
	}
	return o
}
