// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockcore

import (
	"math"

	"code.hybscloud.com/atomix"
)

// hobstInvalidID is the sentinel meaning "no node" throughout the tree:
// an empty child pointer, an absent backtrack id, or the result of a
// failed id allocation.
const hobstInvalidID = ^uint64(0)

// hobstFlagBit discriminates a data-node id (a leaf holding a user key)
// from a non-data-node id (internal, splice, dead or special node) — the
// top bit of the id.
const hobstFlagBit = uint64(1) << 63

const hobstDefaultCapacity = 1024

// hobstCapacityMax is the largest capacity whose non-data arena free
// list, a ring buffer of 4x the capacity, stays within ringCapacityMax.
const hobstCapacityMax = ringCapacityMax >> 2

// Reserved sentinel keys, anchoring the root scaffolding (max0/max1/max2)
// and the splice-node marker (min0). max1/max2 are derived by
// decrementing max0's IEEE-754 bit pattern, which for a positive finite
// float is exactly nextafter(x, -inf). min0 is -inf itself, so min1 is
// computed with math.Nextafter rather than a bit decrement.
var (
	hobstMax0Key = math.MaxFloat64
	hobstMax1Key = math.Float64frombits(math.Float64bits(hobstMax0Key) - 1)
	hobstMax2Key = math.Float64frombits(math.Float64bits(hobstMax1Key) - 1)
	hobstMin0Key = math.Inf(-1)
	hobstMin1Key = math.Nextafter(hobstMin0Key, math.Inf(1))
)

// hobstNode is one node of the Help-Optimal lock-free BST: a data leaf,
// an internal routing node, a splice node (key == hobstMin0Key, whose
// right child points to the node it is splicing out), a dead node
// (rightChild == its own id), or one of the two fixed special nodes
// anchoring the tree's root structure.
//
// key is a plain field, not an atomic: the algorithm's memory-ordering
// contract only requires that a node's key be visible before the
// release CAS that publishes the node as a reachable child, and every
// node is fully initialized before any such CAS — so the CAS itself
// carries the necessary release, and every reader reaches a node only
// through an acquire load of a child/successor/backtrack pointer first.
type hobstNode struct {
	key        float64
	leftChild  atomix.Uint64
	rightChild atomix.Uint64
	backtrack  atomix.Uint64
}

// isSplice reports whether n is a splice node.
func (n *hobstNode) isSplice() bool {
	return n.key == hobstMin0Key
}
