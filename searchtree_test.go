// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockcore_test

import (
	"math/rand"
	"testing"

	"code.hybscloud.com/lockcore"
)

// TestSearchTreeAddContainsRemove is scenario B: add a set of keys,
// confirm each is found, remove half, confirm the partition.
func TestSearchTreeAddContainsRemove(t *testing.T) {
	tr := lockcore.NewSearchTree(64)

	keys := []float64{5, 1, 9, 3, 7, 2, 8, 4, 6, 0}
	for _, k := range keys {
		added, _ := tr.Add(k)
		if !added {
			t.Fatalf("Add(%v): expected newly added", k)
		}
	}

	for _, k := range keys {
		if !tr.Contains(k) {
			t.Fatalf("Contains(%v): expected true after Add", k)
		}
	}

	if added, _ := tr.Add(5); added {
		t.Fatal("Add(5) twice: expected false on second insert")
	}

	for i, k := range keys {
		if i%2 != 0 {
			continue
		}
		if !tr.Remove(k) {
			t.Fatalf("Remove(%v): expected true", k)
		}
	}

	for i, k := range keys {
		want := i%2 != 0
		if got := tr.Contains(k); got != want {
			t.Fatalf("Contains(%v) after partial removal: got %v, want %v", k, got, want)
		}
	}

	if tr.Remove(1000) {
		t.Fatal("Remove of absent key: expected false")
	}
}

// TestSearchTreeFindMin checks the minimum tracks insertions and
// removals, and reports absence on an empty tree.
func TestSearchTreeFindMin(t *testing.T) {
	tr := lockcore.NewSearchTree(32)

	if _, ok := tr.FindMin(); ok {
		t.Fatal("FindMin on empty tree: expected false")
	}

	for _, k := range []float64{10, 3, 7, 1, 20} {
		tr.Add(k)
	}
	if min, ok := tr.FindMin(); !ok || min != 1 {
		t.Fatalf("FindMin: got (%v,%v), want (1,true)", min, ok)
	}

	tr.Remove(1)
	if min, ok := tr.FindMin(); !ok || min != 3 {
		t.Fatalf("FindMin after removing minimum: got (%v,%v), want (3,true)", min, ok)
	}
}

// TestSearchTreeSizeAndClear checks Size tracks live keys and Clear
// resets the tree to empty.
func TestSearchTreeSizeAndClear(t *testing.T) {
	tr := lockcore.NewSearchTree(32)
	for _, k := range []float64{1, 2, 3, 4, 5} {
		tr.Add(k)
	}
	if got := tr.Size(); got != 5 {
		t.Fatalf("Size: got %d, want 5", got)
	}
	tr.Remove(3)
	if got := tr.Size(); got != 4 {
		t.Fatalf("Size after Remove: got %d, want 4", got)
	}
	tr.Clear()
	if got := tr.Size(); got != 0 {
		t.Fatalf("Size after Clear: got %d, want 0", got)
	}
	if tr.Contains(1) {
		t.Fatal("Contains after Clear: expected false")
	}
}

// TestSearchTreeAddRemoveAgainstReferenceSet is scenario C, scaled down:
// a randomized sequence of add/remove/contains operations checked
// against a plain Go map used as the reference model.
func TestSearchTreeAddRemoveAgainstReferenceSet(t *testing.T) {
	tr := lockcore.NewSearchTree(256)
	ref := make(map[float64]bool)
	rnd := rand.New(rand.NewSource(1))

	const ops = 2000
	const keySpace = 100
	for i := 0; i < ops; i++ {
		k := float64(rnd.Intn(keySpace))
		if rnd.Intn(2) == 0 {
			added, _ := tr.Add(k)
			wantAdded := !ref[k]
			if added != wantAdded {
				t.Fatalf("op %d: Add(%v) = %v, want %v", i, k, added, wantAdded)
			}
			ref[k] = true
		} else {
			removed := tr.Remove(k)
			wantRemoved := ref[k]
			if removed != wantRemoved {
				t.Fatalf("op %d: Remove(%v) = %v, want %v", i, k, removed, wantRemoved)
			}
			ref[k] = false
		}
	}

	for k := 0; k < keySpace; k++ {
		kk := float64(k)
		if got, want := tr.Contains(kk), ref[kk]; got != want {
			t.Fatalf("Contains(%v): got %v, want %v", kk, got, want)
		}
	}
}

// TestSearchTreeConcurrentAddContains stresses concurrent Add/Contains
// over a disjoint key space per goroutine, so no goroutine contends
// over whether a given key should be present.
func TestSearchTreeConcurrentAddContains(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	const workers = 8
	const perWorker = 500
	tr := lockcore.NewSearchTree(workers * perWorker * 2)

	done := make(chan struct{}, workers)
	for w := 0; w < workers; w++ {
		w := w
		go func() {
			defer func() { done <- struct{}{} }()
			base := float64(w * perWorker)
			for i := 0; i < perWorker; i++ {
				tr.Add(base + float64(i))
			}
			for i := 0; i < perWorker; i++ {
				if !tr.Contains(base + float64(i)) {
					t.Errorf("worker %d: Contains(%v) expected true", w, base+float64(i))
				}
			}
		}()
	}
	for w := 0; w < workers; w++ {
		<-done
	}
}
