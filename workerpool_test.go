// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockcore_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"code.hybscloud.com/lockcore"
)

// TestWorkerPoolScalarParallelism is scenario D: every submitted task
// completes and reports a worker index in range.
func TestWorkerPoolScalarParallelism(t *testing.T) {
	pool := lockcore.NewWorkerPool(4)
	defer pool.Close()

	const n = 4
	ids := make([]int, n)
	futures := make([]*lockcore.Future[int], n)
	for i := 0; i < n; i++ {
		f, err := lockcore.Enqueue(pool, lockcore.NoTask, func(workerIndex int) int {
			return workerIndex
		})
		if err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
		futures[i] = f
	}
	for i, f := range futures {
		ids[i] = f.Get()
		if ids[i] < 0 || ids[i] >= pool.NumThreads() {
			t.Fatalf("task %d: worker index %d out of range [0,%d)", i, ids[i], pool.NumThreads())
		}
	}
}

// TestWorkerPoolLoopParallelism is scenario E: a loop task's offsets
// each write their own result cell before the loop's Future completes.
func TestWorkerPoolLoopParallelism(t *testing.T) {
	pool := lockcore.NewWorkerPool(4)
	defer pool.Close()

	const n = 4
	result := make([]int64, n)
	f, err := lockcore.EnqueueLoop(pool, lockcore.NoTask, 0, n, func(_ int, offset int64) {
		atomic.StoreInt64(&result[offset], offset)
	})
	if err != nil {
		t.Fatalf("EnqueueLoop: %v", err)
	}
	f.Wait()

	for i := int64(0); i < n; i++ {
		if got := atomic.LoadInt64(&result[i]); got != i {
			t.Fatalf("result[%d]: got %d, want %d", i, got, i)
		}
	}
}

// TestWorkerPoolParentChildOrdering checks a concrete parent_id defers
// the child until the parent has completed.
func TestWorkerPoolParentChildOrdering(t *testing.T) {
	pool := lockcore.NewWorkerPool(2)
	defer pool.Close()

	var parentDone int32
	parent, err := lockcore.Enqueue(pool, lockcore.NoTask, func(_ int) struct{} {
		atomic.StoreInt32(&parentDone, 1)
		return struct{}{}
	})
	if err != nil {
		t.Fatalf("Enqueue parent: %v", err)
	}

	child, err := lockcore.Enqueue(pool, parent.ID(), func(_ int) bool {
		return atomic.LoadInt32(&parentDone) == 1
	})
	if err != nil {
		t.Fatalf("Enqueue child: %v", err)
	}

	if !child.Get() {
		t.Fatal("child ran before parent completed")
	}
}

// TestWorkerPoolWaitForCompletion checks WaitForCompletion only returns
// once every submitted task has finished.
func TestWorkerPoolWaitForCompletion(t *testing.T) {
	pool := lockcore.NewWorkerPool(4)
	defer pool.Close()

	const n = 50
	var completed int64
	for i := 0; i < n; i++ {
		if _, err := lockcore.Enqueue(pool, lockcore.NoTask, func(_ int) struct{} {
			atomic.AddInt64(&completed, 1)
			return struct{}{}
		}); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}
	pool.WaitForCompletion()
	if got := atomic.LoadInt64(&completed); got != n {
		t.Fatalf("completed: got %d, want %d", got, n)
	}
}

// TestWorkerPoolNestedFutureWait checks a task that enqueues a subtask
// and waits on its Future does not deadlock the pool.
func TestWorkerPoolNestedFutureWait(t *testing.T) {
	pool := lockcore.NewWorkerPool(2)
	defer pool.Close()

	outer, err := lockcore.Enqueue(pool, lockcore.NoTask, func(_ int) int {
		inner, err := lockcore.Enqueue(pool, lockcore.NoTask, func(_ int) int {
			return 41
		})
		if err != nil {
			return -1
		}
		return inner.Get() + 1
	})
	if err != nil {
		t.Fatalf("Enqueue outer: %v", err)
	}

	done := make(chan int, 1)
	go func() { done <- outer.Get() }()
	select {
	case v := <-done:
		if v != 42 {
			t.Fatalf("outer.Get(): got %d, want 42", v)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("nested Future.Wait deadlocked the pool")
	}
}

// TestWorkerPoolStress is a scaled-down scenario F: many scalar tasks
// across a modest pool, checking every future resolves.
func TestWorkerPoolStress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	pool := lockcore.NewWorkerPool(16)
	defer pool.Close()

	const n = 20000
	var wg sync.WaitGroup
	wg.Add(n)
	var sum int64
	for i := 0; i < n; i++ {
		i := i
		for {
			f, err := lockcore.Enqueue(pool, lockcore.NoTask, func(_ int) int64 {
				return int64(i % 7)
			})
			if err != nil {
				continue
			}
			go func() {
				defer wg.Done()
				atomic.AddInt64(&sum, f.Get())
			}()
			break
		}
	}
	wg.Wait()
	if sum == 0 {
		t.Fatal("expected nonzero accumulated sum")
	}
}
