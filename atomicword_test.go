// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lockcore_test

import (
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/lockcore"
)

func TestAtomicWordLoadStore(t *testing.T) {
	w := lockcore.NewAtomicWord(-1)
	if got := w.Load(); got != -1 {
		t.Fatalf("Load: got %d, want -1", got)
	}
	w.Store(42)
	if got := w.Load(); got != 42 {
		t.Fatalf("Load after Store: got %d, want 42", got)
	}
}

func TestAtomicWordAddCompareAndSwap(t *testing.T) {
	w := lockcore.NewAtomicWord(0)
	if got := w.Add(5); got != 5 {
		t.Fatalf("Add: got %d, want 5", got)
	}
	if ok := w.CompareAndSwap(5, 10); !ok {
		t.Fatal("CompareAndSwap(5,10): expected success")
	}
	if got := w.Load(); got != 10 {
		t.Fatalf("Load after CAS: got %d, want 10", got)
	}
	if ok := w.CompareAndSwap(5, 20); ok {
		t.Fatal("CompareAndSwap(5,20): expected failure, value is 10")
	}
}

func TestAtomicWordWaitNotifyOne(t *testing.T) {
	w := lockcore.NewAtomicWord(-1)
	var wg sync.WaitGroup
	woke := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Wait(-1)
		close(woke)
	}()

	select {
	case <-woke:
		t.Fatal("waiter woke before Store")
	case <-time.After(20 * time.Millisecond):
	}

	w.Store(0)
	w.NotifyOne()

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("waiter never woke after Store+NotifyOne")
	}
	wg.Wait()
}

func TestAtomicWordNotifyAllWakesEveryWaiter(t *testing.T) {
	const waiters = 8
	w := lockcore.NewAtomicWord(-1)
	var wg sync.WaitGroup
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			defer wg.Done()
			w.Wait(-1)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	w.Store(0)
	w.NotifyAll()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("not every waiter woke after NotifyAll")
	}
}
