package saga

import (
	"sync"
	"testing"
)

func TestLockRegistrySerializesSameKey(t *testing.T) {
	reg := NewLockRegistry()

	const workers = 16
	const iters = 200
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iters; j++ {
				release := reg.Acquire("TEAM:abc")
				counter++
				release()
			}
		}()
	}
	wg.Wait()

	if counter != workers*iters {
		t.Fatalf("counter: want=%d got=%d", workers*iters, counter)
	}
}

func TestLockRegistryIndependentKeys(t *testing.T) {
	reg := NewLockRegistry()

	releaseA := reg.Acquire("TEAM:a")
	defer releaseA()

	// a held lock on another key must not block
	done := make(chan struct{})
	go func() {
		releaseB := reg.Acquire("TEAM:b")
		releaseB()
		close(done)
	}()
	<-done
}
