package resilience

import (
	"sync"
	"testing"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	t.Parallel()

	var m KeyedMutex
	var active, maxActive int
	var stateMu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			unlock := m.Lock("collection-1")
			defer unlock()

			stateMu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			stateMu.Unlock()

			stateMu.Lock()
			active--
			stateMu.Unlock()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("expected at most 1 holder per key, observed %d", maxActive)
	}
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	t.Parallel()

	var m KeyedMutex
	unlockA := m.Lock("a")

	done := make(chan struct{})
	go func() {
		unlockB := m.Lock("b")
		unlockB()
		close(done)
	}()

	<-done
	unlockA()
}
