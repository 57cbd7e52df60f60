package keymutex

import (
	"sync"
	"testing"
)

func TestLocker(t *testing.T) {
	t.Run("MutualExclusion", func(t *testing.T) {
		var locks Locker
		counter := 0

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := locks.Lock("guild-1")
				defer unlock()
				counter++
			}()
		}
		wg.Wait()

		if counter != 50 {
			t.Errorf("expected counter 50, got %d", counter)
		}
	})

	t.Run("EntryRemovedAfterLastRelease", func(t *testing.T) {
		var locks Locker

		unlock := locks.Lock("guild-1")
		if locks.Len() != 1 {
			t.Errorf("expected 1 live entry, got %d", locks.Len())
		}
		unlock()

		if locks.Len() != 0 {
			t.Errorf("expected 0 live entries after release, got %d", locks.Len())
		}
	})

	t.Run("IndependentKeys", func(t *testing.T) {
		var locks Locker

		unlockA := locks.Lock("a")
		done := make(chan struct{})
		go func() {
			unlockB := locks.Lock("b")
			unlockB()
			close(done)
		}()
		<-done // key "b" must not block behind key "a"
		unlockA()
	})

	t.Run("DoubleUnlockIsSafe", func(t *testing.T) {
		var locks Locker
		unlock := locks.Lock("a")
		unlock()
		unlock()

		if locks.Len() != 0 {
			t.Errorf("expected 0 entries, got %d", locks.Len())
		}
	})
}
