package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock_SerializesSameKey(t *testing.T) {
	kl := New()

	const iterations = 200
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := kl.Lock("user-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, iterations, counter)
}

func TestLock_DifferentKeysDoNotBlock(t *testing.T) {
	kl := New()

	unlockA := kl.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := kl.Lock("b")
		unlockB()
		close(done)
	}()

	<-done
}

func TestLock_EntriesAreReleased(t *testing.T) {
	kl := New()

	unlock := kl.Lock("user-1")
	unlock()

	kl.mu.Lock()
	defer kl.mu.Unlock()
	assert.Empty(t, kl.locks, "released entries are removed from the map")
}

func TestDo(t *testing.T) {
	kl := New()

	called := false
	err := kl.Do("user-1", func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	kl.mu.Lock()
	defer kl.mu.Unlock()
	assert.Empty(t, kl.locks)
}

func TestDo_PropagatesError(t *testing.T) {
	kl := New()

	sentinel := assert.AnError
	err := kl.Do("user-1", func() error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}
