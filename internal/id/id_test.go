package id

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SortableAndUnique(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewGenerator(7, func() time.Time { return fixed })

	prev := g.New()
	require.Len(t, prev, 26)
	for i := 0; i < 100; i++ {
		next := g.New()
		assert.Greater(t, next, prev, "ids within one millisecond stay increasing")
		prev = next
	}
}

func TestTime_RoundTrip(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewGenerator(7, func() time.Time { return fixed })

	ts, err := Time(g.New())
	require.NoError(t, err)
	assert.True(t, fixed.Equal(ts))

	_, err = Time("not-a-ulid")
	assert.Error(t, err)
}

func TestNew_Concurrent(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				v := New()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 400)
}
