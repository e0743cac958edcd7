package idgen

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextIDIsMonotonic(t *testing.T) {
	g, err := New("2024-01-01", 1)
	require.NoError(t, err)

	prev := g.NextID()
	for i := 0; i < 1000; i++ {
		id := g.NextID()
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestNextIDUniqueUnderConcurrency(t *testing.T) {
	g, err := New("2024-01-01", 2)
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen = make(map[int64]struct{})
		wg   sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				id := g.NextID()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 8*500)
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New("not-a-date", 1)
	assert.Error(t, err)

	_, err = New("2024-01-01", 4096)
	assert.Error(t, err)
}
