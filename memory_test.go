package dsformat

import (
	"sync"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type releaseRecorder struct {
	id    int
	order *[]int
}

func (r releaseRecorder) Release() {
	*r.order = append(*r.order, r.id)
}

func TestMemoryManager(t *testing.T) {
	t.Run("track and release multiple resources", func(t *testing.T) {
		mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
		defer mem.AssertSize(t, 0)

		manager := NewMemoryManager()
		manager.Track(NewDatasetWithAllocator(mem, NewSeries("a", []int64{1, 2, 3}, mem)))
		manager.Track(NewDatasetWithAllocator(mem, NewSeries("b", []string{"x", "y"}, mem)))
		manager.Track(nil)

		assert.Equal(t, 2, manager.Count())
		manager.ReleaseAll()
		assert.Equal(t, 0, manager.Count())
	})

	t.Run("releases newest first", func(t *testing.T) {
		var order []int
		manager := NewMemoryManager()
		for i := range 3 {
			manager.Track(releaseRecorder{id: i, order: &order})
		}

		manager.ReleaseAll()
		assert.Equal(t, []int{2, 1, 0}, order)

		manager.ReleaseAll()
		assert.Len(t, order, 3)
	})

	t.Run("concurrent access", func(t *testing.T) {
		manager := NewMemoryManager()
		var order []int
		var mu sync.Mutex

		var wg sync.WaitGroup
		const numGoroutines = 10
		wg.Add(numGoroutines)
		for i := range numGoroutines {
			go func() {
				defer wg.Done()
				mu.Lock()
				defer mu.Unlock()
				manager.Track(releaseRecorder{id: i, order: &order})
			}()
		}
		wg.Wait()

		assert.Equal(t, numGoroutines, manager.Count())
		manager.ReleaseAll()
		assert.Len(t, order, numGoroutines)
	})
}

func TestWithMemoryManager(t *testing.T) {
	var order []int
	err := WithMemoryManager(func(manager *MemoryManager) error {
		manager.Track(releaseRecorder{id: 7, order: &order})
		return assert.AnError
	})

	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []int{7}, order)
}

func TestWithDataset(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	err := WithDataset(func() *Dataset {
		return NewDatasetWithAllocator(mem, NewSeries("document", []string{"a", "b"}, mem))
	}, func(ds *Dataset) error {
		assert.Equal(t, 2, ds.Len())
		return nil
	})
	require.NoError(t, err)
}
