package dsformat

import (
	"sync"
)

// Releasable represents any resource that can be released to free memory.
//
// This interface is implemented by Datasets, Series, and Formatters, all of
// which hold Apache Arrow memory. Always call Release() when done with a
// resource to prevent memory leaks.
type Releasable interface {
	Release()
}

// MemoryManager helps track and release multiple resources automatically.
//
// A Formatter uses one to keep the Dataset it was built from alive until the
// Formatter itself is released. It is also useful for callers that create
// many short-lived datasets in a loop.
//
// The MemoryManager is safe for concurrent use from multiple goroutines.
//
// Example:
//
//	err := dsformat.WithMemoryManager(func(manager *dsformat.MemoryManager) error {
//		for _, path := range paths {
//			ds, err := dsformat.ReadFile(path)
//			if err != nil {
//				return err
//			}
//			manager.Track(ds) // Will be released automatically
//		}
//		return nil
//	})
type MemoryManager struct {
	resources []Releasable
	mu        sync.Mutex
}

// NewMemoryManager creates a new memory manager
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{
		resources: make([]Releasable, 0),
	}
}

// Track adds a resource to be managed and automatically released
func (m *MemoryManager) Track(resource Releasable) {
	if resource != nil {
		m.mu.Lock()
		m.resources = append(m.resources, resource)
		m.mu.Unlock()
	}
}

// Count returns the number of tracked resources
func (m *MemoryManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resources)
}

// ReleaseAll releases all tracked resources, newest first, and clears the tracking list
func (m *MemoryManager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.resources) - 1; i >= 0; i-- {
		m.resources[i].Release()
	}
	m.resources = m.resources[:0]
}

// WithMemoryManager creates a memory manager, executes a function with it, and releases all tracked resources
func WithMemoryManager(fn func(*MemoryManager) error) error {
	manager := NewMemoryManager()
	defer manager.ReleaseAll()
	return fn(manager)
}

// WithDataset executes fn with a Dataset built by factory and releases it afterwards
func WithDataset(factory func() *Dataset, fn func(*Dataset) error) error {
	ds := factory()
	defer ds.Release()
	return fn(ds)
}
