// Package parallel provides a worker pool for per-row dataset work.
//
// Rows are split into contiguous chunks, fanned out to a fixed number of
// goroutines and fanned back in by chunk index, so results keep row order.
// Datasets below Threshold rows are processed inline.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// Threshold is the row count from which Map fans work out to goroutines
const Threshold = 1000

// WorkerPool manages a pool of goroutines for parallel processing
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool. A non-positive size uses runtime.NumCPU().
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Workers returns the pool size
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}

// Close cancels work that has not started yet
func (wp *WorkerPool) Close() {
	wp.cancel()
}

// Map calls fn for every index in [0, n) and returns the results in index order.
// The first error stops the remaining chunks and is returned.
func Map[R any](wp *WorkerPool, n int, fn func(i int) (R, error)) ([]R, error) {
	results := make([]R, n)
	if n == 0 {
		return results, nil
	}

	if n < Threshold || wp.numWorkers == 1 {
		for i := range n {
			r, err := fn(i)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	ctx, cancel := context.WithCancel(wp.ctx)
	defer cancel()

	chunks := chunkRanges(n, wp.numWorkers)
	chunkCh := make(chan chunk, len(chunks))
	for _, c := range chunks {
		chunkCh <- c
	}
	close(chunkCh)

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for range min(wp.numWorkers, len(chunks)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range chunkCh {
				for i := c.start; i < c.end; i++ {
					if ctx.Err() != nil {
						return
					}
					r, err := fn(i)
					if err != nil {
						once.Do(func() {
							firstErr = err
							cancel()
						})
						return
					}
					// chunks are disjoint so each slot has one writer
					results[i] = r
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := wp.ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

type chunk struct {
	start, end int
}

// chunkRanges splits [0, n) into about four chunks per worker
func chunkRanges(n, workers int) []chunk {
	size := max(n/(workers*4), 1)
	chunks := make([]chunk, 0, n/size+1)
	for start := 0; start < n; start += size {
		chunks = append(chunks, chunk{start: start, end: min(start+size, n)})
	}
	return chunks
}
