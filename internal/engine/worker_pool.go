package engine

import (
	"context"
	"sync"
)

// workerPool is a fixed-size goroutine pool with a bounded input queue,
// used to fan a sweep out over its subjects. Pools are created per sweep
// and drained before the sweep returns.
type workerPool[T any] struct {
	queue   chan T
	process func(ctx context.Context, t T)
	wg      sync.WaitGroup
}

// newWorkerPool creates and starts a pool with n goroutines and queue
// capacity cap.
func newWorkerPool[T any](ctx context.Context, n, cap int, fn func(context.Context, T)) *workerPool[T] {
	p := &workerPool[T]{
		queue:   make(chan T, cap),
		process: fn,
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	return p
}

func (p *workerPool[T]) run(ctx context.Context) {
	for t := range p.queue {
		if ctx.Err() != nil {
			continue // drain without processing once cancelled
		}
		p.process(ctx, t)
	}
}

// Submit enqueues work, blocking while the queue is full. Returns false if
// the context is cancelled before the item is accepted.
func (p *workerPool[T]) Submit(ctx context.Context, t T) bool {
	select {
	case p.queue <- t:
		return true
	case <-ctx.Done():
		return false
	}
}

// Drain closes the queue and waits for all workers to finish.
func (p *workerPool[T]) Drain() {
	close(p.queue)
	p.wg.Wait()
}
