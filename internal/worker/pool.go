// Package worker bounds concurrent work: a generic worker pool, keyed rate
// limiting, and batch DD runs across many applications.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work producing R
type Job[R any] func(ctx context.Context) R

type indexedJob[R any] struct {
	index int
	job   Job[R]
}

// Pool runs jobs on a fixed number of workers and returns results in
// submission order
type Pool[R any] struct {
	workers    int
	jobQueue   chan indexedJob[R]
	results    []R
	done       []bool
	submitted  int
	mu         sync.Mutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a pool with the given number of workers (at least 1)
// whose jobs see a context derived from ctx
func NewPool[R any](ctx context.Context, workers int) *Pool[R] {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)

	return &Pool[R]{
		workers:    workers,
		jobQueue:   make(chan indexedJob[R], workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the worker goroutines
func (p *Pool[R]) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool[R]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case ij, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := ij.job(p.ctx)
			p.mu.Lock()
			p.results[ij.index] = result
			p.done[ij.index] = true
			p.mu.Unlock()
		}
	}
}

// Submit queues a job. It returns false if the pool was shut down.
func (p *Pool[R]) Submit(job Job[R]) bool {
	if p.ctx.Err() != nil {
		return false
	}
	p.mu.Lock()
	index := p.submitted
	p.submitted++
	var zero R
	p.results = append(p.results, zero)
	p.done = append(p.done, false)
	p.mu.Unlock()

	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- indexedJob[R]{index: index, job: job}:
		return true
	}
}

// Wait closes the queue, waits for every queued job and returns the results of
// the jobs that ran, in submission order
func (p *Pool[R]) Wait() []R {
	p.closeQueue()
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]R, 0, len(p.results))
	for i, r := range p.results {
		if p.done[i] {
			out = append(out, r)
		}
	}
	return out
}

// Shutdown cancels running jobs and stops the workers
func (p *Pool[R]) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
}

func (p *Pool[R]) closeQueue() {
	p.closeOnce.Do(func() {
		close(p.jobQueue)
	})
}

// Map applies fn to every item with at most workers in flight and returns the
// results in input order
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, item T) R) []R {
	if len(items) == 0 {
		return nil
	}
	pool := NewPool[R](ctx, workers)
	pool.Start()
	defer pool.Shutdown()

	for _, item := range items {
		item := item
		pool.Submit(func(ctx context.Context) R { return fn(ctx, item) })
	}
	return pool.Wait()
}
