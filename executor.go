package ecs

import (
	"context"
	"runtime"
	"sync"
)

// Executors maps an ExecutorLabel to a worker pool (spec.md §4.8). Two
// pools always exist: SingleThread (cooperative, one goroutine, for
// systems that must pin to a single thread such as GPU submission) and
// Default (a multi-worker pool). Plugins may register additional named
// pools via RegisterExecutor.
type Executors struct {
	mu    sync.RWMutex
	pools map[ExecutorLabel]*workerPool
}

// NewExecutors builds the default two-pool table. defaultWorkers <= 0
// falls back to runtime.NumCPU().
func NewExecutors(defaultWorkers int) *Executors {
	if defaultWorkers <= 0 {
		defaultWorkers = runtime.NumCPU()
	}
	if defaultWorkers <= 0 {
		defaultWorkers = 1
	}
	e := &Executors{pools: make(map[ExecutorLabel]*workerPool)}
	e.pools[ExecutorSingleThread] = newWorkerPool(1)
	e.pools[ExecutorDefault] = newWorkerPool(defaultWorkers)
	return e
}

// RegisterExecutor installs an additional named pool with the given
// worker count, replacing any prior pool under the same label.
func (e *Executors) RegisterExecutor(label ExecutorLabel, workers int) {
	if workers <= 0 {
		workers = 1
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if old, ok := e.pools[label]; ok {
		old.Close()
	}
	e.pools[label] = newWorkerPool(workers)
}

// Close shuts down every registered pool, waiting for in-flight tasks.
func (e *Executors) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, pool := range e.pools {
		pool.Close()
	}
}

// taskResult is the generic outcome of a dispatched task: a value, a
// commands slot, and an error. dispatchSystem leaves commands empty;
// commands deferred through an ExecutionContext go to the world's queue.
type taskResult struct {
	value    any
	commands []WorldCommand
	err      error
}

// DetachTask dispatches fn on the named executor and returns a future
// that completes when fn does. Returns RunSystemError{ExecutorNotFound}
// if no pool is registered under label.
func (e *Executors) DetachTask(ctx context.Context, label ExecutorLabel, systemName string, fn func(context.Context) taskResult) (*jobHandle, error) {
	e.mu.RLock()
	pool, ok := e.pools[label]
	e.mu.RUnlock()
	if !ok {
		return nil, &RunSystemError{Kind: ExecutorNotFound, System: systemName}
	}
	return pool.submit(ctx, fn), nil
}

type workerPool struct {
	size   int
	jobs   chan jobRequest
	closed chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

type jobRequest struct {
	ctx    context.Context
	fn     func(context.Context) taskResult
	result chan taskResult
}

func newWorkerPool(size int) *workerPool {
	if size <= 0 {
		size = 1
	}
	p := &workerPool{
		size:   size,
		jobs:   make(chan jobRequest),
		closed: make(chan struct{}),
	}
	p.start()
	return p
}

func (p *workerPool) start() {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *workerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.execute(job)
		case <-p.closed:
			return
		}
	}
}

func (p *workerPool) execute(job jobRequest) {
	defer close(job.result)
	select {
	case <-job.ctx.Done():
		job.result <- taskResult{err: job.ctx.Err()}
	default:
		job.result <- job.fn(job.ctx)
	}
}

func (p *workerPool) submit(ctx context.Context, fn func(context.Context) taskResult) *jobHandle {
	result := make(chan taskResult, 1)
	if p == nil {
		result <- fn(ctx)
		close(result)
		return &jobHandle{result: result}
	}
	job := jobRequest{ctx: ctx, fn: fn, result: result}
	select {
	case <-p.closed:
		result <- taskResult{err: ErrWorkerPoolClosed}
		close(result)
		return &jobHandle{result: result}
	case <-ctx.Done():
		result <- taskResult{err: ctx.Err()}
		close(result)
		return &jobHandle{result: result}
	default:
	}
	if safeSendJob(p.jobs, job) {
		return &jobHandle{result: result}
	}
	result <- taskResult{err: ErrWorkerPoolClosed}
	close(result)
	return &jobHandle{result: result}
}

func (p *workerPool) Close() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		close(p.closed)
		close(p.jobs)
	})
	p.wg.Wait()
}

// jobHandle is a future over a single dispatched task.
type jobHandle struct {
	result chan taskResult
}

func (h *jobHandle) Wait() taskResult {
	if h == nil || h.result == nil {
		return taskResult{}
	}
	res, ok := <-h.result
	if !ok {
		return taskResult{}
	}
	return res
}

func safeSendJob(ch chan jobRequest, job jobRequest) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	ch <- job
	return true
}
