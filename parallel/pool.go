// Package parallel runs independent tasks on a fixed set of goroutines.
package parallel

import (
	"errors"
	"runtime"
	"sync"
)

type Task func() error

type Pool struct {
	wg      sync.WaitGroup
	work    chan Task
	workers int
	stop    func()

	mu   sync.Mutex
	errs []error
}

// Start launches numWorkers goroutines, or GOMAXPROCS of them when
// numWorkers < 1. A single worker pool runs every task inline in Go.
func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	pool := &Pool{
		workers: numWorkers,
		stop:    func() {},
	}

	if numWorkers > 1 {
		pool.work = make(chan Task, numWorkers)

		for range numWorkers {
			pool.wg.Go(func() {
				for task := range pool.work {
					pool.run(task)
				}
			})
		}

		pool.stop = sync.OnceFunc(func() { close(pool.work) })
	}

	return pool
}

func (p *Pool) Workers() int {
	return p.workers
}

// Go queues task, blocking while every worker is busy and the queue is full.
// It must not be called after Wait.
func (p *Pool) Go(task Task) {
	if p.work == nil {
		p.run(task)
		return
	}
	p.work <- task
}

// Wait stops accepting tasks, waits for the queued ones to finish and returns
// their errors joined together.
func (p *Pool) Wait() error {
	p.stop()
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Join(p.errs...)
}

func (p *Pool) run(task Task) {
	if err := task(); err != nil {
		p.mu.Lock()
		p.errs = append(p.errs, err)
		p.mu.Unlock()
	}
}
