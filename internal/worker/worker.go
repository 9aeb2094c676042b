package worker

import (
	"context"
	"sync"
)

// Task is a unit of background work. Long-running tasks must return once ctx is done.
type Task func(ctx context.Context)

// Pool runs submitted tasks on a fixed number of goroutines.
type Pool interface {
	Submit(Task)
	Stop()
}

// NewPool creates a pool with n workers bound to parent. n<=0 defaults to 1.
// Stop cancels the context handed to every task and waits for them to return.
func NewPool(parent context.Context, n int) Pool {
	if n <= 0 {
		n = 1
	}
	ctx, cancel := context.WithCancel(parent)
	p := &pool{jobs: make(chan Task, n), ctx: ctx, cancel: cancel}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				if job != nil {
					job(p.ctx)
				}
			}
		}()
	}
	return p
}

type pool struct {
	jobs   chan Task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func (p *pool) Submit(t Task) {
	p.jobs <- t
}

func (p *pool) Stop() {
	p.once.Do(func() {
		p.cancel()
		close(p.jobs)
	})
	p.wg.Wait()
}
