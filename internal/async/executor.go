package async

import "sync"

// Executor runs task bodies asynchronously. The manager hands it fully
// wrapped units of work; cancellation is signalled through the task's
// context, never through the executor.
type Executor interface {
	Go(fn func())
}

// GoExecutor runs every unit of work on its own goroutine.
type GoExecutor struct{}

// Go starts fn on a new goroutine.
func (GoExecutor) Go(fn func()) {
	go fn()
}

// Pool is an Executor backed by a fixed number of worker goroutines.
// Submitted work queues up when all workers are busy.
type Pool struct {
	work chan func()
	wg   sync.WaitGroup
	once sync.Once
}

// NewPool creates a pool with n workers. n must be at least 1.
func NewPool(n int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{work: make(chan func(), n)}
	p.wg.Add(n)
	for range n {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for fn := range p.work {
		fn()
	}
}

// Go enqueues fn for execution by a pool worker. It must not be called
// after Close.
func (p *Pool) Go(fn func()) {
	p.work <- fn
}

// Close stops accepting work, lets queued work finish and waits for all
// workers to exit. Close is idempotent.
func (p *Pool) Close() {
	p.once.Do(func() { close(p.work) })
	p.wg.Wait()
}
