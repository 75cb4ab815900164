package async

import "sync"

// Dispatcher runs callbacks on the owning context. All manager callbacks
// (result consumer and status listeners) are delivered through it, so a
// Dispatcher implementation must execute callbacks one at a time, in the
// order they were submitted.
type Dispatcher interface {
	Dispatch(fn func())
}

// SerialDispatcher is a Dispatcher backed by a single goroutine draining a
// FIFO queue. It is the in-process stand-in for a UI session's event loop:
// everything dispatched to it runs serialized on one goroutine.
type SerialDispatcher struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once
}

// NewSerialDispatcher creates a dispatcher and starts its worker goroutine.
func NewSerialDispatcher() *SerialDispatcher {
	d := &SerialDispatcher{
		queue: make(chan func(), 64),
		done:  make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *SerialDispatcher) loop() {
	defer close(d.done)
	for fn := range d.queue {
		fn()
	}
}

// Dispatch enqueues fn for execution on the dispatcher goroutine. It must
// not be called after Close.
func (d *SerialDispatcher) Dispatch(fn func()) {
	d.queue <- fn
}

// Invoke runs fn on the dispatcher goroutine and waits for it to return.
// It lets code running outside the owning context read state that is
// confined to it.
func (d *SerialDispatcher) Invoke(fn func()) {
	ran := make(chan struct{})
	d.queue <- func() {
		defer close(ran)
		fn()
	}
	<-ran
}

// Close drains the queue, stops the worker goroutine and waits for it to
// exit. Close is idempotent.
func (d *SerialDispatcher) Close() {
	d.once.Do(func() { close(d.queue) })
	<-d.done
}
