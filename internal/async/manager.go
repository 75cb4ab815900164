// Package async coordinates single-flight background work: at most one task
// is logically active per Manager, stale completions are discarded, and all
// callbacks are delivered on an injected owning context.
package async

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// TaskFunc is a task body. It runs on an executor worker; ctx is canceled
// when the task is superseded or canceled, and a responsive body should
// return ctx.Err() promptly when that happens. Returning an error that
// matches context.Canceled marks the task canceled rather than failed.
type TaskFunc[R any] func(ctx context.Context, id int64) (R, error)

// ResultConsumer receives the result of a task that succeeded while still
// current. It is invoked on the owning context.
type ResultConsumer[R any] func(id int64, result R)

// Manager runs at most one background task at a time. Task ids increase
// strictly monotonically and id 0 means "no task". Starting a task while an
// earlier one is outstanding supersedes the earlier one: its context is
// canceled and its eventual completion is discarded without any callback.
//
// All mutable state lives in a single mutex-guarded slot (current id plus
// cancel handle). A completing worker re-checks its id against the slot
// before anything is delivered, so an older task can never overwrite a
// newer task's outcome.
type Manager[R any] struct {
	exec     Executor
	dispatch Dispatcher
	consumer ResultConsumer[R]

	mu        sync.Mutex
	nextID    int64
	currentID int64
	cancel    context.CancelFunc
	listeners []StatusListener
}

// New creates a Manager. All three dependencies are required up front so a
// task can never be started against a half-configured manager.
func New[R any](exec Executor, dispatch Dispatcher, consumer ResultConsumer[R]) (*Manager[R], error) {
	if exec == nil {
		return nil, errors.New("async: executor is required")
	}
	if dispatch == nil {
		return nil, errors.New("async: dispatcher is required")
	}
	if consumer == nil {
		return nil, errors.New("async: result consumer is required")
	}
	return &Manager[R]{exec: exec, dispatch: dispatch, consumer: consumer}, nil
}

// OnStatus registers a lifecycle listener. Listeners are invoked on the
// owning context for every started/succeeded/failed/canceled transition.
func (m *Manager[R]) OnStatus(l StatusListener) {
	if l == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Start allocates the next task id, marks it current and submits body to
// the executor. Any outstanding task is superseded: its context is canceled
// and its completion will be dropped. The returned id is strictly greater
// than every id returned before.
func (m *Manager[R]) Start(body TaskFunc[R]) int64 {
	if body == nil {
		panic("async: Start called with nil task body")
	}
	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.nextID++
	id := m.nextID
	m.currentID = id
	m.cancel = cancel
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	m.notify(listeners, Status{ID: id, State: StateRunning})
	m.exec.Go(func() { m.run(ctx, id, body) })
	return id
}

// Cancel cancels the outstanding task, if any, and returns its id, or 0
// when the manager is idle. The canceled task's eventual completion is
// discarded; a single canceled event is delivered on the owning context.
// Cancel is idempotent.
func (m *Manager[R]) Cancel() int64 {
	m.mu.Lock()
	id := m.currentID
	if id == 0 {
		m.mu.Unlock()
		return 0
	}
	m.cancel()
	m.cancel = nil
	m.currentID = 0
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	m.notify(listeners, Status{ID: id, State: StateCanceled})
	return id
}

// Current returns the id of the outstanding task, or 0 when idle.
func (m *Manager[R]) Current() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentID
}

// run executes the task body on the worker and hands its outcome back to
// the owning context. A panic in the body becomes a failed outcome instead
// of crossing goroutine boundaries.
func (m *Manager[R]) run(ctx context.Context, id int64, body TaskFunc[R]) {
	var (
		result R
		err    error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task %d panicked: %v", id, r)
			}
		}()
		result, err = body(ctx, id)
	}()
	m.dispatch.Dispatch(func() { m.finish(id, result, err) })
}

// finish runs on the owning context. The id check and slot clear happen
// under the same mutex Start and Cancel use, which is what makes stale
// completions impossible to deliver.
func (m *Manager[R]) finish(id int64, result R, err error) {
	m.mu.Lock()
	if id != m.currentID {
		// Superseded or canceled while running: outcome discarded.
		m.mu.Unlock()
		return
	}
	m.currentID = 0
	m.cancel = nil
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	switch {
	case err == nil:
		m.consumer(id, result)
		m.fire(listeners, Status{ID: id, State: StateSucceeded})
	case errors.Is(err, context.Canceled):
		m.fire(listeners, Status{ID: id, State: StateCanceled})
	default:
		m.fire(listeners, Status{ID: id, State: StateFailed, Err: err})
	}
}

// notify delivers a status event via the dispatcher; fire delivers it
// directly and may only be called on the owning context.
func (m *Manager[R]) notify(listeners []StatusListener, st Status) {
	if len(listeners) == 0 {
		return
	}
	m.dispatch.Dispatch(func() { m.fire(listeners, st) })
}

func (m *Manager[R]) fire(listeners []StatusListener, st Status) {
	for _, l := range listeners {
		l(st)
	}
}
