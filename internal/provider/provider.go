// Package provider exposes a list-backed data source whose contents are
// (re)populated by single-flight background loads.
package provider

import (
	"context"
	"errors"
	"iter"
	"slices"

	"github.com/perbu/sessmon/internal/async"
)

// Loader produces the full replacement contents for a provider. It runs on
// an executor worker; the returned sequence is consumed later on the owning
// context, so a loader whose data source is not safe to touch from other
// goroutines must materialize the elements before returning (for example
// via slices.Values over a fresh slice).
type Loader[T any] func(ctx context.Context, id int64) (iter.Seq[T], error)

// ErrNilLoader is returned by Load when called with a nil loader.
var ErrNilLoader = errors.New("provider: nil loader")

var errNilSequence = errors.New("provider: loader returned a nil sequence")

// Provider holds an ordered, in-memory item list and reloads it through one
// async.Manager. The list is confined to the owning context: Items, Replace,
// Append, Clear and all listener callbacks must run there, which removes any
// need to lock the list itself.
type Provider[T any] struct {
	mgr     *async.Manager[iter.Seq[T]]
	items   []T
	refresh []func()
}

// New creates a provider whose loads run on exec and whose callbacks are
// delivered through dispatch.
func New[T any](exec async.Executor, dispatch async.Dispatcher) (*Provider[T], error) {
	p := &Provider[T]{}
	mgr, err := async.New(exec, dispatch, p.updateFromLoad)
	if err != nil {
		return nil, err
	}
	p.mgr = mgr
	return p, nil
}

// Load starts a background load and returns its task id. Any outstanding
// load is superseded. A loader that returns a nil sequence produces a
// failed outcome, not a crash, and leaves the item list untouched.
func (p *Provider[T]) Load(loader Loader[T]) (int64, error) {
	if loader == nil {
		return 0, ErrNilLoader
	}
	id := p.mgr.Start(func(ctx context.Context, id int64) (iter.Seq[T], error) {
		seq, err := loader(ctx, id)
		if err != nil {
			return nil, err
		}
		if seq == nil {
			return nil, errNilSequence
		}
		return seq, nil
	})
	return id, nil
}

// Cancel cancels the outstanding load, if any, and returns its id or 0.
func (p *Provider[T]) Cancel() int64 {
	return p.mgr.Cancel()
}

// Current returns the id of the outstanding load, or 0 when idle.
func (p *Provider[T]) Current() int64 {
	return p.mgr.Current()
}

// OnStatus registers a load lifecycle listener.
func (p *Provider[T]) OnStatus(l async.StatusListener) {
	p.mgr.OnStatus(l)
}

// OnRefresh registers a callback fired on the owning context after every
// full list change.
func (p *Provider[T]) OnRefresh(fn func()) {
	if fn == nil {
		return
	}
	p.refresh = append(p.refresh, fn)
}

// Items returns a copy of the current item list.
func (p *Provider[T]) Items() []T {
	return slices.Clone(p.items)
}

// Len returns the current number of items.
func (p *Provider[T]) Len() int {
	return len(p.items)
}

// Replace swaps the whole item list and fires a refresh.
func (p *Provider[T]) Replace(items []T) {
	p.items = slices.Clone(items)
	p.fireRefresh()
}

// Append adds items to the end of the list and fires a refresh.
func (p *Provider[T]) Append(items ...T) {
	p.items = append(p.items, items...)
	p.fireRefresh()
}

// Clear empties the list and fires a refresh.
func (p *Provider[T]) Clear() {
	p.items = nil
	p.fireRefresh()
}

// updateFromLoad is the manager's result consumer. The sequence is fully
// collected before the list is swapped, so observers never see a partially
// replaced list; the refresh fires exactly once per successful load.
func (p *Provider[T]) updateFromLoad(id int64, seq iter.Seq[T]) {
	items := make([]T, 0, len(p.items))
	for v := range seq {
		items = append(items, v)
	}
	p.items = items
	p.fireRefresh()
}

func (p *Provider[T]) fireRefresh() {
	for _, fn := range p.refresh {
		fn()
	}
}
