package session

import (
	"context"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/perbu/sessmon/internal/async"
	"github.com/perbu/sessmon/internal/provider"
)

// MapFunc turns a session snapshot into the record the provider publishes.
// Returning nil omits the session from the list without aborting the load.
type MapFunc func(Info) *Info

// Provider reloads the registry's session list in the background. The
// loader checks for cancellation before every session so a long enumeration
// stops promptly, and it materializes the whole result on the worker: the
// returned sequence never touches the registry again.
type Provider struct {
	*provider.Provider[Info]
	registry *Registry
	mapFn    MapFunc
	timeout  time.Duration
}

// NewProvider creates a session provider. mapFn may be nil, in which case
// every session is published unchanged. timeout bounds a single load; zero
// means no bound.
func NewProvider(reg *Registry, mapFn MapFunc, exec async.Executor, dispatch async.Dispatcher, timeout time.Duration) (*Provider, error) {
	base, err := provider.New[Info](exec, dispatch)
	if err != nil {
		return nil, err
	}
	if mapFn == nil {
		mapFn = func(info Info) *Info { return &info }
	}
	return &Provider{
		Provider: base,
		registry: reg,
		mapFn:    mapFn,
		timeout:  timeout,
	}, nil
}

// Reload starts a background reload of the session list and returns the
// task id.
func (p *Provider) Reload() (int64, error) {
	return p.Load(p.load)
}

func (p *Provider) load(ctx context.Context, id int64) (iter.Seq[Info], error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	sessions := p.registry.Snapshot()

	// Newest sessions first; the id is a stable tie-break.
	slices.SortFunc(sessions, func(a, b *Session) int {
		if c := b.CreatedAt().Compare(a.CreatedAt()); c != 0 {
			return c
		}
		return strings.Compare(a.ID(), b.ID())
	})

	now := time.Now()
	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if info := p.mapFn(s.snapshot(now)); info != nil {
			infos = append(infos, *info)
		}
	}
	return slices.Values(infos), nil
}
