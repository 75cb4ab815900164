// Package monitor wires the session registry, the background reloader, the
// audit store, metrics and alerting into one service.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/perbu/sessmon/internal/alert"
	"github.com/perbu/sessmon/internal/async"
	"github.com/perbu/sessmon/internal/config"
	"github.com/perbu/sessmon/internal/metrics"
	"github.com/perbu/sessmon/internal/session"
	"github.com/perbu/sessmon/internal/store"
)

// loadKind is the audit-store label for session list reloads.
const loadKind = "session-load"

// Monitor owns the single-threaded dispatcher the provider is confined to.
// Everything that reads or writes the item list goes through it; HTTP
// handlers and tickers only ever hand work to the dispatcher.
type Monitor struct {
	cfg        *config.Config
	registry   *session.Registry
	provider   *session.Provider
	dispatcher *async.SerialDispatcher
	pool       *async.Pool
	store      *store.Store
	collector  *metrics.Collector
	notifier   *alert.Notifier
}

// New creates a Monitor. store, collector and notifier may be nil; the
// corresponding wiring is skipped.
func New(cfg *config.Config, st *store.Store, collector *metrics.Collector, notifier *alert.Notifier) (*Monitor, error) {
	dispatcher := async.NewSerialDispatcher()
	pool := async.NewPool(cfg.GetWorkers())
	registry := session.NewRegistry()

	prov, err := session.NewProvider(registry, nil, pool, dispatcher, cfg.GetLoaderTimeout())
	if err != nil {
		pool.Close()
		dispatcher.Close()
		return nil, err
	}

	m := &Monitor{
		cfg:        cfg,
		registry:   registry,
		provider:   prov,
		dispatcher: dispatcher,
		pool:       pool,
		store:      st,
		collector:  collector,
		notifier:   notifier,
	}
	prov.OnStatus(m.observe)
	return m, nil
}

// Touch records a request for a session id, creating it on first sight.
// Safe to call from any goroutine.
func (m *Monitor) Touch(id, remoteAddr, userAgent string) {
	m.registry.Touch(id, remoteAddr, userAgent)
	if m.collector != nil {
		m.collector.SetActiveSessions(m.registry.Len())
	}
}

// Reload starts a background reload of the session list.
func (m *Monitor) Reload() (int64, error) {
	return m.provider.Reload()
}

// CancelReload cancels the outstanding reload, if any.
func (m *Monitor) CancelReload() int64 {
	return m.provider.Cancel()
}

// Current returns the id of the outstanding reload, or 0 when idle.
func (m *Monitor) Current() int64 {
	return m.provider.Current()
}

// Sessions returns the currently published session list. The read happens
// on the owning context, so this is safe from any goroutine.
func (m *Monitor) Sessions() []session.Info {
	var out []session.Info
	m.dispatcher.Invoke(func() { out = m.provider.Items() })
	return out
}

// OnRefresh registers a callback fired after every published list change.
// Must be called before Run.
func (m *Monitor) OnRefresh(fn func()) {
	m.dispatcher.Invoke(func() { m.provider.OnRefresh(fn) })
}

// Run drives periodic reloads and session sweeps until ctx is canceled,
// then shuts the worker pool and dispatcher down.
func (m *Monitor) Run(ctx context.Context) error {
	ttl := m.cfg.GetSessionTTL()
	sweepEvery := ttl / 2
	if sweepEvery > time.Minute {
		sweepEvery = time.Minute
	}
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}
	sweep := time.NewTicker(sweepEvery)
	defer sweep.Stop()

	var reloadC <-chan time.Time
	if interval := m.cfg.GetReloadInterval(); interval > 0 {
		reload := time.NewTicker(interval)
		defer reload.Stop()
		reloadC = reload.C
	}

	if _, err := m.Reload(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			m.provider.Cancel()
			m.pool.Close()
			m.dispatcher.Close()
			return nil
		case <-reloadC:
			if _, err := m.Reload(); err != nil {
				slog.Error("failed to start reload", "error", err)
			}
		case <-sweep.C:
			if dropped := m.registry.Sweep(ttl); dropped > 0 {
				slog.Debug("swept idle sessions", "dropped", dropped)
			}
			if m.collector != nil {
				m.collector.SetActiveSessions(m.registry.Len())
			}
		}
	}
}

// observe runs on the owning context for every load lifecycle event.
func (m *Monitor) observe(st async.Status) {
	slog.Debug("load status", "task", st.ID, "state", st.State.String(), "error", st.Err)

	if m.collector != nil {
		m.collector.Observe(st)
	}
	if m.notifier != nil {
		m.notifier.Observe(st)
	}
	if m.store == nil {
		return
	}

	now := time.Now()
	switch st.State {
	case async.StateRunning:
		if err := m.store.MarkSuperseded(st.ID, now); err != nil {
			slog.Error("failed to mark superseded runs", "error", err)
		}
		if err := m.store.RecordStart(st.ID, loadKind, now); err != nil {
			slog.Error("failed to record run start", "task", st.ID, "error", err)
		}
	case async.StateSucceeded, async.StateFailed, async.StateCanceled:
		errMsg := ""
		if st.Err != nil {
			errMsg = st.Err.Error()
		}
		count := -1
		if st.State == async.StateSucceeded {
			count = m.provider.Len()
		}
		if err := m.store.RecordFinish(st.ID, st.State.String(), now, errMsg, count); err != nil {
			slog.Error("failed to record run finish", "task", st.ID, "error", err)
		}
	}
}
