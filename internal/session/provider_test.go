package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/perbu/sessmon/internal/async"
)

func newTestSessionProvider(t *testing.T, reg *Registry, mapFn MapFunc) (*Provider, *async.SerialDispatcher) {
	t.Helper()

	d := async.NewSerialDispatcher()
	t.Cleanup(d.Close)

	p, err := NewProvider(reg, mapFn, async.GoExecutor{}, d, 0)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	return p, d
}

// seedRegistry creates sessions with controlled creation times.
func seedRegistry(t *testing.T, ids []string, times []time.Time) *Registry {
	t.Helper()
	if len(ids) != len(times) {
		t.Fatal("ids and times must have equal length")
	}

	r := NewRegistry()
	for i, id := range ids {
		at := times[i]
		r.now = func() time.Time { return at }
		r.Touch(id, "", "")
	}
	r.now = time.Now
	return r
}

func collectInfos(t *testing.T, p *Provider) []Info {
	t.Helper()

	infos, err := p.load(context.Background(), 1)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	var out []Info
	for info := range infos {
		out = append(out, info)
	}
	return out
}

func TestProviderLoadSortsNewestFirst(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	reg := seedRegistry(t,
		[]string{"mid", "old", "new"},
		[]time.Time{base.Add(time.Minute), base, base.Add(2 * time.Minute)},
	)
	p, _ := newTestSessionProvider(t, reg, nil)

	got := collectInfos(t, p)
	want := []string{"new", "mid", "old"}
	if len(got) != len(want) {
		t.Fatalf("load() returned %d sessions, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: got %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestProviderLoadTieBreaksOnID(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	reg := seedRegistry(t,
		[]string{"charlie", "alpha", "bravo"},
		[]time.Time{at, at, at},
	)
	p, _ := newTestSessionProvider(t, reg, nil)

	got := collectInfos(t, p)
	want := []string{"alpha", "bravo", "charlie"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: got %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestProviderLoadOmitsNilMappings(t *testing.T) {
	reg := NewRegistry()
	reg.Touch("keep", "", "")
	reg.Touch("drop", "", "")

	mapFn := func(info Info) *Info {
		if info.ID == "drop" {
			return nil
		}
		return &info
	}
	p, _ := newTestSessionProvider(t, reg, mapFn)

	got := collectInfos(t, p)
	if len(got) != 1 || got[0].ID != "keep" {
		t.Errorf("load() = %v, want just the %q session", got, "keep")
	}
}

func TestProviderLoadStopsOnCancellation(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"a", "b", "c"} {
		reg.Touch(id, "", "")
	}
	p, _ := newTestSessionProvider(t, reg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.load(ctx, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("load() error = %v, want context.Canceled", err)
	}
}

func TestProviderReloadEndToEnd(t *testing.T) {
	reg := NewRegistry()
	reg.Touch("s1", "10.0.0.1:1", "ua")
	p, d := newTestSessionProvider(t, reg, nil)

	refreshed := make(chan struct{}, 1)
	p.OnRefresh(func() { refreshed <- struct{}{} })

	if _, err := p.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	select {
	case <-refreshed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refresh")
	}

	var infos []Info
	d.Invoke(func() { infos = p.Items() })
	if len(infos) != 1 || infos[0].ID != "s1" {
		t.Errorf("Items() = %v, want one session s1", infos)
	}
}
